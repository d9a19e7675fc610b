package paper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"arbsim/internal/domain"
)

func TestRecompute_Empty(t *testing.T) {
	snap := Recompute(nil)
	assert.Zero(t, snap.TotalPnL)
	assert.Zero(t, snap.TradesExecuted)
	assert.Zero(t, snap.SuccessRate)
	assert.True(t, snap.LastUpdated.IsZero())
}

func TestRecompute_MixedOutcomes(t *testing.T) {
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	trades := []domain.Trade{
		{Symbol: "AAPL", Profit: 0.15, Status: domain.TradeSuccess, Timestamp: base},
		{Symbol: "TSLA", Profit: 0, Status: domain.TradeFailed, Timestamp: base.Add(time.Minute)},
		{Symbol: "NVDA", Profit: -0.02, Status: domain.TradeSuccess, Timestamp: base.Add(2 * time.Minute)},
		{Symbol: "MSFT", Profit: 0.07, Status: domain.TradeSuccess, Timestamp: base.Add(3 * time.Minute)},
	}

	snap := Recompute(trades)
	assert.InDelta(t, 0.20, snap.TotalPnL, 1e-9)
	assert.Equal(t, int64(4), snap.TradesExecuted)
	assert.InDelta(t, 0.75, snap.SuccessRate, 1e-12)
	assert.Equal(t, base.Add(3*time.Minute), snap.LastUpdated)
}

func TestRecompute_OrderIndependent(t *testing.T) {
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	trades := []domain.Trade{
		{Profit: 0.10, Status: domain.TradeSuccess, Timestamp: base.Add(time.Hour)},
		{Profit: 0, Status: domain.TradeFailed, Timestamp: base},
		{Profit: 0.05, Status: domain.TradeSuccess, Timestamp: base.Add(30 * time.Minute)},
	}
	reversed := []domain.Trade{trades[2], trades[1], trades[0]}

	a := Recompute(trades)
	b := Recompute(reversed)
	assert.InDelta(t, a.TotalPnL, b.TotalPnL, 1e-12)
	assert.Equal(t, a.TradesExecuted, b.TradesExecuted)
	assert.Equal(t, a.SuccessRate, b.SuccessRate)
	assert.Equal(t, a.LastUpdated, b.LastUpdated)
}

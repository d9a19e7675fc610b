package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbsim/internal/domain"
)

func TestRank_DescendingProfitWithSymbolTieBreak(t *testing.T) {
	opps := []domain.Opportunity{
		{Symbol: "MSFT", ProfitBps: 8.2},
		{Symbol: "TSLA", ProfitBps: 21.7},
		{Symbol: "GOOGL", ProfitBps: 8.2},
		{Symbol: "AAPL", ProfitBps: 15.0},
	}

	ranked := Rank(opps)
	require.Len(t, ranked, 4)

	assert.Equal(t, "TSLA", ranked[0].Symbol)
	assert.Equal(t, "AAPL", ranked[1].Symbol)
	// 8.2 bps tie resolves lexically.
	assert.Equal(t, "GOOGL", ranked[2].Symbol)
	assert.Equal(t, "MSFT", ranked[3].Symbol)
}

func TestRank_Idempotent(t *testing.T) {
	opps := []domain.Opportunity{
		{Symbol: "AMD", ProfitBps: 3.1},
		{Symbol: "CRM", ProfitBps: 12.9},
		{Symbol: "NFLX", ProfitBps: 12.9},
	}

	once := Rank(opps)
	twice := Rank(once)
	assert.Equal(t, once, twice)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	opps := []domain.Opportunity{
		{Symbol: "A", ProfitBps: 1},
		{Symbol: "B", ProfitBps: 2},
	}
	Rank(opps)
	assert.Equal(t, "A", opps[0].Symbol)
	assert.Equal(t, "B", opps[1].Symbol)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}

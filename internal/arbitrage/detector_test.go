package arbitrage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbsim/internal/domain"
)

func TestDetect_BestPair(t *testing.T) {
	now := time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)
	prices := []domain.VenuePrice{
		{Venue: "NYSE", Price: 99.90},
		{Venue: "NASDAQ", Price: 100.05},
		{Venue: "BATS", Price: 99.95},
	}

	opp, ok := Detect("AAPL", prices, 5.0, now)
	require.True(t, ok)

	assert.Equal(t, "AAPL", opp.Symbol)
	assert.Equal(t, domain.Venue("NYSE"), opp.BuyVenue)
	assert.Equal(t, domain.Venue("NASDAQ"), opp.SellVenue)
	assert.Equal(t, 99.90, opp.BuyPrice)
	assert.Equal(t, 100.05, opp.SellPrice)
	assert.InDelta(t, 0.15, opp.ProfitPerShare, 1e-9)
	assert.InDelta(t, 15.02, opp.ProfitBps, 0.01)
	assert.Equal(t, now, opp.Timestamp)
	assert.Equal(t, "NYSE -> NASDAQ", opp.StrategyLabel())
}

func TestDetect_TieBreakByPriorityOrder(t *testing.T) {
	now := time.Now()
	// NYSE and BATS share the minimum; NASDAQ and BATS would share the
	// maximum if BATS were higher, so pin the max to NASDAQ and check the
	// min tie goes to the first venue in priority order.
	prices := []domain.VenuePrice{
		{Venue: "NYSE", Price: 99.90},
		{Venue: "NASDAQ", Price: 100.10},
		{Venue: "BATS", Price: 99.90},
	}

	opp, ok := Detect("MSFT", prices, 0, now)
	require.True(t, ok)
	assert.Equal(t, domain.Venue("NYSE"), opp.BuyVenue)

	// Max tie: first of the tied venues wins.
	prices = []domain.VenuePrice{
		{Venue: "NYSE", Price: 100.10},
		{Venue: "NASDAQ", Price: 100.10},
		{Venue: "BATS", Price: 99.90},
	}
	opp, ok = Detect("MSFT", prices, 0, now)
	require.True(t, ok)
	assert.Equal(t, domain.Venue("BATS"), opp.BuyVenue)
	assert.Equal(t, domain.Venue("NYSE"), opp.SellVenue)
}

func TestDetect_NoOpportunity(t *testing.T) {
	now := time.Now()

	t.Run("below threshold", func(t *testing.T) {
		prices := []domain.VenuePrice{
			{Venue: "NYSE", Price: 100.00},
			{Venue: "NASDAQ", Price: 100.01},
		}
		// 1 bps spread against a 5 bps threshold.
		_, ok := Detect("AAPL", prices, 5.0, now)
		assert.False(t, ok)
	})

	t.Run("exactly at threshold", func(t *testing.T) {
		// 25/100*10000 = 2500 bps, representable exactly. The spread must
		// strictly exceed the threshold, so equality is discarded.
		prices := []domain.VenuePrice{
			{Venue: "NYSE", Price: 100.00},
			{Venue: "NASDAQ", Price: 125.00},
		}
		_, ok := Detect("AAPL", prices, 2500.0, now)
		assert.False(t, ok)

		// A hair above the threshold publishes.
		_, ok = Detect("AAPL", prices, 2499.9, now)
		assert.True(t, ok)
	})

	t.Run("single venue", func(t *testing.T) {
		prices := []domain.VenuePrice{{Venue: "NYSE", Price: 100.00}}
		_, ok := Detect("AAPL", prices, 0, now)
		assert.False(t, ok)
	})

	t.Run("all prices equal", func(t *testing.T) {
		prices := []domain.VenuePrice{
			{Venue: "NYSE", Price: 100.00},
			{Venue: "NASDAQ", Price: 100.00},
			{Venue: "BATS", Price: 100.00},
		}
		_, ok := Detect("AAPL", prices, 0, now)
		assert.False(t, ok)
	})

	t.Run("empty input", func(t *testing.T) {
		_, ok := Detect("AAPL", nil, 0, now)
		assert.False(t, ok)
	})
}

func TestDetect_ProfitNeverNegative(t *testing.T) {
	now := time.Now()
	cases := [][]domain.VenuePrice{
		{{Venue: "NYSE", Price: 12.34}, {Venue: "NASDAQ", Price: 12.35}},
		{{Venue: "NYSE", Price: 500.01}, {Venue: "NASDAQ", Price: 499.99}, {Venue: "BATS", Price: 500.00}},
	}
	for _, prices := range cases {
		if opp, ok := Detect("X", prices, 0, now); ok {
			assert.GreaterOrEqual(t, opp.ProfitPerShare, 0.0)
			assert.NotEqual(t, opp.BuyVenue, opp.SellVenue)
		}
	}
}

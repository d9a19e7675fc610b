package arbitrage

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbsim/internal/config"
	"arbsim/internal/domain"
)

func testVenues() []config.VenueConfig {
	return []config.VenueConfig{
		{Name: "NYSE", OffsetMin: 0.9985, OffsetMax: 1.0015},
		{Name: "NASDAQ", OffsetMin: 0.9990, OffsetMax: 1.0020},
		{Name: "BATS", OffsetMin: 0.9980, OffsetMax: 1.0010},
	}
}

func TestSynthesize_PricesWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	venues := testVenues()

	for _, ref := range []float64{0.37, 12.50, 100.00, 1894.63} {
		prices, err := Synthesize(ref, venues, rng)
		require.NoError(t, err)
		require.Len(t, prices, len(venues))

		for i, vp := range prices {
			v := venues[i]
			assert.Equal(t, domain.Venue(v.Name), vp.Venue)
			// Half a tick of slack on either side for rounding.
			assert.GreaterOrEqual(t, vp.Price, ref*v.OffsetMin-0.005)
			assert.LessOrEqual(t, vp.Price, ref*v.OffsetMax+0.005)
			assert.InDelta(t, vp.Price, math.Round(vp.Price*100)/100, 1e-9,
				"price must be rounded to the minimum increment")
		}
	}
}

func TestSynthesize_DeterministicForSeed(t *testing.T) {
	venues := testVenues()

	a, err := Synthesize(250.40, venues, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := Synthesize(250.40, venues, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestSynthesize_InvalidInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := Synthesize(0, testVenues(), rng)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = Synthesize(-10.5, testVenues(), rng)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = Synthesize(100.00, nil, rng)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

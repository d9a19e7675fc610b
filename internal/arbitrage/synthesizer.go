// Package arbitrage contains the detection-cycle core: the venue price
// synthesizer, the cross-venue opportunity detector, and the ranker. All
// three are pure given their inputs; randomness is injected so detection is
// reproducible in tests.
package arbitrage

import (
	"fmt"
	"math"
	"math/rand"

	"arbsim/internal/config"
	"arbsim/internal/domain"
)

// Synthesize derives one synthetic price per venue from a reference price.
// Each venue draws an independent multiplicative offset uniformly from its
// configured [OffsetMin, OffsetMax] range; the result is rounded to the
// minimum price increment (2 decimal places for equities).
//
// The returned slice preserves the configured venue order, which is the
// fixed priority order used to break detection ties.
func Synthesize(referencePrice float64, venues []config.VenueConfig, rng *rand.Rand) ([]domain.VenuePrice, error) {
	if referencePrice <= 0 {
		return nil, fmt.Errorf("synthesize: reference price %g: %w", referencePrice, domain.ErrInvalidInput)
	}
	if len(venues) == 0 {
		return nil, fmt.Errorf("synthesize: empty venue set: %w", domain.ErrInvalidInput)
	}

	prices := make([]domain.VenuePrice, 0, len(venues))
	for _, v := range venues {
		offset := v.OffsetMin + rng.Float64()*(v.OffsetMax-v.OffsetMin)
		prices = append(prices, domain.VenuePrice{
			Venue: domain.Venue(v.Name),
			Price: roundTick(referencePrice * offset),
		})
	}
	return prices, nil
}

// roundTick rounds a price to the 0.01 minimum increment.
func roundTick(p float64) float64 {
	return math.Round(p*100) / 100
}

package arbitrage

import (
	"time"

	"arbsim/internal/domain"
)

// Detect computes the best cross-venue buy/sell pair over a set of venue
// prices. The buy venue is the arg-min price and the sell venue the arg-max;
// ties go to the venue that appears first in the slice, which carries the
// configured priority order, so detection is deterministic for a given input.
//
// It returns ok=false (an expected negative, not an error) when fewer than
// two venues were priced, when min and max land on the same venue, or when
// the profit margin does not clear minProfitBps.
func Detect(symbol string, prices []domain.VenuePrice, minProfitBps float64, now time.Time) (domain.Opportunity, bool) {
	if len(prices) < 2 {
		return domain.Opportunity{}, false
	}

	buy, sell := prices[0], prices[0]
	for _, vp := range prices[1:] {
		if vp.Price < buy.Price {
			buy = vp
		}
		if vp.Price > sell.Price {
			sell = vp
		}
	}

	if buy.Venue == sell.Venue {
		return domain.Opportunity{}, false
	}

	profit := sell.Price - buy.Price
	profitBps := profit / buy.Price * 10_000
	if profitBps <= minProfitBps {
		return domain.Opportunity{}, false
	}

	return domain.Opportunity{
		Symbol:         symbol,
		BuyVenue:       buy.Venue,
		SellVenue:      sell.Venue,
		BuyPrice:       buy.Price,
		SellPrice:      sell.Price,
		ProfitPerShare: profit,
		ProfitBps:      profitBps,
		Timestamp:      now,
	}, true
}

package domain

import "time"

// Opportunity is a cross-venue arbitrage candidate for a single symbol.
// By construction BuyVenue holds the minimum venue price and SellVenue the
// maximum, so ProfitPerShare >= 0 and BuyVenue != SellVenue always hold for
// a published opportunity. Only candidates whose ProfitBps clears the
// configured minimum threshold are ever stored.
type Opportunity struct {
	Symbol         string    `json:"symbol"`
	BuyVenue       Venue     `json:"buy_venue"`
	SellVenue      Venue     `json:"sell_venue"`
	BuyPrice       float64   `json:"buy_price"`
	SellPrice      float64   `json:"sell_price"`
	ProfitPerShare float64   `json:"profit_per_share"`
	ProfitBps      float64   `json:"profit_bps"`
	Timestamp      time.Time `json:"timestamp"`
}

// StrategyLabel renders the "<buy> -> <sell>" route label recorded on trades
// executed against this opportunity.
func (o Opportunity) StrategyLabel() string {
	return string(o.BuyVenue) + " -> " + string(o.SellVenue)
}

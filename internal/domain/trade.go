package domain

import "time"

// TradeStatus is the terminal outcome of a paper execution attempt.
type TradeStatus string

const (
	TradeSuccess TradeStatus = "SUCCESS"
	TradeFailed  TradeStatus = "FAILED"
)

// Trade is the record of a single simulated execution attempt. Exactly one
// Trade is produced per attempt and it is immutable thereafter. Profit is 0
// for failed attempts; for successful ones it is the opportunity's nominal
// edge minus slippage and may be zero or slightly negative.
type Trade struct {
	ID        string      `json:"id"`
	Symbol    string      `json:"symbol"`
	Strategy  string      `json:"strategy"`
	Profit    float64     `json:"profit"`
	Timestamp time.Time   `json:"timestamp"`
	Status    TradeStatus `json:"status"`
}

// PerformanceSnapshot is the running aggregate over the all-time trade
// history: sum of profit, count of attempts, and SUCCESS count divided by
// attempt count. It is derived state and must always equal a fold over the
// logical history.
type PerformanceSnapshot struct {
	TotalPnL       float64   `json:"total_pnl"`
	TradesExecuted int64     `json:"trades_executed"`
	SuccessRate    float64   `json:"success_rate"`
	LastUpdated    time.Time `json:"last_updated"`
}

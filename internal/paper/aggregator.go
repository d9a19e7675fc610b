package paper

import "arbsim/internal/domain"

// Recompute folds a trade history into a performance snapshot: sum of
// profit, count of all attempts, and SUCCESS count over attempt count.
// It is pure; applied to the full logical history it must produce the same
// counters the engine maintains incrementally. LastUpdated is the timestamp
// of the most recent trade, or zero for an empty history.
func Recompute(trades []domain.Trade) domain.PerformanceSnapshot {
	var snap domain.PerformanceSnapshot
	var succeeded int64

	for _, t := range trades {
		snap.TotalPnL += t.Profit
		snap.TradesExecuted++
		if t.Status == domain.TradeSuccess {
			succeeded++
		}
		if t.Timestamp.After(snap.LastUpdated) {
			snap.LastUpdated = t.Timestamp
		}
	}
	if snap.TradesExecuted > 0 {
		snap.SuccessRate = float64(succeeded) / float64(snap.TradesExecuted)
	}
	return snap
}

package arbitrage

import (
	"sort"

	"arbsim/internal/domain"
)

// Rank orders opportunities by descending profit margin, breaking ties by
// symbol so the ordering is reproducible. The input is not mutated; a new
// slice is returned. Ranking an already-ranked sequence is a no-op.
func Rank(opps []domain.Opportunity) []domain.Opportunity {
	ranked := make([]domain.Opportunity, len(opps))
	copy(ranked, opps)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ProfitBps != ranked[j].ProfitBps {
			return ranked[i].ProfitBps > ranked[j].ProfitBps
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})
	return ranked
}

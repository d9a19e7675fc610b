package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"arbsim/internal/arbitrage"
	"arbsim/internal/domain"
)

// OpportunityHandler serves opportunity-related HTTP endpoints.
type OpportunityHandler struct {
	opps    domain.OpportunityCache
	symbols []string
	logger  *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler over the configured
// symbol set.
func NewOpportunityHandler(opps domain.OpportunityCache, symbols []string, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		opps:    opps,
		symbols: symbols,
		logger:  logger,
	}
}

// listOpportunitiesResponse wraps the list endpoint output.
type listOpportunitiesResponse struct {
	Opportunities []domain.Opportunity `json:"opportunities"`
}

// ListOpportunities returns the currently published opportunities across all
// tracked symbols, best first. Reading does not claim them.
// GET /api/opportunities
func (h *OpportunityHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	opps, err := h.opps.GetAll(r.Context(), h.symbols)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}

	writeJSON(w, http.StatusOK, listOpportunitiesResponse{
		Opportunities: arbitrage.Rank(opps),
	})
}

// GetOpportunity returns the published opportunity for a single symbol.
// GET /api/opportunities/{symbol}
func (h *OpportunityHandler) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "missing symbol")
		return
	}

	opp, err := h.opps.Get(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no opportunity for symbol")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get opportunity failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get opportunity")
		return
	}

	writeJSON(w, http.StatusOK, opp)
}

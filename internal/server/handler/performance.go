package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"arbsim/internal/domain"
)

// PerformanceHandler serves the aggregate performance endpoint.
type PerformanceHandler struct {
	perf   domain.PerformanceStore
	logger *slog.Logger
}

// NewPerformanceHandler creates a PerformanceHandler.
func NewPerformanceHandler(perf domain.PerformanceStore, logger *slog.Logger) *PerformanceHandler {
	return &PerformanceHandler{
		perf:   perf,
		logger: logger,
	}
}

// GetPerformance returns the current aggregate performance snapshot. Before
// any trade has executed it returns the zero snapshot rather than a 404.
// GET /api/performance
func (h *PerformanceHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	snap, err := h.perf.Get(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, domain.PerformanceSnapshot{})
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get performance failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get performance")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

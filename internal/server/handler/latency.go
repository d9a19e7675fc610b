package handler

import (
	"log/slog"
	"net/http"

	"arbsim/internal/domain"
)

// LatencyHandler serves the venue latency endpoint.
type LatencyHandler struct {
	cache  domain.LatencyCache
	venues []domain.Venue
	logger *slog.Logger
}

// NewLatencyHandler creates a LatencyHandler over the configured venues.
func NewLatencyHandler(cache domain.LatencyCache, venues []domain.Venue, logger *slog.Logger) *LatencyHandler {
	return &LatencyHandler{
		cache:  cache,
		venues: venues,
		logger: logger,
	}
}

// listLatenciesResponse wraps the list endpoint output.
type listLatenciesResponse struct {
	Latencies []domain.Latency `json:"latencies"`
}

// ListLatencies returns the freshest latency sample per venue. Venues
// without a fresh sample are omitted.
// GET /api/latency
func (h *LatencyHandler) ListLatencies(w http.ResponseWriter, r *http.Request) {
	samples, err := h.cache.GetAll(r.Context(), h.venues)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list latencies failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list latencies")
		return
	}

	writeJSON(w, http.StatusOK, listLatenciesResponse{Latencies: samples})
}

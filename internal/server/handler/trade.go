package handler

import (
	"context"
	"log/slog"
	"net/http"

	"arbsim/internal/domain"
)

// TradeArchiveReader is the read access the trade handler needs from the
// durable archive. Nil means no archive is configured.
type TradeArchiveReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Trade, error)
}

// TradeHandler serves trade-history HTTP endpoints.
type TradeHandler struct {
	history domain.TradeHistory
	archive TradeArchiveReader
	logger  *slog.Logger
}

// NewTradeHandler creates a TradeHandler. archive may be nil.
func NewTradeHandler(history domain.TradeHistory, archive TradeArchiveReader, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{
		history: history,
		archive: archive,
		logger:  logger,
	}
}

// listTradesResponse wraps the list endpoint output.
type listTradesResponse struct {
	Trades []domain.Trade `json:"trades"`
	Total  int64          `json:"total"`
}

// ListTrades returns the recent trade window, newest first.
// GET /api/trades?limit=50
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50, 100)

	trades, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list trades failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}

	total, err := h.history.Len(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: trade count failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count trades")
		return
	}

	writeJSON(w, http.StatusOK, listTradesResponse{Trades: trades, Total: total})
}

// ListArchivedTrades returns recent rows from the durable archive, which
// reaches further back than the display window.
// GET /api/trades/archive?limit=100
func (h *TradeHandler) ListArchivedTrades(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusNotFound, "trade archive not configured")
		return
	}

	limit := parseLimit(r, 100, 1000)

	trades, err := h.archive.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list archived trades failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list archived trades")
		return
	}

	writeJSON(w, http.StatusOK, listTradesResponse{Trades: trades, Total: int64(len(trades))})
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"arbsim/internal/domain"
)

// QuoteHandler serves quote-related HTTP endpoints.
type QuoteHandler struct {
	quotes  domain.QuoteCache
	symbols []string
	logger  *slog.Logger
}

// NewQuoteHandler creates a QuoteHandler over the configured symbol set.
func NewQuoteHandler(quotes domain.QuoteCache, symbols []string, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{
		quotes:  quotes,
		symbols: symbols,
		logger:  logger,
	}
}

// listQuotesResponse wraps the list endpoint output.
type listQuotesResponse struct {
	Quotes []domain.Quote `json:"quotes"`
}

// ListQuotes returns the latest quote for every tracked symbol. Symbols
// whose quote has expired are omitted.
// GET /api/quotes
func (h *QuoteHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes := make([]domain.Quote, 0, len(h.symbols))
	for _, symbol := range h.symbols {
		quote, err := h.quotes.GetQuote(r.Context(), symbol)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			h.logger.ErrorContext(r.Context(), "handler: get quote failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to list quotes")
			return
		}
		quotes = append(quotes, quote)
	}

	writeJSON(w, http.StatusOK, listQuotesResponse{Quotes: quotes})
}

// GetQuote returns the latest quote for a single symbol.
// GET /api/quotes/{symbol}
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "missing symbol")
		return
	}

	quote, err := h.quotes.GetQuote(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "quote not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get quote failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get quote")
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

// GetHistory returns recent quotes for a symbol, newest first.
// GET /api/quotes/{symbol}/history?limit=50
func (h *QuoteHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "missing symbol")
		return
	}

	limit := parseLimit(r, 50, 100)

	quotes, err := h.quotes.History(r.Context(), symbol, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: quote history failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get quote history")
		return
	}

	writeJSON(w, http.StatusOK, listQuotesResponse{Quotes: quotes})
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"arbsim/internal/domain"
)

// QuoteCache implements domain.QuoteCache using Redis strings and lists.
//
// Key schema:
//
//	quote:{symbol}   - JSON-serialized Quote with a TTL
//	history:{symbol} - list of JSON-serialized Quotes, newest first, capped
type QuoteCache struct {
	rdb        *redis.Client
	ttl        time.Duration
	historyCap int
}

// NewQuoteCache creates a QuoteCache backed by the given Client. ttl bounds
// the freshness of the latest quote; historyCap bounds the per-symbol list.
func NewQuoteCache(c *Client, ttl time.Duration, historyCap int) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying(), ttl: ttl, historyCap: historyCap}
}

func quoteKey(symbol string) string   { return "quote:" + symbol }
func historyKey(symbol string) string { return "history:" + symbol }

// SetQuote stores the latest quote for its symbol and appends it to the
// symbol's bounded history list in one transaction.
func (qc *QuoteCache) SetQuote(ctx context.Context, quote domain.Quote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("redis: marshal quote %s: %w", quote.Symbol, err)
	}

	pipe := qc.rdb.TxPipeline()
	pipe.Set(ctx, quoteKey(quote.Symbol), data, qc.ttl)
	pipe.LPush(ctx, historyKey(quote.Symbol), data)
	pipe.LTrim(ctx, historyKey(quote.Symbol), 0, int64(qc.historyCap-1))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", quote.Symbol, err)
	}
	return nil
}

// GetQuote retrieves the latest quote for a symbol.
// It returns domain.ErrNotFound when the key does not exist or has expired.
func (qc *QuoteCache) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	data, err := qc.rdb.Get(ctx, quoteKey(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Quote{}, domain.ErrNotFound
		}
		return domain.Quote{}, fmt.Errorf("redis: get quote %s: %w", symbol, err)
	}

	var quote domain.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return domain.Quote{}, fmt.Errorf("redis: unmarshal quote %s: %w", symbol, err)
	}
	return quote, nil
}

// History retrieves up to limit recent quotes for a symbol, newest first.
// A limit <= 0 returns the full retained window. Entries that fail to decode
// are skipped.
func (qc *QuoteCache) History(ctx context.Context, symbol string, limit int) ([]domain.Quote, error) {
	stop := int64(limit - 1)
	if limit <= 0 {
		stop = -1
	}

	raw, err := qc.rdb.LRange(ctx, historyKey(symbol), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: quote history %s: %w", symbol, err)
	}

	quotes := make([]domain.Quote, 0, len(raw))
	for _, item := range raw {
		var quote domain.Quote
		if err := json.Unmarshal([]byte(item), &quote); err != nil {
			continue
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)

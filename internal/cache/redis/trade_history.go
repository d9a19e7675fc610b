package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"arbsim/internal/domain"
)

// tradeHistoryKey holds the shared retention window of executed trades as a
// list of JSON records, newest first.
const tradeHistoryKey = "executed_trades"

// TradeHistory implements domain.TradeHistory using a capped Redis list.
type TradeHistory struct {
	rdb *redis.Client
}

// NewTradeHistory creates a TradeHistory backed by the given Client.
func NewTradeHistory(c *Client) *TradeHistory {
	return &TradeHistory{rdb: c.Underlying()}
}

// Push prepends a trade record and trims the list to cap entries, evicting
// the oldest, in one transaction.
func (th *TradeHistory) Push(ctx context.Context, trade domain.Trade, cap int) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("redis: marshal trade %s: %w", trade.ID, err)
	}

	pipe := th.rdb.TxPipeline()
	pipe.LPush(ctx, tradeHistoryKey, data)
	pipe.LTrim(ctx, tradeHistoryKey, 0, int64(cap-1))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: push trade %s: %w", trade.ID, err)
	}
	return nil
}

// List retrieves up to limit recent trades, newest first. A limit <= 0
// returns the full retained window. Entries that fail to decode are skipped.
func (th *TradeHistory) List(ctx context.Context, limit int) ([]domain.Trade, error) {
	stop := int64(limit - 1)
	if limit <= 0 {
		stop = -1
	}

	raw, err := th.rdb.LRange(ctx, tradeHistoryKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list trades: %w", err)
	}

	trades := make([]domain.Trade, 0, len(raw))
	for _, item := range raw {
		var trade domain.Trade
		if err := json.Unmarshal([]byte(item), &trade); err != nil {
			continue
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// Len returns the number of trades currently retained.
func (th *TradeHistory) Len(ctx context.Context) (int64, error) {
	n, err := th.rdb.LLen(ctx, tradeHistoryKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: trade history len: %w", err)
	}
	return n, nil
}

// Compile-time interface check.
var _ domain.TradeHistory = (*TradeHistory)(nil)

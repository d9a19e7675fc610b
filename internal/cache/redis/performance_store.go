package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"arbsim/internal/domain"
)

// performanceKey holds the aggregate performance snapshot as a Redis hash
// with one field per counter.
const performanceKey = "trading_performance"

// PerformanceStore implements domain.PerformanceStore using a Redis hash.
type PerformanceStore struct {
	rdb *redis.Client
}

// NewPerformanceStore creates a PerformanceStore backed by the given Client.
func NewPerformanceStore(c *Client) *PerformanceStore {
	return &PerformanceStore{rdb: c.Underlying()}
}

// Set stores the performance snapshot, replacing all fields.
func (ps *PerformanceStore) Set(ctx context.Context, snap domain.PerformanceSnapshot) error {
	fields := map[string]interface{}{
		"total_pnl":       strconv.FormatFloat(snap.TotalPnL, 'f', -1, 64),
		"trades_executed": strconv.FormatInt(snap.TradesExecuted, 10),
		"success_rate":    strconv.FormatFloat(snap.SuccessRate, 'f', -1, 64),
		"last_updated":    snap.LastUpdated.UTC().Format(time.RFC3339Nano),
	}
	if err := ps.rdb.HSet(ctx, performanceKey, fields).Err(); err != nil {
		return fmt.Errorf("redis: set performance: %w", err)
	}
	return nil
}

// Get retrieves the performance snapshot.
// It returns domain.ErrNotFound when no snapshot has been stored yet.
func (ps *PerformanceStore) Get(ctx context.Context) (domain.PerformanceSnapshot, error) {
	vals, err := ps.rdb.HGetAll(ctx, performanceKey).Result()
	if err != nil {
		return domain.PerformanceSnapshot{}, fmt.Errorf("redis: get performance: %w", err)
	}
	if len(vals) == 0 {
		return domain.PerformanceSnapshot{}, domain.ErrNotFound
	}

	var snap domain.PerformanceSnapshot
	if snap.TotalPnL, err = strconv.ParseFloat(vals["total_pnl"], 64); err != nil {
		return domain.PerformanceSnapshot{}, fmt.Errorf("redis: parse total_pnl: %w", err)
	}
	if snap.TradesExecuted, err = strconv.ParseInt(vals["trades_executed"], 10, 64); err != nil {
		return domain.PerformanceSnapshot{}, fmt.Errorf("redis: parse trades_executed: %w", err)
	}
	if snap.SuccessRate, err = strconv.ParseFloat(vals["success_rate"], 64); err != nil {
		return domain.PerformanceSnapshot{}, fmt.Errorf("redis: parse success_rate: %w", err)
	}
	if snap.LastUpdated, err = time.Parse(time.RFC3339Nano, vals["last_updated"]); err != nil {
		return domain.PerformanceSnapshot{}, fmt.Errorf("redis: parse last_updated: %w", err)
	}
	return snap, nil
}

// Compile-time interface check.
var _ domain.PerformanceStore = (*PerformanceStore)(nil)

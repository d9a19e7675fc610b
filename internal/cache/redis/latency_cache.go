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

// LatencyCache implements domain.LatencyCache using Redis strings. Each venue
// holds its most recent sample as JSON at key "latency:{venue}" with a short
// TTL, so a venue that stops being probed drops out of the view.
type LatencyCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewLatencyCache creates a LatencyCache backed by the given Client.
func NewLatencyCache(c *Client, ttl time.Duration) *LatencyCache {
	return &LatencyCache{rdb: c.Underlying(), ttl: ttl}
}

func latencyKey(venue domain.Venue) string { return "latency:" + venue.String() }

// Set stores the latest latency sample for its venue.
func (lc *LatencyCache) Set(ctx context.Context, sample domain.Latency) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("redis: marshal latency %s: %w", sample.Venue, err)
	}
	if err := lc.rdb.Set(ctx, latencyKey(sample.Venue), data, lc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set latency %s: %w", sample.Venue, err)
	}
	return nil
}

// Get retrieves the latest latency sample for a venue.
// It returns domain.ErrNotFound when no fresh sample exists.
func (lc *LatencyCache) Get(ctx context.Context, venue domain.Venue) (domain.Latency, error) {
	data, err := lc.rdb.Get(ctx, latencyKey(venue)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Latency{}, domain.ErrNotFound
		}
		return domain.Latency{}, fmt.Errorf("redis: get latency %s: %w", venue, err)
	}

	var sample domain.Latency
	if err := json.Unmarshal(data, &sample); err != nil {
		return domain.Latency{}, fmt.Errorf("redis: unmarshal latency %s: %w", venue, err)
	}
	return sample, nil
}

// GetAll retrieves latency samples for the given venues using a pipeline.
// Venues without a fresh sample are omitted.
func (lc *LatencyCache) GetAll(ctx context.Context, venues []domain.Venue) ([]domain.Latency, error) {
	if len(venues) == 0 {
		return nil, nil
	}

	pipe := lc.rdb.Pipeline()
	cmds := make([]*redis.StringCmd, len(venues))
	for i, venue := range venues {
		cmds[i] = pipe.Get(ctx, latencyKey(venue))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get latencies pipeline: %w", err)
	}

	samples := make([]domain.Latency, 0, len(venues))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			continue
		}
		var sample domain.Latency
		if err := json.Unmarshal(data, &sample); err != nil {
			continue
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

// Compile-time interface check.
var _ domain.LatencyCache = (*LatencyCache)(nil)

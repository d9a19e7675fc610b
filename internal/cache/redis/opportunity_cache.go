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

// OpportunityCache implements domain.OpportunityCache using Redis strings.
// Each symbol holds at most one published opportunity at a time, stored as
// JSON at key "opportunity:{symbol}" with a TTL so stale opportunities
// expire on their own.
type OpportunityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewOpportunityCache creates an OpportunityCache backed by the given Client.
func NewOpportunityCache(c *Client, ttl time.Duration) *OpportunityCache {
	return &OpportunityCache{rdb: c.Underlying(), ttl: ttl}
}

func opportunityKey(symbol string) string { return "opportunity:" + symbol }

// Set publishes an opportunity for its symbol, replacing any previous one.
func (oc *OpportunityCache) Set(ctx context.Context, opp domain.Opportunity) error {
	data, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("redis: marshal opportunity %s: %w", opp.Symbol, err)
	}
	if err := oc.rdb.Set(ctx, opportunityKey(opp.Symbol), data, oc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set opportunity %s: %w", opp.Symbol, err)
	}
	return nil
}

// Get retrieves the current opportunity for a symbol without claiming it.
// It returns domain.ErrNotFound when none is published.
func (oc *OpportunityCache) Get(ctx context.Context, symbol string) (domain.Opportunity, error) {
	data, err := oc.rdb.Get(ctx, opportunityKey(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Opportunity{}, domain.ErrNotFound
		}
		return domain.Opportunity{}, fmt.Errorf("redis: get opportunity %s: %w", symbol, err)
	}
	return decodeOpportunity(symbol, data)
}

// GetAll retrieves the published opportunities for the given symbols using a
// pipeline. Symbols without a current opportunity are omitted.
func (oc *OpportunityCache) GetAll(ctx context.Context, symbols []string) ([]domain.Opportunity, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	pipe := oc.rdb.Pipeline()
	cmds := make([]*redis.StringCmd, len(symbols))
	for i, symbol := range symbols {
		cmds[i] = pipe.Get(ctx, opportunityKey(symbol))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get opportunities pipeline: %w", err)
	}

	opps := make([]domain.Opportunity, 0, len(symbols))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			continue
		}
		opp, err := decodeOpportunity(symbols[i], data)
		if err != nil {
			continue
		}
		opps = append(opps, opp)
	}
	return opps, nil
}

// Consume atomically claims and removes the opportunity for a symbol using
// GETDEL, so concurrent consumers can never dispatch the same instance twice.
// It returns domain.ErrNotFound when nothing is published.
func (oc *OpportunityCache) Consume(ctx context.Context, symbol string) (domain.Opportunity, error) {
	data, err := oc.rdb.GetDel(ctx, opportunityKey(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Opportunity{}, domain.ErrNotFound
		}
		return domain.Opportunity{}, fmt.Errorf("redis: consume opportunity %s: %w", symbol, err)
	}
	return decodeOpportunity(symbol, data)
}

func decodeOpportunity(symbol string, data []byte) (domain.Opportunity, error) {
	var opp domain.Opportunity
	if err := json.Unmarshal(data, &opp); err != nil {
		return domain.Opportunity{}, fmt.Errorf("redis: unmarshal opportunity %s: %w", symbol, err)
	}
	return opp, nil
}

// Compile-time interface check.
var _ domain.OpportunityCache = (*OpportunityCache)(nil)

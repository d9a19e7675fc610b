package domain

import (
	"context"
	"io"
	"time"
)

// QuoteCache stores the latest reference quote per symbol with a TTL, plus a
// bounded per-symbol quote history for display.
type QuoteCache interface {
	SetQuote(ctx context.Context, quote Quote) error
	GetQuote(ctx context.Context, symbol string) (Quote, error)
	History(ctx context.Context, symbol string, limit int) ([]Quote, error)
}

// OpportunityCache stores the published opportunity per symbol with a TTL.
// Consume atomically claims and removes an opportunity so that no two
// callers can dispatch the same instance to the execution engine.
type OpportunityCache interface {
	Set(ctx context.Context, opp Opportunity) error
	Get(ctx context.Context, symbol string) (Opportunity, error)
	GetAll(ctx context.Context, symbols []string) ([]Opportunity, error)
	Consume(ctx context.Context, symbol string) (Opportunity, error)
}

// LatencyCache stores the latest latency sample per venue with a short TTL.
type LatencyCache interface {
	Set(ctx context.Context, sample Latency) error
	Get(ctx context.Context, venue Venue) (Latency, error)
	GetAll(ctx context.Context, venues []Venue) ([]Latency, error)
}

// TradeHistory is the bounded, most-recent-first retention window of trade
// records kept for display. Push evicts the oldest entry past the cap.
type TradeHistory interface {
	Push(ctx context.Context, trade Trade, cap int) error
	List(ctx context.Context, limit int) ([]Trade, error)
	Len(ctx context.Context) (int64, error)
}

// PerformanceStore persists the aggregate performance snapshot.
type PerformanceStore interface {
	Set(ctx context.Context, snap PerformanceSnapshot) error
	Get(ctx context.Context) (PerformanceSnapshot, error)
}

// TradeArchive is the unbounded logical trade history. Unlike TradeHistory
// it is never trimmed by the engine; old rows are only moved out by the
// blob archiver.
type TradeArchive interface {
	Insert(ctx context.Context, trade Trade) error
	ListRecent(ctx context.Context, limit int) ([]Trade, error)
	ListBefore(ctx context.Context, before time.Time) ([]Trade, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
	Totals(ctx context.Context) (totalPnL float64, executed, failed int64, err error)
}

// RateLimiter provides distributed rate limiting for outbound API calls.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string, limit int, window time.Duration) error
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub fan-out of structured records to downstream
// consumers (WebSocket hub, dashboards).
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BlobWriter uploads archive objects.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

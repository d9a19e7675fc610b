package pipeline

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbsim/internal/config"
	"arbsim/internal/domain"
)

// ---------------------------------------------------------------------------
// In-memory collaborator fakes.
// ---------------------------------------------------------------------------

type stubFetcher struct {
	price float64
}

func (f *stubFetcher) GetQuote(_ context.Context, symbol string) (domain.Quote, error) {
	return domain.Quote{Symbol: symbol, Price: f.price, Timestamp: time.Now().UTC()}, nil
}

type memQuoteCache struct {
	mu     sync.Mutex
	quotes map[string]domain.Quote
}

func (m *memQuoteCache) SetQuote(_ context.Context, quote domain.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.quotes == nil {
		m.quotes = make(map[string]domain.Quote)
	}
	m.quotes[quote.Symbol] = quote
	return nil
}

func (m *memQuoteCache) GetQuote(_ context.Context, symbol string) (domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[symbol]
	if !ok {
		return domain.Quote{}, domain.ErrNotFound
	}
	return q, nil
}

func (m *memQuoteCache) History(_ context.Context, _ string, _ int) ([]domain.Quote, error) {
	return nil, nil
}

type memOppCache struct {
	mu   sync.Mutex
	opps map[string]domain.Opportunity
}

func (m *memOppCache) Set(_ context.Context, opp domain.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.opps == nil {
		m.opps = make(map[string]domain.Opportunity)
	}
	m.opps[opp.Symbol] = opp
	return nil
}

func (m *memOppCache) Get(_ context.Context, symbol string) (domain.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	opp, ok := m.opps[symbol]
	if !ok {
		return domain.Opportunity{}, domain.ErrNotFound
	}
	return opp, nil
}

func (m *memOppCache) GetAll(ctx context.Context, symbols []string) ([]domain.Opportunity, error) {
	var out []domain.Opportunity
	for _, s := range symbols {
		if opp, err := m.Get(ctx, s); err == nil {
			out = append(out, opp)
		}
	}
	return out, nil
}

func (m *memOppCache) Consume(ctx context.Context, symbol string) (domain.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	opp, ok := m.opps[symbol]
	if !ok {
		return domain.Opportunity{}, domain.ErrNotFound
	}
	delete(m.opps, symbol)
	return opp, nil
}

type openLimiter struct{}

func (openLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return true, nil
}

func (openLimiter) Wait(context.Context, string, int, time.Duration) error {
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingNotifier) Notify(_ context.Context, event, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// ---------------------------------------------------------------------------

func newTestCollector(venues []config.VenueConfig, notifier Notifier) (*Collector, *memOppCache) {
	opps := &memOppCache{}
	c := NewCollector(
		CollectorConfig{
			Symbols:        []string{"AAPL"},
			Venues:         venues,
			MinProfitBps:   5.0,
			Interval:       time.Minute,
			CallsPerMinute: 100,
		},
		&stubFetcher{price: 100.00},
		&memQuoteCache{},
		opps,
		openLimiter{},
		rand.New(rand.NewSource(1)),
		slog.New(slog.DiscardHandler),
	)
	if notifier != nil {
		c.WithNotifier(notifier)
	}
	return c, opps
}

func TestRun_NotifiesOnDetection(t *testing.T) {
	// Fixed offsets pin the synthetic prices to 99.00 and 101.00, a spread
	// far above the 5 bps threshold.
	venues := []config.VenueConfig{
		{Name: "NYSE", OffsetMin: 0.99, OffsetMax: 0.99},
		{Name: "NASDAQ", OffsetMin: 1.01, OffsetMax: 1.01},
	}
	rec := &recordingNotifier{}
	c, opps := newTestCollector(venues, rec)

	require.NoError(t, c.Run(context.Background()))

	opp, err := opps.Get(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, domain.Venue("NYSE"), opp.BuyVenue)
	assert.Equal(t, domain.Venue("NASDAQ"), opp.SellVenue)

	require.Len(t, rec.recorded(), 1)
	assert.Equal(t, "opportunity_detected", rec.recorded()[0])
}

func TestRun_NoNotificationWithoutSpread(t *testing.T) {
	// Identical offsets leave every venue at the same price.
	venues := []config.VenueConfig{
		{Name: "NYSE", OffsetMin: 1.0, OffsetMax: 1.0},
		{Name: "NASDAQ", OffsetMin: 1.0, OffsetMax: 1.0},
	}
	rec := &recordingNotifier{}
	c, opps := newTestCollector(venues, rec)

	require.NoError(t, c.Run(context.Background()))

	_, err := opps.Get(context.Background(), "AAPL")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, rec.recorded())
}

func TestRun_NilNotifierIsSafe(t *testing.T) {
	venues := []config.VenueConfig{
		{Name: "NYSE", OffsetMin: 0.99, OffsetMax: 0.99},
		{Name: "NASDAQ", OffsetMin: 1.01, OffsetMax: 1.01},
	}
	c, _ := newTestCollector(venues, nil)
	require.NoError(t, c.Run(context.Background()))
}

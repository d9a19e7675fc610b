package paper

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbsim/internal/domain"
)

// ---------------------------------------------------------------------------
// In-memory store fakes.
// ---------------------------------------------------------------------------

type memHistory struct {
	mu     sync.Mutex
	trades []domain.Trade // newest first
}

func (m *memHistory) Push(_ context.Context, trade domain.Trade, cap int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append([]domain.Trade{trade}, m.trades...)
	if len(m.trades) > cap {
		m.trades = m.trades[:cap]
	}
	return nil
}

func (m *memHistory) List(_ context.Context, limit int) ([]domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.trades) {
		limit = len(m.trades)
	}
	out := make([]domain.Trade, limit)
	copy(out, m.trades[:limit])
	return out, nil
}

func (m *memHistory) Len(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.trades)), nil
}

type memPerf struct {
	mu   sync.Mutex
	snap domain.PerformanceSnapshot
}

func (m *memPerf) Set(_ context.Context, snap domain.PerformanceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	return nil
}

func (m *memPerf) Get(_ context.Context) (domain.PerformanceSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

type memArchive struct {
	mu     sync.Mutex
	trades []domain.Trade
}

func (m *memArchive) Insert(_ context.Context, trade domain.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, trade)
	return nil
}

func (m *memArchive) ListRecent(_ context.Context, limit int) ([]domain.Trade, error) {
	return nil, nil
}

func (m *memArchive) ListBefore(_ context.Context, _ time.Time) ([]domain.Trade, error) {
	return nil, nil
}

func (m *memArchive) DeleteBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (m *memArchive) Totals(_ context.Context) (float64, int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pnl float64
	var failed int64
	for _, t := range m.trades {
		pnl += t.Profit
		if t.Status == domain.TradeFailed {
			failed++
		}
	}
	return pnl, int64(len(m.trades)), failed, nil
}

// ---------------------------------------------------------------------------

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testOpportunity(symbol string, profit float64) domain.Opportunity {
	return domain.Opportunity{
		Symbol:         symbol,
		BuyVenue:       "NYSE",
		SellVenue:      "NASDAQ",
		BuyPrice:       100.00,
		SellPrice:      100.00 + profit,
		ProfitPerShare: profit,
		ProfitBps:      profit / 100.00 * 10_000,
		Timestamp:      time.Now().UTC(),
	}
}

func newTestEngine(cfg EngineConfig, seed int64) (*Engine, *memHistory, *memPerf) {
	history := &memHistory{}
	perf := &memPerf{}
	engine := NewEngine(cfg, history, perf, rand.New(rand.NewSource(seed)), testLogger())
	return engine, history, perf
}

func TestExecute_SuccessWithFixedSlippage(t *testing.T) {
	engine, _, perf := newTestEngine(EngineConfig{
		SuccessProbability: 1.0,
		SlippageMin:        0.002,
		SlippageMax:        0.002,
		HistoryCap:         100,
	}, 7)

	trade, err := engine.Execute(context.Background(), testOpportunity("AAPL", 0.20))
	require.NoError(t, err)

	assert.Equal(t, domain.TradeSuccess, trade.Status)
	assert.InDelta(t, 0.198, trade.Profit, 1e-9)
	assert.Equal(t, "AAPL", trade.Symbol)
	assert.Equal(t, "NYSE -> NASDAQ", trade.Strategy)
	assert.NotEmpty(t, trade.ID)

	snap, err := perf.Get(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.198, snap.TotalPnL, 1e-9)
	assert.Equal(t, int64(1), snap.TradesExecuted)
	assert.Equal(t, 1.0, snap.SuccessRate)
}

func TestExecute_AlwaysFails(t *testing.T) {
	engine, history, _ := newTestEngine(EngineConfig{
		SuccessProbability: 0.0,
		SlippageMin:        0.001,
		SlippageMax:        0.003,
		HistoryCap:         100,
	}, 7)

	for i := 0; i < 5; i++ {
		trade, err := engine.Execute(context.Background(), testOpportunity("TSLA", 0.50))
		require.NoError(t, err)
		assert.Equal(t, domain.TradeFailed, trade.Status)
		assert.Zero(t, trade.Profit)
	}

	snap := engine.Snapshot()
	assert.Zero(t, snap.TotalPnL, "failed trades must not move total P&L")
	assert.Equal(t, int64(5), snap.TradesExecuted, "failed trades still count as attempts")
	assert.Zero(t, snap.SuccessRate)

	n, err := history.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n, "failed trades are recorded too")
}

func TestExecute_NegativeProfitNotClamped(t *testing.T) {
	engine, _, _ := newTestEngine(EngineConfig{
		SuccessProbability: 1.0,
		SlippageMin:        0.30,
		SlippageMax:        0.30,
		HistoryCap:         10,
	}, 7)

	trade, err := engine.Execute(context.Background(), testOpportunity("AMD", 0.15))
	require.NoError(t, err)
	assert.Equal(t, domain.TradeSuccess, trade.Status)
	assert.InDelta(t, -0.15, trade.Profit, 1e-9)
}

func TestExecute_DeterministicUnderFixedSeed(t *testing.T) {
	cfg := EngineConfig{
		SuccessProbability: 0.5,
		SlippageMin:        0.001,
		SlippageMax:        0.003,
		HistoryCap:         100,
	}
	opp := testOpportunity("NVDA", 0.25)

	a, _, _ := newTestEngine(cfg, 99)
	b, _, _ := newTestEngine(cfg, 99)

	for i := 0; i < 20; i++ {
		ta, err := a.Execute(context.Background(), opp)
		require.NoError(t, err)
		tb, err := b.Execute(context.Background(), opp)
		require.NoError(t, err)

		assert.Equal(t, ta.Status, tb.Status)
		assert.Equal(t, ta.Profit, tb.Profit)
	}
}

func TestExecute_HistoryCapEvictsOldest(t *testing.T) {
	engine, history, _ := newTestEngine(EngineConfig{
		SuccessProbability: 1.0,
		SlippageMin:        0.001,
		SlippageMax:        0.003,
		HistoryCap:         100,
	}, 3)

	var first domain.Trade
	for i := 0; i < 101; i++ {
		trade, err := engine.Execute(context.Background(), testOpportunity("MSFT", 0.10))
		require.NoError(t, err)
		if i == 0 {
			first = trade
		}
	}

	n, err := history.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), n, "stored history stays at the retention cap")

	snap := engine.Snapshot()
	assert.Equal(t, int64(101), snap.TradesExecuted, "all-time count is independent of the window")

	trades, err := history.List(context.Background(), 0)
	require.NoError(t, err)
	for _, tr := range trades {
		assert.NotEqual(t, first.ID, tr.ID, "oldest trade must be evicted")
	}
}

func TestSnapshot_NeverDriftsFromRecompute(t *testing.T) {
	engine, _, _ := newTestEngine(EngineConfig{
		SuccessProbability: 0.6,
		SlippageMin:        0.001,
		SlippageMax:        0.003,
		HistoryCap:         50,
	}, 1234)

	var logical []domain.Trade
	for i := 0; i < 200; i++ {
		trade, err := engine.Execute(context.Background(), testOpportunity("GOOGL", 0.12))
		require.NoError(t, err)
		logical = append(logical, trade)

		// The equivalence must hold after every attempt, not only at the end.
		want := Recompute(logical)
		got := engine.Snapshot()
		assert.InDelta(t, want.TotalPnL, got.TotalPnL, 1e-9)
		assert.Equal(t, want.TradesExecuted, got.TradesExecuted)
		assert.InDelta(t, want.SuccessRate, got.SuccessRate, 1e-12)
	}
}

func TestExecute_ConcurrentAttemptsStayConsistent(t *testing.T) {
	engine, history, _ := newTestEngine(EngineConfig{
		SuccessProbability: 0.5,
		SlippageMin:        0.001,
		SlippageMax:        0.003,
		HistoryCap:         100,
	}, 5551)

	const workers = 25
	const perWorker = 8

	var mu sync.Mutex
	var logical []domain.Trade

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				trade, err := engine.Execute(context.Background(), testOpportunity("META", 0.18))
				assert.NoError(t, err)
				mu.Lock()
				logical = append(logical, trade)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	want := Recompute(logical)
	got := engine.Snapshot()
	assert.Equal(t, int64(workers*perWorker), got.TradesExecuted)
	assert.InDelta(t, want.TotalPnL, got.TotalPnL, 1e-9)
	assert.InDelta(t, want.SuccessRate, got.SuccessRate, 1e-12)

	n, err := history.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), n)
}

func TestRestore_SeedsCountersFromArchive(t *testing.T) {
	archive := &memArchive{}
	ctx := context.Background()

	first, _, _ := newTestEngine(EngineConfig{
		SuccessProbability: 1.0,
		SlippageMin:        0.002,
		SlippageMax:        0.002,
		HistoryCap:         100,
	}, 11)
	first.WithArchive(archive)
	for i := 0; i < 3; i++ {
		_, err := first.Execute(ctx, testOpportunity("CRM", 0.10))
		require.NoError(t, err)
	}

	second, _, _ := newTestEngine(EngineConfig{HistoryCap: 100}, 12)
	second.WithArchive(archive)
	require.NoError(t, second.Restore(ctx))

	snap := second.Snapshot()
	assert.Equal(t, first.Snapshot().TradesExecuted, snap.TradesExecuted)
	assert.InDelta(t, first.Snapshot().TotalPnL, snap.TotalPnL, 1e-9)
}

// stallingNotifier blocks inside Notify until released, simulating a slow
// delivery channel.
type stallingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (n *stallingNotifier) Notify(context.Context, string, string, string) error {
	n.entered <- struct{}{}
	<-n.release
	return nil
}

func TestExecute_SlowNotifierDoesNotHoldEngineLock(t *testing.T) {
	engine, _, _ := newTestEngine(EngineConfig{
		SuccessProbability: 1.0,
		SlippageMin:        0.002,
		SlippageMax:        0.002,
		HistoryCap:         100,
	}, 21)
	notifier := &stallingNotifier{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	engine.WithNotifier(notifier)

	execDone := make(chan struct{})
	go func() {
		_, err := engine.Execute(context.Background(), testOpportunity("AAPL", 0.20))
		assert.NoError(t, err)
		close(execDone)
	}()

	// Wait until Execute is inside the stalled notification send.
	select {
	case <-notifier.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was never invoked")
	}

	// The mutex-protected state must be reachable while the sink stalls.
	snapDone := make(chan domain.PerformanceSnapshot, 1)
	go func() { snapDone <- engine.Snapshot() }()
	select {
	case snap := <-snapDone:
		assert.Equal(t, int64(1), snap.TradesExecuted)
	case <-time.After(2 * time.Second):
		t.Fatal("Snapshot blocked behind a slow notification sender")
	}

	close(notifier.release)
	select {
	case <-execDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Execute did not finish after the sender was released")
	}
}

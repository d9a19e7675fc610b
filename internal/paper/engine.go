// Package paper implements the paper execution engine: simulated fills with
// probabilistic success and slippage, the bounded trade history, and the
// aggregate performance counters.
package paper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"arbsim/internal/domain"
)

// Notifier is the subset of the notification system the engine uses.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// EngineConfig holds the tunable execution-simulation parameters.
type EngineConfig struct {
	// SuccessProbability is the chance a simulated fill succeeds.
	SuccessProbability float64
	// SlippageMin and SlippageMax bound the uniform slippage draw, in
	// currency units per share, subtracted from the nominal edge on success.
	SlippageMin float64
	SlippageMax float64
	// HistoryCap bounds the most-recent-first display history. All-time
	// counters are tracked independently of this window.
	HistoryCap int
}

// Engine consumes one opportunity at a time and produces exactly one Trade
// per execution attempt. All state updates for an attempt (history append,
// counter update, snapshot write) happen under one mutex, so concurrent
// Execute calls cannot interleave partial updates.
type Engine struct {
	cfg      EngineConfig
	history  domain.TradeHistory
	perf     domain.PerformanceStore
	archive  domain.TradeArchive // optional
	bus      domain.SignalBus    // optional
	notifier Notifier            // optional
	logger   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand

	// All-time counters over the logical (unbounded) history. These must
	// never drift from a fold over that history; see Recompute.
	totalPnL float64
	executed int64
	failed   int64
}

// NewEngine creates an Engine. The rng is owned by the engine after this
// call and must not be shared; it is only ever used under the engine mutex.
func NewEngine(cfg EngineConfig, history domain.TradeHistory, perf domain.PerformanceStore, rng *rand.Rand, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		history: history,
		perf:    perf,
		rng:     rng,
		logger:  logger.With(slog.String("component", "paper_engine")),
	}
}

// WithArchive attaches the unbounded trade archive.
func (e *Engine) WithArchive(archive domain.TradeArchive) *Engine {
	e.archive = archive
	return e
}

// WithBus attaches the signal bus for trade event fan-out.
func (e *Engine) WithBus(bus domain.SignalBus) *Engine {
	e.bus = bus
	return e
}

// WithNotifier attaches the notification dispatcher.
func (e *Engine) WithNotifier(n Notifier) *Engine {
	e.notifier = n
	return e
}

// Restore seeds the all-time counters from the trade archive so the logical
// history survives restarts. Call once before the first Execute.
func (e *Engine) Restore(ctx context.Context) error {
	if e.archive == nil {
		return nil
	}
	totalPnL, executed, failed, err := e.archive.Totals(ctx)
	if err != nil {
		return fmt.Errorf("paper: restore counters: %w", err)
	}

	e.mu.Lock()
	e.totalPnL = totalPnL
	e.executed = executed
	e.failed = failed
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "counters restored from archive",
		slog.Int64("trades_executed", executed),
		slog.Float64("total_pnl", totalPnL),
	)
	return nil
}

// Execute simulates a fill for the given opportunity and records the result.
// Exactly one Trade is produced per call; callers must not re-invoke Execute
// on the same opportunity instance. Once started, the attempt runs to
// completion regardless of context cancellation mid-way.
//
// A FAILED outcome is a simulated result, not an error: the trade is still
// recorded and still counts toward trades_executed. The returned error only
// reports persistence problems; the Trade and the in-memory counters are
// valid either way.
func (e *Engine) Execute(ctx context.Context, opp domain.Opportunity) (domain.Trade, error) {
	e.mu.Lock()

	trade := domain.Trade{
		ID:        uuid.NewString(),
		Symbol:    opp.Symbol,
		Strategy:  opp.StrategyLabel(),
		Timestamp: time.Now().UTC(),
	}

	if e.rng.Float64() < e.cfg.SuccessProbability {
		slippage := e.cfg.SlippageMin + e.rng.Float64()*(e.cfg.SlippageMax-e.cfg.SlippageMin)
		trade.Status = domain.TradeSuccess
		// Slippage can exceed the nominal edge; the resulting negative
		// profit is intentional and must not be clamped.
		trade.Profit = opp.ProfitPerShare - slippage
	} else {
		trade.Status = domain.TradeFailed
		trade.Profit = 0
	}

	e.totalPnL += trade.Profit
	e.executed++
	if trade.Status == domain.TradeFailed {
		e.failed++
	}
	snap := e.snapshotLocked(trade.Timestamp)

	pushErr := e.history.Push(ctx, trade, e.cfg.HistoryCap)
	var perfErr error
	if pushErr == nil {
		perfErr = e.perf.Set(ctx, snap)
	}
	e.mu.Unlock()

	if pushErr != nil {
		return trade, fmt.Errorf("paper: push trade %s: %w", trade.ID, pushErr)
	}
	if perfErr != nil {
		return trade, fmt.Errorf("paper: write performance snapshot: %w", perfErr)
	}

	// Secondary sinks run outside the mutex: a slow archive, bus, or
	// notification sender must not stall concurrent Execute calls.
	// Failures are logged, not propagated, so a flaky sink cannot break
	// the execution cycle.
	if e.archive != nil {
		if err := e.archive.Insert(ctx, trade); err != nil {
			e.logger.WarnContext(ctx, "trade archive insert failed",
				slog.String("trade_id", trade.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	e.publish(ctx, trade, snap)
	e.notify(ctx, trade)

	e.logger.InfoContext(ctx, "opportunity executed",
		slog.String("trade_id", trade.ID),
		slog.String("symbol", trade.Symbol),
		slog.String("strategy", trade.Strategy),
		slog.String("status", string(trade.Status)),
		slog.Float64("profit", trade.Profit),
	)
	return trade, nil
}

// Snapshot returns the current aggregate performance from the all-time
// counters.
func (e *Engine) Snapshot() domain.PerformanceSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(time.Now().UTC())
}

func (e *Engine) snapshotLocked(at time.Time) domain.PerformanceSnapshot {
	snap := domain.PerformanceSnapshot{
		TotalPnL:       e.totalPnL,
		TradesExecuted: e.executed,
		LastUpdated:    at,
	}
	if e.executed > 0 {
		snap.SuccessRate = float64(e.executed-e.failed) / float64(e.executed)
	}
	return snap
}

func (e *Engine) publish(ctx context.Context, trade domain.Trade, snap domain.PerformanceSnapshot) {
	if e.bus == nil {
		return
	}
	if payload, err := json.Marshal(trade); err == nil {
		if err := e.bus.Publish(ctx, "trades", payload); err != nil {
			e.logger.WarnContext(ctx, "publish trade failed", slog.String("error", err.Error()))
		}
	}
	if payload, err := json.Marshal(snap); err == nil {
		if err := e.bus.Publish(ctx, "performance", payload); err != nil {
			e.logger.WarnContext(ctx, "publish performance failed", slog.String("error", err.Error()))
		}
	}
}

func (e *Engine) notify(ctx context.Context, trade domain.Trade) {
	if e.notifier == nil {
		return
	}
	event, title := "trade_executed", "Trade executed"
	if trade.Status == domain.TradeFailed {
		event, title = "trade_failed", "Trade failed"
	}
	msg := fmt.Sprintf("%s %s profit %.3f", trade.Symbol, trade.Strategy, trade.Profit)
	if err := e.notifier.Notify(ctx, event, title, msg); err != nil {
		e.logger.WarnContext(ctx, "trade notification failed", slog.String("error", err.Error()))
	}
}

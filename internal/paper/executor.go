package paper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"arbsim/internal/domain"
)

// ExecutorConfig configures the execution cycle.
type ExecutorConfig struct {
	Symbols []string
	// MinProfitBps re-checks the publication threshold at execution time;
	// a stale sub-threshold record is discarded rather than executed.
	MinProfitBps float64
	Interval     time.Duration
	LockTTL      time.Duration
}

// Executor periodically claims published opportunities and dispatches them
// to the Engine. Claims go through OpportunityCache.Consume, which removes
// the record atomically, so an opportunity instance can never be executed
// twice, even by a second process. A distributed lock additionally keeps
// whole cycles single-flight across instances.
type Executor struct {
	cfg    ExecutorConfig
	opps   domain.OpportunityCache
	locks  domain.LockManager
	engine *Engine
	logger *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(cfg ExecutorConfig, opps domain.OpportunityCache, locks domain.LockManager, engine *Engine, logger *slog.Logger) *Executor {
	return &Executor{
		cfg:    cfg,
		opps:   opps,
		locks:  locks,
		engine: engine,
		logger: logger.With(slog.String("component", "paper_executor")),
	}
}

// Run executes cycles on the configured interval until the context is
// cancelled. The first cycle runs immediately.
func (x *Executor) Run(ctx context.Context) error {
	if err := x.RunCycle(ctx); err != nil {
		x.logger.ErrorContext(ctx, "execution cycle failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(x.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			x.logger.Info("executor stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := x.RunCycle(ctx); err != nil {
				x.logger.ErrorContext(ctx, "execution cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunCycle claims and executes every currently-published opportunity that
// still clears the threshold. The cycle may be abandoned between symbols
// without side effects; each symbol's claim-and-execute is independent.
func (x *Executor) RunCycle(ctx context.Context) error {
	unlock, err := x.locks.Acquire(ctx, "paper_executor", x.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			x.logger.Debug("execution cycle already running elsewhere")
			return nil
		}
		return err
	}
	defer unlock()

	executed := 0
	for _, symbol := range x.cfg.Symbols {
		if err := ctx.Err(); err != nil {
			return err
		}

		opp, err := x.opps.Consume(ctx, symbol)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			x.logger.WarnContext(ctx, "consume opportunity failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
			continue
		}

		if opp.ProfitBps <= x.cfg.MinProfitBps {
			x.logger.DebugContext(ctx, "stale opportunity below threshold, discarded",
				slog.String("symbol", symbol),
				slog.Float64("profit_bps", opp.ProfitBps),
			)
			continue
		}

		if _, err := x.engine.Execute(ctx, opp); err != nil {
			x.logger.WarnContext(ctx, "execute failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
			continue
		}
		executed++
	}

	if executed > 0 {
		x.logger.InfoContext(ctx, "execution cycle complete", slog.Int("executed", executed))
	}
	return nil
}

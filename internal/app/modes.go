package app

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"arbsim/internal/domain"
	"arbsim/internal/paper"
	"arbsim/internal/pipeline"
	"arbsim/internal/server"
	"arbsim/internal/server/handler"
	"arbsim/internal/server/ws"
)

// CollectMode runs the quote collector and latency monitor. Opportunities
// are published but never executed.
func (a *App) CollectMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting collect mode")

	g, ctx := errgroup.WithContext(ctx)

	collector := a.buildCollector(deps)
	g.Go(func() error {
		return collector.RunLoop(ctx)
	})

	monitor := a.buildLatencyMonitor(deps)
	g.Go(func() error {
		return monitor.RunLoop(ctx)
	})

	if a.cfg.Server.Enabled {
		a.startServer(ctx, g, deps, nil)
	}

	return waitGroup(g)
}

// TradeMode runs the paper execution engine against opportunities already
// being published by a collector, plus the trade archiver when configured.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trade mode")

	g, ctx := errgroup.WithContext(ctx)

	engine, err := a.buildEngine(ctx, deps)
	if err != nil {
		return err
	}

	executor := a.buildExecutor(deps, engine)
	g.Go(func() error {
		return executor.Run(ctx)
	})

	a.startArchiver(ctx, g, deps)

	if a.cfg.Server.Enabled {
		a.startServer(ctx, g, deps, nil)
	}

	return waitGroup(g)
}

// MonitorMode serves the read-only API and WebSocket feed without producing
// or executing anything. The latency monitor keeps venue samples fresh.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)

	monitor := a.buildLatencyMonitor(deps)
	g.Go(func() error {
		return monitor.RunLoop(ctx)
	})

	hub := ws.NewHub(deps.SignalBus, a.cfg.Mode, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})
	a.startServer(ctx, g, deps, hub)

	return waitGroup(g)
}

// FullMode runs the entire pipeline in one process: collection, execution,
// archiving, and the API server with the live WebSocket feed.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	collector := a.buildCollector(deps)
	g.Go(func() error {
		return collector.RunLoop(ctx)
	})

	monitor := a.buildLatencyMonitor(deps)
	g.Go(func() error {
		return monitor.RunLoop(ctx)
	})

	engine, err := a.buildEngine(ctx, deps)
	if err != nil {
		return err
	}

	executor := a.buildExecutor(deps, engine)
	g.Go(func() error {
		return executor.Run(ctx)
	})

	a.startArchiver(ctx, g, deps)

	hub := ws.NewHub(deps.SignalBus, a.cfg.Mode, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})
	if a.cfg.Server.Enabled {
		a.startServer(ctx, g, deps, hub)
	}

	return waitGroup(g)
}

// buildCollector assembles the quote collector from configuration.
func (a *App) buildCollector(deps *Dependencies) *pipeline.Collector {
	collector := pipeline.NewCollector(
		pipeline.CollectorConfig{
			Symbols:        a.cfg.Symbols,
			Venues:         a.cfg.Venues,
			MinProfitBps:   a.cfg.Detection.MinProfitBps,
			Interval:       a.cfg.Detection.Interval.Duration,
			CallsPerMinute: a.cfg.AlphaVantage.CallsPerMinute,
		},
		deps.QuoteFetcher,
		deps.QuoteCache,
		deps.OpportunityCache,
		deps.RateLimiter,
		rand.New(rand.NewSource(time.Now().UnixNano())),
		a.logger,
	)
	return collector.WithBus(deps.SignalBus).WithNotifier(deps.Notifier)
}

// buildLatencyMonitor assembles the venue latency monitor.
func (a *App) buildLatencyMonitor(deps *Dependencies) *pipeline.LatencyMonitor {
	return pipeline.NewLatencyMonitor(
		a.cfg.Venues,
		a.cfg.Detection.Interval.Duration,
		deps.LatencyCache,
		a.logger,
	)
}

// buildEngine assembles the paper execution engine and restores its all-time
// counters from the durable archive when one is configured.
func (a *App) buildEngine(ctx context.Context, deps *Dependencies) (*paper.Engine, error) {
	engine := paper.NewEngine(
		paper.EngineConfig{
			SuccessProbability: a.cfg.Execution.SuccessProbability,
			SlippageMin:        a.cfg.Execution.SlippageMin,
			SlippageMax:        a.cfg.Execution.SlippageMax,
			HistoryCap:         a.cfg.Execution.HistoryCap,
		},
		deps.TradeHistory,
		deps.PerformanceStore,
		rand.New(rand.NewSource(time.Now().UnixNano())),
		a.logger,
	)
	engine.WithBus(deps.SignalBus).WithNotifier(deps.Notifier)

	if deps.TradeArchive != nil {
		engine.WithArchive(deps.TradeArchive)
		if err := engine.Restore(ctx); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

// buildExecutor assembles the opportunity executor loop.
func (a *App) buildExecutor(deps *Dependencies, engine *paper.Engine) *paper.Executor {
	return paper.NewExecutor(
		paper.ExecutorConfig{
			Symbols:      a.cfg.Symbols,
			MinProfitBps: a.cfg.Detection.MinProfitBps,
			Interval:     a.cfg.Execution.Interval.Duration,
			LockTTL:      a.cfg.Execution.LockTTL.Duration,
		},
		deps.OpportunityCache,
		deps.LockManager,
		engine,
		a.logger,
	)
}

// startArchiver launches the trade archiver when blob export is wired.
func (a *App) startArchiver(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.Exporter == nil || deps.TradeArchive == nil {
		return
	}
	archiver := pipeline.NewArchiver(
		deps.Exporter,
		deps.TradeArchive,
		a.cfg.Archive.RetentionDays,
		a.cfg.Archive.Interval.Duration,
		a.logger,
	)
	g.Go(func() error {
		return archiver.RunLoop(ctx)
	})
}

// startServer launches the HTTP server and ties its shutdown to the group
// context. hub may be nil when no WebSocket feed is wanted.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, hub *ws.Hub) {
	venues := make([]domain.Venue, 0, len(a.cfg.Venues))
	for _, v := range a.cfg.Venues {
		venues = append(venues, domain.Venue(v.Name))
	}

	var archReader handler.TradeArchiveReader
	if deps.TradeArchive != nil {
		archReader = deps.TradeArchive
	}

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
		},
		server.Handlers{
			Health:        handler.NewHealthHandler(a.logger),
			Quotes:        handler.NewQuoteHandler(deps.QuoteCache, a.cfg.Symbols, a.logger),
			Opportunities: handler.NewOpportunityHandler(deps.OpportunityCache, a.cfg.Symbols, a.logger),
			Trades:        handler.NewTradeHandler(deps.TradeHistory, archReader, a.logger),
			Performance:   handler.NewPerformanceHandler(deps.PerformanceStore, a.logger),
			Latency:       handler.NewLatencyHandler(deps.LatencyCache, venues, a.logger),
		},
		hub,
		a.logger,
	)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		}
		return ctx.Err()
	})
}

// waitGroup waits for the errgroup. Cancellation propagates as
// context.Canceled, which main treats as a clean shutdown.
func waitGroup(g *errgroup.Group) error {
	return g.Wait()
}

// Package pipeline contains the periodic workers: quote collection with
// opportunity detection, venue latency probing, and trade archiving.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"arbsim/internal/arbitrage"
	"arbsim/internal/config"
	"arbsim/internal/domain"
)

// QuoteFetcher retrieves reference quotes from an external source.
type QuoteFetcher interface {
	GetQuote(ctx context.Context, symbol string) (domain.Quote, error)
}

// Notifier is the subset of the notification system the collector uses.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// CollectorConfig holds the per-cycle parameters of the quote collector.
type CollectorConfig struct {
	Symbols        []string
	Venues         []config.VenueConfig
	MinProfitBps   float64
	Interval       time.Duration
	CallsPerMinute int
}

// Collector drives the detection cycle: fetch a reference quote per symbol,
// synthesize venue prices, detect a spread, and publish anything that clears
// the threshold. Fetching is gated by a shared rate limiter so multiple
// collector instances stay inside the quote source's quota together.
type Collector struct {
	cfg      CollectorConfig
	fetcher  QuoteFetcher
	quotes   domain.QuoteCache
	opps     domain.OpportunityCache
	limiter  domain.RateLimiter
	bus      domain.SignalBus
	notifier Notifier
	logger   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCollector creates a Collector. bus may be nil when no live feed is
// wanted.
func NewCollector(
	cfg CollectorConfig,
	fetcher QuoteFetcher,
	quotes domain.QuoteCache,
	opps domain.OpportunityCache,
	limiter domain.RateLimiter,
	rng *rand.Rand,
	logger *slog.Logger,
) *Collector {
	return &Collector{
		cfg:     cfg,
		fetcher: fetcher,
		quotes:  quotes,
		opps:    opps,
		limiter: limiter,
		rng:     rng,
		logger:  logger.With(slog.String("component", "collector")),
	}
}

// WithBus attaches a signal bus for live quote and opportunity feeds.
func (c *Collector) WithBus(bus domain.SignalBus) *Collector {
	c.bus = bus
	return c
}

// WithNotifier attaches the notification dispatcher for detection alerts.
func (c *Collector) WithNotifier(n Notifier) *Collector {
	c.notifier = n
	return c
}

// Run executes a single collection cycle over all configured symbols.
// A failure on one symbol is logged and does not stop the others.
func (c *Collector) Run(ctx context.Context) error {
	detected := 0

	for _, symbol := range c.cfg.Symbols {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("collector cycle cancelled: %w", err)
		}

		published, err := c.collectSymbol(ctx, symbol)
		if err != nil {
			c.logger.Error("symbol collection failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
			continue
		}
		if published {
			detected++
		}
	}

	c.logger.Info("collection cycle complete",
		slog.Int("symbols", len(c.cfg.Symbols)),
		slog.Int("opportunities", detected),
	)
	return nil
}

// RunLoop runs collection cycles on a repeating interval until the context
// is cancelled.
func (c *Collector) RunLoop(ctx context.Context) error {
	// Run immediately on start.
	if err := c.Run(ctx); err != nil {
		c.logger.Error("collection cycle failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("collector loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := c.Run(ctx); err != nil {
				c.logger.Error("collection cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// collectSymbol handles one symbol end to end. It returns true when an
// opportunity was published.
func (c *Collector) collectSymbol(ctx context.Context, symbol string) (bool, error) {
	if err := c.limiter.Wait(ctx, "alphavantage", c.cfg.CallsPerMinute, time.Minute); err != nil {
		return false, fmt.Errorf("rate limit gate: %w", err)
	}

	quote, err := c.fetcher.GetQuote(ctx, symbol)
	if err != nil {
		// A symbol the source does not know stays silent rather than noisy.
		if errors.Is(err, domain.ErrNotFound) {
			c.logger.Warn("no quote for symbol", slog.String("symbol", symbol))
			return false, nil
		}
		return false, fmt.Errorf("fetch quote: %w", err)
	}

	if err := c.quotes.SetQuote(ctx, quote); err != nil {
		return false, fmt.Errorf("store quote: %w", err)
	}
	c.publish(ctx, "quotes", quote)

	prices, err := c.synthesize(quote.Price)
	if err != nil {
		return false, fmt.Errorf("synthesize prices: %w", err)
	}

	opp, ok := arbitrage.Detect(symbol, prices, c.cfg.MinProfitBps, time.Now().UTC())
	if !ok {
		return false, nil
	}

	if err := c.opps.Set(ctx, opp); err != nil {
		return false, fmt.Errorf("store opportunity: %w", err)
	}
	c.publish(ctx, "opportunities", opp)
	c.notify(ctx, opp)

	c.logger.Info("opportunity detected",
		slog.String("symbol", opp.Symbol),
		slog.String("strategy", opp.StrategyLabel()),
		slog.Float64("profit_bps", opp.ProfitBps),
	)
	return true, nil
}

// synthesize guards the shared rng; Synthesize itself is not safe for
// concurrent use of one rand.Rand.
func (c *Collector) synthesize(refPrice float64) ([]domain.VenuePrice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return arbitrage.Synthesize(refPrice, c.cfg.Venues, c.rng)
}

func (c *Collector) publish(ctx context.Context, channel string, v any) {
	if c.bus == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.bus.Publish(ctx, channel, payload); err != nil {
		c.logger.Warn("publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}

// notify sends a detection alert. Best effort: a failed delivery is logged
// and never fails the cycle.
func (c *Collector) notify(ctx context.Context, opp domain.Opportunity) {
	if c.notifier == nil {
		return
	}
	msg := fmt.Sprintf("%s %s spread %.1f bps (buy %.2f, sell %.2f)",
		opp.Symbol, opp.StrategyLabel(), opp.ProfitBps, opp.BuyPrice, opp.SellPrice)
	if err := c.notifier.Notify(ctx, "opportunity_detected", "Opportunity detected", msg); err != nil {
		c.logger.Warn("detection notification failed", slog.String("error", err.Error()))
	}
}

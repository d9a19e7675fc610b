package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"arbsim/internal/config"
	"arbsim/internal/domain"
)

// dialTimeout bounds a single venue probe.
const dialTimeout = 5 * time.Second

// LatencyMonitor measures TCP connect round-trip time to each venue endpoint
// and records the samples. The samples are informational; detection never
// reads them.
type LatencyMonitor struct {
	venues   []config.VenueConfig
	interval time.Duration
	cache    domain.LatencyCache
	logger   *slog.Logger
}

// NewLatencyMonitor creates a LatencyMonitor over the configured venues.
// Venues without an endpoint are skipped.
func NewLatencyMonitor(venues []config.VenueConfig, interval time.Duration, cache domain.LatencyCache, logger *slog.Logger) *LatencyMonitor {
	return &LatencyMonitor{
		venues:   venues,
		interval: interval,
		cache:    cache,
		logger:   logger.With(slog.String("component", "latency_monitor")),
	}
}

// Run executes a single probe pass over all venues.
func (m *LatencyMonitor) Run(ctx context.Context) error {
	for _, venue := range m.venues {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("latency probe cancelled: %w", err)
		}
		if venue.Endpoint == "" {
			continue
		}

		sample, err := m.probe(ctx, venue)
		if err != nil {
			m.logger.Warn("venue probe failed",
				slog.String("venue", venue.Name),
				slog.String("endpoint", venue.Endpoint),
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := m.cache.Set(ctx, sample); err != nil {
			m.logger.Error("store latency sample failed",
				slog.String("venue", venue.Name),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// RunLoop runs probe passes on a repeating interval until the context is
// cancelled.
func (m *LatencyMonitor) RunLoop(ctx context.Context) error {
	if err := m.Run(ctx); err != nil {
		m.logger.Error("latency probe pass failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("latency monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := m.Run(ctx); err != nil {
				m.logger.Error("latency probe pass failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (m *LatencyMonitor) probe(ctx context.Context, venue config.VenueConfig) (domain.Latency, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", venue.Endpoint)
	if err != nil {
		return domain.Latency{}, fmt.Errorf("dial %s: %w", venue.Endpoint, err)
	}
	elapsed := time.Since(start)
	_ = conn.Close()

	return domain.Latency{
		Venue:     domain.Venue(venue.Name),
		LatencyMs: float64(elapsed.Microseconds()) / 1000.0,
		Timestamp: time.Now().UTC(),
	}, nil
}

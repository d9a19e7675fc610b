package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"arbsim/internal/domain"
)

// TradeExporter uploads old trades to cold storage.
type TradeExporter interface {
	ArchiveTrades(ctx context.Context, before time.Time) (int64, error)
}

// TradePruner deletes trades from the primary archive.
type TradePruner interface {
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Archiver periodically moves trades older than the retention window from
// the database to blob storage. Rows are deleted only after the export has
// succeeded, so a failed upload never loses data.
type Archiver struct {
	exporter      TradeExporter
	pruner        TradePruner
	retentionDays int
	interval      time.Duration
	logger        *slog.Logger
}

// NewArchiver creates a new Archiver.
func NewArchiver(exporter TradeExporter, pruner TradePruner, retentionDays int, interval time.Duration, logger *slog.Logger) *Archiver {
	return &Archiver{
		exporter:      exporter,
		pruner:        pruner,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger.With(slog.String("component", "archiver")),
	}
}

// Run executes a single archive run: export everything older than the
// retention cutoff, then prune the exported rows.
func (a *Archiver) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(a.retentionDays) * 24 * time.Hour)

	exported, err := a.exporter.ArchiveTrades(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving trades before %v: %w", cutoff, err)
	}
	if exported == 0 {
		return nil
	}

	pruned, err := a.pruner.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("pruning trades before %v: %w", cutoff, err)
	}

	a.logger.Info("archive run complete",
		slog.Time("cutoff", cutoff),
		slog.Int64("exported", exported),
		slog.Int64("pruned", pruned),
	)
	return nil
}

// RunLoop runs archive passes on a repeating interval until the context is
// cancelled.
func (a *Archiver) RunLoop(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("archiver stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := a.Run(ctx); err != nil {
				a.logger.Error("archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}

var _ TradePruner = (domain.TradeArchive)(nil)

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"arbsim/internal/domain"
)

// TradeStore implements domain.TradeArchive using PostgreSQL. Rows are only
// removed by DeleteBefore after the blob archiver has exported them.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a new TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const tradeSelectCols = `id, symbol, strategy, profit, status, executed_at`

// Insert archives a simulated trade.
func (s *TradeStore) Insert(ctx context.Context, trade domain.Trade) error {
	const query = `
		INSERT INTO paper_trades (id, symbol, strategy, profit, status, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		trade.ID, trade.Symbol, trade.Strategy, trade.Profit, string(trade.Status), trade.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert trade %s: %w", trade.ID, err)
	}
	return nil
}

// ListRecent returns the most recent trades ordered by execution time.
func (s *TradeStore) ListRecent(ctx context.Context, limit int) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM paper_trades ORDER BY executed_at DESC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// ListBefore returns all trades executed strictly before the given time,
// oldest first, for export.
func (s *TradeStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Trade, error) {
	const query = `SELECT ` + tradeSelectCols + `
		FROM paper_trades WHERE executed_at < $1 ORDER BY executed_at ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// DeleteBefore removes trades executed strictly before the given time and
// returns the number of rows deleted.
func (s *TradeStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM paper_trades WHERE executed_at < $1`

	tag, err := s.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete trades before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

// Totals folds the full archive into the all-time performance counters. It
// seeds the execution engine's incremental counters on restart.
func (s *TradeStore) Totals(ctx context.Context) (float64, int64, int64, error) {
	const query = `
		SELECT
			COALESCE(SUM(profit), 0),
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'FAILED')
		FROM paper_trades`

	var totalPnL float64
	var executed, failed int64
	if err := s.pool.QueryRow(ctx, query).Scan(&totalPnL, &executed, &failed); err != nil {
		return 0, 0, 0, fmt.Errorf("postgres: trade totals: %w", err)
	}
	return totalPnL, executed, failed, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTrades(rows rowScanner) ([]domain.Trade, error) {
	var trades []domain.Trade
	for rows.Next() {
		var trade domain.Trade
		var status string
		if err := rows.Scan(
			&trade.ID, &trade.Symbol, &trade.Strategy, &trade.Profit, &status, &trade.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		trade.Status = domain.TradeStatus(status)
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: trade rows: %w", err)
	}
	return trades, nil
}

// Compile-time interface check.
var _ domain.TradeArchive = (*TradeStore)(nil)

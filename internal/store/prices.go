package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmoralesf/valora/internal/contracts"
)

// PriceRepository implements contracts.PriceRepository on PostgreSQL.
// One row per (ticker, date).
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// SaveSeries upserts a batch of daily bars in one transaction. A bar
// without a close price fails the whole call; partial writes are rolled
// back.
func (r *PriceRepository) SaveSeries(ctx context.Context, ticker string, bars []*contracts.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	for _, bar := range bars {
		if bar.Close == nil {
			return &contracts.PersistenceError{
				Op:  "save price series",
				Err: fmt.Errorf("bar %s %s has no close price", ticker, bar.Date.Format("2006-01-02")),
			}
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return &contracts.PersistenceError{Op: "save price series", Err: err}
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO valuation.price_history (ticker, date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`

	for _, bar := range bars {
		_, err := tx.Exec(ctx, query,
			ticker, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
		)
		if err != nil {
			return &contracts.PersistenceError{Op: "save price series", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &contracts.PersistenceError{Op: "save price series", Err: err}
	}
	return nil
}

// History returns bars in ascending date order. Nil bounds are open.
func (r *PriceRepository) History(ctx context.Context, ticker string, from, to *time.Time) ([]*contracts.PriceBar, error) {
	query := `
		SELECT ticker, date, open, high, low, close, volume
		FROM valuation.price_history
		WHERE ticker = $1
	`
	args := []interface{}{ticker}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &contracts.PersistenceError{Op: "load price history", Err: err}
	}
	defer rows.Close()

	var bars []*contracts.PriceBar
	for rows.Next() {
		var bar contracts.PriceBar
		if err := rows.Scan(&bar.Ticker, &bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, &contracts.PersistenceError{Op: "load price history", Err: err}
		}
		bars = append(bars, &bar)
	}
	if err := rows.Err(); err != nil {
		return nil, &contracts.PersistenceError{Op: "load price history", Err: err}
	}
	return bars, nil
}

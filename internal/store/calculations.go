package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmoralesf/valora/internal/contracts"
)

// CalculationRepository implements contracts.CalculationRepository on
// PostgreSQL. One row per (ticker, calculation_date); saving again for
// the same key replaces the row.
type CalculationRepository struct {
	pool *pgxpool.Pool
}

// NewCalculationRepository creates a new calculation repository
func NewCalculationRepository(pool *pgxpool.Pool) *CalculationRepository {
	return &CalculationRepository{pool: pool}
}

// Save upserts a valuation result.
func (r *CalculationRepository) Save(ctx context.Context, result *contracts.ValuationResult) error {
	projections, err := json.Marshal(result.FCFProjections)
	if err != nil {
		return &contracts.PersistenceError{Op: "save calculation", Err: err}
	}
	metadata, err := json.Marshal(result.Metadata)
	if err != nil {
		return &contracts.PersistenceError{Op: "save calculation", Err: err}
	}

	query := `
		INSERT INTO valuation.dcf_calculations (
			ticker, calculation_date, fair_value, market_price,
			discount_rate, growth_rate, fcf_projections, shares_outstanding,
			metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (ticker, calculation_date) DO UPDATE SET
			fair_value = EXCLUDED.fair_value,
			market_price = EXCLUDED.market_price,
			discount_rate = EXCLUDED.discount_rate,
			growth_rate = EXCLUDED.growth_rate,
			fcf_projections = EXCLUDED.fcf_projections,
			shares_outstanding = EXCLUDED.shares_outstanding,
			metadata = EXCLUDED.metadata,
			created_at = EXCLUDED.created_at
	`

	_, err = r.pool.Exec(ctx, query,
		result.Ticker, result.CalculationDate, result.FairValue, result.MarketPrice,
		result.DiscountRate, result.GrowthRate, projections, result.SharesOutstanding,
		metadata, result.CreatedAt,
	)
	if err != nil {
		return &contracts.PersistenceError{Op: "save calculation", Err: err}
	}
	return nil
}

// Latest returns the most recent result for the ticker, or (nil, nil)
// when the ticker has never been valued.
func (r *CalculationRepository) Latest(ctx context.Context, ticker string) (*contracts.ValuationResult, error) {
	query := selectCalculation + `
		WHERE ticker = $1
		ORDER BY calculation_date DESC
		LIMIT 1
	`

	result, err := scanCalculation(r.pool.QueryRow(ctx, query, ticker))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &contracts.PersistenceError{Op: "load latest calculation", Err: err}
	}
	return result, nil
}

// History returns results in descending date order. limit <= 0 means no
// limit.
func (r *CalculationRepository) History(ctx context.Context, ticker string, limit int) ([]*contracts.ValuationResult, error) {
	query := selectCalculation + `
		WHERE ticker = $1
		ORDER BY calculation_date DESC
	`
	args := []interface{}{ticker}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &contracts.PersistenceError{Op: "load calculation history", Err: err}
	}
	defer rows.Close()

	var results []*contracts.ValuationResult
	for rows.Next() {
		result, err := scanCalculation(rows)
		if err != nil {
			return nil, &contracts.PersistenceError{Op: "load calculation history", Err: err}
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, &contracts.PersistenceError{Op: "load calculation history", Err: err}
	}
	return results, nil
}

// AllTickers returns the distinct tickers with at least one saved result.
func (r *CalculationRepository) AllTickers(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT ticker
		FROM valuation.dcf_calculations
		ORDER BY ticker ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, &contracts.PersistenceError{Op: "list tickers", Err: err}
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, &contracts.PersistenceError{Op: "list tickers", Err: err}
		}
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &contracts.PersistenceError{Op: "list tickers", Err: err}
	}
	return tickers, nil
}

const selectCalculation = `
	SELECT ticker, calculation_date, fair_value, market_price,
	       discount_rate, growth_rate, fcf_projections, shares_outstanding,
	       metadata, created_at
	FROM valuation.dcf_calculations
`

// scanCalculation reads one row into a result, unmarshalling the JSONB
// columns.
func scanCalculation(row pgx.Row) (*contracts.ValuationResult, error) {
	var result contracts.ValuationResult
	var projections, metadata []byte

	err := row.Scan(
		&result.Ticker, &result.CalculationDate, &result.FairValue, &result.MarketPrice,
		&result.DiscountRate, &result.GrowthRate, &projections, &result.SharesOutstanding,
		&metadata, &result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(projections) > 0 {
		if err := json.Unmarshal(projections, &result.FCFProjections); err != nil {
			return nil, fmt.Errorf("failed to decode fcf_projections: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &result.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return &result, nil
}

package contracts

import (
	"context"
	"time"
)

// CalculationRepository persists valuation runs, one row per
// (ticker, calculation date). Save replaces any existing row for the key.
type CalculationRepository interface {
	Save(ctx context.Context, result *ValuationResult) error
	// Latest returns the most recent result for the ticker, or (nil, nil)
	// when none exists.
	Latest(ctx context.Context, ticker string) (*ValuationResult, error)
	// History returns results in descending date order. limit <= 0 means
	// no limit.
	History(ctx context.Context, ticker string, limit int) ([]*ValuationResult, error)
	// AllTickers returns distinct tickers with at least one result.
	AllTickers(ctx context.Context) ([]string, error)
}

// PriceRepository persists daily OHLCV bars, one row per (ticker, date).
type PriceRepository interface {
	SaveSeries(ctx context.Context, ticker string, bars []*PriceBar) error
	// History returns bars in ascending date order. Nil bounds are open.
	History(ctx context.Context, ticker string, from, to *time.Time) ([]*PriceBar, error)
}

// AlertRepository persists alert records.
type AlertRepository interface {
	Save(ctx context.Context, alert *Alert) error
	// Get returns the alert by id, or (nil, nil) when none exists.
	Get(ctx context.Context, id string) (*Alert, error)
	// ActiveByTicker returns active alerts for the ticker.
	ActiveByTicker(ctx context.Context, ticker string) ([]*Alert, error)
	// List returns alerts, optionally filtered by status, newest first.
	List(ctx context.Context, status *AlertStatus) ([]*Alert, error)
	Delete(ctx context.Context, id string) error
}

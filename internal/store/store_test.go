package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmoralesf/valora/internal/contracts"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}
	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	pool, err := pgxpool.New(context.Background(), connString)
	require.NoError(t, err, "database connection failed")
	t.Cleanup(pool.Close)
	return pool
}

func fptr(v float64) *float64 { return &v }

func TestCalculationRepository_RoundTrip(t *testing.T) {
	pool := testPool(t)
	repo := NewCalculationRepository(pool)
	ctx := context.Background()

	result := &contracts.ValuationResult{
		Ticker:            "ZZTEST",
		CalculationDate:   time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		FairValue:         2400,
		MarketPrice:       150,
		DiscountRate:      0.095,
		GrowthRate:        0.025,
		FCFProjections:    []float64{108, 116.64, 125.97, 134.79, 145.57},
		SharesOutstanding: 16,
		Metadata:          map[string]string{"usable_years": "5"},
		CreatedAt:         time.Now().UTC().Truncate(time.Microsecond),
	}

	require.NoError(t, repo.Save(ctx, result))
	defer pool.Exec(ctx, "DELETE FROM valuation.dcf_calculations WHERE ticker = 'ZZTEST'")

	loaded, err := repo.Latest(ctx, "ZZTEST")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, result.Ticker, loaded.Ticker)
	assert.Equal(t, result.FairValue, loaded.FairValue)
	assert.Equal(t, result.FCFProjections, loaded.FCFProjections)
	assert.Equal(t, "5", loaded.Metadata["usable_years"])

	// Upsert: same key replaces the row
	result.FairValue = 2500
	require.NoError(t, repo.Save(ctx, result))

	loaded, err = repo.Latest(ctx, "ZZTEST")
	require.NoError(t, err)
	assert.Equal(t, 2500.0, loaded.FairValue)

	history, err := repo.History(ctx, "ZZTEST", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	tickers, err := repo.AllTickers(ctx)
	require.NoError(t, err)
	assert.Contains(t, tickers, "ZZTEST")
}

func TestCalculationRepository_LatestMissing(t *testing.T) {
	pool := testPool(t)
	repo := NewCalculationRepository(pool)

	loaded, err := repo.Latest(context.Background(), "NO-SUCH-TICKER")
	require.NoError(t, err)
	assert.Nil(t, loaded, "missing ticker should be (nil, nil), not an error")
}

func TestPriceRepository_SaveSeries(t *testing.T) {
	pool := testPool(t)
	repo := NewPriceRepository(pool)
	ctx := context.Background()

	bars := []*contracts.PriceBar{
		{Date: time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), Close: fptr(150.5)},
		{Date: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), Open: fptr(151), Close: fptr(152.1)},
	}

	require.NoError(t, repo.SaveSeries(ctx, "ZZTEST", bars))
	defer pool.Exec(ctx, "DELETE FROM valuation.price_history WHERE ticker = 'ZZTEST'")

	loaded, err := repo.History(ctx, "ZZTEST", nil, nil)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// Ascending order, nullable fields preserved
	assert.True(t, loaded[0].Date.Before(loaded[1].Date))
	assert.Nil(t, loaded[0].Open)
	require.NotNil(t, loaded[1].Open)
	assert.Equal(t, 151.0, *loaded[1].Open)

	from := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	bounded, err := repo.History(ctx, "ZZTEST", &from, nil)
	require.NoError(t, err)
	assert.Len(t, bounded, 1)
}

func TestPriceRepository_RejectsMissingClose(t *testing.T) {
	pool := testPool(t)
	repo := NewPriceRepository(pool)
	ctx := context.Background()

	bars := []*contracts.PriceBar{
		{Date: time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), Close: fptr(150.5)},
		{Date: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)}, // no close
	}

	err := repo.SaveSeries(ctx, "ZZTEST2", bars)
	require.Error(t, err)

	// The whole call fails; the valid bar must not be written either
	loaded, err := repo.History(ctx, "ZZTEST2", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestAlertRepository_Lifecycle(t *testing.T) {
	pool := testPool(t)
	repo := NewAlertRepository(pool)
	ctx := context.Background()

	alert := contracts.NewTargetPriceAlert("ZZTEST", 180, contracts.ConditionAbove)
	require.NoError(t, repo.Save(ctx, alert))
	defer pool.Exec(ctx, "DELETE FROM valuation.alerts WHERE ticker = 'ZZTEST'")

	loaded, err := repo.Get(ctx, alert.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, contracts.StatusActive, loaded.Status)
	assert.Equal(t, contracts.AlertTargetPrice, loaded.Type)

	active, err := repo.ActiveByTicker(ctx, "ZZTEST")
	require.NoError(t, err)
	assert.Len(t, active, 1)

	// Trigger and save back
	now := time.Now().UTC()
	require.True(t, loaded.Trigger(185, now))
	require.NoError(t, repo.Save(ctx, loaded))

	reloaded, err := repo.Get(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusTriggered, reloaded.Status)
	require.NotNil(t, reloaded.TriggeredAt)

	active, err = repo.ActiveByTicker(ctx, "ZZTEST")
	require.NoError(t, err)
	assert.Empty(t, active)

	status := contracts.StatusTriggered
	listed, err := repo.List(ctx, &status)
	require.NoError(t, err)
	assert.NotEmpty(t, listed)

	require.NoError(t, repo.Delete(ctx, alert.ID))
	gone, err := repo.Get(ctx, alert.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/dmoralesf/valora/internal/contracts"
	"github.com/dmoralesf/valora/internal/marketdata"
	"github.com/dmoralesf/valora/pkg/config"
	"github.com/dmoralesf/valora/pkg/logger"
)

// PriceSyncJob pulls recent daily bars for every tracked ticker into the
// price history table.
type PriceSyncJob struct {
	client *marketdata.Client
	calcs  contracts.CalculationRepository
	prices contracts.PriceRepository
	config *config.Config
	logger *logger.Logger
}

// NewPriceSyncJob creates a new price sync job
func NewPriceSyncJob(client *marketdata.Client, calcs contracts.CalculationRepository,
	prices contracts.PriceRepository, cfg *config.Config, log *logger.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		client: client,
		calcs:  calcs,
		prices: prices,
		config: cfg,
		logger: log.WithField("job", "price_sync"),
	}
}

// Name returns the job name
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Schedule returns the cron schedule for price sync.
func (j *PriceSyncJob) Schedule() string {
	return j.config.Scheduler.PriceSchedule
}

// Run syncs the last 5 trading days for every ticker that has at least
// one valuation. Partial failures do not abort the sync.
func (j *PriceSyncJob) Run(ctx context.Context) error {
	tickers, err := j.calcs.AllTickers(ctx)
	if err != nil {
		return fmt.Errorf("list tickers: %w", err)
	}
	if len(tickers) == 0 {
		j.logger.Debug("No tickers to sync")
		return nil
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -5)

	results := j.client.FetchDailyPrices(ctx, tickers, from, to, j.config.MarketData.Workers)

	saved := 0
	failed := 0
	for _, result := range results {
		if result.Error != nil {
			failed++
			continue
		}
		if len(result.Bars) == 0 {
			continue
		}
		if err := j.prices.SaveSeries(ctx, result.Ticker, result.Bars); err != nil {
			j.logger.WithError(err).WithField("ticker", result.Ticker).Error("Price save failed")
			failed++
			continue
		}
		saved++
	}

	j.logger.WithFields(map[string]interface{}{
		"saved":  saved,
		"failed": failed,
		"total":  len(results),
	}).Info("Price sync completed")

	if saved == 0 && failed > 0 {
		return fmt.Errorf("price sync failed for all %d tickers", failed)
	}
	return nil
}

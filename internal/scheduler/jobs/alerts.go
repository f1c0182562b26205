package jobs

import (
	"context"
	"fmt"

	"github.com/dmoralesf/valora/internal/alerts"
	"github.com/dmoralesf/valora/internal/contracts"
	"github.com/dmoralesf/valora/internal/valuation"
	"github.com/dmoralesf/valora/pkg/config"
	"github.com/dmoralesf/valora/pkg/logger"
)

// AlertEvaluationJob periodically evaluates active alerts against fresh
// quotes and the latest persisted valuation.
type AlertEvaluationJob struct {
	engine   *alerts.Engine
	provider valuation.MarketDataProvider
	calcs    contracts.CalculationRepository
	config   *config.Config
	logger   *logger.Logger
}

// NewAlertEvaluationJob creates a new alert evaluation job
func NewAlertEvaluationJob(engine *alerts.Engine, provider valuation.MarketDataProvider,
	calcs contracts.CalculationRepository, cfg *config.Config, log *logger.Logger) *AlertEvaluationJob {
	return &AlertEvaluationJob{
		engine:   engine,
		provider: provider,
		calcs:    calcs,
		config:   cfg,
		logger:   log.WithField("job", "alert_evaluation"),
	}
}

// Name returns the job name
func (j *AlertEvaluationJob) Name() string {
	return "alert_evaluation"
}

// Schedule returns the cron schedule for alert evaluation.
func (j *AlertEvaluationJob) Schedule() string {
	return j.config.Scheduler.AlertSchedule
}

// Run evaluates every ticker with at least one active alert.
func (j *AlertEvaluationJob) Run(ctx context.Context) error {
	status := contracts.StatusActive
	active, err := j.engine.List(ctx, &status)
	if err != nil {
		return fmt.Errorf("list active alerts: %w", err)
	}
	if len(active) == 0 {
		j.logger.Debug("No active alerts")
		return nil
	}

	tickers := make(map[string]struct{})
	for _, alert := range active {
		tickers[alert.Ticker] = struct{}{}
	}

	evaluated := 0
	triggered := 0
	var lastErr error

	for ticker := range tickers {
		quote, err := j.provider.Quote(ctx, ticker)
		if err != nil {
			j.logger.WithError(err).WithField("ticker", ticker).Warn("Quote fetch failed, skipping ticker")
			lastErr = err
			continue
		}

		// Upside needs a stored valuation and a positive price
		var upside *float64
		latest, err := j.calcs.Latest(ctx, ticker)
		if err != nil {
			j.logger.WithError(err).WithField("ticker", ticker).Warn("Latest calculation lookup failed")
		} else if latest != nil && quote.Price > 0 {
			u := (latest.FairValuePerShare() - quote.Price) / quote.Price * 100
			upside = &u
		}

		fired, err := j.engine.Evaluate(ctx, ticker, quote.Price, upside)
		if err != nil {
			j.logger.WithError(err).WithField("ticker", ticker).Error("Alert evaluation failed")
			lastErr = err
			continue
		}
		evaluated++
		triggered += len(fired)
	}

	j.logger.WithFields(map[string]interface{}{
		"tickers":   evaluated,
		"triggered": triggered,
	}).Info("Alert evaluation completed")

	if evaluated == 0 && lastErr != nil {
		return fmt.Errorf("no ticker could be evaluated: %w", lastErr)
	}
	return nil
}

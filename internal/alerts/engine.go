package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/dmoralesf/valora/internal/contracts"
	"github.com/dmoralesf/valora/pkg/logger"
)

// Engine evaluates and manages market alerts on top of the alert
// repository. All state transitions go through the engine.
type Engine struct {
	repo   contracts.AlertRepository
	logger *logger.Logger
}

// NewEngine creates a new alert engine
func NewEngine(repo contracts.AlertRepository, log *logger.Logger) *Engine {
	return &Engine{
		repo:   repo,
		logger: log.WithField("module", "alerts"),
	}
}

// CreateTargetPrice registers a target-price alert for the ticker.
func (e *Engine) CreateTargetPrice(ctx context.Context, ticker string, target float64, cond contracts.AlertCondition) (*contracts.Alert, error) {
	if !cond.Valid() {
		return nil, fmt.Errorf("invalid alert condition: %q", cond)
	}
	alert := contracts.NewTargetPriceAlert(ticker, target, cond)
	if err := e.repo.Save(ctx, alert); err != nil {
		return nil, err
	}
	e.logger.WithFields(map[string]interface{}{
		"alert_id": alert.ID,
		"ticker":   ticker,
		"target":   target,
	}).Info("Target price alert created")
	return alert, nil
}

// CreateUpsideChange registers an upside-change alert referenced to the
// current upside percentage.
func (e *Engine) CreateUpsideChange(ctx context.Context, ticker string, baseUpside, threshold float64) (*contracts.Alert, error) {
	alert := contracts.NewUpsideChangeAlert(ticker, baseUpside, threshold)
	if err := e.repo.Save(ctx, alert); err != nil {
		return nil, err
	}
	e.logger.WithFields(map[string]interface{}{
		"alert_id":  alert.ID,
		"ticker":    ticker,
		"threshold": threshold,
	}).Info("Upside change alert created")
	return alert, nil
}

// Evaluate checks every active alert for the ticker against the current
// price and, when supplied, the current upside percentage. Alerts whose
// condition holds are transitioned to triggered and persisted. Returns
// the alerts triggered by this evaluation.
func (e *Engine) Evaluate(ctx context.Context, ticker string, price float64, upside *float64) ([]*contracts.Alert, error) {
	active, err := e.repo.ActiveByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var triggered []*contracts.Alert

	for _, alert := range active {
		current, ok := e.currentValue(alert, price, upside)
		if !ok {
			continue
		}
		if !alert.CheckCondition(current) {
			continue
		}
		if !alert.Trigger(current, now) {
			continue
		}
		if err := e.repo.Save(ctx, alert); err != nil {
			return triggered, err
		}
		triggered = append(triggered, alert)

		e.logger.WithFields(map[string]interface{}{
			"alert_id": alert.ID,
			"ticker":   ticker,
			"current":  current,
			"target":   alert.TargetValue,
		}).Info("Alert triggered")
	}

	return triggered, nil
}

// currentValue picks the figure an alert type watches. Upside-based
// alerts are skipped when no upside was supplied.
func (e *Engine) currentValue(alert *contracts.Alert, price float64, upside *float64) (float64, bool) {
	switch alert.Type {
	case contracts.AlertUpsideChange:
		if upside == nil {
			return 0, false
		}
		return *upside, true
	default:
		return price, true
	}
}

// Dismiss transitions an active alert to dismissed.
func (e *Engine) Dismiss(ctx context.Context, id string) error {
	alert, err := e.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if alert == nil {
		return fmt.Errorf("alert not found: %s", id)
	}
	if !alert.Dismiss() {
		return fmt.Errorf("alert %s is not active (status %s)", id, alert.Status)
	}
	return e.repo.Save(ctx, alert)
}

// Delete removes an alert regardless of status.
func (e *Engine) Delete(ctx context.Context, id string) error {
	return e.repo.Delete(ctx, id)
}

// List returns alerts, optionally filtered by status.
func (e *Engine) List(ctx context.Context, status *contracts.AlertStatus) ([]*contracts.Alert, error) {
	return e.repo.List(ctx, status)
}

package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmoralesf/valora/internal/contracts"
)

// AlertRepository implements contracts.AlertRepository on PostgreSQL.
type AlertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

// Save upserts an alert by id.
func (r *AlertRepository) Save(ctx context.Context, alert *contracts.Alert) error {
	metadata, err := json.Marshal(alert.Metadata)
	if err != nil {
		return &contracts.PersistenceError{Op: "save alert", Err: err}
	}

	query := `
		INSERT INTO valuation.alerts (
			id, ticker, alert_type, condition, target_value, current_value,
			status, created_at, triggered_at, message, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			current_value = EXCLUDED.current_value,
			status = EXCLUDED.status,
			triggered_at = EXCLUDED.triggered_at,
			message = EXCLUDED.message,
			metadata = EXCLUDED.metadata
	`

	_, err = r.pool.Exec(ctx, query,
		alert.ID, alert.Ticker, alert.Type, alert.Condition, alert.TargetValue, alert.CurrentValue,
		alert.Status, alert.CreatedAt, alert.TriggeredAt, alert.Message, metadata,
	)
	if err != nil {
		return &contracts.PersistenceError{Op: "save alert", Err: err}
	}
	return nil
}

// Get returns the alert by id, or (nil, nil) when it does not exist.
func (r *AlertRepository) Get(ctx context.Context, id string) (*contracts.Alert, error) {
	query := selectAlert + " WHERE id = $1"

	alert, err := scanAlert(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &contracts.PersistenceError{Op: "load alert", Err: err}
	}
	return alert, nil
}

// ActiveByTicker returns active alerts for the ticker, oldest first.
func (r *AlertRepository) ActiveByTicker(ctx context.Context, ticker string) ([]*contracts.Alert, error) {
	query := selectAlert + `
		WHERE ticker = $1 AND status = $2
		ORDER BY created_at ASC
	`
	return r.queryAlerts(ctx, "load active alerts", query, ticker, contracts.StatusActive)
}

// List returns alerts, optionally filtered by status, newest first.
func (r *AlertRepository) List(ctx context.Context, status *contracts.AlertStatus) ([]*contracts.Alert, error) {
	if status != nil {
		query := selectAlert + " WHERE status = $1 ORDER BY created_at DESC"
		return r.queryAlerts(ctx, "list alerts", query, *status)
	}
	query := selectAlert + " ORDER BY created_at DESC"
	return r.queryAlerts(ctx, "list alerts", query)
}

// Delete removes an alert. Deleting a missing id is not an error.
func (r *AlertRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM valuation.alerts WHERE id = $1", id)
	if err != nil {
		return &contracts.PersistenceError{Op: "delete alert", Err: err}
	}
	return nil
}

func (r *AlertRepository) queryAlerts(ctx context.Context, op, query string, args ...interface{}) ([]*contracts.Alert, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &contracts.PersistenceError{Op: op, Err: err}
	}
	defer rows.Close()

	var alerts []*contracts.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, &contracts.PersistenceError{Op: op, Err: err}
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, &contracts.PersistenceError{Op: op, Err: err}
	}
	return alerts, nil
}

const selectAlert = `
	SELECT id, ticker, alert_type, condition, target_value, current_value,
	       status, created_at, triggered_at, message, metadata
	FROM valuation.alerts
`

func scanAlert(row pgx.Row) (*contracts.Alert, error) {
	var alert contracts.Alert
	var metadata []byte

	err := row.Scan(
		&alert.ID, &alert.Ticker, &alert.Type, &alert.Condition, &alert.TargetValue, &alert.CurrentValue,
		&alert.Status, &alert.CreatedAt, &alert.TriggeredAt, &alert.Message, &metadata,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &alert.Metadata); err != nil {
			return nil, err
		}
	}
	return &alert, nil
}

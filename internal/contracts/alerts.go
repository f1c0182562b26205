package contracts

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// DefaultChangeThreshold is the percentage threshold used by change
// conditions when the alert metadata does not override it.
const DefaultChangeThreshold = 10.0

// EqualsTolerance is the absolute tolerance (currency units) for the
// equals condition.
const EqualsTolerance = 0.01

// AlertType identifies what an alert watches.
type AlertType string

const (
	AlertTargetPrice  AlertType = "target_price"
	AlertPriceChange  AlertType = "price_change"
	AlertUpsideChange AlertType = "upside_change"
	AlertWatchlist    AlertType = "watchlist"
	AlertCustom       AlertType = "custom"
)

// Valid reports whether the type is one of the closed set.
func (t AlertType) Valid() bool {
	switch t {
	case AlertTargetPrice, AlertPriceChange, AlertUpsideChange, AlertWatchlist, AlertCustom:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown alert types at the decode boundary.
func (t *AlertType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := AlertType(s)
	if !v.Valid() {
		return fmt.Errorf("unknown alert type: %q", s)
	}
	*t = v
	return nil
}

// AlertCondition is the comparison applied during evaluation.
type AlertCondition string

const (
	ConditionAbove       AlertCondition = "above"
	ConditionBelow       AlertCondition = "below"
	ConditionEquals      AlertCondition = "equals"
	ConditionChangeAbove AlertCondition = "change_above"
	ConditionChangeBelow AlertCondition = "change_below"
)

// Valid reports whether the condition is one of the closed set.
func (c AlertCondition) Valid() bool {
	switch c {
	case ConditionAbove, ConditionBelow, ConditionEquals, ConditionChangeAbove, ConditionChangeBelow:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown conditions at the decode boundary.
func (c *AlertCondition) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := AlertCondition(s)
	if !v.Valid() {
		return fmt.Errorf("unknown alert condition: %q", s)
	}
	*c = v
	return nil
}

// AlertStatus is the lifecycle state of an alert.
type AlertStatus string

const (
	StatusActive    AlertStatus = "active"
	StatusTriggered AlertStatus = "triggered"
	StatusDismissed AlertStatus = "dismissed"
	StatusExpired   AlertStatus = "expired"
)

// Valid reports whether the status is one of the closed set.
func (s AlertStatus) Valid() bool {
	switch s {
	case StatusActive, StatusTriggered, StatusDismissed, StatusExpired:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown statuses at the decode boundary.
func (s *AlertStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	v := AlertStatus(str)
	if !v.Valid() {
		return fmt.Errorf("unknown alert status: %q", str)
	}
	*s = v
	return nil
}

// AlertMetadata carries the documented optional extension keys plus an
// escape-hatch bag for provenance.
type AlertMetadata struct {
	ChangeThreshold *float64          `json:"change_threshold,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// Alert is a user-defined market condition watch. Mutated only by the
// alert engine's evaluation and dismissal operations.
type Alert struct {
	ID           string         `json:"id"`
	Ticker       string         `json:"ticker"`
	Type         AlertType      `json:"alert_type"`
	Condition    AlertCondition `json:"condition"`
	TargetValue  float64        `json:"target_value"`
	CurrentValue float64        `json:"current_value"`
	Status       AlertStatus    `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	TriggeredAt  *time.Time     `json:"triggered_at,omitempty"`
	Message      string         `json:"message"`
	Metadata     AlertMetadata  `json:"metadata,omitempty"`
}

// NewAlert creates an active alert with a stable id derived from
// ticker, type and the creation instant.
func NewAlert(ticker string, typ AlertType, cond AlertCondition, target float64) *Alert {
	now := time.Now().UTC()
	return &Alert{
		ID:          fmt.Sprintf("%s-%s-%s", ticker, typ, uuid.New().String()[:8]),
		Ticker:      ticker,
		Type:        typ,
		Condition:   cond,
		TargetValue: target,
		Status:      StatusActive,
		CreatedAt:   now,
	}
}

// NewTargetPriceAlert creates a target-price alert with a default message.
func NewTargetPriceAlert(ticker string, target float64, cond AlertCondition) *Alert {
	a := NewAlert(ticker, AlertTargetPrice, cond, target)
	direction := "alcanza"
	if cond == ConditionBelow {
		direction = "cae a"
	}
	a.Message = fmt.Sprintf("%s %s el precio objetivo %.2f", ticker, direction, target)
	return a
}

// NewUpsideChangeAlert creates an upside-change alert with a default
// message. baseUpside is the reference upside percentage at creation.
func NewUpsideChangeAlert(ticker string, baseUpside, threshold float64) *Alert {
	a := NewAlert(ticker, AlertUpsideChange, ConditionChangeAbove, baseUpside)
	a.Metadata.ChangeThreshold = &threshold
	a.Message = fmt.Sprintf("Potencial de %s varía más de %.1f%% desde %.2f%%", ticker, threshold, baseUpside)
	return a
}

// ChangeThreshold returns the metadata threshold or the default.
func (a *Alert) ChangeThreshold() float64 {
	if a.Metadata.ChangeThreshold != nil {
		return *a.Metadata.ChangeThreshold
	}
	return DefaultChangeThreshold
}

// CheckCondition evaluates the alert condition against a current value.
// It does not mutate the alert.
func (a *Alert) CheckCondition(current float64) bool {
	switch a.Condition {
	case ConditionAbove:
		return current >= a.TargetValue
	case ConditionBelow:
		return current <= a.TargetValue
	case ConditionEquals:
		return math.Abs(current-a.TargetValue) < EqualsTolerance
	case ConditionChangeAbove:
		if a.TargetValue == 0 {
			return false
		}
		change := (current - a.TargetValue) / a.TargetValue * 100
		return change >= a.ChangeThreshold()
	case ConditionChangeBelow:
		if a.TargetValue == 0 {
			return false
		}
		change := (current - a.TargetValue) / a.TargetValue * 100
		return change <= -a.ChangeThreshold()
	}
	return false
}

// Trigger transitions an active alert to triggered, stamping TriggeredAt
// exactly once. Returns false if the alert was not active.
func (a *Alert) Trigger(current float64, at time.Time) bool {
	if a.Status != StatusActive {
		return false
	}
	a.Status = StatusTriggered
	a.CurrentValue = current
	t := at.UTC()
	a.TriggeredAt = &t
	return true
}

// Dismiss transitions an active alert to dismissed. Returns false if the
// alert was not active.
func (a *Alert) Dismiss() bool {
	if a.Status != StatusActive {
		return false
	}
	a.Status = StatusDismissed
	return true
}

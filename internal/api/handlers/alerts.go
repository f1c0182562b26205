package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmoralesf/valora/internal/alerts"
	"github.com/dmoralesf/valora/internal/contracts"
	"github.com/dmoralesf/valora/pkg/logger"
)

// AlertHandler handles alert API endpoints.
type AlertHandler struct {
	engine *alerts.Engine
	logger *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(engine *alerts.Engine, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		engine: engine,
		logger: log,
	}
}

// CreateAlertRequest creates one alert. Type defaults to target_price.
type CreateAlertRequest struct {
	Ticker      string                   `json:"ticker"`
	Type        contracts.AlertType      `json:"alert_type,omitempty"`
	Condition   contracts.AlertCondition `json:"condition,omitempty"`
	TargetValue float64                  `json:"target_value"`
	Threshold   *float64                 `json:"change_threshold,omitempty"`
}

// Create registers a new alert
// POST /api/alerts
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	var alert *contracts.Alert
	var err error

	switch req.Type {
	case contracts.AlertUpsideChange:
		threshold := contracts.DefaultChangeThreshold
		if req.Threshold != nil {
			threshold = *req.Threshold
		}
		alert, err = h.engine.CreateUpsideChange(r.Context(), req.Ticker, req.TargetValue, threshold)
	case "", contracts.AlertTargetPrice:
		cond := req.Condition
		if cond == "" {
			cond = contracts.ConditionAbove
		}
		alert, err = h.engine.CreateTargetPrice(r.Context(), req.Ticker, req.TargetValue, cond)
	default:
		respondError(w, http.StatusBadRequest, "unsupported alert type: "+string(req.Type))
		return
	}

	if err != nil {
		h.logger.WithError(err).Error("Failed to create alert")
		respondError(w, http.StatusInternalServerError, "Failed to create alert")
		return
	}

	respondJSON(w, http.StatusCreated, alert)
}

// List returns alerts, optionally filtered by status
// GET /api/alerts?status=active
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	status, ok := h.statusFilter(w, r)
	if !ok {
		return
	}

	result, err := h.engine.List(r.Context(), status)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list alerts")
		respondError(w, http.StatusInternalServerError, "Failed to list alerts")
		return
	}
	if result == nil {
		result = []*contracts.Alert{}
	}

	respondJSON(w, http.StatusOK, result)
}

// EvaluateRequest carries the values to evaluate alerts against.
type EvaluateRequest struct {
	Price  float64  `json:"price"`
	Upside *float64 `json:"upside,omitempty"`
}

// Evaluate checks active alerts for a ticker against supplied values
// POST /api/alerts/evaluate/{ticker}
func (h *AlertHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	triggered, err := h.engine.Evaluate(r.Context(), ticker, req.Price, req.Upside)
	if err != nil {
		h.logger.WithError(err).Error("Alert evaluation failed")
		respondError(w, http.StatusInternalServerError, "Alert evaluation failed")
		return
	}
	if triggered == nil {
		triggered = []*contracts.Alert{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":    ticker,
		"triggered": triggered,
	})
}

// Dismiss transitions an active alert to dismissed
// POST /api/alerts/{id}/dismiss
func (h *AlertHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.engine.Dismiss(r.Context(), id); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "dismissed", "id": id})
}

// Delete removes an alert
// DELETE /api/alerts/{id}
func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.engine.Delete(r.Context(), id); err != nil {
		h.logger.WithError(err).Error("Failed to delete alert")
		respondError(w, http.StatusInternalServerError, "Failed to delete alert")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// ExportCSV streams alerts as CSV
// GET /api/alerts/export?status=triggered
func (h *AlertHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	status, ok := h.statusFilter(w, r)
	if !ok {
		return
	}

	result, err := h.engine.List(r.Context(), status)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list alerts for export")
		respondError(w, http.StatusInternalServerError, "Failed to export alerts")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="alerts.csv"`)

	if err := alerts.ExportCSV(w, result); err != nil {
		h.logger.WithError(err).Error("CSV export failed")
	}
}

// statusFilter parses an optional ?status= query parameter. Returns
// false after writing an error response for unknown statuses.
func (h *AlertHandler) statusFilter(w http.ResponseWriter, r *http.Request) (*contracts.AlertStatus, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, true
	}
	status := contracts.AlertStatus(raw)
	if !status.Valid() {
		respondError(w, http.StatusBadRequest, "unknown status: "+raw)
		return nil, false
	}
	return &status, true
}

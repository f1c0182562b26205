package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dmoralesf/valora/internal/contracts"
	"github.com/dmoralesf/valora/internal/valuation"
	"github.com/dmoralesf/valora/pkg/logger"
)

// ValuationHandler handles valuation API endpoints.
type ValuationHandler struct {
	service *valuation.Service
	calcs   contracts.CalculationRepository
	logger  *logger.Logger
}

// NewValuationHandler creates a new valuation handler
func NewValuationHandler(service *valuation.Service, calcs contracts.CalculationRepository, log *logger.Logger) *ValuationHandler {
	return &ValuationHandler{
		service: service,
		calcs:   calcs,
		logger:  log,
	}
}

// ValuateRequest tweaks a valuation run.
type ValuateRequest struct {
	GrowthPath []float64 `json:"growth_path,omitempty"`
	UseNetDebt bool      `json:"use_net_debt,omitempty"`
	Persist    *bool     `json:"persist,omitempty"` // default true
}

// Valuate runs a DCF valuation for the ticker
// POST /api/valuations/{ticker}
func (h *ValuationHandler) Valuate(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	var req ValuateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	persist := true
	if req.Persist != nil {
		persist = *req.Persist
	}

	payload, _, err := h.service.Valuate(r.Context(), ticker, valuation.Options{
		GrowthPath: req.GrowthPath,
		UseNetDebt: req.UseNetDebt,
		Persist:    persist,
	})
	if err != nil {
		h.respondValuationError(w, ticker, err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

// Latest returns the most recent persisted valuation
// GET /api/valuations/{ticker}/latest
func (h *ValuationHandler) Latest(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	result, err := h.calcs.Latest(r.Context(), ticker)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load latest valuation")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve valuation")
		return
	}
	if result == nil {
		respondError(w, http.StatusNotFound, "No valuation found for "+ticker)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// History returns persisted valuations, newest first
// GET /api/valuations/{ticker}/history?limit=N
func (h *ValuationHandler) History(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	results, err := h.calcs.History(r.Context(), ticker, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load valuation history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}
	if results == nil {
		results = []*contracts.ValuationResult{}
	}

	respondJSON(w, http.StatusOK, results)
}

// SensitivityRequest defines the rate grid.
type SensitivityRequest struct {
	WACCValues   []float64 `json:"wacc_values"`
	GrowthValues []float64 `json:"growth_values"`
}

// Sensitivity evaluates a WACC x growth grid for the ticker
// POST /api/valuations/{ticker}/sensitivity
func (h *ValuationHandler) Sensitivity(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	var req SensitivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.WACCValues) == 0 || len(req.GrowthValues) == 0 {
		respondError(w, http.StatusBadRequest, "wacc_values and growth_values are required")
		return
	}

	grid, err := h.service.Sensitivity(r.Context(), ticker, req.WACCValues, req.GrowthValues)
	if err != nil {
		h.respondValuationError(w, ticker, err)
		return
	}

	respondJSON(w, http.StatusOK, grid)
}

// Tickers returns every ticker with at least one persisted valuation
// GET /api/valuations
func (h *ValuationHandler) Tickers(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.calcs.AllTickers(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list tickers")
		respondError(w, http.StatusInternalServerError, "Failed to list tickers")
		return
	}
	if tickers == nil {
		tickers = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"tickers": tickers})
}

// respondValuationError maps domain errors to HTTP statuses.
func (h *ValuationHandler) respondValuationError(w http.ResponseWriter, ticker string, err error) {
	var insufficientErr *contracts.InsufficientDataError
	var spreadErr *contracts.InvalidSpreadError
	var acquisitionErr *contracts.AcquisitionError

	switch {
	case errors.As(err, &insufficientErr):
		respondError(w, http.StatusUnprocessableEntity, insufficientErr.Error())
	case errors.As(err, &spreadErr):
		respondError(w, http.StatusUnprocessableEntity, spreadErr.Error())
	case errors.As(err, &acquisitionErr):
		h.logger.WithError(err).WithField("ticker", ticker).Warn("Data acquisition failed")
		respondError(w, http.StatusBadGateway, "Market data unavailable for "+ticker)
	default:
		h.logger.WithError(err).WithField("ticker", ticker).Error("Valuation failed")
		respondError(w, http.StatusInternalServerError, "Valuation failed")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

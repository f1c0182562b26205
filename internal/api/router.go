package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmoralesf/valora/internal/api/handlers"
	"github.com/dmoralesf/valora/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(valuationHandler *handlers.ValuationHandler, alertHandler *handlers.AlertHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Valuation endpoints
	api.HandleFunc("/valuations/{ticker}", valuationHandler.Valuate).Methods("POST")
	api.HandleFunc("/valuations/{ticker}/latest", valuationHandler.Latest).Methods("GET")
	api.HandleFunc("/valuations/{ticker}/history", valuationHandler.History).Methods("GET")
	api.HandleFunc("/valuations/{ticker}/sensitivity", valuationHandler.Sensitivity).Methods("POST")
	api.HandleFunc("/valuations", valuationHandler.Tickers).Methods("GET")

	// Alert endpoints
	api.HandleFunc("/alerts", alertHandler.Create).Methods("POST")
	api.HandleFunc("/alerts", alertHandler.List).Methods("GET")
	api.HandleFunc("/alerts/export", alertHandler.ExportCSV).Methods("GET")
	api.HandleFunc("/alerts/evaluate/{ticker}", alertHandler.Evaluate).Methods("POST")
	api.HandleFunc("/alerts/{id}/dismiss", alertHandler.Dismiss).Methods("POST")
	api.HandleFunc("/alerts/{id}", alertHandler.Delete).Methods("DELETE")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "valora-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

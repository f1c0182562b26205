package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmoralesf/valora/internal/api"
	"github.com/dmoralesf/valora/internal/api/handlers"
	"github.com/dmoralesf/valora/internal/scheduler"
	"github.com/dmoralesf/valora/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the REST API server.

Endpoints:
  GET    /health                                - Health check
  POST   /api/valuations/{ticker}               - Run a DCF valuation
  GET    /api/valuations/{ticker}/latest        - Latest stored valuation
  GET    /api/valuations/{ticker}/history       - Valuation history
  POST   /api/valuations/{ticker}/sensitivity   - WACC x growth grid
  GET    /api/valuations                        - Tickers with valuations
  POST   /api/alerts                            - Create an alert
  GET    /api/alerts                            - List alerts
  GET    /api/alerts/export                     - Export alerts as CSV
  POST   /api/alerts/evaluate/{ticker}          - Evaluate active alerts
  POST   /api/alerts/{id}/dismiss               - Dismiss an alert
  DELETE /api/alerts/{id}                       - Delete an alert

Example:
  go run ./cmd/valora api
  go run ./cmd/valora api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Valora API Server ===")

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.Config.Port = apiPort
	}

	log := a.Logger
	log.WithFields(map[string]interface{}{
		"port": a.Config.Port,
		"env":  a.Config.Env,
	}).Info("Initializing API server")

	valuationHandler := handlers.NewValuationHandler(a.Valuation, a.Calcs, log)
	alertHandler := handlers.NewAlertHandler(a.AlertEngine, log)

	router := api.NewRouter(valuationHandler, alertHandler, log)
	server := api.New(a.Config, log, router)

	// Background jobs run inside the API process when enabled
	var sched *scheduler.Scheduler
	if a.Config.Scheduler.Enabled {
		sched = scheduler.New(log)
		if err := sched.AddJob(jobs.NewAlertEvaluationJob(a.AlertEngine, a.Market, a.Calcs, a.Config, log)); err != nil {
			return err
		}
		if err := sched.AddJob(jobs.NewPriceSyncJob(a.Market, a.Calcs, a.Prices, a.Config, log)); err != nil {
			return err
		}
		sched.Start()
	}

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.Config.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

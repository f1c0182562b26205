package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmoralesf/valora/internal/scheduler"
	"github.com/dmoralesf/valora/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the background job scheduler",
	Long: `Runs the cron scheduler as a standalone process:
- alert_evaluation: evaluates active alerts against fresh quotes
- price_sync: pulls recent daily bars for tracked tickers

Example:
  go run ./cmd/valora scheduler
  go run ./cmd/valora scheduler --run-now price_sync`,
	RunE: runScheduler,
}

var schedulerRunNow string

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringVar(&schedulerRunNow, "run-now", "", "run one job immediately on startup")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Valora Scheduler ===")

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	log := a.Logger

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewAlertEvaluationJob(a.AlertEngine, a.Market, a.Calcs, a.Config, log)); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewPriceSyncJob(a.Market, a.Calcs, a.Prices, a.Config, log)); err != nil {
		return err
	}

	sched.Start()

	if schedulerRunNow != "" {
		if err := sched.RunJob(schedulerRunNow); err != nil {
			return err
		}
		fmt.Printf("Triggered job: %s\n", schedulerRunNow)
	}

	fmt.Println("\nScheduled jobs:")
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

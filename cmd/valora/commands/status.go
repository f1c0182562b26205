package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and stored valuations",
	Long: `Checks database and cache connectivity and summarizes the
tickers with stored valuations.

Example:
  go run ./cmd/valora status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	printSection("Valora Status")

	if err := a.DB.Ping(ctx); err != nil {
		printError(fmt.Sprintf("Database: %v", err))
	} else {
		printSuccess("Database: connected")
		stats := a.DB.Stats()
		printKV("Pool", fmt.Sprintf("%d/%d connections", stats.AcquiredConns, stats.TotalConns))
	}

	if a.Redis != nil && a.Redis.Enabled() {
		printSuccess("Redis: enabled")
	} else {
		printKV("Redis", "disabled")
	}

	tickers, err := a.Calcs.AllTickers(ctx)
	if err != nil {
		return err
	}

	printSeparator()
	printKV("Tracked tickers", fmt.Sprintf("%d", len(tickers)))

	for _, ticker := range tickers {
		latest, err := a.Calcs.Latest(ctx, ticker)
		if err != nil || latest == nil {
			continue
		}
		fmt.Printf("  %-8s fair=%.2f market=%.2f upside=%.1f%% (%s)\n",
			ticker, latest.FairValuePerShare(), latest.MarketPrice, latest.Upside(),
			latest.CalculationDate.Format("2006-01-02"))
	}

	return nil
}

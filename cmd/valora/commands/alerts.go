package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmoralesf/valora/internal/alerts"
	"github.com/dmoralesf/valora/internal/contracts"
)

// alertsCmd groups alert management subcommands
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Manage price and upside alerts",
	Long: `Create, list, evaluate, dismiss and export alerts.

Example:
  go run ./cmd/valora alerts create AAPL --target 180 --condition above
  go run ./cmd/valora alerts list --status active
  go run ./cmd/valora alerts evaluate AAPL
  go run ./cmd/valora alerts export --out alerts.csv`,
}

var (
	alertTarget    float64
	alertCondition string
	alertType      string
	alertThreshold float64
	alertStatus    string
	alertExportOut string
)

var alertsCreateCmd = &cobra.Command{
	Use:   "create [ticker]",
	Short: "Create an alert",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsCreate,
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts",
	RunE:  runAlertsList,
}

var alertsEvaluateCmd = &cobra.Command{
	Use:   "evaluate [ticker]",
	Short: "Evaluate active alerts for a ticker against a fresh quote",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsEvaluate,
}

var alertsDismissCmd = &cobra.Command{
	Use:   "dismiss [id]",
	Short: "Dismiss an active alert",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsDismiss,
}

var alertsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export alerts as CSV",
	RunE:  runAlertsExport,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsCreateCmd, alertsListCmd, alertsEvaluateCmd, alertsDismissCmd, alertsExportCmd)

	alertsCreateCmd.Flags().Float64Var(&alertTarget, "target", 0, "target value (price, or base upside for upside_change)")
	alertsCreateCmd.Flags().StringVar(&alertCondition, "condition", "above", "condition (above|below|equals)")
	alertsCreateCmd.Flags().StringVar(&alertType, "type", "target_price", "alert type (target_price|upside_change)")
	alertsCreateCmd.Flags().Float64Var(&alertThreshold, "threshold", contracts.DefaultChangeThreshold, "change threshold percent (upside_change)")

	alertsListCmd.Flags().StringVar(&alertStatus, "status", "", "filter by status (active|triggered|dismissed|expired)")
	alertsExportCmd.Flags().StringVar(&alertStatus, "status", "", "filter by status")
	alertsExportCmd.Flags().StringVar(&alertExportOut, "out", "", "output file (default stdout)")
}

func runAlertsCreate(cmd *cobra.Command, args []string) error {
	ticker := strings.ToUpper(args[0])

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var alert *contracts.Alert
	switch contracts.AlertType(alertType) {
	case contracts.AlertUpsideChange:
		alert, err = a.AlertEngine.CreateUpsideChange(ctx, ticker, alertTarget, alertThreshold)
	case contracts.AlertTargetPrice:
		alert, err = a.AlertEngine.CreateTargetPrice(ctx, ticker, alertTarget, contracts.AlertCondition(alertCondition))
	default:
		return fmt.Errorf("unsupported alert type: %s", alertType)
	}
	if err != nil {
		return err
	}

	printSuccess(fmt.Sprintf("Alert created: %s", alert.ID))
	printKV("Message", alert.Message)
	return nil
}

func runAlertsList(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, err := parseStatusFilter(alertStatus)
	if err != nil {
		return err
	}

	list, err := a.AlertEngine.List(ctx, status)
	if err != nil {
		return err
	}

	printSection(fmt.Sprintf("Alerts (%d)", len(list)))
	printTableHeader([]string{"ID", "Ticker", "Condition", "Target", "Status"}, []int{30, 8, 14, 10, 10})
	for _, alert := range list {
		fmt.Printf("%-30s  %-8s  %-14s  %-10.2f  %-10s\n",
			alert.ID, alert.Ticker, alert.Condition, alert.TargetValue, alert.Status)
	}
	return nil
}

func runAlertsEvaluate(cmd *cobra.Command, args []string) error {
	ticker := strings.ToUpper(args[0])

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	quote, err := a.Market.Quote(ctx, ticker)
	if err != nil {
		return fmt.Errorf("fetch quote: %w", err)
	}

	var upside *float64
	if latest, err := a.Calcs.Latest(ctx, ticker); err == nil && latest != nil && quote.Price > 0 {
		u := (latest.FairValuePerShare() - quote.Price) / quote.Price * 100
		upside = &u
	}

	triggered, err := a.AlertEngine.Evaluate(ctx, ticker, quote.Price, upside)
	if err != nil {
		return err
	}

	if len(triggered) == 0 {
		fmt.Printf("No alerts triggered for %s (price %.2f)\n", ticker, quote.Price)
		return nil
	}

	for _, alert := range triggered {
		printSuccess(fmt.Sprintf("Triggered: %s", alert.Message))
	}
	return nil
}

func runAlertsDismiss(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.AlertEngine.Dismiss(ctx, args[0]); err != nil {
		return err
	}

	printSuccess(fmt.Sprintf("Alert dismissed: %s", args[0]))
	return nil
}

func runAlertsExport(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, err := parseStatusFilter(alertStatus)
	if err != nil {
		return err
	}

	list, err := a.AlertEngine.List(ctx, status)
	if err != nil {
		return err
	}

	out := os.Stdout
	if alertExportOut != "" {
		f, err := os.Create(alertExportOut)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := alerts.ExportCSV(out, list); err != nil {
		return err
	}

	if alertExportOut != "" {
		printSuccess(fmt.Sprintf("Exported %d alerts to %s", len(list), alertExportOut))
	}
	return nil
}

// parseStatusFilter validates an optional status filter.
func parseStatusFilter(raw string) (*contracts.AlertStatus, error) {
	if raw == "" {
		return nil, nil
	}
	status := contracts.AlertStatus(raw)
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status: %s", raw)
	}
	return &status, nil
}

package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmoralesf/valora/internal/valuation"
)

// valuateCmd represents the valuate command
var valuateCmd = &cobra.Command{
	Use:   "valuate [ticker]",
	Short: "Run a DCF valuation for a ticker",
	Long: `Runs the full DCF pipeline for one ticker: cash flow history,
growth modeling, WACC and terminal growth estimation, discounting.

Example:
  go run ./cmd/valora valuate AAPL
  go run ./cmd/valora valuate AAPL --growth 0.08,0.07,0.06
  go run ./cmd/valora valuate AAPL --net-debt --no-persist`,
	Args: cobra.ExactArgs(1),
	RunE: runValuate,
}

var (
	valuateGrowthPath string
	valuateNetDebt    bool
	valuateNoPersist  bool
)

func init() {
	rootCmd.AddCommand(valuateCmd)

	valuateCmd.Flags().StringVar(&valuateGrowthPath, "growth", "", "explicit growth path, comma separated (e.g. 0.08,0.07)")
	valuateCmd.Flags().BoolVar(&valuateNetDebt, "net-debt", false, "net cash against debt for WACC weights")
	valuateCmd.Flags().BoolVar(&valuateNoPersist, "no-persist", false, "do not save the result")
}

func runValuate(cmd *cobra.Command, args []string) error {
	ticker := strings.ToUpper(args[0])

	growthPath, err := parseGrowthPath(valuateGrowthPath)
	if err != nil {
		return err
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	payload, _, err := a.Valuation.Valuate(ctx, ticker, valuation.Options{
		GrowthPath: growthPath,
		UseNetDebt: valuateNetDebt,
		Persist:    !valuateNoPersist,
	})
	if err != nil {
		return fmt.Errorf("valuation failed: %w", err)
	}

	printSection(fmt.Sprintf("DCF Valuation: %s", ticker))
	printKV("Fair value / share", fmt.Sprintf("%.2f", payload.FairValuePerShare))
	printKV("Market price", fmt.Sprintf("%.2f", payload.MarketPrice))
	printKV("Upside", fmt.Sprintf("%.1f%%", payload.UpsidePct))
	printKV("Enterprise value", fmt.Sprintf("%.0f", payload.EnterpriseValue))
	printKV("Equity value", fmt.Sprintf("%.0f", payload.EquityValue))
	printKV("WACC", fmt.Sprintf("%.2f%%", payload.WACC*100))
	printKV("Terminal growth", fmt.Sprintf("%.2f%%", payload.TerminalGrowth*100))

	fmt.Println()
	fmt.Print("Projected FCF: ")
	for i, fcf := range payload.ProjectedFCF {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Printf("%.1f", fcf)
	}
	fmt.Println()

	if payload.Metrics.EVEBITDA != nil {
		printKV("EV/EBITDA", fmt.Sprintf("%.1fx", *payload.Metrics.EVEBITDA))
	}
	if payload.Metrics.PERatio != nil {
		printKV("P/E", fmt.Sprintf("%.1fx", *payload.Metrics.PERatio))
	}

	for _, warning := range payload.Warnings {
		fmt.Printf("⚠️  %s\n", warning)
	}

	return nil
}

// parseGrowthPath parses a comma separated rate list.
func parseGrowthPath(raw string) ([]float64, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	path := make([]float64, 0, len(parts))
	for _, part := range parts {
		rate, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid growth rate %q: %w", part, err)
		}
		path = append(path, rate)
	}
	return path, nil
}

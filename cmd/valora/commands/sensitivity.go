package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// sensitivityCmd represents the sensitivity command
var sensitivityCmd = &cobra.Command{
	Use:   "sensitivity [ticker]",
	Short: "Print a WACC x growth sensitivity grid",
	Long: `Evaluates per-share fair value over a grid of WACC and terminal
growth assumptions. Cells where growth meets or exceeds WACC are
undefined and shown as "-".

Example:
  go run ./cmd/valora sensitivity AAPL
  go run ./cmd/valora sensitivity AAPL --wacc 0.08,0.09,0.10 --growth 0.02,0.025,0.03`,
	Args: cobra.ExactArgs(1),
	RunE: runSensitivity,
}

var (
	sensWACCValues   string
	sensGrowthValues string
)

func init() {
	rootCmd.AddCommand(sensitivityCmd)

	sensitivityCmd.Flags().StringVar(&sensWACCValues, "wacc", "0.07,0.08,0.09,0.10,0.11", "WACC values, comma separated")
	sensitivityCmd.Flags().StringVar(&sensGrowthValues, "growth", "0.015,0.02,0.025,0.03,0.035", "terminal growth values, comma separated")
}

func runSensitivity(cmd *cobra.Command, args []string) error {
	ticker := strings.ToUpper(args[0])

	waccValues, err := parseGrowthPath(sensWACCValues)
	if err != nil {
		return fmt.Errorf("invalid --wacc: %w", err)
	}
	growthValues, err := parseGrowthPath(sensGrowthValues)
	if err != nil {
		return fmt.Errorf("invalid --growth: %w", err)
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	grid, err := a.Valuation.Sensitivity(ctx, ticker, waccValues, growthValues)
	if err != nil {
		return fmt.Errorf("sensitivity failed: %w", err)
	}

	printSection(fmt.Sprintf("Sensitivity: %s (fair value / share)", ticker))

	// Header row: growth values across
	fmt.Printf("  %-8s", "WACC")
	for _, g := range grid.GrowthValues {
		fmt.Printf("%10s", fmt.Sprintf("g=%.2f%%", g*100))
	}
	fmt.Println()

	for i, wacc := range grid.WACCValues {
		fmt.Printf("  %-8s", fmt.Sprintf("%.2f%%", wacc*100))
		for j := range grid.GrowthValues {
			cell := grid.Cell(i, j)
			if cell.Defined {
				fmt.Printf("%10.2f", cell.FairValuePerShare)
			} else {
				fmt.Printf("%10s", "-")
			}
		}
		fmt.Println()
	}

	return nil
}

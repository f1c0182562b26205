package valuation

import (
	"sync"

	"github.com/dmoralesf/valora/internal/contracts"
	"github.com/dmoralesf/valora/pkg/logger"
)

// SensitivityEngine evaluates the valuation core over a WACC x growth
// grid, holding cash flows, shares, cash and debt fixed.
type SensitivityEngine struct {
	core   *Core
	logger *logger.Logger
}

// NewSensitivityEngine creates a new sensitivity engine
func NewSensitivityEngine(core *Core, log *logger.Logger) *SensitivityEngine {
	return &SensitivityEngine{
		core:   core,
		logger: log.WithField("module", "sensitivity"),
	}
}

// FixedInputs are the grid-invariant inputs.
type FixedInputs struct {
	Ticker       string
	ProjectedFCF []float64
	Cash         float64
	Debt         float64
	Shares       float64
}

// Grid evaluates every (wacc, growth) combination. Cells where
// growth >= wacc are undefined, not computed; a fault in one cell marks
// only that cell undefined. Cells are pure functions of their own inputs,
// so rows are computed concurrently.
func (e *SensitivityEngine) Grid(waccValues, growthValues []float64, fixed FixedInputs) *contracts.SensitivityGrid {
	grid := &contracts.SensitivityGrid{
		Ticker:       fixed.Ticker,
		WACCValues:   append([]float64(nil), waccValues...),
		GrowthValues: append([]float64(nil), growthValues...),
		Cells:        make([][]contracts.SensitivityCell, len(waccValues)),
	}

	var wg sync.WaitGroup
	for i, wacc := range waccValues {
		wg.Add(1)
		go func(i int, wacc float64) {
			defer wg.Done()
			row := make([]contracts.SensitivityCell, len(growthValues))
			for j, growth := range growthValues {
				row[j] = e.cell(wacc, growth, fixed)
			}
			grid.Cells[i] = row
		}(i, wacc)
	}
	wg.Wait()

	return grid
}

// cell computes a single grid entry.
func (e *SensitivityEngine) cell(wacc, growth float64, fixed FixedInputs) contracts.SensitivityCell {
	if growth >= wacc {
		return contracts.SensitivityCell{}
	}

	result, err := e.core.Value(CoreInputs{
		Ticker:         fixed.Ticker,
		ProjectedFCF:   fixed.ProjectedFCF,
		WACC:           wacc,
		TerminalGrowth: growth,
		Cash:           fixed.Cash,
		Debt:           fixed.Debt,
		Shares:         fixed.Shares,
	})
	if err != nil {
		// Isolate the fault to this cell
		e.logger.WithError(err).WithFields(map[string]interface{}{
			"wacc":   wacc,
			"growth": growth,
		}).Debug("Sensitivity cell fault")
		return contracts.SensitivityCell{}
	}

	return contracts.SensitivityCell{
		FairValuePerShare: result.FairValuePerShare,
		Defined:           true,
	}
}

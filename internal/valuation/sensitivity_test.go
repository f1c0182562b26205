package valuation

import (
	"math"
	"testing"
)

func newTestSensitivityEngine() *SensitivityEngine {
	log := newTestLogger()
	return NewSensitivityEngine(NewCore(log), log)
}

func TestSensitivity_UndefinedCells(t *testing.T) {
	engine := newTestSensitivityEngine()

	waccValues := []float64{0.06, 0.08, 0.10}
	growthValues := []float64{0.02, 0.06, 0.10}

	grid := engine.Grid(waccValues, growthValues, FixedInputs{
		Ticker:       "AAPL",
		ProjectedFCF: []float64{100, 105, 110},
		Shares:       10,
	})

	// A cell is undefined exactly when growth >= wacc
	for i, wacc := range waccValues {
		for j, growth := range growthValues {
			cell := grid.Cell(i, j)
			wantDefined := growth < wacc
			if cell.Defined != wantDefined {
				t.Errorf("Cell(%d,%d) wacc=%v growth=%v: Defined = %v, want %v",
					i, j, wacc, growth, cell.Defined, wantDefined)
			}
			if !cell.Defined && cell.FairValuePerShare != 0 {
				t.Errorf("undefined Cell(%d,%d) carries value %v", i, j, cell.FairValuePerShare)
			}
		}
	}
}

func TestSensitivity_CellsMatchCore(t *testing.T) {
	engine := newTestSensitivityEngine()
	core := NewCore(newTestLogger())

	fixed := FixedInputs{
		Ticker:       "MSFT",
		ProjectedFCF: []float64{50, 55, 60, 62, 65},
		Cash:         20,
		Debt:         35,
		Shares:       8,
	}

	grid := engine.Grid([]float64{0.08, 0.10}, []float64{0.02, 0.03}, fixed)

	for i, wacc := range grid.WACCValues {
		for j, growth := range grid.GrowthValues {
			cell := grid.Cell(i, j)
			want, err := core.Value(CoreInputs{
				Ticker:         fixed.Ticker,
				ProjectedFCF:   fixed.ProjectedFCF,
				WACC:           wacc,
				TerminalGrowth: growth,
				Cash:           fixed.Cash,
				Debt:           fixed.Debt,
				Shares:         fixed.Shares,
			})
			if err != nil {
				t.Fatalf("Value(%v,%v) error = %v", wacc, growth, err)
			}
			if math.Abs(cell.FairValuePerShare-want.FairValuePerShare) > 1e-9 {
				t.Errorf("Cell(%d,%d) = %v, want %v", i, j, cell.FairValuePerShare, want.FairValuePerShare)
			}
		}
	}
}

func TestSensitivity_FaultIsolation(t *testing.T) {
	engine := newTestSensitivityEngine()

	// Empty projections make every computed cell fail; defined-region cells
	// come back undefined instead of failing the grid
	grid := engine.Grid([]float64{0.10}, []float64{0.02}, FixedInputs{
		Ticker: "EMPTY",
		Shares: 1,
	})

	if cell := grid.Cell(0, 0); cell.Defined {
		t.Error("cell with failing inputs should be undefined")
	}
}

func TestSensitivity_GridShape(t *testing.T) {
	engine := newTestSensitivityEngine()

	grid := engine.Grid([]float64{0.08, 0.09, 0.10, 0.11}, []float64{0.02, 0.025, 0.03}, FixedInputs{
		Ticker:       "SHAPE",
		ProjectedFCF: []float64{10},
		Shares:       1,
	})

	if len(grid.Cells) != 4 {
		t.Fatalf("rows = %d, want 4", len(grid.Cells))
	}
	for i, row := range grid.Cells {
		if len(row) != 3 {
			t.Errorf("row %d length = %d, want 3", i, len(row))
		}
	}

	if grid.Cell(4, 0).Defined {
		t.Error("Cell(4,0) should be undefined out of range")
	}
	if grid.Cell(0, 3).Defined {
		t.Error("Cell(0,3) should be undefined out of range")
	}
}

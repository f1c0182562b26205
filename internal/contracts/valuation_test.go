package contracts

import (
	"errors"
	"strings"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func TestFinancialSnapshot_FCF(t *testing.T) {
	tests := []struct {
		name     string
		snapshot FinancialSnapshot
		want     float64
		wantOK   bool
	}{
		{
			name: "both figures present",
			snapshot: FinancialSnapshot{
				OperatingCashFlow:  fptr(110),
				CapitalExpenditure: fptr(-10),
			},
			want:   100,
			wantOK: true,
		},
		{
			name: "capex reported positive",
			snapshot: FinancialSnapshot{
				OperatingCashFlow:  fptr(110),
				CapitalExpenditure: fptr(10),
			},
			want:   100,
			wantOK: true,
		},
		{
			name: "missing operating cash flow",
			snapshot: FinancialSnapshot{
				CapitalExpenditure: fptr(10),
			},
			wantOK: false,
		},
		{
			name: "missing capex",
			snapshot: FinancialSnapshot{
				OperatingCashFlow: fptr(110),
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.snapshot.FCF()
			if ok != tt.wantOK {
				t.Fatalf("FCF() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("FCF() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScenarioParameters_Validate(t *testing.T) {
	valid := &ScenarioParameters{Ticker: "AAPL", WACC: 0.10, TerminalGrowth: 0.04}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	invalid := &ScenarioParameters{Ticker: "AAPL", WACC: 0.03, TerminalGrowth: 0.04}
	err := invalid.Validate()
	if err == nil {
		t.Fatal("Validate() should reject wacc <= terminal growth")
	}

	var spreadErr *InvalidSpreadError
	if !errors.As(err, &spreadErr) {
		t.Fatalf("expected *InvalidSpreadError, got %T", err)
	}
	if spreadErr.Ticker != "AAPL" {
		t.Errorf("error ticker = %s, want AAPL", spreadErr.Ticker)
	}

	// Equality is also invalid (strict spread)
	equal := &ScenarioParameters{WACC: 0.04, TerminalGrowth: 0.04}
	if err := equal.Validate(); err == nil {
		t.Error("Validate() should reject wacc == terminal growth")
	}
}

func TestValuationResult_FairValuePerShare(t *testing.T) {
	r := &ValuationResult{FairValue: 1000, SharesOutstanding: 40}
	if got := r.FairValuePerShare(); got != 25 {
		t.Errorf("FairValuePerShare() = %v, want 25", got)
	}

	// Zero or negative shares report 0, not a crash
	r.SharesOutstanding = 0
	if got := r.FairValuePerShare(); got != 0 {
		t.Errorf("FairValuePerShare() with zero shares = %v, want 0", got)
	}
}

func TestValuationResult_Upside(t *testing.T) {
	r := &ValuationResult{
		FairValue:         1200,
		SharesOutstanding: 10,
		MarketPrice:       100,
	}
	if got := r.Upside(); got != 20 {
		t.Errorf("Upside() = %v, want 20", got)
	}

	r.MarketPrice = 0
	if got := r.Upside(); got != 0 {
		t.Errorf("Upside() with zero price = %v, want 0", got)
	}
}

func TestSensitivityGrid_Cell(t *testing.T) {
	grid := &SensitivityGrid{
		WACCValues:   []float64{0.08, 0.10},
		GrowthValues: []float64{0.02, 0.03},
		Cells: [][]SensitivityCell{
			{{FairValuePerShare: 100, Defined: true}, {FairValuePerShare: 120, Defined: true}},
			{{FairValuePerShare: 80, Defined: true}, {Defined: false}},
		},
	}

	if c := grid.Cell(0, 1); !c.Defined || c.FairValuePerShare != 120 {
		t.Errorf("Cell(0,1) = %+v", c)
	}
	if c := grid.Cell(1, 1); c.Defined {
		t.Errorf("Cell(1,1) should be undefined, got %+v", c)
	}
	if c := grid.Cell(5, 5); c.Defined {
		t.Errorf("out-of-range cell should be undefined, got %+v", c)
	}
}

func TestPersistenceError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &PersistenceError{Op: "save calculation", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("PersistenceError should unwrap to the inner error")
	}
}

func TestAcquisitionError_Message(t *testing.T) {
	err := &AcquisitionError{
		Ticker: "AAPL",
		Source: "cashflow",
		Err:    errors.New("timeout"),
	}
	msg := err.Error()
	if msg == "" {
		t.Fatal("empty error message")
	}
	// Message must carry enough context to be actionable
	for _, want := range []string{"AAPL", "cashflow", "timeout"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}

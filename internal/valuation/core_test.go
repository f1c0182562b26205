package valuation

import (
	"errors"
	"math"
	"testing"

	"github.com/dmoralesf/valora/internal/contracts"
)

func TestCore_EnterpriseValue(t *testing.T) {
	core := NewCore(newTestLogger())

	fcf := []float64{108, 116.64, 125.97, 134.79, 145.57}
	wacc := 0.10
	g := 0.04

	result, err := core.Value(CoreInputs{
		Ticker:         "AAPL",
		ProjectedFCF:   fcf,
		WACC:           wacc,
		TerminalGrowth: g,
		Shares:         1,
	})
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	// Recompute from the closed-form directly
	var want float64
	for k, f := range fcf {
		want += f / math.Pow(1+wacc, float64(k+1))
	}
	tv := fcf[len(fcf)-1] * (1 + g) / (wacc - g)
	want += tv / math.Pow(1+wacc, float64(len(fcf)))

	if rel := math.Abs(result.EnterpriseValue-want) / want; rel > 1e-6 {
		t.Errorf("EnterpriseValue = %v, want %v (relative error %v)", result.EnterpriseValue, want, rel)
	}
	if result.TerminalValue <= 0 {
		t.Errorf("TerminalValue = %v, want positive", result.TerminalValue)
	}
	if result.PVTerminal >= result.TerminalValue {
		t.Errorf("PVTerminal = %v should be below undiscounted %v", result.PVTerminal, result.TerminalValue)
	}
}

func TestCore_EquityBridge(t *testing.T) {
	core := NewCore(newTestLogger())

	result, err := core.Value(CoreInputs{
		Ticker:         "MSFT",
		ProjectedFCF:   []float64{100, 100, 100},
		WACC:           0.09,
		TerminalGrowth: 0.025,
		Cash:           50,
		Debt:           120,
		Shares:         10,
	})
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	wantEquity := result.EnterpriseValue + 50 - 120
	if math.Abs(result.EquityValue-wantEquity) > 1e-9 {
		t.Errorf("EquityValue = %v, want %v", result.EquityValue, wantEquity)
	}
	if math.Abs(result.FairValuePerShare-wantEquity/10) > 1e-9 {
		t.Errorf("FairValuePerShare = %v, want %v", result.FairValuePerShare, wantEquity/10)
	}
}

func TestCore_InvalidSpread(t *testing.T) {
	core := NewCore(newTestLogger())

	for _, tt := range []struct {
		name   string
		wacc   float64
		growth float64
	}{
		{"growth above wacc", 0.05, 0.06},
		{"growth equals wacc", 0.07, 0.07},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.Value(CoreInputs{
				Ticker:         "TSLA",
				ProjectedFCF:   []float64{10},
				WACC:           tt.wacc,
				TerminalGrowth: tt.growth,
				Shares:         1,
			})

			var spreadErr *contracts.InvalidSpreadError
			if !errors.As(err, &spreadErr) {
				t.Fatalf("error = %v, want *InvalidSpreadError", err)
			}
			if spreadErr.Ticker != "TSLA" {
				t.Errorf("Ticker = %q, want TSLA", spreadErr.Ticker)
			}
		})
	}
}

func TestCore_EmptyProjection(t *testing.T) {
	core := NewCore(newTestLogger())

	_, err := core.Value(CoreInputs{
		Ticker:         "NVDA",
		WACC:           0.10,
		TerminalGrowth: 0.025,
		Shares:         1,
	})

	var dataErr *contracts.InsufficientDataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("error = %v, want *InsufficientDataError", err)
	}
}

func TestCore_ZeroShares(t *testing.T) {
	core := NewCore(newTestLogger())

	result, err := core.Value(CoreInputs{
		Ticker:         "AMZN",
		ProjectedFCF:   []float64{100},
		WACC:           0.10,
		TerminalGrowth: 0.025,
		Shares:         0,
	})
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	if result.FairValuePerShare != 0 {
		t.Errorf("FairValuePerShare = %v, want 0", result.FairValuePerShare)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning for non-positive shares")
	}
}

func TestCore_NegativeEquityWarning(t *testing.T) {
	core := NewCore(newTestLogger())

	result, err := core.Value(CoreInputs{
		Ticker:         "DEBT",
		ProjectedFCF:   []float64{1},
		WACC:           0.10,
		TerminalGrowth: 0.02,
		Debt:           10000,
		Shares:         100,
	})
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	if result.EquityValue >= 0 {
		t.Fatalf("EquityValue = %v, want negative", result.EquityValue)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning for negative equity")
	}
}

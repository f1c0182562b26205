package valuation

import (
	"math"
	"testing"
)

func TestWACCEstimator_CAPM(t *testing.T) {
	e := NewWACCEstimator(newTestLogger())

	// All-equity firm: wacc == cost of equity
	est := e.Estimate("EQTY", "Energy", CAPMInputs{
		RiskFreeRate:      0.04,
		Beta:              1.2,
		EquityRiskPremium: 0.05,
		TaxRate:           0.21,
		MarketCapEquity:   1000,
	})

	wantRe := 0.04 + 1.2*0.05 // 0.10
	if math.Abs(est.CostOfEquity-wantRe) > 1e-9 {
		t.Errorf("CostOfEquity = %v, want %v", est.CostOfEquity, wantRe)
	}
	if math.Abs(est.WACCUnadjusted-wantRe) > 1e-9 {
		t.Errorf("WACCUnadjusted = %v, want %v", est.WACCUnadjusted, wantRe)
	}
	if est.EquityWeight != 1.0 || est.DebtWeight != 0.0 {
		t.Errorf("weights = (%v, %v), want (1, 0)", est.EquityWeight, est.DebtWeight)
	}
	if est.FloorApplied {
		t.Error("floor should not apply above the sector floor")
	}
}

func TestWACCEstimator_DebtBlend(t *testing.T) {
	e := NewWACCEstimator(newTestLogger())

	est := e.Estimate("BLND", "Energy", CAPMInputs{
		RiskFreeRate:      0.04,
		Beta:              1.0,
		EquityRiskPremium: 0.06,
		CostOfDebt:        0.05,
		TaxRate:           0.25,
		MarketCapEquity:   600,
		TotalDebt:         400,
	})

	// re = 0.10, weights 0.6/0.4, after-tax rd = 0.0375
	want := 0.10*0.6 + 0.05*(1-0.25)*0.4
	if math.Abs(est.WACCUnadjusted-want) > 1e-9 {
		t.Errorf("WACCUnadjusted = %v, want %v", est.WACCUnadjusted, want)
	}
}

func TestWACCEstimator_NetDebtWeights(t *testing.T) {
	e := NewWACCEstimator(newTestLogger())

	est := e.Estimate("NETD", "Energy", CAPMInputs{
		RiskFreeRate:      0.04,
		Beta:              1.0,
		EquityRiskPremium: 0.06,
		CostOfDebt:        0.05,
		TaxRate:           0.25,
		MarketCapEquity:   600,
		TotalDebt:         400,
		Cash:              400,
		UseNetDebt:        true,
	})

	// Net debt is zero, so the blend collapses to cost of equity
	if est.DebtWeight != 0 {
		t.Errorf("DebtWeight = %v, want 0 with fully netted debt", est.DebtWeight)
	}
	if math.Abs(est.WACCUnadjusted-0.10) > 1e-9 {
		t.Errorf("WACCUnadjusted = %v, want 0.10", est.WACCUnadjusted)
	}
}

func TestWACCEstimator_SectorFloor(t *testing.T) {
	e := NewWACCEstimator(newTestLogger())

	// Computed CAPM: 0.03 + 0.8*0.035 = 0.058, below the Technology floor
	est := e.Estimate("TECH", "Technology", CAPMInputs{
		RiskFreeRate:      0.03,
		Beta:              0.8,
		EquityRiskPremium: 0.035,
		TaxRate:           0.21,
		MarketCapEquity:   1000,
	})

	if math.Abs(est.WACC-0.075) > 1e-9 {
		t.Errorf("WACC = %v, want 0.075 (Technology floor)", est.WACC)
	}
	if !est.FloorApplied {
		t.Error("FloorApplied should be true")
	}
	if math.Abs(est.WACCBeforeFloor-0.058) > 1e-9 {
		t.Errorf("WACCBeforeFloor = %v, want 0.058", est.WACCBeforeFloor)
	}
	if math.Abs(est.WACCUnadjusted-0.058) > 1e-9 {
		t.Errorf("WACCUnadjusted = %v, want 0.058", est.WACCUnadjusted)
	}
}

func TestWACCEstimator_FinancialOverride(t *testing.T) {
	e := NewWACCEstimator(newTestLogger())

	est := e.Estimate("BANK", "Financial Services", CAPMInputs{
		RiskFreeRate:      0.04,
		Beta:              1.5,
		EquityRiskPremium: 0.06,
		TaxRate:           0.21,
		MarketCapEquity:   1000,
	})

	if est.WACC != financialIndustryWACC {
		t.Errorf("WACC = %v, want industry average %v", est.WACC, financialIndustryWACC)
	}
	if !est.IndustryOverride {
		t.Error("IndustryOverride should be true")
	}
	// The unadjusted figure stays available for audit
	wantUnadjusted := 0.04 + 1.5*0.06
	if math.Abs(est.WACCUnadjusted-wantUnadjusted) > 1e-9 {
		t.Errorf("WACCUnadjusted = %v, want %v", est.WACCUnadjusted, wantUnadjusted)
	}
}

func TestWACCEstimator_OverrideDisabled(t *testing.T) {
	e := NewWACCEstimator(newTestLogger())
	e.UseIndustryAverage = false

	est := e.Estimate("BANK", "Financial Services", CAPMInputs{
		RiskFreeRate:      0.04,
		Beta:              1.5,
		EquityRiskPremium: 0.06,
		TaxRate:           0.21,
		MarketCapEquity:   1000,
	})

	if est.IndustryOverride {
		t.Error("IndustryOverride should be false when disabled")
	}
	if est.WACC == financialIndustryWACC {
		t.Error("WACC should not be the industry average when disabled")
	}
}

func TestWACCEstimator_Defaults(t *testing.T) {
	e := NewWACCEstimator(newTestLogger())

	// Zero inputs fall back to house defaults rather than a zero rate
	est := e.Estimate("DFLT", "Unknown Sector", CAPMInputs{MarketCapEquity: 1000})

	if est.Inputs.RiskFreeRate != defaultRiskFreeRate {
		t.Errorf("RiskFreeRate default = %v, want %v", est.Inputs.RiskFreeRate, defaultRiskFreeRate)
	}
	if est.Inputs.Beta != defaultBeta {
		t.Errorf("Beta default = %v, want %v", est.Inputs.Beta, defaultBeta)
	}
	if est.WACC <= 0 {
		t.Errorf("WACC = %v, want positive", est.WACC)
	}
}

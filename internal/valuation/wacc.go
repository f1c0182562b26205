package valuation

import (
	"github.com/dmoralesf/valora/pkg/logger"
)

// WACCEstimator derives the discount rate via CAPM with sector floors
// and a financial-sector industry-average override.
type WACCEstimator struct {
	logger *logger.Logger

	// UseIndustryAverage substitutes a precomputed industry-average WACC
	// for Financial Services companies, where leverage makes
	// company-specific CAPM unreliable.
	UseIndustryAverage bool
}

// NewWACCEstimator creates a new WACC estimator
func NewWACCEstimator(log *logger.Logger) *WACCEstimator {
	return &WACCEstimator{
		logger:             log.WithField("module", "wacc"),
		UseIndustryAverage: true,
	}
}

// CAPMInputs are the raw capital structure and market inputs. Zero values
// are substituted with house defaults where noted.
type CAPMInputs struct {
	RiskFreeRate      float64 `json:"risk_free_rate"`      // default when 0
	Beta              float64 `json:"beta"`                // default when 0
	EquityRiskPremium float64 `json:"equity_risk_premium"` // default when 0
	CostOfDebt        float64 `json:"cost_of_debt"`        // pre-tax; approximated when 0
	TaxRate           float64 `json:"tax_rate"`            // default when 0
	MarketCapEquity   float64 `json:"market_cap_equity"`
	TotalDebt         float64 `json:"total_debt"`
	Cash              float64 `json:"cash"`
	UseNetDebt        bool    `json:"use_net_debt"` // net cash against debt for weights
}

// WACCEstimate is the audit-friendly output: both adjusted and
// unadjusted values plus every input that produced them.
type WACCEstimate struct {
	Ticker           string     `json:"ticker"`
	Sector           string     `json:"sector"`
	WACC             float64    `json:"wacc"`            // final, after corrections
	WACCUnadjusted   float64    `json:"wacc_unadjusted"` // raw CAPM blend
	CostOfEquity     float64    `json:"cost_of_equity"`
	CostOfDebtPreTax float64    `json:"cost_of_debt_pre_tax"`
	EquityWeight     float64    `json:"equity_weight"`
	DebtWeight       float64    `json:"debt_weight"`
	FloorApplied     bool       `json:"floor_applied"`
	WACCBeforeFloor  float64    `json:"wacc_before_floor"`
	IndustryOverride bool       `json:"industry_override"`
	Inputs           CAPMInputs `json:"inputs"`
}

// Estimate computes the discount rate for a company. Corrections are
// applied in order: sector floor clamp, then the financial-sector
// industry-average override.
func (e *WACCEstimator) Estimate(ticker, sector string, in CAPMInputs) *WACCEstimate {
	if in.RiskFreeRate == 0 {
		in.RiskFreeRate = defaultRiskFreeRate
	}
	if in.Beta == 0 {
		in.Beta = defaultBeta
	}
	if in.EquityRiskPremium == 0 {
		in.EquityRiskPremium = defaultEquityRiskPremium
	}
	if in.TaxRate == 0 {
		in.TaxRate = defaultTaxRate
	}
	if in.CostOfDebt == 0 {
		in.CostOfDebt = in.RiskFreeRate + defaultCreditSpread
	}

	// CAPM: re = rf + beta * ERP
	costOfEquity := in.RiskFreeRate + in.Beta*in.EquityRiskPremium

	// Market-value weights of debt and equity
	debtForWeights := in.TotalDebt
	if in.UseNetDebt {
		debtForWeights -= in.Cash
		if debtForWeights < 0 {
			debtForWeights = 0
		}
	}

	equityWeight, debtWeight := 1.0, 0.0
	if total := in.MarketCapEquity + debtForWeights; total > 0 {
		equityWeight = in.MarketCapEquity / total
		debtWeight = debtForWeights / total
	}

	afterTaxDebtCost := in.CostOfDebt * (1 - in.TaxRate)
	unadjusted := costOfEquity*equityWeight + afterTaxDebtCost*debtWeight

	est := &WACCEstimate{
		Ticker:           ticker,
		Sector:           sector,
		WACC:             unadjusted,
		WACCUnadjusted:   unadjusted,
		CostOfEquity:     costOfEquity,
		CostOfDebtPreTax: in.CostOfDebt,
		EquityWeight:     equityWeight,
		DebtWeight:       debtWeight,
		Inputs:           in,
	}

	// Layer 1: sector floor
	if floor := sectorFloor(sector); est.WACC < floor {
		est.WACCBeforeFloor = est.WACC
		est.WACC = floor
		est.FloorApplied = true
	}

	// Layer 2: industry override for financial firms
	if e.UseIndustryAverage && sector == financialServicesSector {
		est.WACC = financialIndustryWACC
		est.IndustryOverride = true
	}

	e.logger.WithFields(map[string]interface{}{
		"ticker":        ticker,
		"sector":        sector,
		"wacc":          est.WACC,
		"unadjusted":    est.WACCUnadjusted,
		"floor_applied": est.FloorApplied,
		"override":      est.IndustryOverride,
	}).Debug("WACC estimated")

	return est
}

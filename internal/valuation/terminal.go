package valuation

import (
	"github.com/dmoralesf/valora/pkg/logger"
)

// TerminalGrowthEstimator derives the long-run growth rate from a GDP
// proxy plus bounded company-quality premiums, and enforces the minimum
// spread against WACC.
type TerminalGrowthEstimator struct {
	logger *logger.Logger
}

// NewTerminalGrowthEstimator creates a new terminal growth estimator
func NewTerminalGrowthEstimator(log *logger.Logger) *TerminalGrowthEstimator {
	return &TerminalGrowthEstimator{
		logger: log.WithField("module", "terminal"),
	}
}

// TerminalInputs are optional company quality signals. Missing signals
// contribute no premium.
type TerminalInputs struct {
	ROE           *float64 `json:"roe,omitempty"`            // return on equity, e.g. 0.18
	NetMargin     *float64 `json:"net_margin,omitempty"`     // e.g. 0.22
	RevenueGrowth *float64 `json:"revenue_growth,omitempty"` // trailing, e.g. 0.08
	RiskScore     *float64 `json:"risk_score,omitempty"`     // 0 (safe) .. 1 (risky)
}

// TerminalEstimate is the audit-friendly output, recording each premium,
// whether the ceiling bound, and any spread adjustment.
type TerminalEstimate struct {
	TerminalGrowth   float64 `json:"terminal_growth"` // final
	BaseRate         float64 `json:"base_rate"`
	ROEPremium       float64 `json:"roe_premium"`
	MarginPremium    float64 `json:"margin_premium"`
	GrowthPremium    float64 `json:"growth_premium"`
	RiskAdjustment   float64 `json:"risk_adjustment"`
	CeilingApplied   bool    `json:"ceiling_applied"`
	SpreadAdjusted   bool    `json:"spread_adjusted"`
	BeforeAdjustment float64 `json:"before_adjustment"` // candidate before spread enforcement
}

// Estimate computes the terminal growth rate. When validateSpread is true
// and a WACC is supplied, the candidate is walked down (never raising
// WACC) until wacc - g >= minimumSpread or the terminal floor is hit.
func (e *TerminalGrowthEstimator) Estimate(in TerminalInputs, wacc *float64, validateSpread bool) *TerminalEstimate {
	est := &TerminalEstimate{BaseRate: baseGDPGrowth}

	// Premiums scale off distance from baseline quality, individually capped.
	if in.ROE != nil {
		est.ROEPremium = clamp((*in.ROE-0.10)*0.01, -premiumCap, premiumCap)
	}
	if in.NetMargin != nil {
		est.MarginPremium = clamp((*in.NetMargin-0.10)*0.01, -premiumCap, premiumCap)
	}
	if in.RevenueGrowth != nil {
		est.GrowthPremium = clamp(*in.RevenueGrowth*0.02, -premiumCap, premiumCap)
	}
	if in.RiskScore != nil {
		est.RiskAdjustment = clamp(*in.RiskScore*0.005, 0, 2*premiumCap)
	}

	candidate := est.BaseRate + est.ROEPremium + est.MarginPremium + est.GrowthPremium - est.RiskAdjustment

	if candidate > terminalCeiling {
		candidate = terminalCeiling
		est.CeilingApplied = true
	}
	if candidate < terminalFloor {
		candidate = terminalFloor
	}

	est.BeforeAdjustment = candidate

	// Spread enforcement: reduce g, never increase WACC
	if validateSpread && wacc != nil {
		for *wacc-candidate < minimumSpread && candidate > terminalFloor {
			candidate -= spreadStep
			est.SpreadAdjusted = true
		}
		if candidate < terminalFloor {
			candidate = terminalFloor
		}
	}

	est.TerminalGrowth = candidate

	e.logger.WithFields(map[string]interface{}{
		"terminal_growth": est.TerminalGrowth,
		"spread_adjusted": est.SpreadAdjusted,
		"ceiling_applied": est.CeilingApplied,
	}).Debug("Terminal growth estimated")

	return est
}

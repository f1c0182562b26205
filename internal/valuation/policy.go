package valuation

// Tuning constants for the valuation models. These encode house policy,
// not market data; change them deliberately and re-run stored valuations
// when they move.
const (
	// Long-run GDP growth proxy, the base for terminal growth.
	baseGDPGrowth = 0.025

	// Each terminal growth premium is individually capped at +/-0.25pp.
	premiumCap = 0.0025

	// Absolute ceiling and floor for terminal growth.
	terminalCeiling = 0.035
	terminalFloor   = 0.005

	// Minimum required spread between WACC and terminal growth.
	minimumSpread = 0.040

	// Step used when walking terminal growth down to satisfy the spread.
	spreadStep = 0.0025

	// Per-year cap on historically derived growth rates used in
	// projection paths.
	maxProjectionGrowth = 0.25

	// CAPM defaults when the provider has no figure.
	defaultRiskFreeRate      = 0.042
	defaultEquityRiskPremium = 0.050
	defaultBeta              = 1.0
	defaultTaxRate           = 0.21

	// Credit spread over the risk-free rate used to approximate the
	// pre-tax cost of debt when no debt yield is available.
	defaultCreditSpread = 0.015

	// Company-specific CAPM is unreliable for leveraged financial firms;
	// this industry average substitutes for them.
	financialServicesSector = "Financial Services"
	financialIndustryWACC   = 0.085
)

// Sector-specific WACC floors. A company-specific estimate below its
// sector floor is clamped up and flagged.
var sectorWACCFloors = map[string]float64{
	"Technology":         0.075,
	"Financial Services": 0.075,
	"Energy":             0.080,
	"Healthcare":         0.070,
	"Industrials":        0.070,
	"Consumer Defensive": 0.060,
	"Utilities":          0.055,
}

const defaultWACCFloor = 0.060

// sectorFloor returns the WACC floor for a sector.
func sectorFloor(sector string) float64 {
	if floor, ok := sectorWACCFloors[sector]; ok {
		return floor
	}
	return defaultWACCFloor
}

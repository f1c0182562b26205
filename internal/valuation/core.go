package valuation

import (
	"fmt"
	"math"

	"github.com/dmoralesf/valora/internal/contracts"
	"github.com/dmoralesf/valora/pkg/logger"
)

// Core discounts projected cash flows and the terminal value into
// enterprise, equity and per-share fair values.
type Core struct {
	logger *logger.Logger
}

// NewCore creates a new valuation core
func NewCore(log *logger.Logger) *Core {
	return &Core{
		logger: log.WithField("module", "core"),
	}
}

// CoreInputs are the discounting inputs for one run.
type CoreInputs struct {
	Ticker         string    `json:"ticker"`
	ProjectedFCF   []float64 `json:"projected_fcf"`
	WACC           float64   `json:"wacc"`
	TerminalGrowth float64   `json:"terminal_growth"`
	Cash           float64   `json:"cash"`
	Debt           float64   `json:"debt"`
	Shares         float64   `json:"shares"`
}

// CoreResult carries the value aggregation plus the intermediate present
// values for audit.
type CoreResult struct {
	EnterpriseValue   float64  `json:"enterprise_value"`
	EquityValue       float64  `json:"equity_value"`
	FairValuePerShare float64  `json:"fair_value_per_share"`
	PVExplicit        float64  `json:"pv_explicit"`
	TerminalValue     float64  `json:"terminal_value"`
	PVTerminal        float64  `json:"pv_terminal"`
	Warnings          []string `json:"warnings,omitempty"`
}

// Value runs the DCF aggregation. The spread is re-checked here so a
// caller bypassing the estimators cannot divide by a near-zero
// denominator.
func (c *Core) Value(in CoreInputs) (*CoreResult, error) {
	if in.WACC <= in.TerminalGrowth {
		return nil, &contracts.InvalidSpreadError{
			Ticker:         in.Ticker,
			WACC:           in.WACC,
			TerminalGrowth: in.TerminalGrowth,
		}
	}
	if len(in.ProjectedFCF) == 0 {
		return nil, &contracts.InsufficientDataError{
			Ticker: in.Ticker,
			Reason: "empty FCF projection",
		}
	}

	result := &CoreResult{}

	// Present value of the explicit period
	for k, fcf := range in.ProjectedFCF {
		result.PVExplicit += fcf / math.Pow(1+in.WACC, float64(k+1))
	}

	// Gordon terminal value, discounted back over the horizon
	n := len(in.ProjectedFCF)
	lastFCF := in.ProjectedFCF[n-1]
	result.TerminalValue = lastFCF * (1 + in.TerminalGrowth) / (in.WACC - in.TerminalGrowth)
	result.PVTerminal = result.TerminalValue / math.Pow(1+in.WACC, float64(n))

	result.EnterpriseValue = result.PVExplicit + result.PVTerminal
	result.EquityValue = result.EnterpriseValue + in.Cash - in.Debt

	if in.Shares > 0 {
		result.FairValuePerShare = result.EquityValue / in.Shares
	} else {
		result.FairValuePerShare = 0
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("shares outstanding not positive (%g); per-share value reported as 0", in.Shares))
	}

	if result.EquityValue < 0 {
		result.Warnings = append(result.Warnings, "negative equity value: debt exceeds enterprise value plus cash")
	}

	return result, nil
}

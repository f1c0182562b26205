package contracts

import (
	"math"
	"time"
)

// ProjectionYears is the explicit DCF projection horizon.
const ProjectionYears = 5

// FinancialSnapshot is one fiscal period of raw cash flow data as fetched
// from the market data provider. Either figure may be missing for a period.
// Snapshots are immutable once fetched and ordered most-recent-first.
type FinancialSnapshot struct {
	Ticker             string     `json:"ticker"`
	PeriodEnd          time.Time  `json:"period_end"`
	OperatingCashFlow  *float64   `json:"operating_cash_flow,omitempty"`
	CapitalExpenditure *float64   `json:"capital_expenditure,omitempty"`
}

// FCF returns free cash flow (operating CF minus |capex|) for the period.
// Returns false when either figure is missing; such periods are skipped,
// never zero-filled.
func (s *FinancialSnapshot) FCF() (float64, bool) {
	if s.OperatingCashFlow == nil || s.CapitalExpenditure == nil {
		return 0, false
	}
	return *s.OperatingCashFlow - math.Abs(*s.CapitalExpenditure), true
}

// ScenarioParameters bundles the rate assumptions for a single DCF run.
// Invariant: WACC > TerminalGrowth (strict).
type ScenarioParameters struct {
	Ticker         string    `json:"ticker"`
	WACC           float64   `json:"wacc"`
	TerminalGrowth float64   `json:"terminal_growth"`
	GrowthPath     []float64 `json:"growth_path"`
}

// Validate rejects parameter sets whose spread is not strictly positive.
func (p *ScenarioParameters) Validate() error {
	if p.WACC <= p.TerminalGrowth {
		return &InvalidSpreadError{
			Ticker:         p.Ticker,
			WACC:           p.WACC,
			TerminalGrowth: p.TerminalGrowth,
		}
	}
	return nil
}

// ValuationResult is one persisted valuation run. One row exists per
// (ticker, calculation date); a later save with the same key replaces it.
type ValuationResult struct {
	Ticker            string            `json:"ticker"`
	CalculationDate   time.Time         `json:"calculation_date"`
	FairValue         float64           `json:"fair_value"` // total equity value, currency units
	MarketPrice       float64           `json:"market_price"`
	DiscountRate      float64           `json:"discount_rate"`
	GrowthRate        float64           `json:"growth_rate"`
	FCFProjections    []float64         `json:"fcf_projections"`
	SharesOutstanding float64           `json:"shares_outstanding"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// FairValuePerShare returns fair value divided by shares outstanding,
// or 0 when shares are not positive.
func (r *ValuationResult) FairValuePerShare() float64 {
	if r.SharesOutstanding <= 0 {
		return 0
	}
	return r.FairValue / r.SharesOutstanding
}

// Upside returns the percentage upside of fair value per share over the
// market price. Returns 0 when the market price is not positive.
func (r *ValuationResult) Upside() float64 {
	if r.MarketPrice <= 0 {
		return 0
	}
	return (r.FairValuePerShare() - r.MarketPrice) / r.MarketPrice * 100
}

// ValuationMetrics carries optional relative-valuation ratios.
type ValuationMetrics struct {
	EVEBITDA *float64 `json:"ev_ebitda,omitempty"`
	PERatio  *float64 `json:"pe_ratio,omitempty"`
	PBRatio  *float64 `json:"pb_ratio,omitempty"`
}

// ValuationPayload is the structured output consumed by reporting and
// visualization collaborators.
type ValuationPayload struct {
	Ticker            string           `json:"ticker"`
	FairValuePerShare float64          `json:"fair_value_per_share"`
	EnterpriseValue   float64          `json:"enterprise_value"`
	EquityValue       float64          `json:"equity_value"`
	MarketPrice       float64          `json:"market_price"`
	UpsidePct         float64          `json:"upside_pct"`
	WACC              float64          `json:"wacc"`
	TerminalGrowth    float64          `json:"terminal_growth"`
	ProjectedFCF      []float64        `json:"projected_fcf"`
	GrowthRates       []float64        `json:"growth_rates"`
	DilutedShares     float64          `json:"diluted_shares"`
	Cash              float64          `json:"cash"`
	Debt              float64          `json:"debt"`
	Metrics           ValuationMetrics `json:"valuation_metrics"`
	Warnings          []string         `json:"warnings,omitempty"`
}

// SensitivityCell is a single grid entry. Cells where growth >= wacc, or
// whose computation faulted, are undefined and carry no numeric stand-in.
type SensitivityCell struct {
	FairValuePerShare float64 `json:"fair_value_per_share"`
	Defined           bool    `json:"defined"`
}

// SensitivityGrid holds per-share fair values over a WACC x growth grid,
// rows indexed by WACC and columns by terminal growth.
type SensitivityGrid struct {
	Ticker       string              `json:"ticker"`
	WACCValues   []float64           `json:"wacc_values"`
	GrowthValues []float64           `json:"growth_values"`
	Cells        [][]SensitivityCell `json:"cells"`
}

// Cell returns the cell at (wacc row i, growth column j).
// Out-of-range lookups return an undefined cell.
func (g *SensitivityGrid) Cell(i, j int) SensitivityCell {
	if i < 0 || i >= len(g.Cells) || j < 0 || j >= len(g.Cells[i]) {
		return SensitivityCell{}
	}
	return g.Cells[i][j]
}

// PriceBar is one daily OHLCV record. Close is mandatory; the other
// fields are independently nullable.
type PriceBar struct {
	Ticker string     `json:"ticker"`
	Date   time.Time  `json:"date"`
	Open   *float64   `json:"open,omitempty"`
	High   *float64   `json:"high,omitempty"`
	Low    *float64   `json:"low,omitempty"`
	Close  *float64   `json:"close"`
	Volume *int64     `json:"volume,omitempty"`
}

// Fundamentals are balance-sheet and quality figures from the data
// provider. Any figure may be missing.
type Fundamentals struct {
	Ticker             string   `json:"ticker"`
	Sector             string   `json:"sector,omitempty"`
	Beta               *float64 `json:"beta,omitempty"`
	TotalDebt          *float64 `json:"total_debt,omitempty"`
	CashAndEquivalents *float64 `json:"cash_and_equivalents,omitempty"`
	TaxRate            *float64 `json:"tax_rate,omitempty"`
	ROE                *float64 `json:"roe,omitempty"`
	NetMargin          *float64 `json:"net_margin,omitempty"`
	RevenueGrowth      *float64 `json:"revenue_growth,omitempty"`
	EBITDA             *float64 `json:"ebitda,omitempty"`
	EPS                *float64 `json:"eps,omitempty"`
	BookValuePerShare  *float64 `json:"book_value_per_share,omitempty"`
}

// Quote is a current market snapshot from the data provider.
type Quote struct {
	Ticker            string    `json:"ticker"`
	Price             float64   `json:"price"`
	SharesOutstanding float64   `json:"shares_outstanding"`
	MarketCap         float64   `json:"market_cap,omitempty"`
	Sector            string    `json:"sector,omitempty"`
	AsOf              time.Time `json:"as_of"`
}

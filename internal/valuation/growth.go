package valuation

import (
	"math"
	"time"

	"github.com/dmoralesf/valora/internal/contracts"
	"github.com/dmoralesf/valora/pkg/logger"
)

// GrowthModeler selects the base free cash flow and derives the growth
// path applied over the explicit projection horizon.
type GrowthModeler struct {
	logger *logger.Logger
}

// NewGrowthModeler creates a new growth modeler
func NewGrowthModeler(log *logger.Logger) *GrowthModeler {
	return &GrowthModeler{
		logger: log.WithField("module", "growth"),
	}
}

// GrowthModel is the output of the modeler: the FCF base, the derived
// path, and the projected cash flows, with audit fields.
type GrowthModel struct {
	Ticker           string    `json:"ticker"`
	BaseFCF          float64   `json:"base_fcf"`
	BasePeriod       time.Time `json:"base_period"`
	UsableYears      int       `json:"usable_years"`
	HistoricalFCF    []float64 `json:"historical_fcf"`    // chronological order
	HistoricalGrowth []float64 `json:"historical_growth"` // chronological order
	GrowthPath       []float64 `json:"growth_path"`       // one rate per projection year
	ProjectedFCF     []float64 `json:"projected_fcf"`
	PathExplicit     bool      `json:"path_explicit"`
}

// Model derives a growth model from raw cash flow history. Snapshots are
// expected newest-first. A period missing either figure is skipped, never
// zero-filled. explicitPath, when non-empty, overrides the historically
// derived path (padded with its last rate to the projection horizon).
//
// Base FCF is the most recent usable year, not a multi-year average. FCF
// is cyclical, so this is a debatable policy choice, kept deliberately.
func (m *GrowthModeler) Model(snapshots []contracts.FinancialSnapshot, explicitPath []float64) (*GrowthModel, error) {
	ticker := ""
	if len(snapshots) > 0 {
		ticker = snapshots[0].Ticker
	}

	// Collect usable years, newest first like the input
	type fcfYear struct {
		period time.Time
		fcf    float64
	}
	var usable []fcfYear
	for _, s := range snapshots {
		if fcf, ok := s.FCF(); ok {
			usable = append(usable, fcfYear{period: s.PeriodEnd, fcf: fcf})
		}
	}

	if len(usable) == 0 {
		return nil, &contracts.InsufficientDataError{
			Ticker: ticker,
			Reason: "no periods with both operating cash flow and capex",
		}
	}

	model := &GrowthModel{
		Ticker:      ticker,
		BaseFCF:     usable[0].fcf,
		BasePeriod:  usable[0].period,
		UsableYears: len(usable),
	}

	// Chronological FCF series for growth derivation
	for i := len(usable) - 1; i >= 0; i-- {
		model.HistoricalFCF = append(model.HistoricalFCF, usable[i].fcf)
	}

	// YoY growth, skipping zero denominators
	for i := 1; i < len(model.HistoricalFCF); i++ {
		prev := model.HistoricalFCF[i-1]
		if prev == 0 {
			continue
		}
		growth := (model.HistoricalFCF[i] - prev) / math.Abs(prev)
		model.HistoricalGrowth = append(model.HistoricalGrowth, growth)
	}

	model.GrowthPath = m.buildPath(model.HistoricalGrowth, explicitPath)
	model.PathExplicit = len(explicitPath) > 0

	// Apply path multiplicatively to the base
	fcf := model.BaseFCF
	for _, g := range model.GrowthPath {
		fcf *= 1 + g
		model.ProjectedFCF = append(model.ProjectedFCF, fcf)
	}

	m.logger.WithFields(map[string]interface{}{
		"ticker":       ticker,
		"usable_years": model.UsableYears,
		"base_fcf":     model.BaseFCF,
		"explicit":     model.PathExplicit,
	}).Debug("Growth model built")

	return model, nil
}

// buildPath returns the per-year growth rates for the projection horizon.
func (m *GrowthModeler) buildPath(historical, explicit []float64) []float64 {
	path := make([]float64, contracts.ProjectionYears)

	if len(explicit) > 0 {
		for i := range path {
			if i < len(explicit) {
				path[i] = explicit[i]
			} else {
				path[i] = explicit[len(explicit)-1]
			}
		}
		return path
	}

	// Average historical growth, capped for projection use
	avg := 0.0
	if len(historical) > 0 {
		sum := 0.0
		for _, g := range historical {
			sum += g
		}
		avg = sum / float64(len(historical))
	}
	avg = clamp(avg, -maxProjectionGrowth, maxProjectionGrowth)

	for i := range path {
		path[i] = avg
	}
	return path
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

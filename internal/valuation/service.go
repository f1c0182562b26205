package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/dmoralesf/valora/internal/contracts"
	"github.com/dmoralesf/valora/pkg/logger"
)

// MarketDataProvider is the upstream data collaborator consumed by the
// valuation service.
type MarketDataProvider interface {
	// CashFlowStatements returns up to 5 fiscal periods, newest first.
	CashFlowStatements(ctx context.Context, ticker string) ([]contracts.FinancialSnapshot, error)
	Quote(ctx context.Context, ticker string) (*contracts.Quote, error)
	Fundamentals(ctx context.Context, ticker string) (*contracts.Fundamentals, error)
}

// Service runs the full valuation pipeline: growth modeling, rate
// estimation, discounting and persistence.
type Service struct {
	growth    *GrowthModeler
	wacc      *WACCEstimator
	terminal  *TerminalGrowthEstimator
	core      *Core
	sens      *SensitivityEngine
	provider  MarketDataProvider
	calcs     contracts.CalculationRepository
	logger    *logger.Logger
}

// NewService wires the pipeline components together. The repository is
// constructed once at process start and passed in; the service never
// creates its own connections.
func NewService(provider MarketDataProvider, calcs contracts.CalculationRepository, log *logger.Logger) *Service {
	core := NewCore(log)
	return &Service{
		growth:   NewGrowthModeler(log),
		wacc:     NewWACCEstimator(log),
		terminal: NewTerminalGrowthEstimator(log),
		core:     core,
		sens:     NewSensitivityEngine(core, log),
		provider: provider,
		calcs:    calcs,
		logger:   log.WithField("module", "valuation"),
	}
}

// Options tweak a single valuation run.
type Options struct {
	GrowthPath []float64 // explicit per-year growth override
	UseNetDebt bool
	Persist    bool // save the result through the calculation store
}

// Valuate runs the full pipeline for one ticker and returns the
// reporting payload plus the persisted result record.
func (s *Service) Valuate(ctx context.Context, ticker string, opts Options) (*contracts.ValuationPayload, *contracts.ValuationResult, error) {
	snapshots, err := s.provider.CashFlowStatements(ctx, ticker)
	if err != nil {
		return nil, nil, err
	}

	quote, err := s.provider.Quote(ctx, ticker)
	if err != nil {
		return nil, nil, err
	}

	funds, err := s.provider.Fundamentals(ctx, ticker)
	if err != nil {
		return nil, nil, err
	}

	model, err := s.growth.Model(snapshots, opts.GrowthPath)
	if err != nil {
		return nil, nil, err
	}

	capm := CAPMInputs{
		MarketCapEquity: quote.MarketCap,
		UseNetDebt:      opts.UseNetDebt,
	}
	if capm.MarketCapEquity == 0 {
		capm.MarketCapEquity = quote.Price * quote.SharesOutstanding
	}
	if funds.Beta != nil {
		capm.Beta = *funds.Beta
	}
	if funds.TotalDebt != nil {
		capm.TotalDebt = *funds.TotalDebt
	}
	if funds.CashAndEquivalents != nil {
		capm.Cash = *funds.CashAndEquivalents
	}
	if funds.TaxRate != nil {
		capm.TaxRate = *funds.TaxRate
	}

	waccEst := s.wacc.Estimate(ticker, funds.Sector, capm)

	termEst := s.terminal.Estimate(TerminalInputs{
		ROE:           funds.ROE,
		NetMargin:     funds.NetMargin,
		RevenueGrowth: funds.RevenueGrowth,
	}, &waccEst.WACC, true)

	params := contracts.ScenarioParameters{
		Ticker:         ticker,
		WACC:           waccEst.WACC,
		TerminalGrowth: termEst.TerminalGrowth,
		GrowthPath:     model.GrowthPath,
	}
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	coreResult, err := s.core.Value(CoreInputs{
		Ticker:         ticker,
		ProjectedFCF:   model.ProjectedFCF,
		WACC:           waccEst.WACC,
		TerminalGrowth: termEst.TerminalGrowth,
		Cash:           capm.Cash,
		Debt:           capm.TotalDebt,
		Shares:         quote.SharesOutstanding,
	})
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	result := &contracts.ValuationResult{
		Ticker:            ticker,
		CalculationDate:   time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		FairValue:         coreResult.EquityValue,
		MarketPrice:       quote.Price,
		DiscountRate:      waccEst.WACC,
		GrowthRate:        termEst.TerminalGrowth,
		FCFProjections:    model.ProjectedFCF,
		SharesOutstanding: quote.SharesOutstanding,
		Metadata:          buildMetadata(model, waccEst, termEst),
		CreatedAt:         now,
	}

	if opts.Persist {
		if err := s.calcs.Save(ctx, result); err != nil {
			return nil, nil, err
		}
	}

	payload := s.buildPayload(result, coreResult, model, waccEst, termEst, capm, funds)

	s.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"fair_value": payload.FairValuePerShare,
		"upside_pct": payload.UpsidePct,
		"wacc":       waccEst.WACC,
	}).Info("Valuation completed")

	return payload, result, nil
}

// Sensitivity runs the pipeline up to the growth model and evaluates the
// core over the given rate grid.
func (s *Service) Sensitivity(ctx context.Context, ticker string, waccValues, growthValues []float64) (*contracts.SensitivityGrid, error) {
	snapshots, err := s.provider.CashFlowStatements(ctx, ticker)
	if err != nil {
		return nil, err
	}

	quote, err := s.provider.Quote(ctx, ticker)
	if err != nil {
		return nil, err
	}

	funds, err := s.provider.Fundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}

	model, err := s.growth.Model(snapshots, nil)
	if err != nil {
		return nil, err
	}

	fixed := FixedInputs{
		Ticker:       ticker,
		ProjectedFCF: model.ProjectedFCF,
		Shares:       quote.SharesOutstanding,
	}
	if funds.CashAndEquivalents != nil {
		fixed.Cash = *funds.CashAndEquivalents
	}
	if funds.TotalDebt != nil {
		fixed.Debt = *funds.TotalDebt
	}

	return s.sens.Grid(waccValues, growthValues, fixed), nil
}

// buildMetadata records estimator provenance on the persisted result.
func buildMetadata(model *GrowthModel, wacc *WACCEstimate, term *TerminalEstimate) map[string]string {
	meta := map[string]string{
		"usable_years": fmt.Sprintf("%d", model.UsableYears),
		"base_fcf":     fmt.Sprintf("%.2f", model.BaseFCF),
	}
	if wacc.FloorApplied {
		meta["wacc_floor_applied"] = "true"
		meta["wacc_before_floor"] = fmt.Sprintf("%.4f", wacc.WACCBeforeFloor)
	}
	if wacc.IndustryOverride {
		meta["wacc_industry_override"] = "true"
	}
	if term.SpreadAdjusted {
		meta["terminal_spread_adjusted"] = "true"
		meta["terminal_before_adjustment"] = fmt.Sprintf("%.4f", term.BeforeAdjustment)
	}
	return meta
}

// buildPayload assembles the reporting payload for downstream consumers.
func (s *Service) buildPayload(result *contracts.ValuationResult, core *CoreResult, model *GrowthModel,
	wacc *WACCEstimate, term *TerminalEstimate, capm CAPMInputs, funds *contracts.Fundamentals) *contracts.ValuationPayload {

	payload := &contracts.ValuationPayload{
		Ticker:            result.Ticker,
		FairValuePerShare: core.FairValuePerShare,
		EnterpriseValue:   core.EnterpriseValue,
		EquityValue:       core.EquityValue,
		MarketPrice:       result.MarketPrice,
		UpsidePct:         result.Upside(),
		WACC:              wacc.WACC,
		TerminalGrowth:    term.TerminalGrowth,
		ProjectedFCF:      model.ProjectedFCF,
		GrowthRates:       model.GrowthPath,
		DilutedShares:     result.SharesOutstanding,
		Cash:              capm.Cash,
		Debt:              capm.TotalDebt,
		Warnings:          core.Warnings,
	}

	// Optional relative metrics when figures are available
	if funds.EBITDA != nil && *funds.EBITDA > 0 {
		ev := core.EnterpriseValue / *funds.EBITDA
		payload.Metrics.EVEBITDA = &ev
	}
	if funds.EPS != nil && *funds.EPS > 0 && result.MarketPrice > 0 {
		pe := result.MarketPrice / *funds.EPS
		payload.Metrics.PERatio = &pe
	}
	if funds.BookValuePerShare != nil && *funds.BookValuePerShare > 0 && result.MarketPrice > 0 {
		pb := result.MarketPrice / *funds.BookValuePerShare
		payload.Metrics.PBRatio = &pb
	}

	return payload
}

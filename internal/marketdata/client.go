package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmoralesf/valora/internal/contracts"
	"github.com/dmoralesf/valora/pkg/config"
	"github.com/dmoralesf/valora/pkg/httputil"
	"github.com/dmoralesf/valora/pkg/logger"
	"github.com/dmoralesf/valora/pkg/redis"
)

// Client fetches statements, quotes and fundamentals from the market
// data provider's JSON API, with an HTML fallback for profile fields.
// All provider calls go through this client.
type Client struct {
	httpClient *httputil.Client
	limiter    *rate.Limiter
	cache      *redis.Cache
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	timeout    time.Duration
}

// NewClient creates a new market data client. cache may be nil.
func NewClient(cfg *config.Config, httpClient *httputil.Client, cache *redis.Cache, log *logger.Logger) *Client {
	rps := cfg.MarketData.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		cache:      cache,
		logger:     log.WithField("module", "marketdata"),
		baseURL:    strings.TrimRight(cfg.MarketData.BaseURL, "/"),
		apiKey:     cfg.MarketData.APIKey,
		timeout:    cfg.MarketData.Timeout,
	}
}

// cashFlowRow is one fiscal period from the cash flow statement endpoint.
type cashFlowRow struct {
	Symbol             string   `json:"symbol"`
	Date               string   `json:"date"`
	OperatingCashFlow  *float64 `json:"operatingCashFlow"`
	CapitalExpenditure *float64 `json:"capitalExpenditure"`
}

// CashFlowStatements returns up to 5 annual periods, newest first. A
// period missing either figure is returned as-is; downstream modeling
// decides whether to skip it.
func (c *Client) CashFlowStatements(ctx context.Context, ticker string) ([]contracts.FinancialSnapshot, error) {
	var snapshots []contracts.FinancialSnapshot
	cacheKey := redis.StatementsKey(ticker)
	if c.cacheGet(ctx, cacheKey, &snapshots) {
		return snapshots, nil
	}

	url := fmt.Sprintf("%s/v3/cash-flow-statement/%s?period=annual&limit=%d&apikey=%s",
		c.baseURL, ticker, contracts.ProjectionYears, c.apiKey)

	var rows []cashFlowRow
	if err := c.getJSON(ctx, ticker, url, &rows); err != nil {
		return nil, err
	}

	for _, row := range rows {
		periodEnd, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			c.logger.WithField("date", row.Date).Warn("Skipping statement with unparseable date")
			continue
		}
		snapshots = append(snapshots, contracts.FinancialSnapshot{
			Ticker:             ticker,
			PeriodEnd:          periodEnd,
			OperatingCashFlow:  row.OperatingCashFlow,
			CapitalExpenditure: row.CapitalExpenditure,
		})
	}

	// Provider order is not guaranteed
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].PeriodEnd.After(snapshots[j].PeriodEnd)
	})
	if len(snapshots) > contracts.ProjectionYears {
		snapshots = snapshots[:contracts.ProjectionYears]
	}

	c.cacheSet(ctx, cacheKey, snapshots, redis.TTLStatement)

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(snapshots),
	}).Debug("Fetched cash flow statements")
	return snapshots, nil
}

// quoteRow is the provider's quote payload.
type quoteRow struct {
	Symbol            string  `json:"symbol"`
	Price             float64 `json:"price"`
	SharesOutstanding float64 `json:"sharesOutstanding"`
	MarketCap         float64 `json:"marketCap"`
}

// Quote returns the current market snapshot for the ticker.
func (c *Client) Quote(ctx context.Context, ticker string) (*contracts.Quote, error) {
	var quote contracts.Quote
	cacheKey := redis.QuoteKey(ticker)
	if c.cacheGet(ctx, cacheKey, &quote) {
		return &quote, nil
	}

	url := fmt.Sprintf("%s/v3/quote/%s?apikey=%s", c.baseURL, ticker, c.apiKey)

	var rows []quoteRow
	if err := c.getJSON(ctx, ticker, url, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &contracts.AcquisitionError{
			Ticker: ticker,
			Source: "quote",
			Err:    fmt.Errorf("empty response"),
		}
	}

	quote = contracts.Quote{
		Ticker:            ticker,
		Price:             rows[0].Price,
		SharesOutstanding: rows[0].SharesOutstanding,
		MarketCap:         rows[0].MarketCap,
		AsOf:              time.Now().UTC(),
	}

	c.cacheSet(ctx, cacheKey, &quote, redis.TTLQuote)
	return &quote, nil
}

// profileRow carries sector and beta from the profile endpoint.
type profileRow struct {
	Symbol string   `json:"symbol"`
	Sector string   `json:"sector"`
	Beta   *float64 `json:"beta"`
}

// metricsRow carries quality and balance sheet figures.
type metricsRow struct {
	ROE               *float64 `json:"roe"`
	NetProfitMargin   *float64 `json:"netProfitMargin"`
	RevenueGrowth     *float64 `json:"revenueGrowth"`
	TotalDebt         *float64 `json:"totalDebt"`
	CashAndEquiv      *float64 `json:"cashAndCashEquivalents"`
	EffectiveTaxRate  *float64 `json:"effectiveTaxRate"`
	EBITDA            *float64 `json:"ebitda"`
	EPS               *float64 `json:"eps"`
	BookValuePerShare *float64 `json:"bookValuePerShare"`
}

// Fundamentals returns balance sheet and quality figures. When the
// profile endpoint omits the sector, the provider's HTML profile page is
// scraped as a fallback.
func (c *Client) Fundamentals(ctx context.Context, ticker string) (*contracts.Fundamentals, error) {
	funds := &contracts.Fundamentals{Ticker: ticker}

	profileURL := fmt.Sprintf("%s/v3/profile/%s?apikey=%s", c.baseURL, ticker, c.apiKey)
	var profiles []profileRow
	if err := c.getJSON(ctx, ticker, profileURL, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) > 0 {
		funds.Sector = profiles[0].Sector
		funds.Beta = profiles[0].Beta
	}

	metricsURL := fmt.Sprintf("%s/v3/key-metrics-ttm/%s?apikey=%s", c.baseURL, ticker, c.apiKey)
	var metrics []metricsRow
	if err := c.getJSON(ctx, ticker, metricsURL, &metrics); err != nil {
		return nil, err
	}
	if len(metrics) > 0 {
		m := metrics[0]
		funds.ROE = m.ROE
		funds.NetMargin = m.NetProfitMargin
		funds.RevenueGrowth = m.RevenueGrowth
		funds.TotalDebt = m.TotalDebt
		funds.CashAndEquivalents = m.CashAndEquiv
		funds.TaxRate = m.EffectiveTaxRate
		funds.EBITDA = m.EBITDA
		funds.EPS = m.EPS
		funds.BookValuePerShare = m.BookValuePerShare
	}

	if funds.Sector == "" {
		sector, err := c.scrapeSector(ctx, ticker)
		if err != nil {
			c.logger.WithError(err).WithField("ticker", ticker).Warn("Sector scrape fallback failed")
		} else {
			funds.Sector = sector
		}
	}

	return funds, nil
}

// priceRow is one daily bar from the historical price endpoint.
type priceRow struct {
	Date   string   `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *int64   `json:"volume"`
}

type historicalResponse struct {
	Symbol     string     `json:"symbol"`
	Historical []priceRow `json:"historical"`
}

// DailyPrices fetches daily bars for the range, ascending by date.
func (c *Client) DailyPrices(ctx context.Context, ticker string, from, to time.Time) ([]*contracts.PriceBar, error) {
	url := fmt.Sprintf("%s/v3/historical-price-full/%s?from=%s&to=%s&apikey=%s",
		c.baseURL, ticker, from.Format("2006-01-02"), to.Format("2006-01-02"), c.apiKey)

	var resp historicalResponse
	if err := c.getJSON(ctx, ticker, url, &resp); err != nil {
		return nil, err
	}

	var bars []*contracts.PriceBar
	for _, row := range resp.Historical {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		bars = append(bars, &contracts.PriceBar{
			Ticker: ticker,
			Date:   date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(bars),
	}).Debug("Fetched daily prices")
	return bars, nil
}

// getJSON performs a rate-limited GET and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, ticker, url string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return &contracts.AcquisitionError{Ticker: ticker, Source: "api", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &contracts.AcquisitionError{
			Ticker: ticker,
			Source: "api",
			Err:    fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &contracts.AcquisitionError{Ticker: ticker, Source: "api", Err: err}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return &contracts.AcquisitionError{
			Ticker: ticker,
			Source: "api",
			Err:    fmt.Errorf("decode response failed: %w", err),
		}
	}
	return nil
}

func (c *Client) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if c.cache == nil {
		return false
	}
	hit, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		c.logger.WithError(err).Debug("Cache read failed")
		return false
	}
	return hit
}

func (c *Client) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, value, ttl); err != nil {
		c.logger.WithError(err).Debug("Cache write failed")
	}
}

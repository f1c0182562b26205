package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/dmoralesf/valora/internal/contracts"
)

// PriceFetchResult is the per-ticker outcome of a batch price fetch.
// A failed ticker carries its error; the batch itself never fails.
type PriceFetchResult struct {
	Ticker string
	Bars   []*contracts.PriceBar
	Error  error
}

// FetchDailyPrices fetches daily bars for every ticker using a bounded
// worker pool. Results are partial: one ticker failing does not abort
// the rest.
func (c *Client) FetchDailyPrices(ctx context.Context, tickers []string, from, to time.Time, workers int) []PriceFetchResult {
	if workers <= 0 {
		workers = 1
	}

	tickerCh := make(chan string, len(tickers))
	resultCh := make(chan PriceFetchResult, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range tickerCh {
				bars, err := c.DailyPrices(ctx, ticker, from, to)
				resultCh <- PriceFetchResult{Ticker: ticker, Bars: bars, Error: err}
			}
		}()
	}

	for _, ticker := range tickers {
		tickerCh <- ticker
	}
	close(tickerCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var results []PriceFetchResult
	successCount := 0
	failCount := 0
	for result := range resultCh {
		results = append(results, result)
		if result.Error != nil {
			failCount++
		} else {
			successCount++
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"success": successCount,
		"failed":  failCount,
		"total":   len(results),
	}).Info("Batch price fetch completed")

	return results
}

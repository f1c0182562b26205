package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dmoralesf/valora/pkg/config"
	"github.com/dmoralesf/valora/pkg/httputil"
	"github.com/dmoralesf/valora/pkg/logger"
)

func newTestLogger() *logger.Logger {
	return logger.New(&config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
	})
}

func newTestClient(baseURL string) *Client {
	log := newTestLogger()
	cfg := &config.Config{
		MarketData: config.MarketDataConfig{
			BaseURL:        baseURL,
			APIKey:         "test-key",
			RequestsPerSec: 1000, // no pacing in tests
		},
	}
	return NewClient(cfg, httputil.New(log).DisableRetry(), nil, log)
}

func TestClient_CashFlowStatements(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v3/cash-flow-statement/AAPL") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		// Out of order on purpose; 2021 has no capex
		w.Write([]byte(`[
			{"symbol":"AAPL","date":"2022-09-24","operatingCashFlow":122151000000,"capitalExpenditure":-10708000000},
			{"symbol":"AAPL","date":"2023-09-30","operatingCashFlow":110543000000,"capitalExpenditure":-10959000000},
			{"symbol":"AAPL","date":"2021-09-25","operatingCashFlow":104038000000}
		]`))
	}))
	defer server.Close()

	snapshots, err := newTestClient(server.URL).CashFlowStatements(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("CashFlowStatements() error = %v", err)
	}

	if len(snapshots) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snapshots))
	}

	// Newest first regardless of provider order
	if snapshots[0].PeriodEnd.Year() != 2023 {
		t.Errorf("first snapshot year = %d, want 2023", snapshots[0].PeriodEnd.Year())
	}
	if snapshots[2].PeriodEnd.Year() != 2021 {
		t.Errorf("last snapshot year = %d, want 2021", snapshots[2].PeriodEnd.Year())
	}

	// Missing capex preserved as nil, not zero-filled
	if snapshots[2].CapitalExpenditure != nil {
		t.Error("missing capex should stay nil")
	}
	if _, ok := snapshots[2].FCF(); ok {
		t.Error("period without capex should not yield FCF")
	}
}

func TestClient_Quote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"AAPL","price":189.84,"sharesOutstanding":15550061000,"marketCap":2952000000000}]`))
	}))
	defer server.Close()

	quote, err := newTestClient(server.URL).Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}

	if quote.Price != 189.84 {
		t.Errorf("Price = %v, want 189.84", quote.Price)
	}
	if quote.SharesOutstanding != 15550061000 {
		t.Errorf("SharesOutstanding = %v", quote.SharesOutstanding)
	}
	if quote.AsOf.IsZero() {
		t.Error("AsOf not stamped")
	}
}

func TestClient_QuoteEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Quote(context.Background(), "UNKNOWN")
	if err == nil {
		t.Fatal("empty quote response should be an error")
	}
}

func TestClient_Fundamentals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/v3/profile/"):
			w.Write([]byte(`[{"symbol":"AAPL","sector":"Technology","beta":1.29}]`))
		case strings.Contains(r.URL.Path, "/v3/key-metrics-ttm/"):
			w.Write([]byte(`[{"roe":1.47,"netProfitMargin":0.25,"totalDebt":111000000000,"cashAndCashEquivalents":62000000000}]`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	funds, err := newTestClient(server.URL).Fundamentals(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Fundamentals() error = %v", err)
	}

	if funds.Sector != "Technology" {
		t.Errorf("Sector = %q, want Technology", funds.Sector)
	}
	if funds.Beta == nil || *funds.Beta != 1.29 {
		t.Errorf("Beta = %v, want 1.29", funds.Beta)
	}
	if funds.ROE == nil || *funds.ROE != 1.47 {
		t.Errorf("ROE = %v, want 1.47", funds.ROE)
	}
	if funds.RevenueGrowth != nil {
		t.Error("missing revenue growth should stay nil")
	}
}

func TestClient_DailyPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Provider returns newest first
		w.Write([]byte(`{"symbol":"AAPL","historical":[
			{"date":"2026-08-28","open":190.1,"high":192.3,"low":189.5,"close":191.2,"volume":51230000},
			{"date":"2026-08-27","close":189.84}
		]}`))
	}))
	defer server.Close()

	bars, err := newTestClient(server.URL).DailyPrices(context.Background(), "AAPL",
		time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DailyPrices() error = %v", err)
	}

	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}

	// Ascending by date
	if !bars[0].Date.Before(bars[1].Date) {
		t.Error("bars not in ascending date order")
	}
	if bars[0].Open != nil {
		t.Error("missing open should stay nil")
	}
	if bars[1].Close == nil || *bars[1].Close != 191.2 {
		t.Errorf("Close = %v, want 191.2", bars[1].Close)
	}
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Quote(context.Background(), "AAPL")
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestClient_FetchDailyPricesPartial(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if strings.Contains(r.URL.Path, "/BAD") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"symbol":"OK","historical":[{"date":"2026-08-28","close":100}]}`))
	}))
	defer server.Close()

	results := newTestClient(server.URL).FetchDailyPrices(context.Background(),
		[]string{"AAPL", "BAD", "MSFT"},
		time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), 2)

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			if r.Ticker != "BAD" {
				t.Errorf("unexpected failure for %s: %v", r.Ticker, r.Error)
			}
		}
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}

func TestParseSector(t *testing.T) {
	html := `<html><body><table>
		<tr><td>Industry</td><td><a href="/ind">Consumer Electronics</a></td></tr>
		<tr><td>Sector</td><td><a href="/sec">Technology</a></td></tr>
	</table></body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}

	if got := parseSector(doc); got != "Technology" {
		t.Errorf("parseSector() = %q, want Technology", got)
	}
}

func TestParseSector_Missing(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>no tables</p></body></html>"))
	if err != nil {
		t.Fatal(err)
	}

	if got := parseSector(doc); got != "" {
		t.Errorf("parseSector() = %q, want empty", got)
	}
}

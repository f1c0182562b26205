package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dmoralesf/valora/internal/contracts"
)

const profilePageURL = "https://stockanalysis.com/stocks/%s/"

// scrapeSector fetches the public profile page and extracts the sector
// label. Fallback only; the JSON API is the primary source.
func (c *Client) scrapeSector(ctx context.Context, ticker string) (string, error) {
	url := fmt.Sprintf(profilePageURL, strings.ToLower(ticker))

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return "", &contracts.AcquisitionError{Ticker: ticker, Source: "profile page", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &contracts.AcquisitionError{
			Ticker: ticker,
			Source: "profile page",
			Err:    fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", &contracts.AcquisitionError{Ticker: ticker, Source: "profile page", Err: err}
	}

	sector := parseSector(doc)
	if sector == "" {
		return "", &contracts.AcquisitionError{
			Ticker: ticker,
			Source: "profile page",
			Err:    fmt.Errorf("sector not found in document"),
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"sector": sector,
	}).Debug("Sector scraped from profile page")
	return sector, nil
}

// parseSector finds the sector value in the profile table. The page
// lays company facts out as label/value table rows.
func parseSector(doc *goquery.Document) string {
	var sector string
	doc.Find("table tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		label := strings.TrimSpace(row.Find("td").First().Text())
		if !strings.EqualFold(label, "Sector") {
			return true
		}
		sector = strings.TrimSpace(row.Find("td a").First().Text())
		if sector == "" {
			sector = strings.TrimSpace(row.Find("td").Eq(1).Text())
		}
		return false
	})
	return sector
}

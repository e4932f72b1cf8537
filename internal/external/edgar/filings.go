package edgar

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/optionscout/backend/internal/contracts"
)

// Filing is one row of the EDGAR company filings listing.
type Filing struct {
	Form  string
	Filed time.Time
}

// eventWindow limits how far back filings count toward the event snapshot.
const eventWindow = 14 * 24 * time.Hour

// GetEventSnapshot scrapes recent filings for the symbol and condenses them into an
// event bias/risk pair.
func (c *Client) GetEventSnapshot(ctx context.Context, symbol string) (contracts.EventSnapshot, error) {
	filings, err := c.getRecentFilings(ctx, symbol)
	if err != nil {
		return contracts.EventSnapshot{}, err
	}

	return condenseFilings(filings, time.Now()), nil
}

func (c *Client) getRecentFilings(ctx context.Context, symbol string) ([]Filing, error) {
	params := url.Values{}
	params.Set("action", "getcompany")
	params.Set("company", symbol)
	params.Set("type", "")
	params.Set("dateb", "")
	params.Set("owner", "include")
	params.Set("count", "40")

	body, err := c.getHTML(ctx, "/cgi-bin/browse-edgar", params)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, contracts.Invalidf("edgar parse: %v", err)
	}

	return parseFilingTable(doc), nil
}

// parseFilingTable extracts form type and filing date from the results table.
func parseFilingTable(doc *goquery.Document) []Filing {
	var filings []Filing

	doc.Find("table.tableFile2 tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return // header row
		}

		form := strings.TrimSpace(cells.Eq(0).Text())
		filed, err := time.Parse("2006-01-02", strings.TrimSpace(cells.Eq(3).Text()))
		if form == "" || err != nil {
			return
		}

		filings = append(filings, Filing{Form: form, Filed: filed})
	})

	return filings
}

// condenseFilings maps recent filing activity onto the event snapshot.
// Material 8-K activity raises risk; accumulation filings (13D/13G) tilt
// bias positive, shelf and offering filings tilt it negative.
func condenseFilings(filings []Filing, now time.Time) contracts.EventSnapshot {
	var snapshot contracts.EventSnapshot

	for _, filing := range filings {
		if now.Sub(filing.Filed) > eventWindow {
			continue
		}

		form := strings.ToUpper(filing.Form)
		switch {
		case strings.HasPrefix(form, "8-K"):
			snapshot.EventRisk += 0.25
		case strings.HasPrefix(form, "10-Q"), strings.HasPrefix(form, "10-K"):
			snapshot.EventRisk += 0.15
		case strings.HasPrefix(form, "SC 13D"), strings.HasPrefix(form, "SC 13G"):
			snapshot.EventBias += 0.2
		case strings.HasPrefix(form, "424B"), strings.HasPrefix(form, "S-3"):
			snapshot.EventBias -= 0.2
			snapshot.EventRisk += 0.1
		}
	}

	snapshot.EventRisk = clamp(snapshot.EventRisk, 0, 1)
	snapshot.EventBias = clamp(snapshot.EventBias, -1, 1)
	return snapshot
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

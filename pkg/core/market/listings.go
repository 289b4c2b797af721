// Package market scrapes used-vehicle listing pages into comparable sale
// rows. Comps back-check the resale model: a predicted end-of-lease value
// far outside the listed range for the same model deserves a second look.
package market

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// CompRow is a single comparable listing.
type CompRow struct {
	Model     string  `json:"model"`
	Trim      string  `json:"trim,omitempty"`
	Region    string  `json:"region,omitempty"`
	AgeMonths float64 `json:"ageMonths,omitempty"`
	Mileage   float64 `json:"mileage,omitempty"`
	Price     float64 `json:"price"`
}

// Listing tables vary between sources; headers are matched loosely against
// these aliases, case-insensitively.
var columnAliases = map[string][]string{
	"model":   {"model", "vehicle", "make/model"},
	"trim":    {"trim", "grade"},
	"region":  {"region", "location", "market"},
	"age":     {"age", "age (months)", "age_months", "months in service"},
	"mileage": {"mileage", "miles", "odometer"},
	"price":   {"price", "asking price", "list price", "sale price"},
}

// ParseListings extracts comp rows from an HTML document. Every table on
// the page is scanned; a table qualifies if its header row names at least a
// model column and a price column. Rows with an unparseable price are
// skipped, not fatal.
func ParseListings(html string) ([]CompRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listings HTML: %w", err)
	}

	var comps []CompRow
	totalTables := 0
	qualifiedTables := 0

	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		totalTables++

		cols := matchHeaderColumns(table)
		if cols == nil {
			return
		}
		qualifiedTables++

		table.Find("tr").Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() == 0 {
				return
			}
			comp, ok := parseRow(cells, cols)
			if !ok {
				return
			}
			comps = append(comps, comp)
		})
	})

	log.Printf("[Market] Parsed listings: tables=%d, qualified=%d, comps=%d",
		totalTables, qualifiedTables, len(comps))

	if len(comps) == 0 {
		return nil, fmt.Errorf("no comparable listings found in document")
	}
	return comps, nil
}

// matchHeaderColumns maps field names to cell indexes from the table's
// first row, or returns nil when the table is not a listings table.
func matchHeaderColumns(table *goquery.Selection) map[string]int {
	header := table.Find("tr").First().Find("td, th")
	if header.Length() == 0 {
		return nil
	}

	cols := make(map[string]int)
	header.Each(func(j int, cell *goquery.Selection) {
		text := strings.ToLower(strings.TrimSpace(cell.Text()))
		for field, aliases := range columnAliases {
			if _, taken := cols[field]; taken {
				continue
			}
			for _, alias := range aliases {
				if text == alias {
					cols[field] = j
					break
				}
			}
		}
	})

	if _, ok := cols["model"]; !ok {
		return nil
	}
	if _, ok := cols["price"]; !ok {
		return nil
	}
	return cols
}

func parseRow(cells *goquery.Selection, cols map[string]int) (CompRow, bool) {
	cellText := func(field string) string {
		idx, ok := cols[field]
		if !ok || idx >= cells.Length() {
			return ""
		}
		return strings.TrimSpace(cells.Eq(idx).Text())
	}

	model := cellText("model")
	if model == "" {
		return CompRow{}, false
	}
	price, err := parseMoney(cellText("price"))
	if err != nil || price <= 0 {
		return CompRow{}, false
	}

	comp := CompRow{
		Model:  model,
		Trim:   cellText("trim"),
		Region: cellText("region"),
		Price:  price,
	}
	if v, err := parseMoney(cellText("age")); err == nil {
		comp.AgeMonths = v
	}
	if v, err := parseMoney(cellText("mileage")); err == nil {
		comp.Mileage = v
	}
	return comp, true
}

// parseMoney parses numbers as listing sites format them: "$24,500",
// "24 500 mi", "31,000".
func parseMoney(text string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, text)
	if cleaned == "" {
		return 0, fmt.Errorf("no numeric content in %q", text)
	}
	return strconv.ParseFloat(cleaned, 64)
}

// MedianPriceByModel groups comps by model and returns each model's median
// listed price.
func MedianPriceByModel(comps []CompRow) map[string]float64 {
	byModel := make(map[string][]float64)
	for _, c := range comps {
		byModel[c.Model] = append(byModel[c.Model], c.Price)
	}

	medians := make(map[string]float64, len(byModel))
	for model, prices := range byModel {
		sort.Float64s(prices)
		n := len(prices)
		if n%2 == 1 {
			medians[model] = prices[n/2]
		} else {
			medians[model] = (prices[n/2-1] + prices[n/2]) / 2
		}
	}
	return medians
}

// FetchListings downloads a listings page and parses it.
func FetchListings(ctx context.Context, url string) ([]CompRow, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build listings request: %w", err)
	}
	req.Header.Set("User-Agent", "fleet-pricing-comps/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listings fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read listings body: %w", err)
	}

	return ParseListings(string(body))
}

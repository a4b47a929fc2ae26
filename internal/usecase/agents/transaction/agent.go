package transaction

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/usecase/agents/search"
)

var (
	pricePattern = regexp.MustCompile(`([$€£])\s?(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`)
	// leading verbs that are not part of the product name
	productPrefix = regexp.MustCompile(`(?i)^(?:buy|purchase|price of|prices for|cost of|compare prices for|compare|shopping for|shop for|cheapest)\s+`)
)

var shoppingSites = []string{"amazon.com", "ebay.com", "walmart.com", "bestbuy.com"}

type ResultSource interface {
	Results(ctx context.Context, query string) ([]search.Result, error)
}

type Deal struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Platform string  `json:"platform"`
	URL      string  `json:"url"`
}

// Agent compares prices quoted in web search hits from shopping sites.
type Agent struct {
	source ResultSource
	logger output.LoggerPort
}

func New(source ResultSource, logger output.LoggerPort) *Agent {
	return &Agent{source: source, logger: logger}
}

func (a *Agent) Description() string {
	return "Shopping, purchases, price comparison, product search"
}

func (a *Agent) Execute(ctx context.Context, query string) (map[string]any, error) {
	product := productName(query)
	a.logger.Info("Transaction agent executing", "product", product)

	results, err := a.source.Results(ctx, product+" price "+siteFilter())
	if err != nil {
		return nil, fmt.Errorf("product search failed: %w", err)
	}

	deals := extractDeals(results)
	if len(deals) == 0 {
		return map[string]any{
			"status":            "no_results",
			"product":           product,
			"platforms_checked": len(results),
		}, nil
	}

	currency, deals, excluded := dominantCurrency(deals)

	lowest, highest, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, d := range deals {
		lowest = math.Min(lowest, d.Price)
		highest = math.Max(highest, d.Price)
		sum += d.Price
	}

	out := map[string]any{
		"status":            "success",
		"product":           product,
		"lowest_price":      lowest,
		"highest_price":     highest,
		"average_price":     math.Round(sum/float64(len(deals))*100) / 100,
		"currency":          currency,
		"platforms_checked": len(results),
		"deals":             deals,
	}
	if excluded > 0 {
		out["other_currency_deals"] = excluded
	}
	return out, nil
}

// dominantCurrency keeps the deals quoted in the most common currency and
// reports how many were dropped. Ties go to the currency seen first.
func dominantCurrency(deals []Deal) (string, []Deal, int) {
	counts := map[string]int{}
	best := ""
	for _, d := range deals {
		counts[d.Currency]++
		if best == "" || counts[d.Currency] > counts[best] {
			best = d.Currency
		}
	}

	kept := make([]Deal, 0, counts[best])
	for _, d := range deals {
		if d.Currency == best {
			kept = append(kept, d)
		}
	}
	return best, kept, len(deals) - len(kept)
}

func productName(query string) string {
	q := strings.TrimSpace(query)
	for {
		trimmed := productPrefix.ReplaceAllString(q, "")
		if trimmed == q {
			break
		}
		q = trimmed
	}
	return strings.Trim(q, " ?!.")
}

func siteFilter() string {
	parts := make([]string, len(shoppingSites))
	for i, site := range shoppingSites {
		parts[i] = "site:" + site
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// extractDeals takes the first price quoted in each hit; hits without one are skipped.
func extractDeals(results []search.Result) []Deal {
	var deals []Deal
	for _, r := range results {
		m := pricePattern.FindStringSubmatch(r.Title + " " + r.Snippet)
		if m == nil {
			continue
		}
		price, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if err != nil || price <= 0 {
			continue
		}
		deals = append(deals, Deal{
			Name:     r.Title,
			Price:    price,
			Currency: currencyCode(m[1]),
			Platform: platform(r.URL),
			URL:      r.URL,
		})
	}
	return deals
}

func currencyCode(symbol string) string {
	switch symbol {
	case "€":
		return "EUR"
	case "£":
		return "GBP"
	default:
		return "USD"
	}
}

func platform(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

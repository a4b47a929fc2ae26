package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/infrastructure/htmlclean"

	"golang.org/x/net/html"
)

const (
	DefaultEndpoint = "https://html.duckduckgo.com/html/"
	maxResults      = 5
)

type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Agent searches the DuckDuckGo HTML endpoint. It needs no API key.
type Agent struct {
	web      output.WebClientPort
	endpoint string
	logger   output.LoggerPort
}

func New(web output.WebClientPort, endpoint string, logger output.LoggerPort) *Agent {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Agent{web: web, endpoint: endpoint, logger: logger}
}

func (a *Agent) Description() string {
	return "General web search, information lookup, facts, definitions"
}

func (a *Agent) Search(ctx context.Context, query string) (map[string]any, error) {
	a.logger.Info("Search agent executing", "query", query)

	results, err := a.Results(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return map[string]any{
			"status":  "no_results",
			"query":   query,
			"message": "No results found",
		}, nil
	}

	return map[string]any{
		"status":        "success",
		"query":         query,
		"source":        "DuckDuckGo",
		"results":       results,
		"total_results": len(results),
	}, nil
}

// Results returns the top DuckDuckGo hits for query.
func (a *Agent) Results(ctx context.Context, query string) ([]Result, error) {
	body, err := a.web.PostForm(ctx, a.endpoint, url.Values{"q": {query}})
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search failed: %w", err)
	}

	results, err := parseResults(string(body), maxResults)
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo results: %w", err)
	}

	a.logger.Debug("DuckDuckGo results parsed", "count", len(results))
	return results, nil
}

func parseResults(page string, limit int) ([]Result, error) {
	doc, err := htmlclean.Parse(page)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, block := range htmlclean.FindAll(doc, htmlclean.ElementWithClass("div", "result")) {
		if len(results) >= limit {
			break
		}

		title := htmlclean.FindFirst(block, htmlclean.ElementWithClass("a", "result__a"))
		if title == nil {
			continue
		}

		result := Result{
			Title: htmlclean.TextContent(title),
			URL:   resolveLink(htmlclean.Attr(title, "href")),
		}
		if snippet := findSnippet(block); snippet != nil {
			result.Snippet = htmlclean.TextContent(snippet)
		}
		results = append(results, result)
	}
	return results, nil
}

func findSnippet(block *html.Node) *html.Node {
	if n := htmlclean.FindFirst(block, htmlclean.ElementWithClass("a", "result__snippet")); n != nil {
		return n
	}
	return htmlclean.FindFirst(block, htmlclean.ElementWithClass("div", "result__snippet"))
}

// resolveLink unwraps DuckDuckGo redirect links (//duckduckgo.com/l/?uddg=...).
func resolveLink(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

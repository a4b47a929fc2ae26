package commoncrawl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/infrastructure/webclient"
)

const (
	DefaultIndexURL = "https://index.commoncrawl.org"
	DefaultCrawl    = "CC-MAIN-2024-10"
	defaultLimit    = 10
)

var (
	domainPattern = regexp.MustCompile(`(?i)\b[a-z0-9-]+(?:\.[a-z0-9-]+)*\.[a-z]{2,}\b`)
	wordPattern   = regexp.MustCompile(`[a-z0-9-]+`)
)

// Words that describe the request rather than what to look for.
var noise = map[string]bool{
	"data": true, "crawl": true, "large": true, "scale": true, "web": true, "archive": true,
	"bulk": true, "common": true, "search": true, "find": true, "pages": true, "the": true,
	"for": true, "from": true, "about": true, "of": true, "in": true, "on": true, "a": true,
	"an": true, "all": true, "show": true, "me": true, "get": true, "and": true, "with": true,
}

type Record struct {
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
	Filename  string `json:"filename"`
	Offset    int64  `json:"offset"`
	Length    int64  `json:"length"`
	Status    string `json:"status,omitempty"`
	MIME      string `json:"mime,omitempty"`
}

type Config struct {
	IndexURL string
	Crawl    string
	Limit    int
}

func DefaultConfig() Config {
	return Config{
		IndexURL: DefaultIndexURL,
		Crawl:    DefaultCrawl,
		Limit:    defaultLimit,
	}
}

// Agent looks up captured pages in a Common Crawl CDX index.
type Agent struct {
	web    output.WebClientPort
	cfg    Config
	logger output.LoggerPort
}

func New(web output.WebClientPort, cfg Config, logger output.LoggerPort) *Agent {
	def := DefaultConfig()
	if cfg.IndexURL == "" {
		cfg.IndexURL = def.IndexURL
	}
	if cfg.Crawl == "" {
		cfg.Crawl = def.Crawl
	}
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	return &Agent{web: web, cfg: cfg, logger: logger}
}

func (a *Agent) Description() string {
	return "Large-scale web data, bulk crawling, historical archives"
}

func (a *Agent) Search(ctx context.Context, query string) (map[string]any, error) {
	pattern := urlPattern(query)
	if pattern == "" {
		return map[string]any{
			"status":  "needs_input",
			"query":   query,
			"message": "Tell me which site or keyword to look up in the archive",
		}, nil
	}

	a.logger.Info("Searching Common Crawl", "crawl", a.cfg.Crawl, "pattern", pattern)

	records, err := a.Lookup(ctx, pattern)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return map[string]any{
			"status":  "no_results",
			"query":   query,
			"pattern": pattern,
			"crawl":   a.cfg.Crawl,
		}, nil
	}

	return map[string]any{
		"status":        "success",
		"query":         query,
		"pattern":       pattern,
		"crawl":         a.cfg.Crawl,
		"records":       records,
		"total_results": len(records),
	}, nil
}

// Lookup queries the index for a URL pattern. A pattern with no captures
// yields an empty slice.
func (a *Agent) Lookup(ctx context.Context, pattern string) ([]Record, error) {
	endpoint := fmt.Sprintf("%s/%s-index", strings.TrimRight(a.cfg.IndexURL, "/"), a.cfg.Crawl)
	params := url.Values{
		"url":    {pattern},
		"output": {"json"},
		"limit":  {strconv.Itoa(a.cfg.Limit)},
	}

	body, err := a.web.Get(ctx, endpoint, params)
	if err != nil {
		var statusErr *webclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("common crawl index request failed: %w", err)
	}

	return parseRecords(body)
}

// CDX lines carry offset and length as strings.
type cdxLine struct {
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
	Filename  string `json:"filename"`
	Offset    string `json:"offset"`
	Length    string `json:"length"`
	Status    string `json:"status"`
	MIME      string `json:"mime"`
}

func parseRecords(body []byte) ([]Record, error) {
	records := make([]Record, 0)

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var raw cdxLine
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, fmt.Errorf("decode index line: %w", err)
		}

		offset, _ := strconv.ParseInt(raw.Offset, 10, 64)
		length, _ := strconv.ParseInt(raw.Length, 10, 64)
		records = append(records, Record{
			URL:       raw.URL,
			Timestamp: raw.Timestamp,
			Filename:  raw.Filename,
			Offset:    offset,
			Length:    length,
			Status:    raw.Status,
			MIME:      raw.MIME,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read index response: %w", err)
	}
	return records, nil
}

// urlPattern turns a query into a CDX url filter. A domain in the query is
// searched with all its subdomains, otherwise the first meaningful word is
// matched anywhere in the host.
func urlPattern(query string) string {
	if d := domainPattern.FindString(query); d != "" {
		return "*." + strings.TrimPrefix(strings.ToLower(d), "www.")
	}
	for _, w := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		if !noise[w] {
			return "*." + w + "*"
		}
	}
	return ""
}

package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/domain/entity"
)

const maxTextLen = 5000

var ErrDisabled = errors.New("browser is disabled")

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s"'<>]+`)
	domainPattern = regexp.MustCompile(`(?i)\b(?:www\.)?[a-z0-9-]+(?:\.[a-z0-9-]+)*\.[a-z]{2,}(?:/[^\s]*)?`)
)

// Factory starts a browser session. It is called at most once per agent,
// on the first query that needs a page.
type Factory func(ctx context.Context) (output.BrowserPort, error)

var _ output.Agent = (*Agent)(nil)

type Agent struct {
	factory Factory
	logger  output.LoggerPort

	mu      sync.Mutex
	browser output.BrowserPort
}

func New(factory Factory, logger output.LoggerPort) *Agent {
	return &Agent{factory: factory, logger: logger}
}

func (a *Agent) Name() entity.AgentName {
	return entity.AgentBrowser
}

func (a *Agent) Description() string {
	return "Web automation, scraping, complex interactions, form filling"
}

// Invoke opens the URL named in the query and returns what the page shows.
// Pages share one browser tab, so invocations are serialized.
func (a *Agent) Invoke(ctx context.Context, req entity.AgentRequest) (map[string]any, error) {
	target := extractURL(req.Query)
	if target == "" {
		target = req.ContextString("url")
	}
	if target == "" {
		return map[string]any{
			"status":  "needs_url",
			"query":   req.Query,
			"message": "Please include the address of the page to open",
		}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	browser, err := a.session(ctx)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Browser agent navigating", "url", target)
	if err := browser.Navigate(ctx, target); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", target, err)
	}

	content, err := browser.GetPageContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}

	out := map[string]any{
		"status": "success",
		"url":    browser.CurrentURL(),
		"title":  content.Title,
		"text":   truncate(content.Text, maxTextLen),
	}

	shot, err := browser.Screenshot(ctx)
	if err != nil {
		a.logger.Warn("Screenshot failed", "url", target, "error", err)
	} else {
		out["screenshot"] = map[string]any{
			"format": shot.Format,
			"width":  shot.Width,
			"height": shot.Height,
			"bytes":  len(shot.Data),
		}
	}

	return out, nil
}

func (a *Agent) session(ctx context.Context) (output.BrowserPort, error) {
	if a.browser != nil {
		return a.browser, nil
	}
	if a.factory == nil {
		return nil, ErrDisabled
	}

	a.logger.Info("Starting browser")
	browser, err := a.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	a.browser = browser
	return browser, nil
}

// Close releases the browser if one was started.
func (a *Agent) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.browser != nil {
		a.browser.Close()
		a.browser = nil
		a.logger.Info("Browser closed")
	}
}

func extractURL(query string) string {
	if u := urlPattern.FindString(query); u != "" {
		return strings.TrimRight(u, ".,;!?)")
	}
	if d := domainPattern.FindString(query); d != "" {
		return "https://" + strings.TrimRight(d, ".,;!?)")
	}
	return ""
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

package webclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"agent-platform/internal/application/port/output"

	"golang.org/x/time/rate"
)

var _ output.WebClientPort = (*Client)(nil)

const maxBodySize = 5 << 20

type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

type Config struct {
	Timeout   time.Duration
	UserAgent string
	// RatePerSecond limits requests per host; 0 disables limiting.
	RatePerSecond float64
	// HostRates overrides RatePerSecond for specific hosts.
	HostRates map[string]float64
	Logger    output.LoggerPort
}

func DefaultConfig() Config {
	return Config{
		Timeout:       15 * time.Second,
		UserAgent:     "AI-Agent-Platform",
		RatePerSecond: 5,
		HostRates: map[string]float64{
			"nominatim.openstreetmap.org": 1,
		},
	}
}

type Client struct {
	http      *http.Client
	userAgent string
	rate      float64
	hostRates map[string]float64
	logger    output.LoggerPort

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(cfg Config) *Client {
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		rate:      cfg.RatePerSecond,
		hostRates: cfg.HostRates,
		logger:    cfg.Logger,
		limiters:  make(map[string]*rate.Limiter),
	}
}

func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if limiter := c.limiterFor(req.URL.Hostname()); limiter != nil {
		if err := limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait for %s: %w", req.URL.Host, err)
		}
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	if c.logger != nil {
		c.logger.Debug("Outbound request",
			"method", req.Method,
			"host", req.URL.Host,
			"status", resp.StatusCode,
			"duration", time.Since(start),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: req.URL.Redacted(), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	perSecond, ok := c.hostRates[host]
	if !ok {
		perSecond = c.rate
	}
	if perSecond <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		c.limiters[host] = limiter
	}
	return limiter
}

package breaker

import (
	"context"
	"errors"
	"time"

	"agent-platform/internal/application/port/output"

	"github.com/sony/gobreaker/v2"
)

var _ output.LLMPort = (*BreakerAdapter)(nil)

// BreakerAdapter fails fast once the wrapped LLM keeps failing.
type BreakerAdapter struct {
	inner output.LLMPort
	cb    *gobreaker.CircuitBreaker[*output.ChatResponse]
}

type Config struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
	Interval    time.Duration
	Logger      output.LoggerPort
}

func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
		Interval:    60 * time.Second,
	}
}

func NewBreakerAdapter(inner output.LLMPort, cfg Config) *BreakerAdapter {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker[*output.ChatResponse](gobreaker.Settings{
		Name:        "llm:" + cfg.Name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// a caller giving up says nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Circuit breaker state change",
					"breaker", name, "from", from.String(), "to", to.String())
			}
		},
	})
	return &BreakerAdapter{inner: inner, cb: cb}
}

// Chat returns gobreaker.ErrOpenState while the circuit is open.
func (b *BreakerAdapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	return b.cb.Execute(func() (*output.ChatResponse, error) {
		return b.inner.Chat(ctx, req)
	})
}

func (b *BreakerAdapter) State() gobreaker.State {
	return b.cb.State()
}

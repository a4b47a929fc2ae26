package breaker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/domain/entity"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLLM struct {
	calls int
	err   error
}

func (c *countingLLM) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &output.ChatResponse{Message: entity.Message{Role: entity.RoleAssistant, Content: "ok"}}, nil
}

func TestBreakerAdapter_PassesThrough(t *testing.T) {
	inner := &countingLLM{}
	b := NewBreakerAdapter(inner, DefaultConfig("test"))

	resp, err := b.Chat(context.Background(), output.ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message.Content)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerAdapter_OpensAfterFailures(t *testing.T) {
	inner := &countingLLM{err: errors.New("upstream down")}
	cfg := DefaultConfig("test")
	cfg.MaxFailures = 2
	b := NewBreakerAdapter(inner, cfg)

	for i := 0; i < 2; i++ {
		_, err := b.Chat(context.Background(), output.ChatRequest{})
		assert.ErrorContains(t, err, "upstream down")
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Chat(context.Background(), output.ChatRequest{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls)
}

func TestBreakerAdapter_CanceledCallsDoNotTrip(t *testing.T) {
	inner := &countingLLM{err: fmt.Errorf("chat: %w", context.Canceled)}
	cfg := DefaultConfig("test")
	cfg.MaxFailures = 2
	b := NewBreakerAdapter(inner, cfg)

	for i := 0; i < 5; i++ {
		_, err := b.Chat(context.Background(), output.ChatRequest{})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, 5, inner.calls)

	inner.err = nil
	_, err := b.Chat(context.Background(), output.ChatRequest{})
	require.NoError(t, err)
}

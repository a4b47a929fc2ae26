package anthropic

import (
	"context"
	"errors"
	"testing"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.opts)
	}
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not used")
}

func TestAnthropicAdapter_Chat(t *testing.T) {
	model := &fakeModel{
		resp: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: `{"agent":"career"}`}},
		},
	}
	adapter := NewWithModel(model, nil)

	resp, err := adapter.Chat(context.Background(), output.ChatRequest{
		Messages: []entity.Message{
			{Role: entity.RoleSystem, Content: "json only"},
			{Role: entity.RoleUser, Content: "help me find work"},
		},
		Temperature: 0.1,
		MaxTokens:   200,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"agent":"career"}`, resp.Message.Content)
	assert.Equal(t, entity.RoleAssistant, resp.Message.Role)
	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, 200, model.opts.MaxTokens)
	assert.InDelta(t, 0.1, model.opts.Temperature, 0.0001)
}

func TestAnthropicAdapter_Errors(t *testing.T) {
	adapter := NewWithModel(&fakeModel{err: errors.New("rate limited")}, nil)
	_, err := adapter.Chat(context.Background(), output.ChatRequest{})
	assert.ErrorContains(t, err, "rate limited")

	adapter = NewWithModel(&fakeModel{resp: &llms.ContentResponse{}}, nil)
	_, err = adapter.Chat(context.Background(), output.ChatRequest{})
	assert.ErrorContains(t, err, "no choices")
}

func TestConvertRole(t *testing.T) {
	assert.Equal(t, llms.ChatMessageTypeAI, convertRole(entity.RoleAssistant))
	assert.Equal(t, llms.ChatMessageTypeHuman, convertRole(entity.RoleUser))
	assert.Equal(t, llms.ChatMessageTypeSystem, convertRole(entity.RoleSystem))
}

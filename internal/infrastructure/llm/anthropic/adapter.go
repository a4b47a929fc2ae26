package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/domain/entity"

	"github.com/tmc/langchaingo/llms"
	lcanthropic "github.com/tmc/langchaingo/llms/anthropic"
)

var _ output.LLMPort = (*AnthropicAdapter)(nil)

// AnthropicAdapter talks to Claude through langchaingo.
type AnthropicAdapter struct {
	model  llms.Model
	logger output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  output.LoggerPort
}

func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		Model:   "claude-3-haiku-20240307",
		Timeout: 30 * time.Second,
	}
}

func NewAnthropicAdapter(cfg Config) (*AnthropicAdapter, error) {
	llm, err := lcanthropic.New(
		lcanthropic.WithToken(cfg.APIKey),
		lcanthropic.WithModel(cfg.Model),
		lcanthropic.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("create anthropic client: %w", err)
	}
	return NewWithModel(llm, cfg.Logger), nil
}

// NewWithModel wraps any langchaingo model.
func NewWithModel(model llms.Model, logger output.LoggerPort) *AnthropicAdapter {
	return &AnthropicAdapter{model: model, logger: logger}
}

func (a *AnthropicAdapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	opts := []llms.CallOption{
		llms.WithTemperature(float64(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := a.model.GenerateContent(ctx, convertMessages(req.Messages), opts...)
	if err != nil {
		return nil, fmt.Errorf("generate content failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	if a.logger != nil {
		a.logger.Debug("Anthropic response received",
			"stopReason", resp.Choices[0].StopReason,
			"contentLen", len(resp.Choices[0].Content))
	}

	return &output.ChatResponse{
		Message: entity.Message{
			Role:    entity.RoleAssistant,
			Content: resp.Choices[0].Content,
		},
	}, nil
}

func convertMessages(messages []entity.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		result = append(result, llms.TextParts(convertRole(msg.Role), msg.Content))
	}
	return result
}

func convertRole(role entity.MessageRole) llms.ChatMessageType {
	switch role {
	case entity.RoleSystem:
		return llms.ChatMessageTypeSystem
	case entity.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

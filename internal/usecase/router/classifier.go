package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/domain/entity"
	"agent-platform/internal/infrastructure/prompts"
)

const (
	classifierTemperature = 0.1
	classifierMaxTokens   = 200
	defaultConfidence     = 0.5
	defaultReasoning      = "LLM classification"
)

// Classifier asks an LLM to pick an agent for queries no keyword rule matched.
// It never fails: every problem degrades to the search agent at 0.5.
type Classifier struct {
	llm            output.LLMPort
	agents         []entity.AgentInfo
	logger         output.LoggerPort
	timeout        time.Duration
	promptTemplate string
}

// NewClassifier accepts a nil llm; Classify then always returns the fallback.
func NewClassifier(llm output.LLMPort, agents []entity.AgentInfo, logger output.LoggerPort, timeout time.Duration) *Classifier {
	return &Classifier{
		llm:            llm,
		agents:         agents,
		logger:         logger,
		timeout:        timeout,
		promptTemplate: prompts.ClassifierPrompt,
	}
}

func (c *Classifier) Classify(ctx context.Context, query string, queryContext map[string]any) entity.RoutingDecision {
	if c.llm == nil {
		return fallbackDecision(ErrNoClassifier)
	}

	decision, err := c.classify(ctx, query, queryContext)
	if err != nil {
		c.logger.Warn("Classifier routing failed, falling back to search", "error", err)
		return fallbackDecision(err)
	}

	c.logger.Info("Classifier routing",
		"agent", decision.Agent,
		"confidence", decision.Confidence,
	)
	return decision
}

func (c *Classifier) classify(ctx context.Context, query string, queryContext map[string]any) (entity.RoutingDecision, error) {
	prompt, err := prompts.GenerateClassifierPrompt(c.promptTemplate, c.agents, query, queryContext)
	if err != nil {
		return entity.RoutingDecision{}, fmt.Errorf("build classifier prompt: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.llm.Chat(ctx, output.ChatRequest{
		Messages: []entity.Message{
			{Role: entity.RoleSystem, Content: prompts.ClassifierSystemPrompt},
			{Role: entity.RoleUser, Content: prompt},
		},
		Temperature: classifierTemperature,
		MaxTokens:   classifierMaxTokens,
	})
	if err != nil {
		return entity.RoutingDecision{}, fmt.Errorf("classifier llm request failed: %w", err)
	}
	if resp == nil {
		return entity.RoutingDecision{}, fmt.Errorf("%w: empty response", ErrMalformedReply)
	}

	return parseClassifierReply(resp.Message.Content)
}

type classifierReply struct {
	Agent      *string        `json:"agent"`
	Confidence *float64       `json:"confidence"`
	Reasoning  *string        `json:"reasoning"`
	Parameters map[string]any `json:"parameters"`
}

func parseClassifierReply(content string) (entity.RoutingDecision, error) {
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return entity.RoutingDecision{}, fmt.Errorf("%w: no JSON found in response", ErrMalformedReply)
	}

	var reply classifierReply
	if err := json.Unmarshal([]byte(content[start:end+1]), &reply); err != nil {
		return entity.RoutingDecision{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	decision := entity.RoutingDecision{
		Agent:      entity.DefaultAgent,
		Confidence: defaultConfidence,
		Reasoning:  defaultReasoning,
		Parameters: reply.Parameters,
		Source:     entity.SourceClassifier,
	}
	if reply.Agent != nil {
		if name := strings.ToLower(strings.TrimSpace(*reply.Agent)); name != "" {
			decision.Agent = entity.AgentName(name)
		}
	}
	if reply.Confidence != nil && *reply.Confidence > 0 && *reply.Confidence <= 1 {
		decision.Confidence = *reply.Confidence
	}
	if reply.Reasoning != nil && *reply.Reasoning != "" {
		decision.Reasoning = *reply.Reasoning
	}
	if decision.Parameters == nil {
		decision.Parameters = map[string]any{}
	}

	return decision, nil
}

func fallbackDecision(cause error) entity.RoutingDecision {
	reasoning := fmt.Sprintf("Classifier routing failed: %v", cause)
	if errors.Is(cause, ErrNoClassifier) {
		reasoning = "No classifier available, falling back to search"
	}
	return entity.RoutingDecision{
		Agent:      entity.DefaultAgent,
		Confidence: defaultConfidence,
		Reasoning:  reasoning,
		Parameters: map[string]any{"query_type": "general_search"},
		Source:     entity.SourceFallback,
	}
}

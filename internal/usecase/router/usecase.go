package router

import (
	"context"
	"fmt"
	"time"

	"agent-platform/internal/application/port/input"
	"agent-platform/internal/application/port/output"
	"agent-platform/internal/domain/entity"
	"agent-platform/internal/infrastructure/tracer"

	"go.opentelemetry.io/otel/attribute"
)

const unknownAgentLabel = "unknown"

var _ input.TaskRouter = (*UseCase)(nil)

type Config struct {
	AgentTimeout time.Duration
	Metrics      output.MetricsPort
}

func DefaultConfig() Config {
	return Config{AgentTimeout: 30 * time.Second}
}

// UseCase routes a query to one agent and runs it. All fields are set at
// construction and never mutated, so one instance serves concurrent requests.
type UseCase struct {
	keywords     *KeywordRouter
	classifier   *Classifier
	registry     output.AgentRegistry
	logger       output.LoggerPort
	metrics      output.MetricsPort
	agentTimeout time.Duration
}

func New(
	keywords *KeywordRouter,
	classifier *Classifier,
	registry output.AgentRegistry,
	logger output.LoggerPort,
	cfg Config,
) *UseCase {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &UseCase{
		keywords:     keywords,
		classifier:   classifier,
		registry:     registry,
		logger:       logger,
		metrics:      metrics,
		agentTimeout: cfg.AgentTimeout,
	}
}

// Route returns the decision for a query without invoking any agent.
func (uc *UseCase) Route(ctx context.Context, query string, queryContext map[string]any) entity.RoutingDecision {
	if decision, ok := uc.keywords.Route(query); ok {
		uc.logger.Info("Keyword routing",
			"agent", decision.Agent,
			"confidence", decision.Confidence,
		)
		return decision
	}

	uc.logger.Info("No keyword match, using classifier")
	return uc.classifier.Classify(ctx, query, queryContext)
}

func (uc *UseCase) RouteAndExecute(ctx context.Context, query, userID string, queryContext map[string]any) entity.ExecutionResult {
	ctx, span := tracer.StartSpan(ctx, "router.route_and_execute")
	defer span.End()

	if userID == "" {
		userID = entity.AnonymousUser
	}

	decision := uc.Route(ctx, query, queryContext)
	span.SetAttributes(
		attribute.String("agent", decision.Agent.String()),
		attribute.String("source", string(decision.Source)),
		attribute.Float64("confidence", decision.Confidence),
	)

	agent, ok := uc.registry.Get(decision.Agent)
	if !ok {
		// classifier output is free text; keep it out of metric labels
		uc.metrics.ObserveRouting(unknownAgentLabel, string(decision.Source))
		err := fmt.Errorf("%w: %s", ErrUnknownAgent, decision.Agent)
		uc.logger.Warn("Routed to unknown agent", "agent", decision.Agent)
		tracer.RecordError(span, err)
		return entity.ExecutionResult{
			Status:  entity.StatusError,
			Message: err.Error(),
			Routing: &decision,
		}
	}

	uc.metrics.ObserveRouting(decision.Agent.String(), string(decision.Source))

	req := entity.AgentRequest{
		Query:      query,
		UserID:     userID,
		Context:    queryContext,
		Parameters: decision.Parameters,
	}

	start := time.Now()
	result, err := uc.invoke(ctx, agent, req)
	elapsed := time.Since(start)

	if err != nil {
		uc.logger.Error("Agent execution failed",
			"agent", decision.Agent,
			"error", err,
			"duration", elapsed,
		)
		tracer.RecordError(span, err)
		uc.metrics.ObserveExecution(decision.Agent.String(), string(entity.StatusError), elapsed)
		return entity.ExecutionResult{
			Status:  entity.StatusError,
			Agent:   decision.Agent,
			Error:   err.Error(),
			Routing: &decision,
		}
	}

	uc.logger.Info("Agent execution completed",
		"agent", decision.Agent,
		"duration", elapsed,
	)
	uc.metrics.ObserveExecution(decision.Agent.String(), string(entity.StatusSuccess), elapsed)

	if result == nil {
		result = map[string]any{}
	}
	return entity.ExecutionResult{
		Status:     entity.StatusSuccess,
		Agent:      decision.Agent,
		Confidence: decision.Confidence,
		Reasoning:  decision.Reasoning,
		Result:     result,
	}
}

type invokeOutcome struct {
	result map[string]any
	err    error
}

// invoke runs the agent under the agent timeout. An agent that ignores its
// context is abandoned once the deadline passes.
func (uc *UseCase) invoke(ctx context.Context, agent output.Agent, req entity.AgentRequest) (map[string]any, error) {
	if uc.agentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.agentTimeout)
		defer cancel()
	}

	done := make(chan invokeOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- invokeOutcome{err: fmt.Errorf("%w: %v", ErrAgentPanic, r)}
			}
		}()
		result, err := agent.Invoke(ctx, req)
		done <- invokeOutcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return nil, fmt.Errorf("agent %s: %w", agent.Name(), ctx.Err())
	}
}

// Rules exposes the active keyword table for diagnostics.
func (uc *UseCase) Rules() []entity.RoutingRule {
	return uc.keywords.Rules()
}

type nopMetrics struct{}

func (nopMetrics) ObserveRouting(string, string) {}
func (nopMetrics) ObserveExecution(string, string, time.Duration) {}

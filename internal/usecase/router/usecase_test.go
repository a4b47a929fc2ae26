package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"agent-platform/internal/domain/entity"
	"agent-platform/internal/infrastructure/logger"
	"agent-platform/internal/infrastructure/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	mu         sync.Mutex
	routings   []string
	executions []string
}

func (m *recordingMetrics) ObserveRouting(agent, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routings = append(m.routings, agent+"/"+source)
}

func (m *recordingMetrics) ObserveExecution(agent, status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions = append(m.executions, agent+"/"+status)
}

func newTestUseCase(llm *countingLLM, registry mapRegistry, cfg Config) *UseCase {
	log := logger.NewNop()
	var classifier *Classifier
	if llm == nil {
		classifier = NewClassifier(nil, registry.List(), log, time.Second)
	} else {
		classifier = NewClassifier(llm, registry.List(), log, time.Second)
	}
	return New(NewKeywordRouter(DefaultRules()), classifier, registry, log, cfg)
}

func TestRouteAndExecute_KeywordSkipsClassifier(t *testing.T) {
	registry, stubs := allStubs()
	llm := &countingLLM{reply: `{"agent":"search"}`}
	uc := newTestUseCase(llm, registry, DefaultConfig())

	queries := map[string]entity.AgentName{
		"software engineer jobs in Berlin": entity.AgentCareer,
		"next train to Hamburg":            entity.AgentTravel,
		"hospital near me":                 entity.AgentLocal,
		"draft an email to the team":       entity.AgentCommunication,
	}

	for query, want := range queries {
		result := uc.RouteAndExecute(context.Background(), query, "u1", nil)
		require.True(t, result.Succeeded(), "query %q: %+v", query, result)
		assert.Equal(t, want, result.Agent, query)
		assert.Equal(t, string(want), result.Result["handled_by"])
	}

	assert.Equal(t, 0, llm.Calls(), "classifier must not be consulted when a keyword matches")
	assert.Equal(t, 1, stubs[entity.AgentCareer].Calls())
}

func TestRouteAndExecute_EndToEndCareer(t *testing.T) {
	registry, stubs := allStubs()
	uc := newTestUseCase(nil, registry, DefaultConfig())

	result := uc.RouteAndExecute(context.Background(), "software engineer jobs in Berlin", "", map[string]any{"location": "Berlin"})

	assert.Equal(t, entity.StatusSuccess, result.Status)
	assert.Equal(t, entity.AgentCareer, result.Agent)
	assert.Equal(t, 0.95, result.Confidence)
	assert.Equal(t, "Career-related keywords detected", result.Reasoning)
	assert.Nil(t, result.Routing)

	req := stubs[entity.AgentCareer].lastReq
	assert.Equal(t, "software engineer jobs in Berlin", req.Query)
	assert.Equal(t, entity.AnonymousUser, req.UserID)
	assert.Equal(t, "Berlin", req.ContextString("location"))
	assert.Equal(t, "job_search", req.Parameters["query_type"])
}

func TestRouteAndExecute_TieResolvesToFirstRule(t *testing.T) {
	registry, stubs := allStubs()
	uc := newTestUseCase(nil, registry, DefaultConfig())

	result := uc.RouteAndExecute(context.Background(), "find flights and apply for jobs", "u1", nil)

	assert.Equal(t, entity.AgentCareer, result.Agent)
	assert.Equal(t, 0, stubs[entity.AgentTravel].Calls())
}

func TestRouteAndExecute_ClassifierUnreachable(t *testing.T) {
	registry, stubs := allStubs()
	llm := &countingLLM{err: errUpstream}
	uc := newTestUseCase(llm, registry, DefaultConfig())

	result := uc.RouteAndExecute(context.Background(), "xyzzy plugh", "u1", nil)

	assert.Equal(t, 1, llm.Calls())
	require.True(t, result.Succeeded())
	assert.Equal(t, entity.AgentSearch, result.Agent)
	assert.Equal(t, 0.5, result.Confidence)
	assert.Equal(t, 1, stubs[entity.AgentSearch].Calls())
}

func TestRouteAndExecute_NoClassifierConfigured(t *testing.T) {
	registry, _ := allStubs()
	uc := newTestUseCase(nil, registry, DefaultConfig())

	result := uc.RouteAndExecute(context.Background(), "xyzzy plugh", "u1", nil)

	assert.Equal(t, entity.AgentSearch, result.Agent)
	assert.Equal(t, 0.5, result.Confidence)
	assert.Contains(t, result.Reasoning, "No classifier available")
}

func TestRouteAndExecute_ClassifierPicksAgent(t *testing.T) {
	registry, stubs := allStubs()
	llm := &countingLLM{reply: `{"agent":"entertainment","confidence":0.66,"reasoning":"Sounds like leisure"}`}
	uc := newTestUseCase(llm, registry, DefaultConfig())

	result := uc.RouteAndExecute(context.Background(), "xyzzy plugh", "u1", nil)

	assert.Equal(t, entity.AgentEntertainment, result.Agent)
	assert.Equal(t, 0.66, result.Confidence)
	assert.Equal(t, "Sounds like leisure", result.Reasoning)
	assert.Equal(t, 1, stubs[entity.AgentEntertainment].Calls())
}

func TestRouteAndExecute_UnknownAgent(t *testing.T) {
	registry, stubs := allStubs()
	llm := &countingLLM{reply: `{"agent":"weather","confidence":0.9,"reasoning":"forecast"}`}
	uc := newTestUseCase(llm, registry, DefaultConfig())

	result := uc.RouteAndExecute(context.Background(), "xyzzy plugh", "u1", nil)

	assert.Equal(t, entity.StatusError, result.Status)
	assert.Equal(t, "unknown agent: weather", result.Message)
	require.NotNil(t, result.Routing)
	assert.Equal(t, entity.AgentName("weather"), result.Routing.Agent)
	for name, stub := range stubs {
		assert.Equal(t, 0, stub.Calls(), "agent %s must not be invoked", name)
	}
}

func TestRouteAndExecute_AgentFailure(t *testing.T) {
	registry, stubs := allStubs()
	stubs[entity.AgentCareer].err = errors.New("remote board down")
	uc := newTestUseCase(nil, registry, DefaultConfig())

	result := uc.RouteAndExecute(context.Background(), "job search", "u1", nil)

	assert.Equal(t, entity.StatusError, result.Status)
	assert.Equal(t, entity.AgentCareer, result.Agent)
	assert.Equal(t, "remote board down", result.Error)
	require.NotNil(t, result.Routing)
	assert.Equal(t, entity.SourceKeyword, result.Routing.Source)
	assert.Nil(t, result.Result)
}

func TestRouteAndExecute_AgentPanic(t *testing.T) {
	registry, stubs := allStubs()
	stubs[entity.AgentCareer].panic = "nil map write"
	uc := newTestUseCase(nil, registry, DefaultConfig())

	result := uc.RouteAndExecute(context.Background(), "job search", "u1", nil)

	assert.Equal(t, entity.StatusError, result.Status)
	assert.Contains(t, result.Error, ErrAgentPanic.Error())
	assert.Contains(t, result.Error, "nil map write")
}

func TestRouteAndExecute_AgentTimeout(t *testing.T) {
	registry, stubs := allStubs()
	stubs[entity.AgentCareer].block = true
	uc := newTestUseCase(nil, registry, Config{AgentTimeout: 20 * time.Millisecond})

	start := time.Now()
	result := uc.RouteAndExecute(context.Background(), "job search", "u1", nil)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, entity.StatusError, result.Status)
	assert.Contains(t, result.Error, "deadline exceeded")
}

func TestRouteAndExecute_Idempotent(t *testing.T) {
	registry, _ := allStubs()
	llm := &countingLLM{reply: `{"agent":"productivity","confidence":0.7,"reasoning":"Looks like planning"}`}
	uc := newTestUseCase(llm, registry, DefaultConfig())

	for _, query := range []string{"job search", "xyzzy plugh"} {
		first := uc.RouteAndExecute(context.Background(), query, "u1", nil)
		second := uc.RouteAndExecute(context.Background(), query, "u1", nil)

		assert.Equal(t, first.Agent, second.Agent)
		assert.Equal(t, first.Confidence, second.Confidence)
		assert.Equal(t, first.Reasoning, second.Reasoning)
	}
}

func TestRouteAndExecute_Concurrent(t *testing.T) {
	registry, stubs := allStubs()
	uc := newTestUseCase(nil, registry, DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := uc.RouteAndExecute(context.Background(), "job search", "u1", nil)
			assert.True(t, result.Succeeded())
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, stubs[entity.AgentCareer].Calls())
}

func TestRouteAndExecute_RecordsMetrics(t *testing.T) {
	registry, stubs := allStubs()
	stubs[entity.AgentSearch].err = errUpstream
	metrics := &recordingMetrics{}
	uc := newTestUseCase(nil, registry, Config{AgentTimeout: time.Second, Metrics: metrics})

	uc.RouteAndExecute(context.Background(), "job search", "u1", nil)
	uc.RouteAndExecute(context.Background(), "xyzzy plugh", "u1", nil)

	assert.Equal(t, []string{"career/keyword", "search/fallback"}, metrics.routings)
	assert.Equal(t, []string{"career/success", "search/error"}, metrics.executions)
}

func TestRouteAndExecute_UnknownAgentsShareOneMetricLabel(t *testing.T) {
	registry, _ := allStubs()
	llm := &countingLLM{}
	m := metrics.New()
	uc := newTestUseCase(llm, registry, Config{AgentTimeout: time.Second, Metrics: m})

	for i := 0; i < 50; i++ {
		llm.reply = fmt.Sprintf(`{"agent":"invented_%d"}`, i)
		result := uc.RouteAndExecute(context.Background(), "xyzzy plugh", "u1", nil)
		require.Equal(t, entity.StatusError, result.Status)
	}

	routings, err := testutil.GatherAndCount(m.Registry(), "agent_platform_routing_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, routings)

	executions, err := testutil.GatherAndCount(m.Registry(), "agent_platform_executions_total")
	require.NoError(t, err)
	assert.Zero(t, executions, "agents that never ran must not be observed")

	uc.RouteAndExecute(context.Background(), "job search", "u1", nil)
	routings, err = testutil.GatherAndCount(m.Registry(), "agent_platform_routing_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, routings)
}

func TestRouteAndExecute_UnknownAgentMetrics(t *testing.T) {
	registry, _ := allStubs()
	recorder := &recordingMetrics{}
	llm := &countingLLM{reply: `{"agent":"weather"}`}
	uc := newTestUseCase(llm, registry, Config{AgentTimeout: time.Second, Metrics: recorder})

	uc.RouteAndExecute(context.Background(), "xyzzy plugh", "u1", nil)

	assert.Equal(t, []string{"unknown/classifier"}, recorder.routings)
	assert.Empty(t, recorder.executions)
}

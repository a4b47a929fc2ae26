package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"agent-platform/internal/application/service"
	"agent-platform/internal/domain/entity"
	"agent-platform/internal/infrastructure/logger"
	"agent-platform/internal/infrastructure/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRouter struct {
	mu     sync.Mutex
	result entity.ExecutionResult
	calls  []string
}

func (f *fakeRouter) RouteAndExecute(ctx context.Context, query, userID string, queryContext map[string]any) entity.ExecutionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID+":"+query)
	return f.result
}

func (f *fakeRouter) Rules() []entity.RoutingRule {
	return []entity.RoutingRule{{Agent: entity.AgentSearch, Keywords: []string{"search"}, Confidence: 0.7}}
}

type fakeAgent struct{ name entity.AgentName }

func (a fakeAgent) Name() entity.AgentName { return a.name }
func (a fakeAgent) Description() string    { return "test agent " + string(a.name) }
func (a fakeAgent) Invoke(ctx context.Context, req entity.AgentRequest) (map[string]any, error) {
	return nil, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	records []entity.TaskRecord
	err     error
}

func (f *fakeHistory) Record(ctx context.Context, rec entity.TaskRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeHistory) ListByUser(ctx context.Context, userID string, limit int) ([]entity.TaskRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.TaskRecord{}
	for _, r := range f.records {
		if r.UserID == userID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeHistory) Count(ctx context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records), nil
}

func (f *fakeHistory) Close() error { return nil }

type fixture struct {
	router  *fakeRouter
	history *fakeHistory
	metrics *metrics.Metrics
	server  *httptest.Server
}

func newFixture(t *testing.T, result entity.ExecutionResult) *fixture {
	t.Helper()

	registry, err := service.NewAgentRegistry(fakeAgent{entity.AgentSearch}, fakeAgent{entity.AgentCareer})
	require.NoError(t, err)

	f := &fixture{
		router:  &fakeRouter{result: result},
		history: &fakeHistory{},
		metrics: metrics.New(),
	}
	cfg := DefaultConfig()
	cfg.History = f.history
	cfg.Metrics = f.metrics
	cfg.ClassifierEnabled = true

	srv := NewServer(f.router, registry, logger.NewNop(), cfg)
	f.server = httptest.NewServer(srv.Handler())
	t.Cleanup(f.server.Close)
	return f
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestExecute(t *testing.T) {
	f := newFixture(t, entity.ExecutionResult{
		Status:     entity.StatusSuccess,
		Agent:      entity.AgentCareer,
		Confidence: 0.95,
		Reasoning:  "Career/job related query",
		Result:     map[string]any{"total_jobs": 3},
	})

	resp, err := http.Post(f.server.URL+"/execute", "application/json",
		strings.NewReader(`{"query": "  software engineer jobs in Berlin ", "context": {"location": "Berlin"}}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body := decode(t, resp)
	result := body["result"].(map[string]any)
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, "career", result["agent"])
	assert.Equal(t, 0.95, result["confidence"])

	assert.Equal(t, []string{"anonymous:software engineer jobs in Berlin"}, f.router.calls)

	require.Len(t, f.history.records, 1)
	rec := f.history.records[0]
	assert.Equal(t, entity.AnonymousUser, rec.UserID)
	assert.Equal(t, entity.AgentCareer, rec.Agent)
	assert.Equal(t, entity.StatusSuccess, rec.Status)
}

func TestExecute_ErrorResultIsRecorded(t *testing.T) {
	f := newFixture(t, entity.ExecutionResult{
		Status:  entity.StatusError,
		Message: "unknown agent: weather",
		Routing: &entity.RoutingDecision{Agent: "weather", Confidence: 0.8, Reasoning: "LLM classification"},
	})

	resp, err := http.Post(f.server.URL+"/execute", "application/json",
		strings.NewReader(`{"query": "will it rain", "user_id": "u1"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode(t, resp)["result"].(map[string]any)
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, "unknown agent: weather", result["message"])

	require.Len(t, f.history.records, 1)
	rec := f.history.records[0]
	assert.Equal(t, entity.AgentName("weather"), rec.Agent)
	assert.Equal(t, "unknown agent: weather", rec.Error)
	assert.Equal(t, 0.8, rec.Confidence)
}

func TestExecute_BadRequests(t *testing.T) {
	f := newFixture(t, entity.ExecutionResult{Status: entity.StatusSuccess})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"query": `, "invalid JSON body"},
		{"missing query", `{"user_id": "u1"}`, "query is required"},
		{"blank query", `{"query": "   "}`, "query is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(f.server.URL+"/execute", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, decode(t, resp)["error"])
		})
	}
	assert.Empty(t, f.router.calls)
}

func TestAgentsStatsHealth(t *testing.T) {
	f := newFixture(t, entity.ExecutionResult{Status: entity.StatusSuccess, Agent: entity.AgentSearch})

	resp, err := http.Get(f.server.URL + "/agents")
	require.NoError(t, err)
	agents := decode(t, resp)["agents"].([]any)
	require.Len(t, agents, 2)
	assert.Equal(t, "career", agents[0].(map[string]any)["name"])

	resp, err = http.Get(f.server.URL + "/health")
	require.NoError(t, err)
	health := decode(t, resp)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, float64(2), health["agents_loaded"])

	resp, err = http.Post(f.server.URL+"/execute", "application/json", strings.NewReader(`{"query": "search go"}`))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(f.server.URL + "/stats")
	require.NoError(t, err)
	stats := decode(t, resp)
	assert.Equal(t, float64(2), stats["agents"])
	assert.Equal(t, float64(1), stats["routing_rules"])
	assert.Equal(t, float64(1), stats["requests_total"])
	assert.Equal(t, float64(1), stats["requests_succeeded"])
	assert.Equal(t, true, stats["classifier_enabled"])
	assert.Equal(t, true, stats["history_enabled"])
	assert.Equal(t, float64(1), stats["history_total"])
}

func TestHistory(t *testing.T) {
	f := newFixture(t, entity.ExecutionResult{Status: entity.StatusSuccess, Agent: entity.AgentSearch})

	for _, q := range []string{"first", "second", "third"} {
		resp, err := http.Post(f.server.URL+"/execute", "application/json",
			strings.NewReader(`{"query": "`+q+`", "user_id": "alice"}`))
		require.NoError(t, err)
		resp.Body.Close()
	}

	resp, err := http.Get(f.server.URL + "/history/alice?limit=2")
	require.NoError(t, err)
	body := decode(t, resp)
	assert.Equal(t, "alice", body["user_id"])
	assert.Equal(t, float64(2), body["count"])

	resp, err = http.Get(f.server.URL + "/history/alice?limit=abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	f.history.err = errors.New("disk I/O error")
	resp, err = http.Get(f.server.URL + "/history/alice")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	resp.Body.Close()
}

func TestHistoryDisabled(t *testing.T) {
	registry, err := service.NewAgentRegistry()
	require.NoError(t, err)

	srv := NewServer(&fakeRouter{}, registry, logger.NewNop(), Config{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/alice", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, entity.ExecutionResult{Status: entity.StatusSuccess})

	resp, err := http.Get(f.server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `agent_platform_http_requests_total{method="GET",route="/health",status="2xx"} 1`)
}

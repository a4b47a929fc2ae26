package metrics

import (
	"net/http"
	"strconv"
	"time"

	"agent-platform/internal/application/port/output"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ output.MetricsPort = (*Metrics)(nil)

type Metrics struct {
	registry *prometheus.Registry

	routingDecisions  *prometheus.CounterVec
	executionsTotal   *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	httpRequestsTotal *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, so tests can build
// several instances side by side.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		routingDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_platform_routing_decisions_total",
				Help: "Routing decisions by selected agent and decision source",
			},
			[]string{"agent", "source"},
		),
		executionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_platform_executions_total",
				Help: "Agent executions by agent and result status",
			},
			[]string{"agent", "status"},
		),
		executionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_platform_execution_duration_seconds",
				Help:    "Agent execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_platform_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
	}
}

func (m *Metrics) ObserveRouting(agent, source string) {
	m.routingDecisions.WithLabelValues(agent, source).Inc()
}

func (m *Metrics) ObserveExecution(agent, status string, duration time.Duration) {
	m.executionsTotal.WithLabelValues(agent, status).Inc()
	m.executionDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordHTTPRequest buckets the status code into 2xx..5xx.
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int) {
	status := "unknown"
	if statusCode >= 100 && statusCode < 600 {
		status = strconv.Itoa(statusCode/100) + "xx"
	}
	m.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

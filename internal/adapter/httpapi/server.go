package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"agent-platform/internal/application/port/input"
	"agent-platform/internal/application/port/output"
	"agent-platform/internal/domain/entity"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// TaskRouter is what the API needs from the routing core.
type TaskRouter interface {
	input.TaskRouter
	Rules() []entity.RoutingRule
}

// Metrics records request counters and serves the scrape endpoint.
type Metrics interface {
	RecordHTTPRequest(method, route string, statusCode int)
	Handler() http.Handler
}

type Config struct {
	Addr              string
	ServiceName       string
	JSONLogs          bool
	ClassifierEnabled bool
	// History and Metrics are optional.
	History output.HistoryPort
	Metrics Metrics
}

func DefaultConfig() Config {
	return Config{
		Addr:        ":8000",
		ServiceName: "agent-platform",
		JSONLogs:    true,
	}
}

type Server struct {
	router   TaskRouter
	registry output.AgentRegistry
	logger   output.LoggerPort
	cfg      Config
	started  time.Time
	handler  http.Handler

	requests  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

func NewServer(router TaskRouter, registry output.AgentRegistry, logger output.LoggerPort, cfg Config) *Server {
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultConfig().ServiceName
	}
	s := &Server{
		router:   router,
		registry: registry,
		logger:   logger,
		cfg:      cfg,
		started:  time.Now(),
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	accessLog := httplog.NewLogger(s.cfg.ServiceName, httplog.Options{
		JSON:    s.cfg.JSONLogs,
		Concise: true,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(accessLog))
	r.Use(middleware.Recoverer)
	if s.cfg.Metrics != nil {
		r.Use(s.recordMetrics)
	}

	r.Post("/execute", s.handleExecute)
	r.Get("/agents", s.handleAgents)
	r.Get("/stats", s.handleStats)
	r.Get("/health", s.handleHealth)
	r.Get("/history/{userID}", s.handleHistory)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics.Handler())
	}

	return r
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.cfg.Metrics.RecordHTTPRequest(r.Method, route, status)
	})
}

package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agent-platform/internal/domain/entity"

	"github.com/go-chi/chi/v5"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

type executeRequest struct {
	Query   string         `json:"query"`
	UserID  string         `json:"user_id"`
	Context map[string]any `json:"context"`
}

type executeResponse struct {
	Result entity.ExecutionResult `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.UserID == "" {
		req.UserID = entity.AnonymousUser
	}

	start := time.Now()
	result := s.router.RouteAndExecute(r.Context(), req.Query, req.UserID, req.Context)
	elapsed := time.Since(start)

	s.requests.Add(1)
	if result.Succeeded() {
		s.succeeded.Add(1)
	} else {
		s.failed.Add(1)
	}

	s.recordHistory(context.WithoutCancel(r.Context()), req, result, elapsed)

	writeJSON(w, http.StatusOK, executeResponse{Result: result})
}

func (s *Server) recordHistory(ctx context.Context, req executeRequest, result entity.ExecutionResult, elapsed time.Duration) {
	if s.cfg.History == nil {
		return
	}

	rec := entity.TaskRecord{
		UserID:     req.UserID,
		Query:      req.Query,
		Agent:      result.Agent,
		Status:     result.Status,
		Confidence: result.Confidence,
		Reasoning:  result.Reasoning,
		Result:     result.Result,
		Error:      result.Error,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if routing := result.Routing; routing != nil {
		if rec.Agent == "" {
			rec.Agent = routing.Agent
		}
		rec.Confidence = routing.Confidence
		rec.Reasoning = routing.Reasoning
	}
	if rec.Error == "" {
		rec.Error = result.Message
	}

	if err := s.cfg.History.Record(ctx, rec); err != nil {
		s.logger.Warn("Failed to record task history", "user", req.UserID, "error", err)
	}
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"agents": s.registry.List(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	agents := s.registry.List()
	names := make([]entity.AgentName, 0, len(agents))
	for _, a := range agents {
		names = append(names, a.Name)
	}

	stats := map[string]any{
		"agents":             len(agents),
		"agents_available":   names,
		"routing_rules":      len(s.router.Rules()),
		"classifier_enabled": s.cfg.ClassifierEnabled,
		"history_enabled":    s.cfg.History != nil,
		"requests_total":     s.requests.Load(),
		"requests_succeeded": s.succeeded.Load(),
		"requests_failed":    s.failed.Load(),
		"uptime_seconds":     int64(time.Since(s.started).Seconds()),
	}
	if s.cfg.History != nil {
		total, err := s.cfg.History.Count(r.Context())
		if err != nil {
			s.logger.Warn("Failed to count task history", "error", err)
		} else {
			stats["history_total"] = total
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"agents_loaded": s.registry.Len(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.cfg.History == nil {
		writeError(w, http.StatusServiceUnavailable, "history is disabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	userID := chi.URLParam(r, "userID")
	records, err := s.cfg.History.ListByUser(r.Context(), userID, limit)
	if err != nil {
		s.logger.Error("Failed to load task history", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"tasks":   records,
		"count":   len(records),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

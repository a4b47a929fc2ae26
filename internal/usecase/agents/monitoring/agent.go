package monitoring

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/domain/entity"

	"github.com/google/uuid"
)

const (
	historyWindow          = 200
	defaultCheckIntervalMn = 60
)

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s]+`)
	targetPattern = regexp.MustCompile(`(?i)(?:below|under|less than|drops to)\s*[$€£]?\s*(\d+(?:\.\d{1,2})?)`)
	productPrefix = regexp.MustCompile(`(?i)^(?:track|monitor|watch|alert me when|notify me when|set an? (?:price )?alert for)\s+(?:the\s+)?(?:price of\s+)?`)
	productSuffix = regexp.MustCompile(`(?i)\s+(?:price\s+)?(?:drops?|falls?|goes|is)?\s*(?:below|under|less than|drops to)\b.*$`)
)

type Alert struct {
	ID            string    `json:"alert_id"`
	Kind          string    `json:"kind"`
	UserID        string    `json:"user_id"`
	Target        string    `json:"target"`
	TargetPrice   float64   `json:"target_price,omitempty"`
	CheckInterval int       `json:"check_interval_minutes,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

var _ output.Agent = (*Agent)(nil)

// Agent keeps an in-process alert registry and builds per-user dashboards
// from the execution history.
type Agent struct {
	history output.HistoryPort
	logger  output.LoggerPort
	now     func() time.Time

	mu     sync.RWMutex
	alerts map[string]Alert
}

// New accepts a nil history; dashboards then only list alerts.
func New(history output.HistoryPort, logger output.LoggerPort) *Agent {
	return &Agent{
		history: history,
		logger:  logger,
		now:     time.Now,
		alerts:  make(map[string]Alert),
	}
}

func (a *Agent) Name() entity.AgentName {
	return entity.AgentMonitoring
}

func (a *Agent) Description() string {
	return "System monitoring, performance tracking, analytics"
}

func (a *Agent) Invoke(ctx context.Context, req entity.AgentRequest) (map[string]any, error) {
	lowered := strings.ToLower(req.Query)

	switch {
	case strings.Contains(lowered, "dashboard") || strings.Contains(lowered, "stats") || strings.Contains(lowered, "analytics"):
		return a.dashboard(ctx, req.UserID)
	case urlPattern.MatchString(req.Query):
		return a.monitorWebsite(req), nil
	case targetPattern.MatchString(req.Query):
		return a.priceAlert(req), nil
	default:
		return a.dashboard(ctx, req.UserID)
	}
}

func (a *Agent) priceAlert(req entity.AgentRequest) map[string]any {
	m := targetPattern.FindStringSubmatch(req.Query)
	target, _ := strconv.ParseFloat(m[1], 64)

	product := productPrefix.ReplaceAllString(strings.TrimSpace(req.Query), "")
	product = strings.TrimSpace(productSuffix.ReplaceAllString(product, ""))

	alert := a.store(Alert{
		Kind:        "price",
		UserID:      req.UserID,
		Target:      product,
		TargetPrice: target,
	})
	a.logger.Info("Price alert created", "alert_id", alert.ID, "product", product, "target", target)

	return map[string]any{
		"status":   "active",
		"alert_id": alert.ID,
		"message":  fmt.Sprintf("Will notify when %s drops below %.2f", product, target),
		"alert":    alert,
	}
}

func (a *Agent) monitorWebsite(req entity.AgentRequest) map[string]any {
	target := strings.TrimRight(urlPattern.FindString(req.Query), ".,;!?")

	alert := a.store(Alert{
		Kind:          "website",
		UserID:        req.UserID,
		Target:        target,
		CheckInterval: defaultCheckIntervalMn,
	})
	a.logger.Info("Website monitor created", "alert_id", alert.ID, "url", target)

	return map[string]any{
		"status":   "monitoring",
		"alert_id": alert.ID,
		"url":      target,
		"alert":    alert,
	}
}

func (a *Agent) store(alert Alert) Alert {
	alert.ID = "alert_" + uuid.NewString()
	alert.Status = "active"
	alert.CreatedAt = a.now().UTC()

	a.mu.Lock()
	a.alerts[alert.ID] = alert
	a.mu.Unlock()
	return alert
}

// Alerts lists the user's alerts, oldest first.
func (a *Agent) Alerts(userID string) []Alert {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]Alert, 0)
	for _, alert := range a.alerts {
		if alert.UserID == userID {
			out = append(out, alert)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (a *Agent) dashboard(ctx context.Context, userID string) (map[string]any, error) {
	a.logger.Info("Building dashboard", "user", userID)

	metrics := map[string]any{}
	if a.history != nil {
		records, err := a.history.ListByUser(ctx, userID, historyWindow)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		metrics = summarize(records, a.now())
	}

	return map[string]any{
		"status":  "success",
		"user_id": userID,
		"metrics": metrics,
		"alerts":  a.Alerts(userID),
	}, nil
}

func summarize(records []entity.TaskRecord, now time.Time) map[string]any {
	byAgent := map[string]int{}
	succeeded, lastWeek := 0, 0
	var totalMs int64
	weekAgo := now.Add(-7 * 24 * time.Hour)

	for _, r := range records {
		byAgent[string(r.Agent)]++
		if r.Status == entity.StatusSuccess {
			succeeded++
		}
		if r.CreatedAt.After(weekAgo) {
			lastWeek++
		}
		totalMs += r.DurationMs
	}

	summary := map[string]any{
		"tasks_total":         len(records),
		"tasks_succeeded":     succeeded,
		"tasks_last_7_days":   lastWeek,
		"tasks_by_agent":      byAgent,
		"average_duration_ms": int64(0),
	}
	if len(records) > 0 {
		summary["average_duration_ms"] = totalMs / int64(len(records))
	}
	return summary
}

package productivity

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/domain/entity"
)

const defaultMeetingMinutes = 30

var (
	durationPattern     = regexp.MustCompile(`(?i)(\d+)\s*(minutes?|mins?|hours?|hrs?|h)\b`)
	participantsPattern = regexp.MustCompile(`(?i)\bwith\s+(.+?)(?:\s+(?:for|about|on|at|tomorrow|today|next)\b|[.?!]*$)`)
	topicPattern        = regexp.MustCompile(`(?i)\b(?:about|regarding|to discuss)\s+(.+?)[.?!]*$`)
	taskPrefix          = regexp.MustCompile(`(?i)^(?:please\s+)?(?:add|create|make|new)?\s*(?:a\s+)?(?:task|todo|to-do|reminder)s?\s*(?:to|for|:)?\s*`)
)

var _ output.Agent = (*Agent)(nil)

// Agent plans meetings and records tasks. No calendar is touched.
type Agent struct {
	logger output.LoggerPort
	now    func() time.Time
}

func New(logger output.LoggerPort) *Agent {
	return &Agent{logger: logger, now: time.Now}
}

func (a *Agent) Name() entity.AgentName {
	return entity.AgentProductivity
}

func (a *Agent) Description() string {
	return "Tasks, scheduling, organization, reminders"
}

func (a *Agent) Invoke(ctx context.Context, req entity.AgentRequest) (map[string]any, error) {
	lowered := strings.ToLower(req.Query)
	if strings.Contains(lowered, "meeting") || strings.Contains(lowered, "calendar") || strings.Contains(lowered, "call with") {
		return a.scheduleMeeting(req), nil
	}
	return a.createTask(req), nil
}

func (a *Agent) scheduleMeeting(req entity.AgentRequest) map[string]any {
	participants := parseParticipants(req.Query)
	duration := parseDuration(req.Query)

	title := "Meeting"
	if m := topicPattern.FindStringSubmatch(req.Query); m != nil {
		title = strings.TrimSpace(m[1])
	}

	// next day, two hours later, rounded to the hour
	suggested := a.now().Add(26 * time.Hour).Truncate(time.Hour)

	a.logger.Info("Scheduling meeting", "title", title, "participants", len(participants))

	return map[string]any{
		"status":           "scheduled",
		"type":             "meeting",
		"title":            title,
		"participants":     participants,
		"duration_minutes": duration,
		"suggested_time":   suggested.Format(time.RFC3339),
		"organizer":        req.UserID,
	}
}

func (a *Agent) createTask(req entity.AgentRequest) map[string]any {
	title := strings.TrimSpace(taskPrefix.ReplaceAllString(req.Query, ""))
	if title == "" {
		title = req.Query
	}

	a.logger.Info("Creating task", "title", title)

	var dueDate any
	if due := req.ContextString("due_date"); due != "" {
		dueDate = due
	}

	return map[string]any{
		"status":     "created",
		"type":       "task",
		"title":      title,
		"priority":   priority(req),
		"due_date":   dueDate,
		"created_at": a.now().UTC().Format(time.RFC3339),
		"owner":      req.UserID,
	}
}

func priority(req entity.AgentRequest) string {
	if p := req.ContextString("priority"); p != "" {
		return p
	}
	lowered := strings.ToLower(req.Query)
	switch {
	case strings.Contains(lowered, "urgent") || strings.Contains(lowered, "asap"):
		return "urgent"
	case strings.Contains(lowered, "important") || strings.Contains(lowered, "high priority"):
		return "high"
	case strings.Contains(lowered, "low priority") || strings.Contains(lowered, "someday"):
		return "low"
	default:
		return "normal"
	}
}

func parseDuration(query string) int {
	m := durationPattern.FindStringSubmatch(query)
	if m == nil {
		return defaultMeetingMinutes
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return defaultMeetingMinutes
	}
	if strings.HasPrefix(strings.ToLower(m[2]), "h") {
		return n * 60
	}
	return n
}

func parseParticipants(query string) []string {
	m := participantsPattern.FindStringSubmatch(query)
	if m == nil {
		return []string{}
	}
	raw := strings.NewReplacer(" and ", ",", "&", ",").Replace(m[1])
	var participants []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			participants = append(participants, p)
		}
	}
	return participants
}

package communication

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/domain/entity"
)

var (
	emailPattern     = regexp.MustCompile(`[\w.+-]+@[\w-]+(?:\.[\w-]+)+`)
	recipientPattern = regexp.MustCompile(`\b[Tt]o\s+([A-Z][\w.'-]*(?:\s+[A-Z][\w.'-]*)?)`)
	subjectPattern   = regexp.MustCompile(`(?i)\b(?:about|regarding|re:|subject:)\s+(.+?)[.?!]*$`)
)

var (
	emailProviders  = []string{"gmail", "outlook", "yahoo"}
	socialPlatforms = []string{"twitter", "facebook", "instagram", "linkedin"}
)

var _ output.Agent = (*Agent)(nil)

// Agent drafts emails and social posts. Nothing is sent.
type Agent struct {
	logger output.LoggerPort
}

func New(logger output.LoggerPort) *Agent {
	return &Agent{logger: logger}
}

func (a *Agent) Name() entity.AgentName {
	return entity.AgentCommunication
}

func (a *Agent) Description() string {
	return "Email, messaging, social media, communication"
}

func (a *Agent) Invoke(ctx context.Context, req entity.AgentRequest) (map[string]any, error) {
	lowered := strings.ToLower(req.Query)

	switch {
	case strings.Contains(lowered, "inbox"):
		a.logger.Info("Loading unified inbox", "user", req.UserID)
		return a.unifiedInbox(req.UserID), nil
	case mentionsAny(lowered, socialPlatforms) || strings.Contains(lowered, "post"):
		return a.schedulePost(req), nil
	default:
		return a.composeEmail(req), nil
	}
}

func (a *Agent) composeEmail(req entity.AgentRequest) map[string]any {
	to := req.ContextString("to")
	if to == "" {
		to = emailPattern.FindString(req.Query)
	}
	if to == "" {
		if m := recipientPattern.FindStringSubmatch(req.Query); m != nil {
			to = m[1]
		}
	}

	subject := req.ContextString("subject")
	if subject == "" {
		if m := subjectPattern.FindStringSubmatch(req.Query); m != nil {
			subject = capitalize(m[1])
		}
	}
	if subject == "" {
		subject = "Follow-up"
	}

	body := req.ContextString("body")
	if body == "" {
		body = req.Query
	}

	a.logger.Info("Composing email", "to", to, "subject", subject)

	greeting := "Hi,"
	if to != "" && !strings.Contains(to, "@") {
		greeting = fmt.Sprintf("Hi %s,", strings.Fields(to)[0])
	}

	return map[string]any{
		"status":  "draft_ready",
		"type":    "email",
		"to":      to,
		"subject": subject,
		"body":    fmt.Sprintf("%s\n\n%s\n\nBest regards", greeting, body),
	}
}

func (a *Agent) schedulePost(req entity.AgentRequest) map[string]any {
	lowered := strings.ToLower(req.Query)
	platform := "twitter"
	for _, p := range socialPlatforms {
		if strings.Contains(lowered, p) {
			platform = p
			break
		}
	}

	content := req.ContextString("content")
	if content == "" {
		content = req.Query
	}
	scheduledFor := req.ContextString("schedule_time")
	if scheduledFor == "" {
		scheduledFor = "immediate"
	}

	a.logger.Info("Scheduling social post", "platform", platform)

	return map[string]any{
		"status":        "scheduled",
		"type":          "social_post",
		"platform":      platform,
		"content":       content,
		"scheduled_for": scheduledFor,
	}
}

func (a *Agent) unifiedInbox(userID string) map[string]any {
	platforms := make([]string, 0, len(emailProviders)+len(socialPlatforms))
	platforms = append(platforms, emailProviders...)
	platforms = append(platforms, socialPlatforms...)

	return map[string]any{
		"status":       "success",
		"type":         "inbox",
		"user_id":      userID,
		"unread_count": 0,
		"messages":     []any{},
		"platforms":    platforms,
	}
}

func mentionsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

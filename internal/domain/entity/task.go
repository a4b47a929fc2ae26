package entity

import "time"

// TaskRecord is one routed execution as kept in the history store.
type TaskRecord struct {
	ID         string          `json:"task_id"`
	UserID     string          `json:"user_id"`
	Query      string          `json:"query"`
	Agent      AgentName       `json:"agent"`
	Status     ExecutionStatus `json:"status"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
	Result     map[string]any  `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}

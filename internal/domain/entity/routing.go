package entity

type DecisionSource string

const (
	SourceKeyword    DecisionSource = "keyword"
	SourceClassifier DecisionSource = "classifier"
	SourceFallback   DecisionSource = "fallback"
)

type RoutingRule struct {
	Keywords   []string       `yaml:"keywords" json:"keywords"`
	Agent      AgentName      `yaml:"agent" json:"agent"`
	Confidence float64        `yaml:"confidence" json:"confidence"`
	Reasoning  string         `yaml:"reasoning" json:"reasoning"`
	Parameters map[string]any `yaml:"parameters" json:"parameters,omitempty"`
}

type RoutingDecision struct {
	Agent      AgentName      `json:"agent"`
	Confidence float64        `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
	Parameters map[string]any `json:"parameters"`
	Source     DecisionSource `json:"source"`
}

type ExecutionStatus string

const (
	StatusSuccess ExecutionStatus = "success"
	StatusError   ExecutionStatus = "error"
)

// ExecutionResult is the envelope returned for every routed query.
// Result is set on success; Error or Message on failure.
type ExecutionResult struct {
	Status     ExecutionStatus  `json:"status"`
	Agent      AgentName        `json:"agent,omitempty"`
	Confidence float64          `json:"confidence,omitempty"`
	Reasoning  string           `json:"reasoning,omitempty"`
	Result     map[string]any   `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	Message    string           `json:"message,omitempty"`
	Routing    *RoutingDecision `json:"routing,omitempty"`
}

func (r ExecutionResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

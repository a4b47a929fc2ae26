package entity

type AgentName string

const (
	AgentSearch        AgentName = "search"
	AgentCareer        AgentName = "career"
	AgentTravel        AgentName = "travel"
	AgentLocal         AgentName = "local"
	AgentTransaction   AgentName = "transaction"
	AgentCommunication AgentName = "communication"
	AgentEntertainment AgentName = "entertainment"
	AgentProductivity  AgentName = "productivity"
	AgentMonitoring    AgentName = "monitoring"
	AgentBrowser       AgentName = "browser"
	AgentCommonCrawl   AgentName = "common_crawl"
)

// DefaultAgent handles every query the router cannot place anywhere else.
const DefaultAgent = AgentSearch

const AnonymousUser = "anonymous"

func (n AgentName) String() string {
	return string(n)
}

// AgentRequest is the single shape every agent is invoked with.
type AgentRequest struct {
	Query      string
	UserID     string
	Context    map[string]any
	Parameters map[string]any
}

// ContextString returns a string value from the request context, or "".
func (r AgentRequest) ContextString(key string) string {
	if r.Context == nil {
		return ""
	}
	if v, ok := r.Context[key].(string); ok {
		return v
	}
	return ""
}

type AgentInfo struct {
	Name        AgentName `json:"name"`
	Description string    `json:"description"`
}

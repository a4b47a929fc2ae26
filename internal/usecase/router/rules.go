package router

import (
	"fmt"
	"os"

	"agent-platform/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// DefaultRules returns the built-in keyword table. Order matters: on equal
// confidence the earlier rule wins.
func DefaultRules() []entity.RoutingRule {
	return []entity.RoutingRule{
		{
			Keywords:   []string{"job", "career", "apply", "resume", "hiring", "position", "work", "employment"},
			Agent:      entity.AgentCareer,
			Confidence: 0.95,
			Reasoning:  "Career-related keywords detected",
			Parameters: map[string]any{"query_type": "job_search"},
		},
		{
			Keywords:   []string{"train", "bus", "flight", "travel", "route", "transport", "journey", "booking"},
			Agent:      entity.AgentTravel,
			Confidence: 0.95,
			Reasoning:  "Travel/transportation keywords detected",
			Parameters: map[string]any{"query_type": "transport"},
		},
		{
			Keywords:   []string{"near", "nearby", "hospital", "restaurant", "hotel", "store", "shop", "location"},
			Agent:      entity.AgentLocal,
			Confidence: 0.90,
			Reasoning:  "Local services/location keywords detected",
			Parameters: map[string]any{"query_type": "local_search"},
		},
		{
			Keywords:   []string{"buy", "price", "purchase", "shop", "product", "cost", "expensive", "shopping"},
			Agent:      entity.AgentTransaction,
			Confidence: 0.90,
			Reasoning:  "Shopping/purchase keywords detected",
			Parameters: map[string]any{"query_type": "product_search"},
		},
		{
			Keywords:   []string{"movie", "film", "show", "watch", "entertainment", "game", "music", "cinema"},
			Agent:      entity.AgentEntertainment,
			Confidence: 0.85,
			Reasoning:  "Entertainment/media keywords detected",
			Parameters: map[string]any{"query_type": "media_search"},
		},
		{
			Keywords:   []string{"task", "todo", "schedule", "calendar", "meeting", "organize", "reminder"},
			Agent:      entity.AgentProductivity,
			Confidence: 0.85,
			Reasoning:  "Productivity/organization keywords detected",
			Parameters: map[string]any{"query_type": "task_management"},
		},
		{
			Keywords:   []string{"analytics", "stats", "monitor", "track", "dashboard", "performance", "metrics"},
			Agent:      entity.AgentMonitoring,
			Confidence: 0.85,
			Reasoning:  "Analytics/monitoring keywords detected",
			Parameters: map[string]any{"query_type": "analytics"},
		},
		{
			Keywords:   []string{"email", "message", "social", "post", "communicate", "chat", "contact"},
			Agent:      entity.AgentCommunication,
			Confidence: 0.80,
			Reasoning:  "Communication/social keywords detected",
			Parameters: map[string]any{"query_type": "communication"},
		},
		{
			Keywords:   []string{"search", "find", "lookup", "information", "what", "how", "why", "when"},
			Agent:      entity.AgentSearch,
			Confidence: 0.70,
			Reasoning:  "General search/information keywords detected",
			Parameters: map[string]any{"query_type": "general_search"},
		},
		{
			Keywords:   []string{"web", "browser", "scrape", "automation", "crawl", "site", "page"},
			Agent:      entity.AgentBrowser,
			Confidence: 0.80,
			Reasoning:  "Web browsing/automation keywords detected",
			Parameters: map[string]any{"query_type": "web_automation"},
		},
		{
			Keywords:   []string{"data", "crawl", "large", "scale", "web", "archive", "bulk"},
			Agent:      entity.AgentCommonCrawl,
			Confidence: 0.75,
			Reasoning:  "Large-scale data/web crawling keywords detected",
			Parameters: map[string]any{"query_type": "bulk_data"},
		},
	}
}

type rulesFile struct {
	Rules []entity.RoutingRule `yaml:"rules"`
}

// LoadRules reads a YAML rule table of the form `rules: [{keywords, agent, ...}]`.
func LoadRules(path string) ([]entity.RoutingRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	if err := ValidateRules(file.Rules); err != nil {
		return nil, err
	}
	return file.Rules, nil
}

func ValidateRules(rules []entity.RoutingRule) error {
	if len(rules) == 0 {
		return fmt.Errorf("%w: rule table is empty", ErrInvalidRule)
	}
	for i, rule := range rules {
		if rule.Agent == "" {
			return fmt.Errorf("%w: rule %d has no agent", ErrInvalidRule, i)
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("%w: rule %d (%s) has no keywords", ErrInvalidRule, i, rule.Agent)
		}
		for _, kw := range rule.Keywords {
			if kw == "" {
				return fmt.Errorf("%w: rule %d (%s) has an empty keyword", ErrInvalidRule, i, rule.Agent)
			}
		}
		// also rejects NaN
		if !(rule.Confidence > 0 && rule.Confidence <= 1) {
			return fmt.Errorf("%w: rule %d (%s) confidence %v outside (0,1]", ErrInvalidRule, i, rule.Agent, rule.Confidence)
		}
	}
	return nil
}

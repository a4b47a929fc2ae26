package router

import (
	"maps"
	"strings"

	"agent-platform/internal/domain/entity"
)

type KeywordRouter struct {
	rules []entity.RoutingRule
}

// NewKeywordRouter lower-cases keywords once; the rule slice is copied.
func NewKeywordRouter(rules []entity.RoutingRule) *KeywordRouter {
	normalized := make([]entity.RoutingRule, len(rules))
	for i, rule := range rules {
		keywords := make([]string, len(rule.Keywords))
		for j, kw := range rule.Keywords {
			keywords[j] = strings.ToLower(kw)
		}
		rule.Keywords = keywords
		normalized[i] = rule
	}
	return &KeywordRouter{rules: normalized}
}

// Route picks the matching rule with the strictly highest confidence.
// The bool is false when no keyword of any rule occurs in the query.
func (r *KeywordRouter) Route(query string) (entity.RoutingDecision, bool) {
	lowered := strings.ToLower(query)

	best := -1
	for i, rule := range r.rules {
		if !matchesAny(lowered, rule.Keywords) {
			continue
		}
		if best == -1 || rule.Confidence > r.rules[best].Confidence {
			best = i
		}
	}
	if best == -1 {
		return entity.RoutingDecision{}, false
	}

	rule := r.rules[best]
	return entity.RoutingDecision{
		Agent:      rule.Agent,
		Confidence: rule.Confidence,
		Reasoning:  rule.Reasoning,
		Parameters: cloneParams(rule.Parameters),
		Source:     entity.SourceKeyword,
	}, true
}

func (r *KeywordRouter) Rules() []entity.RoutingRule {
	return r.rules
}

func matchesAny(query string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return false
}

func cloneParams(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{}
	}
	return maps.Clone(params)
}

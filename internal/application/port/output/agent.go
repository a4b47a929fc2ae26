package output

import (
	"context"

	"agent-platform/internal/domain/entity"
)

// Agent is the one capability the router invokes. Agents with other
// call shapes are wrapped by the shims in usecase/agents at registration.
type Agent interface {
	Name() entity.AgentName
	Description() string
	Invoke(ctx context.Context, req entity.AgentRequest) (map[string]any, error)
}

type AgentRegistry interface {
	Get(name entity.AgentName) (Agent, bool)
	List() []entity.AgentInfo
	Len() int
}

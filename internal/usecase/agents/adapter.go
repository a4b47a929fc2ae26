// Package agents holds the shims that turn the different agent call shapes
// into the single output.Agent capability the router dispatches to.
package agents

import (
	"context"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/domain/entity"
)

// Searcher is an agent that only needs the query text.
type Searcher interface {
	Search(ctx context.Context, query string) (map[string]any, error)
}

// Executor is an agent that takes the query as a task.
type Executor interface {
	Execute(ctx context.Context, query string) (map[string]any, error)
}

// UserExecutor is an agent that also needs the caller and prior context.
type UserExecutor interface {
	Execute(ctx context.Context, query, userID string, queryContext map[string]any) (map[string]any, error)
}

type shim struct {
	name        entity.AgentName
	description string
	invoke      func(ctx context.Context, req entity.AgentRequest) (map[string]any, error)
}

func (s *shim) Name() entity.AgentName { return s.name }
func (s *shim) Description() string    { return s.description }

func (s *shim) Invoke(ctx context.Context, req entity.AgentRequest) (map[string]any, error) {
	return s.invoke(ctx, req)
}

func FromSearcher(name entity.AgentName, description string, s Searcher) output.Agent {
	return &shim{
		name:        name,
		description: description,
		invoke: func(ctx context.Context, req entity.AgentRequest) (map[string]any, error) {
			return s.Search(ctx, req.Query)
		},
	}
}

func FromExecutor(name entity.AgentName, description string, e Executor) output.Agent {
	return &shim{
		name:        name,
		description: description,
		invoke: func(ctx context.Context, req entity.AgentRequest) (map[string]any, error) {
			return e.Execute(ctx, req.Query)
		},
	}
}

func FromUserExecutor(name entity.AgentName, description string, e UserExecutor) output.Agent {
	return &shim{
		name:        name,
		description: description,
		invoke: func(ctx context.Context, req entity.AgentRequest) (map[string]any, error) {
			return e.Execute(ctx, req.Query, req.UserID, req.Context)
		},
	}
}

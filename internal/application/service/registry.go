package service

import (
	"errors"
	"fmt"
	"sort"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/domain/entity"
)

var ErrDuplicateAgent = errors.New("duplicate agent")

var _ output.AgentRegistry = (*AgentRegistryImpl)(nil)

// AgentRegistryImpl is filled once by NewAgentRegistry and only read
// afterwards, so concurrent lookups need no locking.
type AgentRegistryImpl struct {
	agents map[entity.AgentName]output.Agent
}

func NewAgentRegistry(agents ...output.Agent) (*AgentRegistryImpl, error) {
	r := &AgentRegistryImpl{
		agents: make(map[entity.AgentName]output.Agent, len(agents)),
	}
	for _, agent := range agents {
		if agent == nil {
			continue
		}
		name := agent.Name()
		if name == "" {
			return nil, fmt.Errorf("agent %T has empty name", agent)
		}
		if _, exists := r.agents[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAgent, name)
		}
		r.agents[name] = agent
	}
	return r, nil
}

func (r *AgentRegistryImpl) Get(name entity.AgentName) (output.Agent, bool) {
	agent, ok := r.agents[name]
	return agent, ok
}

// List returns the catalogue sorted by agent name.
func (r *AgentRegistryImpl) List() []entity.AgentInfo {
	result := make([]entity.AgentInfo, 0, len(r.agents))
	for name, agent := range r.agents {
		result = append(result, entity.AgentInfo{
			Name:        name,
			Description: agent.Description(),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

func (r *AgentRegistryImpl) Len() int {
	return len(r.agents)
}

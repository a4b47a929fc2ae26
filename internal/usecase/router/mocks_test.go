package router

import (
	"context"
	"errors"
	"sync"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/domain/entity"
)

// countingLLM replies with a fixed body and counts calls.
type countingLLM struct {
	mu      sync.Mutex
	calls   int
	reply   string
	err     error
	block   bool
	lastReq output.ChatRequest
}

func (c *countingLLM) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	c.mu.Lock()
	c.calls++
	c.lastReq = req
	c.mu.Unlock()

	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if c.err != nil {
		return nil, c.err
	}
	return &output.ChatResponse{
		Message: entity.Message{Role: entity.RoleAssistant, Content: c.reply},
	}, nil
}

func (c *countingLLM) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type stubAgent struct {
	mu      sync.Mutex
	name    entity.AgentName
	calls   int
	lastReq entity.AgentRequest
	result  map[string]any
	err     error
	panic   any
	block   bool
}

func newStubAgent(name entity.AgentName) *stubAgent {
	return &stubAgent{name: name, result: map[string]any{"handled_by": string(name)}}
}

func (s *stubAgent) Name() entity.AgentName { return s.name }
func (s *stubAgent) Description() string    { return "stub " + string(s.name) }

func (s *stubAgent) Invoke(ctx context.Context, req entity.AgentRequest) (map[string]any, error) {
	s.mu.Lock()
	s.calls++
	s.lastReq = req
	s.mu.Unlock()

	if s.panic != nil {
		panic(s.panic)
	}
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.result, s.err
}

func (s *stubAgent) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type mapRegistry map[entity.AgentName]output.Agent

func (r mapRegistry) Get(name entity.AgentName) (output.Agent, bool) {
	a, ok := r[name]
	return a, ok
}

func (r mapRegistry) List() []entity.AgentInfo {
	infos := make([]entity.AgentInfo, 0, len(r))
	for _, a := range r {
		infos = append(infos, entity.AgentInfo{Name: a.Name(), Description: a.Description()})
	}
	return infos
}

func (r mapRegistry) Len() int { return len(r) }

// allStubs registers one stub per default agent.
func allStubs() (mapRegistry, map[entity.AgentName]*stubAgent) {
	reg := mapRegistry{}
	stubs := map[entity.AgentName]*stubAgent{}
	for _, rule := range DefaultRules() {
		if _, ok := stubs[rule.Agent]; ok {
			continue
		}
		s := newStubAgent(rule.Agent)
		stubs[rule.Agent] = s
		reg[rule.Agent] = s
	}
	return reg, stubs
}

var errUpstream = errors.New("upstream unavailable")

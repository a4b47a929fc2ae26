package di

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agent-platform/internal/adapter/httpapi"
	"agent-platform/internal/application/port/output"
	"agent-platform/internal/application/service"
	"agent-platform/internal/domain/entity"
	"agent-platform/internal/infrastructure/browser/rod"
	historysqlite "agent-platform/internal/infrastructure/history/sqlite"
	"agent-platform/internal/infrastructure/llm/anthropic"
	"agent-platform/internal/infrastructure/llm/breaker"
	"agent-platform/internal/infrastructure/llm/openrouter"
	"agent-platform/internal/infrastructure/logger"
	"agent-platform/internal/infrastructure/metrics"
	"agent-platform/internal/infrastructure/tracer"
	"agent-platform/internal/infrastructure/webclient"
	"agent-platform/internal/usecase/agents"
	browseragent "agent-platform/internal/usecase/agents/browser"
	"agent-platform/internal/usecase/agents/career"
	"agent-platform/internal/usecase/agents/commoncrawl"
	"agent-platform/internal/usecase/agents/communication"
	"agent-platform/internal/usecase/agents/entertainment"
	"agent-platform/internal/usecase/agents/local"
	"agent-platform/internal/usecase/agents/monitoring"
	"agent-platform/internal/usecase/agents/productivity"
	"agent-platform/internal/usecase/agents/search"
	"agent-platform/internal/usecase/agents/transaction"
	"agent-platform/internal/usecase/agents/travel"
	"agent-platform/internal/usecase/router"
)

var ErrUnknownProvider = errors.New("unknown classifier provider")

// Container holds the wired platform. LLM is nil when no classifier
// credentials are configured and History is nil when it is disabled.
type Container struct {
	Logger   output.LoggerPort
	Metrics  *metrics.Metrics
	LLM      output.LLMPort
	Registry *service.AgentRegistryImpl
	Router   *router.UseCase
	History  output.HistoryPort
	Server   *httpapi.Server

	browser        *browseragent.Agent
	shutdownTracer func(context.Context) error
}

// NewContainer wires the platform. Agents that cannot be built are logged
// and left out of the registry; everything else is fatal.
func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c := &Container{Logger: log}

	c.shutdownTracer, err = tracer.Setup(cfg.TracingExporter)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	c.Metrics = metrics.New()

	c.LLM, err = newClassifierLLM(cfg, log)
	if err != nil {
		c.Close()
		return nil, err
	}

	rules := router.DefaultRules()
	if cfg.RoutingRulesFile != "" {
		rules, err = router.LoadRules(cfg.RoutingRulesFile)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to load routing rules: %w", err)
		}
		log.Info("Routing rules loaded", "file", cfg.RoutingRulesFile, "rules", len(rules))
	}

	if cfg.HistoryDBPath != "" {
		store, err := historysqlite.Open(cfg.HistoryDBPath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		c.History = store
		if err := store.Migrate(ctx); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to migrate history: %w", err)
		}
	}

	webCfg := webclient.DefaultConfig()
	webCfg.RatePerSecond = cfg.HTTPRatePerSecond
	webCfg.Logger = log
	web := webclient.New(webCfg)

	browser, browserErr := newBrowserAgent(ctx, cfg, log)
	c.browser = browser

	registry, err := service.NewAgentRegistry(c.buildAgents(web, browserErr, log)...)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to build agent registry: %w", err)
	}
	c.Registry = registry
	warnUnroutableRules(rules, registry, log)

	classifier := router.NewClassifier(c.LLM, registry.List(), log, cfg.ClassifierTimeout)

	routerCfg := router.DefaultConfig()
	if cfg.AgentTimeout > 0 {
		routerCfg.AgentTimeout = cfg.AgentTimeout
	}
	routerCfg.Metrics = c.Metrics
	c.Router = router.New(router.NewKeywordRouter(rules), classifier, registry, log, routerCfg)

	serverCfg := httpapi.DefaultConfig()
	serverCfg.Addr = cfg.HTTPAddr
	serverCfg.JSONLogs = !strings.EqualFold(cfg.Log.Format, "console")
	serverCfg.ClassifierEnabled = c.LLM != nil
	serverCfg.History = c.History
	serverCfg.Metrics = c.Metrics
	c.Server = httpapi.NewServer(c.Router, registry, log, serverCfg)

	log.Info("Agent platform ready",
		"agents", registry.Len(),
		"rules", len(rules),
		"classifier", c.LLM != nil,
		"history", c.History != nil,
	)
	return c, nil
}

type agentBuilder struct {
	name  entity.AgentName
	build func() (output.Agent, error)
}

func (c *Container) buildAgents(web output.WebClientPort, browserErr error, log output.LoggerPort) []output.Agent {
	searchAgent := search.New(web, "", log)

	builders := []agentBuilder{
		{entity.AgentSearch, func() (output.Agent, error) {
			return agents.FromSearcher(entity.AgentSearch, searchAgent.Description(), searchAgent), nil
		}},
		{entity.AgentCareer, func() (output.Agent, error) {
			a := career.New(web, "", log)
			return agents.FromUserExecutor(entity.AgentCareer, a.Description(), a), nil
		}},
		{entity.AgentTravel, func() (output.Agent, error) {
			a := travel.New(web, "", log)
			return agents.FromUserExecutor(entity.AgentTravel, a.Description(), a), nil
		}},
		{entity.AgentLocal, func() (output.Agent, error) {
			a := local.New(web, local.Config{}, log)
			return agents.FromUserExecutor(entity.AgentLocal, a.Description(), a), nil
		}},
		{entity.AgentTransaction, func() (output.Agent, error) {
			a := transaction.New(searchAgent, log)
			return agents.FromExecutor(entity.AgentTransaction, a.Description(), a), nil
		}},
		{entity.AgentCommunication, func() (output.Agent, error) {
			return communication.New(log), nil
		}},
		{entity.AgentEntertainment, func() (output.Agent, error) {
			a := entertainment.New(log)
			return agents.FromExecutor(entity.AgentEntertainment, a.Description(), a), nil
		}},
		{entity.AgentProductivity, func() (output.Agent, error) {
			return productivity.New(log), nil
		}},
		{entity.AgentMonitoring, func() (output.Agent, error) {
			return monitoring.New(c.History, log), nil
		}},
		{entity.AgentBrowser, func() (output.Agent, error) {
			if browserErr != nil {
				return nil, browserErr
			}
			return c.browser, nil
		}},
		{entity.AgentCommonCrawl, func() (output.Agent, error) {
			a := commoncrawl.New(web, commoncrawl.DefaultConfig(), log)
			return agents.FromSearcher(entity.AgentCommonCrawl, a.Description(), a), nil
		}},
	}

	loaded := make([]output.Agent, 0, len(builders))
	for _, b := range builders {
		agent, err := b.build()
		if err != nil {
			log.Warn("Agent failed to load, skipping", "agent", b.name, "error", err)
			continue
		}
		loaded = append(loaded, agent)
	}
	return loaded
}

// newBrowserAgent fails when the browser is disabled or no binary is
// installed. The browser itself starts on the first browser query and lives
// as long as ctx.
func newBrowserAgent(ctx context.Context, cfg Config, log output.LoggerPort) (*browseragent.Agent, error) {
	if !cfg.BrowserEnabled {
		return nil, browseragent.ErrDisabled
	}
	if err := rod.Available(); err != nil {
		return nil, err
	}

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.BrowserHeadless
	factory := func(context.Context) (output.BrowserPort, error) {
		return rod.NewBrowserAdapter(ctx, browserCfg)
	}
	return browseragent.New(factory, log), nil
}

func newClassifierLLM(cfg Config, log output.LoggerPort) (output.LLMPort, error) {
	provider := strings.ToLower(cfg.ClassifierProvider)
	if provider == "" {
		switch {
		case cfg.AnthropicAPIKey != "":
			provider = "anthropic"
		case cfg.OpenRouterAPIKey != "":
			provider = "openrouter"
		default:
			log.Warn("No classifier credentials, unmatched queries go to the search agent")
			return nil, nil
		}
	}

	var inner output.LLMPort
	switch provider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Warn("ANTHROPIC_API_KEY is not set, classifier disabled")
			return nil, nil
		}
		llmCfg := anthropic.DefaultConfig(cfg.AnthropicAPIKey)
		llmCfg.Model = cfg.AnthropicModel
		llmCfg.Logger = log
		adapter, err := anthropic.NewAnthropicAdapter(llmCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create classifier llm: %w", err)
		}
		inner = adapter
	case "openrouter":
		if cfg.OpenRouterAPIKey == "" {
			log.Warn("OPENROUTER_API_KEY is not set, classifier disabled")
			return nil, nil
		}
		llmCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
		llmCfg.Logger = log
		inner = openrouter.NewOpenRouterAdapter(llmCfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.ClassifierProvider)
	}

	breakerCfg := breaker.DefaultConfig(provider)
	breakerCfg.Logger = log
	if cfg.BreakerFailures > 0 {
		breakerCfg.MaxFailures = uint32(cfg.BreakerFailures)
	}
	log.Info("Classifier configured", "provider", provider)
	return breaker.NewBreakerAdapter(inner, breakerCfg), nil
}

func warnUnroutableRules(rules []entity.RoutingRule, registry output.AgentRegistry, log output.LoggerPort) {
	for _, rule := range rules {
		if _, ok := registry.Get(rule.Agent); !ok {
			log.Warn("Routing rule targets an agent that is not loaded", "agent", rule.Agent)
		}
	}
}

// Close releases resources in reverse order of creation.
func (c *Container) Close() {
	if c.browser != nil {
		c.browser.Close()
	}
	if c.History != nil {
		if err := c.History.Close(); err != nil {
			c.Logger.Warn("Failed to close history", "error", err)
		}
	}
	if c.shutdownTracer != nil {
		if err := c.shutdownTracer(context.Background()); err != nil {
			c.Logger.Warn("Failed to shut down tracer", "error", err)
		}
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}

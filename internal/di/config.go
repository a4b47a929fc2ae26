package di

import (
	"time"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/infrastructure/logger"
)

type Config struct {
	HTTPAddr string
	Log      logger.Config

	// ClassifierProvider is "anthropic", "openrouter" or empty to pick
	// whichever key is configured.
	ClassifierProvider string
	AnthropicAPIKey    string
	AnthropicModel     string
	OpenRouterAPIKey   string
	OpenRouterModel    string
	ClassifierTimeout  time.Duration

	// BreakerFailures is the consecutive failure count that opens the
	// classifier circuit.
	BreakerFailures int

	AgentTimeout     time.Duration
	RoutingRulesFile string

	// HistoryDBPath empty disables the history store.
	HistoryDBPath string

	BrowserEnabled  bool
	BrowserHeadless bool

	TracingExporter   string
	HTTPRatePerSecond float64
}

func ConfigFromEnv(env output.ConfigPort) Config {
	return Config{
		HTTPAddr: env.GetWithDefault("HTTP_ADDR", ":8000"),
		Log: logger.Config{
			Level:  env.GetWithDefault("LOG_LEVEL", "info"),
			Format: env.GetWithDefault("LOG_FORMAT", "json"),
			Output: env.GetWithDefault("LOG_OUTPUT", "stdout"),
		},
		ClassifierProvider: env.Get("CLASSIFIER_PROVIDER"),
		AnthropicAPIKey:    env.Get("ANTHROPIC_API_KEY"),
		AnthropicModel:     env.GetWithDefault("ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
		OpenRouterAPIKey:   env.Get("OPENROUTER_API_KEY"),
		OpenRouterModel:    env.GetWithDefault("OPENROUTER_MODEL_NAME", "anthropic/claude-3-haiku"),
		ClassifierTimeout:  env.GetDuration("CLASSIFIER_TIMEOUT", 15*time.Second),
		BreakerFailures:    env.GetInt("CLASSIFIER_BREAKER_FAILURES", 5),
		AgentTimeout:       env.GetDuration("AGENT_TIMEOUT", 30*time.Second),
		RoutingRulesFile:   env.Get("ROUTING_RULES_FILE"),
		HistoryDBPath:      env.GetWithDefault("HISTORY_DB_PATH", "data/history.db"),
		BrowserEnabled:     env.GetBool("BROWSER_ENABLED", true),
		BrowserHeadless:    env.GetBool("BROWSER_HEADLESS", true),
		TracingExporter:    env.GetWithDefault("TRACING_EXPORTER", "noop"),
		HTTPRatePerSecond:  env.GetFloat("HTTP_RATE_PER_SECOND", 5),
	}
}

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/retry"
)

// Supported collaborator providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderVenice    = "venice"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"
)

type Config struct {
	Port        string `env:"PORT"        envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	RawLogLevel string `env:"LOG_LEVEL"   envDefault:"info"`

	RedisURL     string        `env:"REDIS_URL"     envDefault:"localhost:6379"`
	DataDir      string        `env:"DATA_DIR"      envDefault:"./data"`
	ArchivePath  string        `env:"ARCHIVE_PATH"`
	GameStateTTL time.Duration `env:"GAMESTATE_TTL" envDefault:"24h"`
	WorkerID     string        `env:"WORKER_ID"`

	LLMProvider      string `env:"LLM_PROVIDER"       envDefault:"anthropic"`
	ModelName        string `env:"MODEL_NAME"`
	BackendModelName string `env:"BACKEND_MODEL_NAME"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`

	RetryMaxAttempts     int           `env:"RETRY_MAX_ATTEMPTS"     envDefault:"3"`
	RetryInitialInterval time.Duration `env:"RETRY_INITIAL_INTERVAL" envDefault:"500ms"`
	RetryMaxInterval     time.Duration `env:"RETRY_MAX_INTERVAL"     envDefault:"5s"`
	ShortActionCap       int           `env:"SHORT_ACTION_CAP"       envDefault:"3"`

	// LogLevel is parsed from RawLogLevel.
	LogLevel slog.Level
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.RawLogLevel)
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks provider and key combinations and numeric limits.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when using anthropic provider")
		}
	case ProviderOpenAI, ProviderVenice:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when using %s provider", c.LLMProvider)
		}
	case ProviderOllama:
		if c.OpenAIBaseURL == "" {
			return fmt.Errorf("OPENAI_BASE_URL is required when using ollama provider")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("invalid LLM provider %q (supported: anthropic, openai, venice, ollama, mock)", c.LLMProvider)
	}
	if c.LLMProvider != ProviderMock && c.ModelName == "" {
		return fmt.Errorf("MODEL_NAME is required")
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if c.ShortActionCap < 1 {
		return fmt.Errorf("SHORT_ACTION_CAP must be at least 1")
	}
	return nil
}

// RetryPolicy builds the collaborator retry policy from the config.
func (c *Config) RetryPolicy(logger *slog.Logger) retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = c.RetryMaxAttempts
	p.InitialInterval = c.RetryInitialInterval
	p.MaxInterval = c.RetryMaxInterval
	p.Logger = logger
	return p
}

// BackendModel is the model used for structured calls, defaulting to the
// narration model.
func (c *Config) BackendModel() string {
	if c.BackendModelName != "" {
		return c.BackendModelName
	}
	return c.ModelName
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

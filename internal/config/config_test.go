package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, c *Config)
	}{
		{
			name: "anthropic defaults",
			env:  map[string]string{"ANTHROPIC_API_KEY": "k", "MODEL_NAME": "claude"},
			check: func(t *testing.T, c *Config) {
				if c.Port != "8080" || c.Environment != "development" {
					t.Errorf("defaults not applied: %+v", c)
				}
				if c.LogLevel != slog.LevelInfo {
					t.Errorf("log level = %v", c.LogLevel)
				}
				if c.RetryMaxAttempts != 3 || c.RetryInitialInterval != 500*time.Millisecond {
					t.Errorf("retry defaults = %d %v", c.RetryMaxAttempts, c.RetryInitialInterval)
				}
				if c.BackendModel() != "claude" {
					t.Errorf("backend model = %q", c.BackendModel())
				}
			},
		},
		{
			name: "openai compatible with overrides",
			env: map[string]string{
				"LLM_PROVIDER": "Venice", "OPENAI_API_KEY": "k", "MODEL_NAME": "m", "BACKEND_MODEL_NAME": "small",
				"LOG_LEVEL": "warning", "RETRY_MAX_ATTEMPTS": "5", "GAMESTATE_TTL": "2h",
			},
			check: func(t *testing.T, c *Config) {
				if c.LLMProvider != ProviderVenice || c.LogLevel != slog.LevelWarn {
					t.Errorf("got provider %q level %v", c.LLMProvider, c.LogLevel)
				}
				if c.BackendModel() != "small" || c.GameStateTTL != 2*time.Hour {
					t.Errorf("got %+v", c)
				}
				if p := c.RetryPolicy(nil); p.MaxAttempts != 5 {
					t.Errorf("policy attempts = %d", p.MaxAttempts)
				}
			},
		},
		{
			name:    "anthropic without key",
			env:     map[string]string{"MODEL_NAME": "claude", "ANTHROPIC_API_KEY": ""},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			env:     map[string]string{"LLM_PROVIDER": "carrier-pigeon", "MODEL_NAME": "m"},
			wantErr: true,
		},
		{
			name:    "ollama needs base url",
			env:     map[string]string{"LLM_PROVIDER": "ollama", "MODEL_NAME": "llama"},
			wantErr: true,
		},
		{
			name:    "bad duration",
			env:     map[string]string{"LLM_PROVIDER": "mock", "RETRY_MAX_INTERVAL": "soon"},
			wantErr: true,
		},
		{
			name: "mock needs nothing",
			env:  map[string]string{"LLM_PROVIDER": "mock"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

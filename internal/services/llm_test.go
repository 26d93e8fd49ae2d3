package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/config"
)

func TestNewCollaborator(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantType any
		wantErr  bool
	}{
		{name: "anthropic", provider: config.ProviderAnthropic, wantType: &AnthropicService{}},
		{name: "openai", provider: config.ProviderOpenAI, wantType: &OpenAIService{}},
		{name: "venice", provider: config.ProviderVenice, wantType: &OpenAIService{}},
		{name: "ollama", provider: config.ProviderOllama, wantType: &OpenAIService{}},
		{name: "mock", provider: config.ProviderMock, wantType: &MockLLMAPI{}},
		{name: "unknown", provider: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				LLMProvider:     tt.provider,
				AnthropicAPIKey: "a",
				OpenAIAPIKey:    "o",
				OpenAIBaseURL:   "http://localhost:11434/v1",
			}
			c, err := NewCollaborator(cfg, "model", nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, c)
		})
	}
}

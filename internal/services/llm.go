package services

import (
	"fmt"
	"log/slog"

	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/config"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
)

// Provider endpoints for the OpenAI-compatible APIs.
const (
	VeniceBaseURL = "https://api.venice.ai/api/v1"
)

// NewCollaborator builds the reasoning collaborator for the configured
// provider, talking to the given model.
func NewCollaborator(cfg *config.Config, model string, logger *slog.Logger) (chat.Collaborator, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		return NewAnthropicService(cfg.AnthropicAPIKey, model, logger), nil
	case config.ProviderOpenAI:
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, model, logger), nil
	case config.ProviderVenice:
		baseURL := cfg.OpenAIBaseURL
		if baseURL == "" {
			baseURL = VeniceBaseURL
		}
		return NewOpenAIService(cfg.OpenAIAPIKey, baseURL, model, logger), nil
	case config.ProviderOllama:
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, model, logger), nil
	case config.ProviderMock:
		return NewMockLLMAPI(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
)

const (
	DefaultOpenAITemperature = 0.7
	DefaultOpenAIMaxTokens   = 2048
)

// OpenAIService is a collaborator for any OpenAI-compatible chat completion
// endpoint. OpenAI, Venice and Ollama differ only in base URL and key.
type OpenAIService struct {
	client    *openai.Client
	modelName string
	logger    *slog.Logger
}

// NewOpenAIService builds a client for the endpoint. An empty baseURL uses
// the OpenAI default.
func NewOpenAIService(apiKey, baseURL, modelName string, logger *slog.Logger) *OpenAIService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIService{
		client:    openai.NewClientWithConfig(cfg),
		modelName: modelName,
		logger:    logger,
	}
}

func toOpenAIMessages(messages []chat.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case chat.ChatRoleSystem:
			role = openai.ChatMessageRoleSystem
		case chat.ChatRoleAgent:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// Complete runs one chat completion and returns the first choice.
func (s *OpenAIService) Complete(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.modelName,
		Messages:    toOpenAIMessages(messages),
		Temperature: DefaultOpenAITemperature,
		MaxTokens:   DefaultOpenAIMaxTokens,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response: no choices returned")
	}

	s.logger.Debug("openai completion",
		"model", s.modelName,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", string(resp.Choices[0].FinishReason))

	return resp.Choices[0].Message.Content, nil
}

package services

import (
	"context"
	"sync"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
)

// DefaultMockResponse is returned when nothing else is scripted.
const DefaultMockResponse = "Mock response"

// MockLLMAPI is a scriptable collaborator for testing
type MockLLMAPI struct {
	CompleteFunc func(ctx context.Context, messages []chat.ChatMessage) (string, error)

	// Responses are returned in order before falling back to CompleteFunc
	Responses []string

	// Track calls for testing
	CompleteCalls []CompleteCall

	mu sync.Mutex // protects all fields above
}

type CompleteCall struct {
	Messages []chat.ChatMessage
}

// NewMockLLMAPI creates a new mock collaborator
func NewMockLLMAPI(responses ...string) *MockLLMAPI {
	return &MockLLMAPI{
		Responses:     responses,
		CompleteCalls: make([]CompleteCall, 0),
	}
}

// Complete records the call and returns the next scripted response
func (m *MockLLMAPI) Complete(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	m.mu.Lock()
	m.CompleteCalls = append(m.CompleteCalls, CompleteCall{Messages: messages})
	if len(m.Responses) > 0 {
		next := m.Responses[0]
		m.Responses = m.Responses[1:]
		m.mu.Unlock()
		return next, nil
	}
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	return DefaultMockResponse, nil
}

// SetCompleteError sets up the mock to return an error on Complete
func (m *MockLLMAPI) SetCompleteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return "", err
	}
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls = make([]CompleteCall, 0)
	m.Responses = nil
}

// GetCalls returns a copy of the call tracking data in a thread-safe way
func (m *MockLLMAPI) GetCalls() []CompleteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]CompleteCall, len(m.CompleteCalls))
	copy(calls, m.CompleteCalls)
	return calls
}

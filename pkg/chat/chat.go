package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TurnRequest represents a player utterance submitted to the keeper engine.
type TurnRequest struct {
	GameStateID uuid.UUID `json:"gamestate_id"`
	Message     string    `json:"message"`
}

// TurnResponse is returned once a turn has been synthesized.
type TurnResponse struct {
	GameStateID uuid.UUID `json:"gamestate_id,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Message     string    `json:"message,omitempty"`
	Agents      []string  `json:"agents,omitempty"` // Agents that ran this turn, in order
}

const (
	ChatRoleUser   = "user"      // Player or caller context
	ChatRoleAgent  = "assistant" // Collaborator output
	ChatRoleSystem = "system"    // Instructions
)

// ChatMessage represents a single message sent to a reasoning collaborator.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Collaborator is an external reasoning service. It receives a context
// and returns text that is expected to contain one structured payload.
// Callers must tolerate prose, code fences and partial malformation.
type Collaborator interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// CollaboratorFunc adapts a function to the Collaborator interface.
type CollaboratorFunc func(ctx context.Context, messages []ChatMessage) (string, error)

func (f CollaboratorFunc) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	return f(ctx, messages)
}

func (tr *TurnRequest) Validate() error {
	if strings.TrimSpace(tr.Message) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	if tr.GameStateID == uuid.Nil {
		return fmt.Errorf("gamestate_id is required")
	}
	return nil
}

package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Request is one player utterance waiting for a worker.
type Request struct {
	RequestID   string    `json:"request_id"`
	GameStateID uuid.UUID `json:"game_state_id"`
	Message     string    `json:"message"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// NewRequest stamps a new request with a fresh id.
func NewRequest(gameStateID uuid.UUID, message string) *Request {
	return &Request{
		RequestID:   uuid.NewString(),
		GameStateID: gameStateID,
		Message:     message,
		EnqueuedAt:  time.Now().UTC(),
	}
}

// Validate rejects requests a worker could not process.
func (r *Request) Validate() error {
	if r.GameStateID == uuid.Nil {
		return fmt.Errorf("game_state_id is required")
	}
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

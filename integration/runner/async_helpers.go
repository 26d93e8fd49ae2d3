package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
)

const (
	// PollInterval is how often to check gamestate for updates
	PollInterval = 1 * time.Second
	// TurnTimeout is max time to wait for a queued turn to be applied
	TurnTimeout = 90 * time.Second
)

// QueuedTurnResponse is the response from the asynchronous turn endpoint
type QueuedTurnResponse struct {
	RequestID   string `json:"request_id"`
	GameStateID string `json:"gamestate_id"`
	Status      string `json:"status"`
}

func postTurn(ctx context.Context, client *http.Client, url string, gameStateID uuid.UUID, message string) (*http.Response, error) {
	reqBody, err := json.Marshal(chat.TurnRequest{GameStateID: gameStateID, Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal turn request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create turn request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send turn request: %w", err)
	}
	return resp, nil
}

// PostTurnAsync queues a turn and returns its request_id
func PostTurnAsync(ctx context.Context, client *http.Client, baseURL string, gameStateID uuid.UUID, message string) (string, error) {
	resp, err := postTurn(ctx, client, baseURL+"/v1/turn", gameStateID, message)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("turn endpoint returned %d (expected 202): %s", resp.StatusCode, string(body))
	}

	var queued QueuedTurnResponse
	if err := json.NewDecoder(resp.Body).Decode(&queued); err != nil {
		return "", fmt.Errorf("failed to parse turn response: %w", err)
	}
	return queued.RequestID, nil
}

// PostTurnSync runs a turn inside the API process and returns the narrative
func PostTurnSync(ctx context.Context, client *http.Client, baseURL string, gameStateID uuid.UUID, message string) (*chat.TurnResponse, error) {
	resp, err := postTurn(ctx, client, baseURL+"/v1/turn?sync=true", gameStateID, message)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("turn endpoint returned %d (expected 200): %s", resp.StatusCode, string(body))
	}

	var tr chat.TurnResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("failed to parse turn response: %w", err)
	}
	return &tr, nil
}

// GetGameState retrieves the current gamestate
func GetGameState(ctx context.Context, client *http.Client, baseURL string, gameStateID uuid.UUID) (*state.GameState, error) {
	url := fmt.Sprintf("%s/v1/gamestate/%s", baseURL, gameStateID.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gamestate request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send gamestate request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gamestate endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var gameState state.GameState
	if err := json.NewDecoder(resp.Body).Decode(&gameState); err != nil {
		return nil, fmt.Errorf("failed to decode gamestate: %w", err)
	}

	return &gameState, nil
}

// PollForTurnCompletion polls gamestate until a worker has saved a newer
// version than before. Returns the updated gamestate.
func PollForTurnCompletion(ctx context.Context, client *http.Client, baseURL string, before *state.GameState) (*state.GameState, error) {
	timeout := time.After(TurnTimeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, fmt.Errorf("timeout waiting for gamestate update (waited %v)", TurnTimeout)
		case <-ticker.C:
			gameState, err := GetGameState(ctx, client, baseURL, before.ID)
			if err != nil {
				// Keep polling; the API may be briefly unavailable
				continue
			}
			if gameState.UpdatedAt.After(before.UpdatedAt) {
				return gameState, nil
			}
		}
	}
}

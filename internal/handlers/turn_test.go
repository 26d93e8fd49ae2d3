package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/worker"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/queue"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/storage"
)

type fakeRunner struct {
	resp  *chat.TurnResponse
	err   error
	calls int
}

func (f *fakeRunner) ProcessTurn(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error) {
	f.calls++
	return f.resp, f.err
}

type fakeEnqueuer struct {
	queued []*queue.Request
	err    error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, req *queue.Request) error {
	if f.err != nil {
		return f.err
	}
	f.queued = append(f.queued, req)
	return nil
}

type fakeNotifier struct {
	requestIDs []string
}

func (f *fakeNotifier) PublishTurnQueued(ctx context.Context, gameID uuid.UUID, requestID string) error {
	f.requestIDs = append(f.requestIDs, requestID)
	return nil
}

func TestTurnHandler_Sync(t *testing.T) {
	id := uuid.New()
	body := fmt.Sprintf(`{"gamestate_id":%q,"message":"I read the Necronomicon"}`, id)

	tests := []struct {
		name         string
		runner       *fakeRunner
		expectedCode int
	}{
		{
			name:         "narrative returned",
			runner:       &fakeRunner{resp: &chat.TurnResponse{GameStateID: id, Message: "The words crawl.", Agents: []string{"action"}}},
			expectedCode: http.StatusOK,
		},
		{
			name:         "unknown game",
			runner:       &fakeRunner{err: fmt.Errorf("%w: %s", worker.ErrGameStateNotFound, id)},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "game locked by another turn",
			runner:       &fakeRunner{err: fmt.Errorf("%w: %s", worker.ErrGameLocked, id)},
			expectedCode: http.StatusConflict,
		},
		{
			name:         "processing error",
			runner:       &fakeRunner{err: errors.New("redis down")},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			NewTurnHandler(storage.NewMockStorage(), tt.runner, nil, nil).Register(mux)

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/turn?sync=true", strings.NewReader(body)))

			require.Equal(t, tt.expectedCode, w.Code, w.Body.String())
			assert.Equal(t, 1, tt.runner.calls)
			if tt.expectedCode == http.StatusOK {
				var resp chat.TurnResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, "The words crawl.", resp.Message)
				assert.Equal(t, []string{"action"}, resp.Agents)
			}
		})
	}
}

func TestTurnHandler_Queued(t *testing.T) {
	store := storage.NewMockStorage()
	gs := state.NewGameState()
	require.NoError(t, store.SaveGameState(context.Background(), gs.ID, gs))

	tests := []struct {
		name         string
		body         string
		enqueueErr   error
		expectedCode int
		wantQueued   int
	}{
		{
			name:         "accepted",
			body:         fmt.Sprintf(`{"gamestate_id":%q,"message":"I listen at the door"}`, gs.ID),
			expectedCode: http.StatusAccepted,
			wantQueued:   1,
		},
		{
			name:         "unknown game",
			body:         fmt.Sprintf(`{"gamestate_id":%q,"message":"hello"}`, uuid.New()),
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "enqueue failure",
			body:         fmt.Sprintf(`{"gamestate_id":%q,"message":"hello"}`, gs.ID),
			enqueueErr:   errors.New("queue full"),
			expectedCode: http.StatusInternalServerError,
		},
		{
			name:         "invalid json",
			body:         `{"message":`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "empty message",
			body:         fmt.Sprintf(`{"gamestate_id":%q,"message":"   "}`, gs.ID),
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "missing game id",
			body:         `{"message":"hello"}`,
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enq := &fakeEnqueuer{err: tt.enqueueErr}
			notifier := &fakeNotifier{}
			mux := http.NewServeMux()
			NewTurnHandler(store, nil, enq, nil).WithNotifier(notifier).Register(mux)

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/turn", strings.NewReader(tt.body)))

			require.Equal(t, tt.expectedCode, w.Code, w.Body.String())
			require.Len(t, enq.queued, tt.wantQueued)
			if tt.wantQueued == 0 {
				assert.Empty(t, notifier.requestIDs)
				return
			}

			var resp QueuedResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, "queued", resp.Status)
			assert.Equal(t, gs.ID, resp.GameStateID)
			assert.Equal(t, enq.queued[0].RequestID, resp.RequestID)
			assert.Equal(t, []string{resp.RequestID}, notifier.requestIDs)
		})
	}
}

func TestTurnHandler_ModesDisabled(t *testing.T) {
	id := uuid.New()
	body := fmt.Sprintf(`{"gamestate_id":%q,"message":"hello"}`, id)
	mux := http.NewServeMux()
	NewTurnHandler(storage.NewMockStorage(), nil, nil, nil).Register(mux)

	for _, path := range []string{"/v1/turn", "/v1/turn?sync=true"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		assert.Equal(t, http.StatusNotImplemented, w.Code, path)
	}
}

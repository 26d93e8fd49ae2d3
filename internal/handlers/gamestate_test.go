package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/clock"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/storage"
)

func testCatalog() *scenario.MemoryCatalog {
	return scenario.NewMemoryCatalog(
		scenario.Snapshot{ID: "library", Name: "Orne Library", Location: "Arkham", TimePoint: clock.New(1, 9, 30)},
		scenario.Snapshot{ID: "hill", Name: "Sentinel Hill", Location: "Dunwich", TimePoint: clock.New(1, 22, 0)},
	)
}

type fakeArchive struct {
	results []state.ActionResult
	err     error
	limit   int
}

func (f *fakeArchive) List(ctx context.Context, id uuid.UUID, limit int) ([]state.ActionResult, error) {
	f.limit = limit
	return f.results, f.err
}

func newGameStateMux(store storage.Storage, archive ActionLister) *http.ServeMux {
	h := NewGameStateHandler(store, testCatalog(), nil)
	if archive != nil {
		h = h.WithArchive(archive)
	}
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func TestGameStateHandler_Create(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedCode int
		wantScenario string
		wantError    string
	}{
		{
			name:         "by scenario id",
			body:         `{"scenario":"library","player":{"name":"Harvey Walters"}}`,
			expectedCode: http.StatusCreated,
			wantScenario: "library",
		},
		{
			name:         "by scenario name, case folded",
			body:         `{"scenario":"sentinel  HILL","player":{"name":"Harvey Walters"}}`,
			expectedCode: http.StatusCreated,
			wantScenario: "hill",
		},
		{
			name:         "invalid json",
			body:         `{"scenario":`,
			expectedCode: http.StatusBadRequest,
			wantError:    "Invalid JSON in request body",
		},
		{
			name:         "missing scenario",
			body:         `{"player":{"name":"Harvey Walters"}}`,
			expectedCode: http.StatusBadRequest,
			wantError:    "scenario field is required",
		},
		{
			name:         "missing player",
			body:         `{"scenario":"library"}`,
			expectedCode: http.StatusBadRequest,
			wantError:    "player.name is required",
		},
		{
			name:         "unknown scenario",
			body:         `{"scenario":"R'lyeh","player":{"name":"Harvey Walters"}}`,
			expectedCode: http.StatusBadRequest,
			wantError:    "Unknown scenario: R'lyeh",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMockStorage()
			mux := newGameStateMux(store, nil)

			req := httptest.NewRequest(http.MethodPost, "/v1/gamestate", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			require.Equal(t, tt.expectedCode, w.Code, w.Body.String())
			if tt.wantError != "" {
				var resp ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, tt.wantError, resp.Error)
				assert.Equal(t, 0, store.SaveCount())
				return
			}

			var gs state.GameState
			require.NoError(t, json.NewDecoder(w.Body).Decode(&gs))
			require.NotNil(t, gs.CurrentScenario)
			assert.Equal(t, tt.wantScenario, gs.CurrentScenario.ID)
			assert.Equal(t, "player", gs.Player.ID)
			assert.Equal(t, "Harvey Walters", gs.Player.Name)

			saved, err := store.LoadGameState(context.Background(), gs.ID)
			require.NoError(t, err)
			require.NotNil(t, saved)
			assert.False(t, saved.Clock.Before(gs.CurrentScenario.TimePoint), "clock starts at the scenario time")
		})
	}
}

func TestGameStateHandler_ReadAndDelete(t *testing.T) {
	store := storage.NewMockStorage()
	gs := state.NewGameState()
	require.NoError(t, store.SaveGameState(context.Background(), gs.ID, gs))
	mux := newGameStateMux(store, nil)

	tests := []struct {
		name         string
		method       string
		path         string
		expectedCode int
	}{
		{name: "read existing", method: http.MethodGet, path: "/v1/gamestate/" + gs.ID.String(), expectedCode: http.StatusOK},
		{name: "read unknown", method: http.MethodGet, path: "/v1/gamestate/" + uuid.NewString(), expectedCode: http.StatusNotFound},
		{name: "read bad id", method: http.MethodGet, path: "/v1/gamestate/not-a-uuid", expectedCode: http.StatusBadRequest},
		{name: "delete unknown", method: http.MethodDelete, path: "/v1/gamestate/" + uuid.NewString(), expectedCode: http.StatusNotFound},
		{name: "delete existing", method: http.MethodDelete, path: "/v1/gamestate/" + gs.ID.String(), expectedCode: http.StatusNoContent},
		{name: "read after delete", method: http.MethodGet, path: "/v1/gamestate/" + gs.ID.String(), expectedCode: http.StatusNotFound},
		{name: "method not allowed", method: http.MethodPut, path: "/v1/gamestate/" + gs.ID.String(), expectedCode: http.StatusMethodNotAllowed},
	}

	// Subtests run in order; later cases depend on earlier deletes.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedCode, w.Code, w.Body.String())
		})
	}
}

func TestGameStateHandler_Actions(t *testing.T) {
	id := uuid.New()
	archived := []state.ActionResult{
		{Character: "Harvey Walters", Result: "The lock gives way."},
		{Character: "Henry Armitage", Result: "Armitage frowns."},
	}

	t.Run("archive disabled", func(t *testing.T) {
		mux := newGameStateMux(storage.NewMockStorage(), nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/gamestate/"+id.String()+"/actions", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("lists with limit", func(t *testing.T) {
		archive := &fakeArchive{results: archived}
		mux := newGameStateMux(storage.NewMockStorage(), archive)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/gamestate/"+id.String()+"/actions?limit=2", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var got []state.ActionResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Len(t, got, 2)
		assert.Equal(t, 2, archive.limit)
	})

	t.Run("default limit and empty list", func(t *testing.T) {
		archive := &fakeArchive{}
		mux := newGameStateMux(storage.NewMockStorage(), archive)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/gamestate/"+id.String()+"/actions", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
		assert.Equal(t, DefaultActionsLimit, archive.limit)
	})

	t.Run("bad limit", func(t *testing.T) {
		mux := newGameStateMux(storage.NewMockStorage(), &fakeArchive{})
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/gamestate/"+id.String()+"/actions?limit=zero", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("archive error", func(t *testing.T) {
		mux := newGameStateMux(storage.NewMockStorage(), &fakeArchive{err: errors.New("locked")})
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/gamestate/"+id.String()+"/actions", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

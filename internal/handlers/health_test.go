package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/storage"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		setupStorage   func() *storage.MockStorage
		archiveErr     error
		expectedStatus int
		expectedHealth string
		expectedComps  map[string]string
	}{
		{
			name:           "all healthy",
			setupStorage:   storage.NewMockStorage,
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedComps:  map[string]string{"storage": "healthy", "archive": "healthy"},
		},
		{
			name: "unhealthy storage",
			setupStorage: func() *storage.MockStorage {
				s := storage.NewMockStorage()
				s.SetPingError(errors.New("connection failed"))
				return s
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedComps:  map[string]string{"storage": "unhealthy", "archive": "healthy"},
		},
		{
			name:           "unhealthy archive",
			setupStorage:   storage.NewMockStorage,
			archiveErr:     errors.New("database is locked"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedComps:  map[string]string{"storage": "healthy", "archive": "unhealthy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(map[string]Pinger{
				"storage": tt.setupStorage(),
				"archive": pingFunc(func(ctx context.Context) error { return tt.archiveErr }),
			}, nil)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp HealthResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.expectedHealth, resp.Status)
			assert.Equal(t, "keeper", resp.Service)
			assert.Equal(t, tt.expectedComps, resp.Components)
			assert.False(t, resp.Timestamp.IsZero())
		})
	}
}

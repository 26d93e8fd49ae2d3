package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/worker"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/queue"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/storage"
)

// TurnRunner processes a turn inline.
type TurnRunner interface {
	ProcessTurn(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error)
}

// TurnEnqueuer hands a turn to the workers.
type TurnEnqueuer interface {
	Enqueue(ctx context.Context, req *queue.Request) error
}

// QueuedNotifier announces accepted turns.
type QueuedNotifier interface {
	PublishTurnQueued(ctx context.Context, gameID uuid.UUID, requestID string) error
}

// TurnHandler accepts player utterances.
type TurnHandler struct {
	storage  storage.Storage
	runner   TurnRunner
	enqueuer TurnEnqueuer
	notifier QueuedNotifier
	logger   *slog.Logger
}

func NewTurnHandler(store storage.Storage, runner TurnRunner, enqueuer TurnEnqueuer, logger *slog.Logger) *TurnHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TurnHandler{
		storage:  store,
		runner:   runner,
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// WithNotifier publishes a turn.queued event for every accepted request.
// Returns the TurnHandler for method chaining.
func (h *TurnHandler) WithNotifier(n QueuedNotifier) *TurnHandler {
	h.notifier = n
	return h
}

// Register adds POST /v1/turn to mux. With ?sync=true the turn is processed
// inline and the narrative returned; otherwise it is queued (202).
func (h *TurnHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/turn", h.ServeHTTP)
}

// QueuedResponse is returned for an accepted asynchronous turn.
type QueuedResponse struct {
	RequestID   string    `json:"request_id"`
	GameStateID uuid.UUID `json:"gamestate_id"`
	Status      string    `json:"status"`
}

func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'gamestate_id' and 'message' fields.")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("sync") == "true" {
		h.processSync(w, r, req)
		return
	}
	h.enqueue(w, r, req)
}

func (h *TurnHandler) processSync(w http.ResponseWriter, r *http.Request, req chat.TurnRequest) {
	if h.runner == nil {
		writeError(w, h.logger, http.StatusNotImplemented, "Synchronous turns are not enabled")
		return
	}
	resp, err := h.runner.ProcessTurn(r.Context(), req)
	if err != nil {
		if errors.Is(err, worker.ErrGameStateNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Game state not found")
			return
		}
		if errors.Is(err, worker.ErrGameLocked) {
			writeError(w, h.logger, http.StatusConflict, "Another turn is in progress for this game. Please retry.")
			return
		}
		h.logger.Error("Failed to process turn", "error", err, "game_state_id", req.GameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to process turn. Please try again.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *TurnHandler) enqueue(w http.ResponseWriter, r *http.Request, req chat.TurnRequest) {
	if h.enqueuer == nil {
		writeError(w, h.logger, http.StatusNotImplemented, "Queued turns are not enabled")
		return
	}

	gs, err := h.storage.LoadGameState(r.Context(), req.GameStateID)
	if err != nil {
		h.logger.Error("Failed to load game state", "error", err, "game_state_id", req.GameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game state")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Game state not found")
		return
	}

	qr := queue.NewRequest(req.GameStateID, req.Message)
	if err := h.enqueuer.Enqueue(r.Context(), qr); err != nil {
		h.logger.Error("Failed to enqueue turn", "error", err, "game_state_id", req.GameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to queue turn")
		return
	}
	if h.notifier != nil {
		if err := h.notifier.PublishTurnQueued(r.Context(), qr.GameStateID, qr.RequestID); err != nil {
			h.logger.Warn("Failed to publish queued event", "error", err)
		}
	}

	h.logger.Info("Turn queued",
		"request_id", qr.RequestID,
		"game_state_id", qr.GameStateID.String())
	writeJSON(w, h.logger, http.StatusAccepted, QueuedResponse{
		RequestID:   qr.RequestID,
		GameStateID: qr.GameStateID,
		Status:      "queued",
	})
}

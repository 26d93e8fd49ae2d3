package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/actor"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/storage"
)

// DefaultActionsLimit is the page size for archived action results.
const DefaultActionsLimit = 50

type ErrorResponse struct {
	Error string `json:"error"`
}

// ActionLister reads archived action results for a session.
type ActionLister interface {
	List(ctx context.Context, gameStateID uuid.UUID, limit int) ([]state.ActionResult, error)
}

type GameStateHandler struct {
	storage storage.Storage
	catalog scenario.Catalog
	archive ActionLister
	logger  *slog.Logger
}

func NewGameStateHandler(store storage.Storage, catalog scenario.Catalog, logger *slog.Logger) *GameStateHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GameStateHandler{
		storage: store,
		catalog: catalog,
		logger:  logger,
	}
}

// WithArchive enables the archived actions endpoint.
// Returns the GameStateHandler for method chaining.
func (h *GameStateHandler) WithArchive(archive ActionLister) *GameStateHandler {
	h.archive = archive
	return h
}

// Register adds the game state routes to mux:
// POST /v1/gamestate                 - Create new game state
// GET /v1/gamestate/{id}             - Read game state by ID
// DELETE /v1/gamestate/{id}          - Delete game state by ID
// GET /v1/gamestate/{id}/actions     - Archived action results
func (h *GameStateHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/gamestate", h.handleCreate)
	mux.HandleFunc("GET /v1/gamestate/{id}", h.handleRead)
	mux.HandleFunc("DELETE /v1/gamestate/{id}", h.handleDelete)
	mux.HandleFunc("GET /v1/gamestate/{id}/actions", h.handleActions)
}

// CreateGameStateRequest defines the request body for creating a new game state
type CreateGameStateRequest struct {
	Scenario string                 `json:"scenario"` // Required: snapshot id or name
	Player   actor.CharacterProfile `json:"player"`   // Required: the investigator
	NPCs     []actor.NPCProfile     `json:"npcs,omitempty"`
}

func (h *GameStateHandler) lookup(name string) (*scenario.Snapshot, bool) {
	if snap, ok := h.catalog.Get(name); ok {
		return snap, true
	}
	return h.catalog.Lookup(name)
}

func (h *GameStateHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new game state")

	var req CreateGameStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	req.Scenario = strings.TrimSpace(req.Scenario)
	if req.Scenario == "" {
		writeError(w, h.logger, http.StatusBadRequest, "scenario field is required")
		return
	}
	if strings.TrimSpace(req.Player.Name) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "player.name is required")
		return
	}

	snap, ok := h.lookup(req.Scenario)
	if !ok {
		h.logger.Warn("Unknown scenario requested", "scenario", req.Scenario)
		writeError(w, h.logger, http.StatusBadRequest, "Unknown scenario: "+req.Scenario)
		return
	}

	gs := state.NewGameState()
	gs.Player = req.Player
	if gs.Player.ID == "" {
		gs.Player.ID = "player"
	}
	gs.NPCs = req.NPCs
	state.NewManager(gs, h.logger).UpdateScenario(snap)

	if err := h.storage.SaveGameState(r.Context(), gs.ID, gs); err != nil {
		h.logger.Error("Failed to save game state", "error", err, "game_state_id", gs.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save game state")
		return
	}

	h.logger.Info("Game state created",
		"game_state_id", gs.ID.String(),
		"scenario_id", snap.ID)
	writeJSON(w, h.logger, http.StatusCreated, gs)
}

func (h *GameStateHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid game state ID", "id", idStr, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game state ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *GameStateHandler) load(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*state.GameState, bool) {
	gs, err := h.storage.LoadGameState(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load game state", "error", err, "game_state_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game state")
		return nil, false
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Game state not found")
		return nil, false
	}
	return gs, true
}

func (h *GameStateHandler) handleRead(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	gs, ok := h.load(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, gs)
}

func (h *GameStateHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if _, ok := h.load(w, r, id); !ok {
		return
	}
	if err := h.storage.DeleteGameState(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete game state", "error", err, "game_state_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete game state")
		return
	}
	h.logger.Info("Game state deleted", "game_state_id", id.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameStateHandler) handleActions(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, h.logger, http.StatusNotFound, "Action archive is not enabled")
		return
	}
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	limit := DefaultActionsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, h.logger, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	results, err := h.archive.List(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("Failed to list archived actions", "error", err, "game_state_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list actions")
		return
	}
	if results == nil {
		results = []state.ActionResult{}
	}
	writeJSON(w, h.logger, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

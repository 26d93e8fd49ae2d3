package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/storage"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/turn"
)

var (
	// ErrGameStateNotFound is returned when a turn names an unknown session.
	ErrGameStateNotFound = errors.New("game state not found")
	// ErrGameLocked is returned when another turn holds the session.
	ErrGameLocked = errors.New("game state is locked by another turn")
)

// Locker serializes turns per session.
type Locker interface {
	Acquire(ctx context.Context, gameStateID uuid.UUID) (bool, error)
	Release(ctx context.Context, gameStateID uuid.UUID) error
}

// TurnTimeout bounds one turn, collaborator retries included.
const TurnTimeout = 2 * time.Minute

// TurnProcessor loads a session, runs one turn through the keeper and saves
// the result. It is used by both the HTTP handler (synchronously) and the
// worker (asynchronously).
type TurnProcessor struct {
	storage storage.Storage
	keeper  *turn.Coordinator
	lock    Locker
	logger  *slog.Logger
}

// NewTurnProcessor creates a new turn processor
func NewTurnProcessor(store storage.Storage, keeper *turn.Coordinator, logger *slog.Logger) *TurnProcessor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TurnProcessor{
		storage: store,
		keeper:  keeper,
		logger:  logger,
	}
}

// WithLock makes ProcessTurn hold lock from load to save.
// Returns the TurnProcessor for method chaining.
func (p *TurnProcessor) WithLock(lock Locker) *TurnProcessor {
	p.lock = lock
	return p
}

// ProcessTurn runs the player's utterance against the stored session. With
// a lock configured it fails fast with ErrGameLocked while another turn for
// the same session is in flight.
func (p *TurnProcessor) ProcessTurn(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if p.lock == nil {
		return p.process(ctx, req)
	}

	locked, err := p.lock.Acquire(ctx, req.GameStateID)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrGameLocked, req.GameStateID.String())
	}
	defer func() {
		if err := p.lock.Release(context.Background(), req.GameStateID); err != nil {
			p.logger.Error("Failed to release game lock", "error", err, "game_state_id", req.GameStateID.String())
		}
	}()
	return p.process(ctx, req)
}

// process runs one turn; the caller holds the session lock.
func (p *TurnProcessor) process(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error) {
	gs, err := p.storage.LoadGameState(ctx, req.GameStateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game state: %w", err)
	}
	if gs == nil {
		return nil, fmt.Errorf("%w: %s", ErrGameStateNotFound, req.GameStateID.String())
	}

	turnCtx, cancel := context.WithTimeout(ctx, TurnTimeout)
	defer cancel()

	start := time.Now()
	res, err := p.keeper.ProcessTurn(turnCtx, req.Message, gs)
	if err != nil {
		return nil, fmt.Errorf("turn failed: %w", err)
	}

	// Save with the caller's context so a slow turn still persists.
	if err := p.storage.SaveGameState(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save game state: %w", err)
	}

	p.logger.Info("Turn processed",
		"game_state_id", gs.ID.String(),
		"agents", res.Queue.Agents,
		"narration_failed", res.Failure != nil,
		"duration_ms", time.Since(start).Milliseconds())

	return &chat.TurnResponse{
		GameStateID: gs.ID,
		Message:     res.Narrative,
		Agents:      res.Queue.Agents,
	}, nil
}

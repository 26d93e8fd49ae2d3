package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/services/events"
	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/services/queue"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
	queuePkg "github.com/Ocisly14/CoC-AI-agent-sub002/pkg/queue"
)

const (
	workerTimeout = 5 * time.Second
)

// Worker processes turn requests from the queue
type Worker struct {
	id          string
	queue       *queue.TurnQueue
	processor   *TurnProcessor
	broadcaster *events.Broadcaster
	lock        Locker
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new worker instance
func New(turnQueue *queue.TurnQueue, processor *TurnProcessor, broadcaster *events.Broadcaster, lock Locker, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Worker{
		id:          workerID,
		queue:       turnQueue,
		processor:   processor,
		broadcaster: broadcaster,
		lock:        lock,
		log:         log.With("worker_id", workerID),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ID returns the worker's lock owner id.
func (w *Worker) ID() string { return w.id }

// Start begins processing requests from the queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting")

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down")
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err)
				// Continue processing even on error
				select {
				case <-w.ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested")
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
func (w *Worker) processNextRequest() error {
	// Block waiting for next request, waking up to check for shutdown
	req, err := w.queue.BlockingDequeue(w.ctx, workerTimeout)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("failed to dequeue request: %w", err)
	}
	if req == nil {
		// Timeout with an empty queue is normal
		return nil
	}

	w.log.Info("Received request from queue",
		"request_id", req.RequestID,
		"game_state_id", req.GameStateID.String(),
	)

	locked, err := w.lock.Acquire(w.ctx, req.GameStateID)
	if err != nil {
		// The request is already off the queue; put it back before failing.
		if qErr := w.queue.Enqueue(context.Background(), req); qErr != nil {
			w.log.Error("Failed to re-queue request after lock error",
				"error", qErr,
				"request_id", req.RequestID,
				"game_state_id", req.GameStateID.String(),
			)
		}
		return err
	}
	if !locked {
		// Another worker is processing this game; re-queue at the end
		w.log.Info("Game already locked, re-queueing request",
			"request_id", req.RequestID,
			"game_state_id", req.GameStateID.String(),
		)
		if err := w.queue.Enqueue(w.ctx, req); err != nil {
			return fmt.Errorf("failed to re-queue request: %w", err)
		}
		return nil
	}

	defer func() {
		if err := w.lock.Release(context.Background(), req.GameStateID); err != nil {
			w.log.Error("Failed to release game lock", "error", err, "game_state_id", req.GameStateID.String())
		}
	}()
	return w.processRequest(req)
}

// processRequest runs one turn and publishes its lifecycle events
func (w *Worker) processRequest(req *queuePkg.Request) error {
	if err := w.broadcaster.PublishTurnProcessing(w.ctx, req.GameStateID, req.RequestID, req.Message); err != nil {
		// Don't fail the request just because event publishing failed
		w.log.Error("Failed to publish processing event", "error", err)
	}

	turnReq := chat.TurnRequest{GameStateID: req.GameStateID, Message: req.Message}
	var resp *chat.TurnResponse
	err := turnReq.Validate()
	if err == nil {
		// The worker already holds the game lock.
		resp, err = w.processor.process(w.ctx, turnReq)
	}
	if err != nil {
		w.log.Error("Failed to process turn",
			"error", err,
			"request_id", req.RequestID,
			"game_state_id", req.GameStateID.String(),
		)
		if pubErr := w.broadcaster.PublishTurnFailed(w.ctx, req.GameStateID, req.RequestID, err.Error()); pubErr != nil {
			w.log.Error("Failed to publish failure event", "error", pubErr)
		}
		return fmt.Errorf("failed to process turn: %w", err)
	}

	if err := w.broadcaster.PublishTurnCompleted(w.ctx, req.GameStateID, req.RequestID, resp.Message, resp.Agents); err != nil {
		w.log.Error("Failed to publish completion event", "error", err)
	}
	return nil
}

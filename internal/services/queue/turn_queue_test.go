package queue

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/queue"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	// Start miniredis
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	// Create queue client
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	redisURL := "redis://" + mr.Addr()

	client, err := NewClient(redisURL, logger)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create queue client: %v", err)
	}

	return client, mr
}

func TestTurnQueue_FIFO(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewTurnQueue(client)
	ctx := context.Background()
	gameA, gameB := uuid.New(), uuid.New()

	messages := []*queue.Request{
		queue.NewRequest(gameA, "I open the door"),
		queue.NewRequest(gameB, "I read the letter"),
		queue.NewRequest(gameA, "I step inside"),
	}
	for _, req := range messages {
		if err := q.Enqueue(ctx, req); err != nil {
			t.Fatalf("Failed to enqueue: %v", err)
		}
	}

	depth, err := q.Depth(ctx)
	if err != nil {
		t.Fatalf("Failed to get depth: %v", err)
	}
	if depth != 3 {
		t.Errorf("Expected depth 3, got %d", depth)
	}

	for i, want := range messages {
		got, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Failed to dequeue: %v", err)
		}
		if got == nil || got.RequestID != want.RequestID {
			t.Fatalf("Request %d: expected %s, got %+v", i, want.RequestID, got)
		}
		if got.GameStateID != want.GameStateID || got.Message != want.Message {
			t.Errorf("Request %d: payload mismatch %+v", i, got)
		}
	}

	empty, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue on empty queue failed: %v", err)
	}
	if empty != nil {
		t.Errorf("Expected nil on empty queue, got %+v", empty)
	}
}

func TestTurnQueue_RejectsInvalid(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewTurnQueue(client)
	if err := q.Enqueue(context.Background(), &queue.Request{Message: "no game"}); err == nil {
		t.Error("Expected error for missing game id")
	}
	if mr.Exists(TurnRequestsKey) {
		t.Error("Invalid request should not reach Redis")
	}
}

func TestTurnQueue_BlockingDequeue(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewTurnQueue(client)
	ctx := context.Background()

	req := queue.NewRequest(uuid.New(), "I light a lantern")
	if err := q.Enqueue(ctx, req); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	got, err := q.BlockingDequeue(ctx, time.Second)
	if err != nil {
		t.Fatalf("BlockingDequeue failed: %v", err)
	}
	if got == nil || got.RequestID != req.RequestID {
		t.Errorf("Expected %s, got %+v", req.RequestID, got)
	}
}

func TestTurnQueue_CorruptEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	if _, err := mr.Lpush(TurnRequestsKey, "{not json"); err != nil {
		t.Fatalf("Failed to seed list: %v", err)
	}
	q := NewTurnQueue(client)
	if _, err := q.Dequeue(context.Background()); err == nil {
		t.Error("Expected parse error for corrupt entry")
	}
}

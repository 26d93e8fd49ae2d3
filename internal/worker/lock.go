package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLockTTL outlives one turn so a crashed worker frees the game.
const DefaultLockTTL = TurnTimeout + 30*time.Second

// releaseScript deletes the lock only if we still own it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// GameLock serializes turns per game across workers.
type GameLock struct {
	rdb   *redis.Client
	owner string
	ttl   time.Duration
}

func NewGameLock(rdb *redis.Client, owner string, ttl time.Duration) *GameLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &GameLock{rdb: rdb, owner: owner, ttl: ttl}
}

func lockKey(gameStateID uuid.UUID) string {
	return fmt.Sprintf("game-lock:%s", gameStateID.String())
}

// Acquire returns true if the lock was taken, false if another owner holds it.
func (l *GameLock) Acquire(ctx context.Context, gameStateID uuid.UUID) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, lockKey(gameStateID), l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire game lock: %w", err)
	}
	return ok, nil
}

// Release drops the lock if this owner holds it.
func (l *GameLock) Release(ctx context.Context, gameStateID uuid.UUID) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{lockKey(gameStateID)}, l.owner).Err(); err != nil {
		return fmt.Errorf("failed to release game lock: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"helpbot/internal/domain/game"
)

// RedisRegistry arbitrates the per-user session slot through Redis SETNX so
// multiple bot processes cannot start two games for the same user. Live game
// state stays process-local (it holds timers and in-memory boards); Redis
// only owns the slot claim, with a TTL safety net slightly above the game
// timeout so a crashed process cannot leak a slot forever.
type RedisRegistry struct {
	client  *redis.Client
	slotTTL time.Duration

	mu    sync.Mutex
	local map[string]*game.Session
}

func NewRedisRegistry(client *redis.Client, slotTTL time.Duration) *RedisRegistry {
	return &RedisRegistry{
		client:  client,
		slotTTL: slotTTL,
		local:   make(map[string]*game.Session),
	}
}

func slotKey(userID string) string {
	return fmt.Sprintf("game:session:%s", userID)
}

func (r *RedisRegistry) PutIfAbsent(ctx context.Context, s *game.Session) (bool, error) {
	claimed, err := r.client.SetNX(ctx, slotKey(s.UserID()), s.ID(), r.slotTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim session slot: %w", err)
	}
	if !claimed {
		return false, nil
	}

	r.mu.Lock()
	r.local[s.UserID()] = s
	r.mu.Unlock()

	return true, nil
}

func (r *RedisRegistry) Get(ctx context.Context, userID string) (*game.Session, error) {
	r.mu.Lock()
	s := r.local[userID]
	r.mu.Unlock()
	return s, nil
}

func (r *RedisRegistry) Remove(ctx context.Context, userID string) (bool, error) {
	r.mu.Lock()
	_, existed := r.local[userID]
	delete(r.local, userID)
	r.mu.Unlock()

	deleted, err := r.client.Del(ctx, slotKey(userID)).Result()
	if err != nil {
		return existed, fmt.Errorf("failed to release session slot: %w", err)
	}

	return existed || deleted > 0, nil
}

func (r *RedisRegistry) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.local), nil
}

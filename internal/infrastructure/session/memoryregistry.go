// Package session provides Registry implementations for the per-user game
// session table. The engine only depends on the atomic insert-if-absent /
// remove-if-present contract, so the backing store can change without
// touching game logic.
package session

import (
	"context"
	"sync"

	"helpbot/internal/domain/game"
)

// MemoryRegistry is the in-process session table: a mutex-guarded map keyed
// by platform user ID.
type MemoryRegistry struct {
	mu       sync.Mutex
	sessions map[string]*game.Session
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		sessions: make(map[string]*game.Session),
	}
}

func (r *MemoryRegistry) PutIfAbsent(ctx context.Context, s *game.Session) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.UserID()]; exists {
		return false, nil
	}
	r.sessions[s.UserID()] = s
	return true, nil
}

func (r *MemoryRegistry) Get(ctx context.Context, userID string) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sessions[userID], nil
}

func (r *MemoryRegistry) Remove(ctx context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[userID]; !exists {
		return false, nil
	}
	delete(r.sessions, userID)
	return true, nil
}

func (r *MemoryRegistry) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions), nil
}

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/izakgestao/backend/internal/domain/shared"
)

const cleanupInterval = 5 * time.Minute

// MemoryIdempotencyStore keeps processed webhook event keys in a map with
// per-key expiry. Good enough for the single-instance deployments this
// system targets; a multi-instance setup needs the Redis store instead.
type MemoryIdempotencyStore struct {
	mu        sync.RWMutex
	seen      map[string]time.Time // Key -> expiry instant
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryIdempotencyStore creates an in-memory store and starts its
// expiry sweeper
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	s := &MemoryIdempotencyStore{
		seen: make(map[string]time.Time),
		stop: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweep()
	return s
}

// MarkProcessed records the event key, returning false when it was already
// recorded and has not expired
func (s *MemoryIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.seen[eventID]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	s.seen[eventID] = time.Now().Add(ttl)
	return true, nil
}

// IsProcessed reports whether the event key is recorded and unexpired
func (s *MemoryIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, ok := s.seen[eventID]
	return ok && time.Now().Before(expiry), nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *MemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of recorded keys, expired ones included
func (s *MemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

func (s *MemoryIdempotencyStore) sweep() {
	defer s.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := time.Now()
			for key, expiry := range s.seen {
				if now.After(expiry) {
					delete(s.seen, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Ensure MemoryIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*MemoryIdempotencyStore)(nil)

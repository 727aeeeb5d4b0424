package cache

import (
	"context"
	"sync"
	"time"

	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
)

const janitorInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps processed close tokens in a process-local
// map. Fine for a single instance or tests; a multi-instance deployment needs
// the Redis store so retries land on shared state.
type InMemoryIdempotencyStore struct {
	mu     sync.RWMutex
	expiry map[string]time.Time

	done      chan struct{}
	janitor   sync.WaitGroup
	closeOnce sync.Once
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

// NewInMemoryIdempotencyStore builds a store and starts a janitor goroutine
// that evicts expired tokens. Close stops the janitor.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		expiry: make(map[string]time.Time),
		done:   make(chan struct{}),
	}
	s.janitor.Add(1)
	go s.runJanitor()
	return s
}

// MarkProcessed records the key for the given TTL. It returns false when a
// live entry already held the key, which is how a retried close is detected.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if deadline, ok := s.expiry[key]; ok && now.Before(deadline) {
		return false, nil
	}
	s.expiry[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether the key holds a live entry.
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deadline, ok := s.expiry[key]
	return ok && time.Now().Before(deadline), nil
}

// Size reports the entry count, expired entries included until the janitor
// next runs.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expiry)
}

// Close stops the janitor. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.janitor.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) runJanitor() {
	defer s.janitor.Done()

	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, deadline := range s.expiry {
		if now.After(deadline) {
			delete(s.expiry, key)
		}
	}
}

package cooldown

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps windows in process memory. Expired entries are dropped
// lazily on the next Mark for the same key.
type MemoryStore struct {
	mu      sync.Mutex
	marks   map[string]time.Time // window start per key
	windows map[string]time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory cooldown store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		marks:   make(map[string]time.Time),
		windows: make(map[string]time.Duration),
		now:     time.Now,
	}
}

// Mark implements [Store].
func (s *MemoryStore) Mark(_ context.Context, key string, window time.Duration) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if started, ok := s.marks[key]; ok {
		deadline := started.Add(s.windows[key])
		if now.Before(deadline) {
			return deadline.Sub(now), nil
		}
	}

	s.marks[key] = now
	s.windows[key] = window
	return 0, nil
}

// Clear implements [Store].
func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.marks, key)
	delete(s.windows, key)
	s.mu.Unlock()
	return nil
}

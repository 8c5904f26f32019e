package snapshot

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps snapshots in process memory. Records do not survive a
// restart; it exists for tests and for callers that explicitly opt out of
// durability.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]byte),
	}
}

// Load implements [Store].
func (s *MemoryStore) Load(_ context.Context, key string) (*Snapshot, error) {
	s.mu.Lock()
	data, ok := s.records[key]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Save implements [Store]. The snapshot is serialized at save time so later
// mutation of the caller's value cannot leak into the stored record.
func (s *MemoryStore) Save(_ context.Context, key string, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.records[key] = data
	s.mu.Unlock()
	return nil
}

// Clear implements [Store].
func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

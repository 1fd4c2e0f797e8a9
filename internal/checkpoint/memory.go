package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps checkpoints in process memory. It does not survive a
// restart and is meant for one-shot runs and tests. Checkpoints are stored
// encoded so callers never share state with the store.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, key string) (*Checkpoint, error) {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint %q: %w", key, err)
	}
	return &cp, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, cp *Checkpoint) error {
	if err := validate(cp); err != nil {
		return err
	}
	raw, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint %q: %w", cp.Key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[cp.Key] = raw
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

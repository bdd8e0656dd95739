package store

import (
	"context"
	"sync"
)

// MemoryStore is a minimal in-memory Store implementation intended for tests
// and examples. It uses Owner.Identifier() as its deterministic key.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]map[string]string{}}
}

func (s *MemoryStore) Get(ctx context.Context, owner Owner, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	id, err := owner.Identifier()
	if err != nil {
		return "", false, err
	}

	s.mu.RLock()
	raw, ok := s.records[id][key]
	s.mu.RUnlock()
	return raw, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, owner Owner, key, raw string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := owner.Identifier()
	if err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	values, ok := s.records[id]
	if !ok {
		values = map[string]string{}
		s.records[id] = values
	}
	values[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) All(ctx context.Context, owner Owner) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := owner.Identifier()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.records[id]))
	for key, raw := range s.records[id] {
		out[key] = raw
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, owner Owner, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := owner.Identifier()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if values, ok := s.records[id]; ok {
		delete(values, key)
		if len(values) == 0 {
			delete(s.records, id)
		}
	}
	s.mu.Unlock()
	return nil
}

// Package cached wraps a store.Store with a read-through, per-owner cache
// backed by patrickmn/go-cache.
package cached

import (
	"context"
	"maps"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/goliatone/go-settings/pkg/store"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// Store caches every owner's values as one snapshot loaded with All. Writes go
// to the backend first and then drop the owner's snapshot.
type Store struct {
	backend store.Store
	cache   *gocache.Cache
	hits    atomic.Int64
	misses  atomic.Int64
}

var _ store.Store = (*Store)(nil)

// New wraps backend. A ttl of zero or less keeps snapshots until the owner is
// written.
func New(backend store.Store, ttl time.Duration) *Store {
	expiration, cleanup := ttl, DefaultCleanupInterval
	if ttl <= 0 {
		expiration, cleanup = gocache.NoExpiration, 0
	}
	return &Store{
		backend: backend,
		cache:   gocache.New(expiration, cleanup),
	}
}

func (s *Store) snapshot(ctx context.Context, owner store.Owner) (map[string]string, error) {
	id, err := owner.Identifier()
	if err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(id); ok {
		if values, ok := cached.(map[string]string); ok {
			s.hits.Add(1)
			return values, nil
		}
	}
	s.misses.Add(1)
	values, err := s.backend.All(ctx, owner)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = map[string]string{}
	}
	s.cache.SetDefault(id, values)
	return values, nil
}

func (s *Store) Get(ctx context.Context, owner store.Owner, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	values, err := s.snapshot(ctx, owner)
	if err != nil {
		return "", false, err
	}
	raw, ok := values[key]
	return raw, ok, nil
}

func (s *Store) All(ctx context.Context, owner store.Owner) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	values, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return maps.Clone(values), nil
}

func (s *Store) Set(ctx context.Context, owner store.Owner, key, raw string) error {
	if err := s.backend.Set(ctx, owner, key, raw); err != nil {
		return err
	}
	s.Invalidate(owner)
	return nil
}

func (s *Store) Delete(ctx context.Context, owner store.Owner, key string) error {
	if err := s.backend.Delete(ctx, owner, key); err != nil {
		return err
	}
	s.Invalidate(owner)
	return nil
}

// Invalidate drops the cached snapshot of owner.
func (s *Store) Invalidate(owner store.Owner) {
	if id, err := owner.Identifier(); err == nil {
		s.cache.Delete(id)
	}
}

// Flush drops every cached snapshot.
func (s *Store) Flush() {
	s.cache.Flush()
}

// Stats reports cache hits and misses since the store was created.
func (s *Store) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var ErrNilLoader = errors.New("cache: loader is required")

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is an in-process TTL cache. It is never the source of truth: callers
// invalidate keys after every mutation and reload from the owning service.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	flight  singleflight.Group
	now     func() time.Time

	// loading holds the ticket of the load allowed to populate each key.
	// Delete revokes it so a load that began before the delete cannot store its result.
	loading    map[string]uint64
	nextTicket uint64
}

func NewStore[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		entries: make(map[string]entry[V]),
		loading: make(map[string]uint64),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	if key == "" {
		return zero, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if s.ttl > 0 && !e.expiresAt.After(s.now()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

func (s *Store[V]) Set(_ context.Context, key string, value V) {
	if key == "" {
		return
	}

	expiresAt := time.Time{}
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
	s.mu.Unlock()
}

// Delete drops key and any in-flight load for it, so the next read goes upstream.
func (s *Store[V]) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	delete(s.loading, key)
	s.mu.Unlock()
	s.flight.Forget(key)
}

func (s *Store[V]) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			s.flight.Forget(key)
		}
	}
	for key := range s.loading {
		if strings.HasPrefix(key, prefix) {
			delete(s.loading, key)
			s.flight.Forget(key)
		}
	}
	s.mu.Unlock()
}

func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// GetOrLoad returns the cached value or runs loader once per key across concurrent callers.
// Failed loads are not cached.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (V, error)) (V, error) {
	var zero V
	if loader == nil {
		return zero, ErrNilLoader
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		ticket := s.beginLoad(key)
		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			s.endLoad(key, ticket)
			return nil, loadErr
		}
		s.storeLoaded(key, ticket, loaded)
		return loaded, nil
	})
	if err != nil {
		return zero, err
	}

	return value.(V), nil
}

func (s *Store[V]) beginLoad(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTicket++
	s.loading[key] = s.nextTicket
	return s.nextTicket
}

func (s *Store[V]) endLoad(key string, ticket uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading[key] == ticket {
		delete(s.loading, key)
	}
}

// storeLoaded caches value only if no Delete touched key since the load began.
func (s *Store[V]) storeLoaded(key string, ticket uint64, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading[key] != ticket {
		return
	}
	delete(s.loading, key)

	expiresAt := time.Time{}
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl)
	}
	s.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
}

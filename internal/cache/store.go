package cache

import (
	"reflect"
	"sync"
	"time"

	"lendhub/internal/models"
)

// Store is the per-entity-type in-memory cache a domain instance reads
// from. Payloads are only ever swapped wholesale or copied before a
// keyed edit, so readers never observe a half-applied update. One Store
// is constructed per process/session and owned by the domain instance.
type Store struct {
	mu      sync.RWMutex
	entries map[models.EntityType]*entry
	ttls    map[models.EntityType]time.Duration
	now     func() time.Time
}

type entry struct {
	payload     any // concrete slice, e.g. []models.Resource
	lastRefresh time.Time
}

// New builds an empty store with the given TTL policy. Types absent
// from ttls are treated as dynamic (never fresh).
func New(ttls map[models.EntityType]time.Duration) *Store {
	if ttls == nil {
		ttls = DefaultTTLs()
	}
	return &Store{
		entries: make(map[models.EntityType]*entry),
		ttls:    ttls,
		now:     time.Now,
	}
}

// IsFresh reports whether the payload for t was refreshed within its
// TTL. Dynamic types (TTL <= 0) are never fresh.
func (s *Store) IsFresh(t models.EntityType) bool {
	ttl := s.ttls[t]
	if ttl <= 0 {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[t]
	if !ok || e.lastRefresh.IsZero() {
		return false
	}
	return s.now().Sub(e.lastRefresh) < ttl
}

// LastRefresh returns the refresh timestamp for t, zero if never loaded.
func (s *Store) LastRefresh(t models.EntityType) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[t]; ok {
		return e.lastRefresh
	}
	return time.Time{}
}

// Invalidate forces the next IsFresh for t to report false without
// discarding the stale payload, which keeps serving readers.
func (s *Store) Invalidate(t models.EntityType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[t]; ok {
		e.lastRefresh = time.Time{}
	}
}

// Loaded reports whether t has ever received a payload.
func (s *Store) Loaded(t models.EntityType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[t]
	return ok && e.payload != nil
}

// Replace atomically swaps the payload for t and stamps its refresh
// time. The store takes ownership of items; callers must not mutate it
// afterwards.
func Replace[T models.Entity](s *Store, t models.EntityType, items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[t] = &entry{payload: items, lastRefresh: s.now()}
}

// Read returns a copy of the current payload for t, possibly stale,
// nil if never loaded.
func Read[T models.Entity](s *Store, t models.EntityType) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := payload[T](s, t)
	if !ok {
		return nil
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}

// Find returns the entity with the given id from t's payload.
func Find[T models.Entity](s *Store, t models.EntityType, id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := payload[T](s, t)
	if !ok {
		var zero T
		return zero, false
	}
	for _, item := range items {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Count returns the number of cached entities for t.
func (s *Store) Count(t models.EntityType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[t]
	if !ok || e.payload == nil {
		return 0
	}
	v := reflect.ValueOf(e.payload)
	if v.Kind() != reflect.Slice {
		return 0
	}
	return v.Len()
}

// payload type-asserts the stored slice for t. Callers hold s.mu.
func payload[T models.Entity](s *Store, t models.EntityType) ([]T, bool) {
	e, ok := s.entries[t]
	if !ok || e.payload == nil {
		return nil, false
	}
	items, ok := e.payload.([]T)
	return items, ok
}

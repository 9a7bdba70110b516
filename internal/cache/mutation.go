package cache

import (
	"lendhub/internal/models"
)

// Mutation is a keyed edit of one entity type's payload, built with Put
// or Drop and executed by Store.Apply. Each mutation copies the current
// payload before editing, so concurrent readers keep the old slice.
type Mutation struct {
	entityType models.EntityType
	apply      func(old any) any
}

// Put upserts item into t's payload, keyed by entity id.
func Put[T models.Entity](t models.EntityType, item T) Mutation {
	return Mutation{entityType: t, apply: func(old any) any {
		items, _ := old.([]T)
		out := make([]T, 0, len(items)+1)
		replaced := false
		for _, it := range items {
			if it.EntityID() == item.EntityID() {
				out = append(out, item)
				replaced = true
			} else {
				out = append(out, it)
			}
		}
		if !replaced {
			out = append(out, item)
		}
		return out
	}}
}

// Drop removes the entity with the given id from t's payload.
func Drop[T models.Entity](t models.EntityType, id string) Mutation {
	return Mutation{entityType: t, apply: func(old any) any {
		items, _ := old.([]T)
		out := make([]T, 0, len(items))
		for _, it := range items {
			if it.EntityID() != id {
				out = append(out, it)
			}
		}
		return out
	}}
}

// Apply executes all mutations under a single lock, so a loan status
// change and its coupled resource status changes become visible to
// readers as one atomic update. Per-id mutations do not advance the
// refresh timestamp; only Replace marks a type fresh.
func (s *Store) Apply(muts ...Mutation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range muts {
		e, ok := s.entries[m.entityType]
		if !ok {
			e = &entry{}
			s.entries[m.entityType] = e
		}
		e.payload = m.apply(e.payload)
	}
}

// Snapshot captures the current payloads of the given types. Payload
// slices are never edited in place, so holding references is a
// consistent point-in-time copy.
type Snapshot struct {
	entries map[models.EntityType]entry
}

// Snapshot records the pre-mutation state of the given entity types for
// a later Restore.
func (s *Store) Snapshot(types ...models.EntityType) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{entries: make(map[models.EntityType]entry, len(types))}
	for _, t := range types {
		if e, ok := s.entries[t]; ok {
			snap.entries[t] = *e
		} else {
			snap.entries[t] = entry{}
		}
	}
	return snap
}

// Restore rolls the captured types back to their snapshot state. Types
// not present in the snapshot are untouched.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, e := range snap.entries {
		saved := e
		s.entries[t] = &saved
	}
}

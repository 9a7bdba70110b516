package service

import (
	"lendhub/internal/cache"
	"lendhub/internal/models"
)

// UserLookup resolves user references against the cached users
// collection. A miss returns the unknown-user placeholder, never an
// error, so call sites degrade instead of branching on nil.
type UserLookup struct {
	store *cache.Store
}

func NewUserLookup(store *cache.Store) UserLookup {
	return UserLookup{store: store}
}

// ByID returns the user with the given id, or the placeholder record.
func (l UserLookup) ByID(id string) models.User {
	if u, ok := cache.Find[models.User](l.store, models.EntityUsers, id); ok {
		return u
	}
	return models.UnknownUser(id)
}

// Known reports whether the id resolves to a real cached user.
func (l UserLookup) Known(id string) bool {
	_, ok := cache.Find[models.User](l.store, models.EntityUsers, id)
	return ok
}

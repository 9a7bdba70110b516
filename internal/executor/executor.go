package executor

import (
	"context"
	"fmt"

	"lendhub/internal/cache"
	"lendhub/internal/domain"
	"lendhub/internal/metrics"
	"lendhub/internal/models"

	"github.com/rs/zerolog"
)

// Executor wraps every write against the remote gateway with an
// immediate local cache update, reverting to the pre-mutation snapshot
// when the remote write fails. One logical mutation produces one
// atomic cache update, keyed by entity id, so racing mutations on
// different entities cannot corrupt each other.
type Executor struct {
	store  *cache.Store
	logger zerolog.Logger
}

func New(store *cache.Store, logger zerolog.Logger) *Executor {
	return &Executor{store: store, logger: logger}
}

// Do runs one optimistic mutation.
//
// types lists every entity type the mutation may touch; their payloads
// are snapshotted before the optimistic mutations are applied. remote
// performs the gateway write and returns the authoritative mutations
// derived from the server reply, which replace the optimistic guess.
// On remote failure the snapshot is restored before the error is
// returned.
func (e *Executor) Do(
	ctx context.Context,
	op string,
	types []models.EntityType,
	optimistic []cache.Mutation,
	remote func(ctx context.Context) ([]cache.Mutation, error),
) error {
	snap := e.store.Snapshot(types...)
	e.store.Apply(optimistic...)

	confirmed, err := remote(ctx)
	if err != nil {
		e.store.Restore(snap)
		for _, t := range types {
			metrics.IncRollback(string(t))
		}
		e.logger.Warn().
			Err(err).
			Str("op", op).
			Msg("remote write failed, local cache rolled back")
		return fmt.Errorf("%s failed (%s): %w", op, Reason(err), err)
	}

	e.store.Apply(confirmed...)
	return nil
}

// Reason renders a short human-readable failure class so callers can
// decide whether retrying makes sense.
func Reason(err error) string {
	switch {
	case domain.Conflict(err):
		return "conflict with existing data"
	case domain.Retryable(err):
		return "transient network failure, retry may succeed"
	default:
		return "remote store rejected the change"
	}
}

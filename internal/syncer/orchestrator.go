package syncer

import (
	"context"
	"fmt"
	"time"

	"lendhub/internal/cache"
	"lendhub/internal/domain"
	"lendhub/internal/metrics"
	"lendhub/internal/models"

	"github.com/rs/zerolog"
)

// Orchestrator loads the multi-entity domain model from the remote
// gateway into the cache: parallel fetches, a global timeout budget per
// attempt, bounded retry with backoff, and per-type partial-failure
// tolerance. A failed type keeps its previous cached payload.
type Orchestrator struct {
	store   *cache.Store
	gw      domain.Gateway
	timeout time.Duration
	retry   RetryPolicy
	logger  zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New builds an orchestrator. timeout is the global budget for one
// fetch batch; retry governs how batch timeouts are retried.
func New(store *cache.Store, gw domain.Gateway, timeout time.Duration, retry RetryPolicy, logger zerolog.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if retry.MaxRetries <= 0 {
		retry = DefaultRetryPolicy()
	}
	return &Orchestrator{
		store:   store,
		gw:      gw,
		timeout: timeout,
		retry:   retry,
		logger:  logger,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LoadAll refreshes every entity type that is not fresh (all of them
// when force is set). The returned result lists refreshed, skipped and
// failed types; the error is non-nil only when the whole refresh is
// unusable: every scheduled type failed, or the batch kept timing out
// until the retry budget ran out.
func (o *Orchestrator) LoadAll(ctx context.Context, force bool) (domain.RefreshResult, error) {
	return o.loadTypes(ctx, models.AllEntityTypes(), force)
}

// RefreshTypes forces a refetch of the given entity types only. Used by
// the change feed listener after a debounced change notification.
func (o *Orchestrator) RefreshTypes(ctx context.Context, types ...models.EntityType) error {
	valid := make([]models.EntityType, 0, len(types))
	for _, t := range types {
		if !t.Valid() {
			return fmt.Errorf("refresh: unknown entity type %q", t)
		}
		valid = append(valid, t)
	}
	if len(valid) == 0 {
		return nil
	}
	_, err := o.loadTypes(ctx, valid, true)
	return err
}

func (o *Orchestrator) loadTypes(ctx context.Context, types []models.EntityType, force bool) (domain.RefreshResult, error) {
	start := time.Now()

	var res domain.RefreshResult
	var scheduled int
	var timedOut bool

	for attempt := 1; ; attempt++ {
		res, scheduled, timedOut = o.runBatch(ctx, types, force)
		res.Attempts = attempt
		res.Elapsed = time.Since(start)

		if !o.retryableBatch(res, scheduled, timedOut) {
			break
		}
		if attempt > o.retry.MaxRetries {
			metrics.IncRefresh("timeout")
			o.logger.Error().
				Int("attempts", attempt).
				Dur("elapsed", res.Elapsed).
				Msg("refresh batch exhausted retries")
			return res, fmt.Errorf("refresh after %d attempts: %w", attempt, domain.ErrTimeoutExceeded)
		}

		delay := o.retry.NextDelay(attempt)
		o.logger.Warn().
			Int("attempt", attempt).
			Dur("backoff", delay).
			Bool("timed_out", timedOut).
			Msg("refresh batch failed, retrying")
		if err := o.sleep(ctx, delay); err != nil {
			return res, fmt.Errorf("refresh interrupted: %w", err)
		}
	}

	o.resolveReferences(res.Refreshed)

	if len(res.Failed) > 0 {
		for t := range res.Failed {
			metrics.IncPartialFailure(string(t))
		}
		pf := &domain.PartialFailure{Failed: res.Failed}
		if pf.All(scheduled) {
			metrics.IncRefresh("failed")
			o.logger.Error().Int("failed", len(res.Failed)).Msg("every scheduled entity type failed to refresh")
			return res, pf
		}
		metrics.IncRefresh("partial")
		o.logger.Warn().
			Int("refreshed", len(res.Refreshed)).
			Int("failed", len(res.Failed)).
			Str("failure", pf.Error()).
			Msg("refresh completed with partial failure, serving cached data for failed types")
		return res, nil
	}

	metrics.IncRefresh("ok")
	o.logger.Info().
		Int("refreshed", len(res.Refreshed)).
		Int("skipped", len(res.Skipped)).
		Dur("elapsed", res.Elapsed).
		Msg("refresh completed")
	return res, nil
}

// retryableBatch decides whether the whole batch should run again: an
// exceeded budget always retries, and so does a batch where every
// scheduled type failed with a transient (timeout/network) error.
func (o *Orchestrator) retryableBatch(res domain.RefreshResult, scheduled int, timedOut bool) bool {
	if timedOut {
		return true
	}
	if scheduled == 0 || len(res.Failed) != scheduled {
		return false
	}
	for _, err := range res.Failed {
		if !domain.Retryable(err) {
			return false
		}
	}
	return true
}

type fetchResult struct {
	entityType models.EntityType
	apply      func()
	count      int
	err        error
	elapsed    time.Duration
}

// runBatch issues one concurrent fetch round under the global budget.
// Successful payloads are merged into the cache as they arrive, so a
// later timeout still leaves the cache with whatever was merged.
func (o *Orchestrator) runBatch(ctx context.Context, types []models.EntityType, force bool) (domain.RefreshResult, int, bool) {
	res := domain.RefreshResult{Failed: make(map[models.EntityType]error)}

	var scheduled []models.EntityType
	for _, t := range types {
		if !force && o.store.IsFresh(t) {
			metrics.IncFreshness(string(t), "hit")
			res.Skipped = append(res.Skipped, t)
			continue
		}
		metrics.IncFreshness(string(t), "miss")
		scheduled = append(scheduled, t)
	}
	if len(scheduled) == 0 {
		return res, 0, false
	}

	batchCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	results := make(chan fetchResult, len(scheduled))
	for _, t := range scheduled {
		task := o.task(t)
		go func() { results <- task(batchCtx) }()
	}

	received := 0
	for received < len(scheduled) {
		select {
		case r := <-results:
			received++
			if r.err != nil {
				metrics.ObserveFetch(string(r.entityType), "error", r.elapsed.Seconds())
				o.logger.Warn().
					Err(r.err).
					Str("entity_type", string(r.entityType)).
					Msg("entity fetch failed, keeping cached payload")
				res.Failed[r.entityType] = r.err
				continue
			}
			metrics.ObserveFetch(string(r.entityType), "ok", r.elapsed.Seconds())
			r.apply()
			res.Refreshed = append(res.Refreshed, r.entityType)
			o.logger.Debug().
				Str("entity_type", string(r.entityType)).
				Int("count", r.count).
				Dur("elapsed", r.elapsed).
				Msg("entity type refreshed")
		case <-batchCtx.Done():
			// Stop waiting; in-flight fetches are abandoned, their
			// late results land in the buffered channel and are GCed.
			return res, len(scheduled), true
		}
	}

	return res, len(scheduled), false
}

// task returns the fetch closure for one entity type.
func (o *Orchestrator) task(t models.EntityType) func(context.Context) fetchResult {
	switch t {
	case models.EntityUsers:
		return fetchTask(o, t, o.gw.FetchUsers)
	case models.EntityResources:
		return fetchTask(o, t, o.gw.FetchResources)
	case models.EntityLoans:
		return fetchTask(o, t, o.gw.FetchLoans)
	case models.EntityReservations:
		return fetchTask(o, t, o.gw.FetchReservations)
	case models.EntityMeetings:
		return fetchTask(o, t, o.gw.FetchMeetings)
	case models.EntityCategories:
		return fetchTask(o, t, o.gw.FetchCategories)
	case models.EntityAreas:
		return fetchTask(o, t, o.gw.FetchAreas)
	case models.EntityGrades:
		return fetchTask(o, t, o.gw.FetchGrades)
	case models.EntityHours:
		return fetchTask(o, t, o.gw.FetchHours)
	case models.EntitySettings:
		return fetchTask(o, t, o.gw.FetchSettings)
	default:
		return func(context.Context) fetchResult {
			return fetchResult{entityType: t, err: fmt.Errorf("no fetcher for entity type %q", t)}
		}
	}
}

// fetchTask adapts one typed gateway fetcher into the batch protocol.
// The returned apply closure swaps the payload into the cache.
func fetchTask[T models.Entity](o *Orchestrator, t models.EntityType, fetch func(context.Context) ([]T, error)) func(context.Context) fetchResult {
	return func(ctx context.Context) fetchResult {
		start := time.Now()
		items, err := fetch(ctx)
		elapsed := time.Since(start)
		if err != nil {
			return fetchResult{entityType: t, err: classify("fetch "+string(t), err), elapsed: elapsed}
		}
		return fetchResult{
			entityType: t,
			count:      len(items),
			elapsed:    elapsed,
			apply:      func() { cache.Replace(o.store, t, items) },
		}
	}
}

// resolveReferences substitutes user display names into freshly loaded
// payloads that reference users by id. Resolution degrades to the
// unknown-user placeholder and never fails.
func (o *Orchestrator) resolveReferences(refreshed []models.EntityType) {
	users := cache.Read[models.User](o.store, models.EntityUsers)
	index := make(map[string]models.User, len(users))
	for _, u := range users {
		index[u.ID] = u
	}

	nameFor := func(id string) string {
		if id == "" {
			return ""
		}
		if u, ok := index[id]; ok && u.Name != "" {
			return u.Name
		}
		return models.UnknownUser(id).Name
	}

	for _, t := range refreshed {
		switch t {
		case models.EntityLoans:
			loans := cache.Read[models.Loan](o.store, t)
			for i := range loans {
				loans[i].UserName = nameFor(loans[i].UserID)
			}
			cache.Replace(o.store, t, loans)
		case models.EntityReservations:
			reservations := cache.Read[models.Reservation](o.store, t)
			for i := range reservations {
				reservations[i].UserName = nameFor(reservations[i].UserID)
			}
			cache.Replace(o.store, t, reservations)
		case models.EntityMeetings:
			meetings := cache.Read[models.Meeting](o.store, t)
			for i := range meetings {
				meetings[i].UserName = nameFor(meetings[i].UserID)
			}
			cache.Replace(o.store, t, meetings)
		}
	}
}

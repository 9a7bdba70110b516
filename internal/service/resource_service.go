package service

import (
	"context"
	"fmt"
	"time"

	"lendhub/internal/cache"
	"lendhub/internal/domain"
	"lendhub/internal/events"
	"lendhub/internal/executor"
	"lendhub/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ResourceService manages the resource catalog. It never sets a
// resource to loaned or releases it back; that coupling belongs to the
// loan lifecycle alone.
type ResourceService struct {
	store  *cache.Store
	gw     domain.Gateway
	exec   *executor.Executor
	bus    domain.EventPublisher
	feed   domain.ChangePublisher
	logger zerolog.Logger
	now    func() time.Time
}

func NewResourceService(store *cache.Store, gw domain.Gateway, exec *executor.Executor, bus domain.EventPublisher, feed domain.ChangePublisher, logger zerolog.Logger) *ResourceService {
	return &ResourceService{
		store:  store,
		gw:     gw,
		exec:   exec,
		bus:    bus,
		feed:   feed,
		logger: logger,
		now:    time.Now,
	}
}

// Create adds a resource to the catalog in available status.
func (s *ResourceService) Create(ctx context.Context, r models.Resource) (*models.Resource, error) {
	if r.Name == "" {
		return nil, fmt.Errorf("resource create: name is required")
	}
	now := s.now()
	r.ID = uuid.NewString()
	r.Status = models.ResourceAvailable
	r.CreatedAt = now
	r.UpdatedAt = now

	var created models.Resource
	err := s.exec.Do(ctx, "create resource",
		[]models.EntityType{models.EntityResources},
		[]cache.Mutation{cache.Put(models.EntityResources, r)},
		func(ctx context.Context) ([]cache.Mutation, error) {
			confirmed, err := s.gw.CreateResource(ctx, &r)
			if err != nil {
				return nil, err
			}
			created = *confirmed
			return []cache.Mutation{cache.Put(models.EntityResources, created)}, nil
		})
	if err != nil {
		return nil, err
	}

	s.publish(created)
	s.announce(ctx)
	return &created, nil
}

// Update edits catalog fields of an existing resource. Lending status
// changes are rejected here.
func (s *ResourceService) Update(ctx context.Context, r models.Resource) (*models.Resource, error) {
	current, ok := cache.Find[models.Resource](s.store, models.EntityResources, r.ID)
	if !ok {
		return nil, fmt.Errorf("resource update: %s: %w", r.ID, domain.ErrNotFound)
	}
	if r.Status != "" && r.Status != current.Status {
		if r.Status == models.ResourceLoaned || current.Status == models.ResourceLoaned {
			return nil, fmt.Errorf("resource update: %s: loaned status is owned by the loan lifecycle: %w",
				r.ID, domain.ErrInvalidTransition)
		}
		if !models.ValidResourceStatus(r.Status) {
			return nil, fmt.Errorf("resource update: %s: unknown status %q: %w",
				r.ID, r.Status, domain.ErrInvalidTransition)
		}
	} else {
		r.Status = current.Status
	}
	r.CreatedAt = current.CreatedAt
	r.UpdatedAt = s.now()

	var updated models.Resource
	err := s.exec.Do(ctx, "update resource",
		[]models.EntityType{models.EntityResources},
		[]cache.Mutation{cache.Put(models.EntityResources, r)},
		func(ctx context.Context) ([]cache.Mutation, error) {
			confirmed, err := s.gw.UpdateResource(ctx, &r)
			if err != nil {
				return nil, err
			}
			updated = *confirmed
			return []cache.Mutation{cache.Put(models.EntityResources, updated)}, nil
		})
	if err != nil {
		return nil, err
	}

	s.publish(updated)
	s.announce(ctx)
	return &updated, nil
}

// Delete removes a resource that is not currently on loan.
func (s *ResourceService) Delete(ctx context.Context, id string) error {
	current, ok := cache.Find[models.Resource](s.store, models.EntityResources, id)
	if !ok {
		return fmt.Errorf("resource delete: %s: %w", id, domain.ErrNotFound)
	}
	if current.Status == models.ResourceLoaned {
		return fmt.Errorf("resource delete: %s is on loan: %w", id, domain.ErrInvalidTransition)
	}

	err := s.exec.Do(ctx, "delete resource",
		[]models.EntityType{models.EntityResources},
		[]cache.Mutation{cache.Drop[models.Resource](models.EntityResources, id)},
		func(ctx context.Context) ([]cache.Mutation, error) {
			ok, err := s.gw.DeleteResource(ctx, id)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("resource delete: %s: %w", id, domain.ErrNotFound)
			}
			return nil, nil
		})
	if err != nil {
		return err
	}

	s.announce(ctx)
	return nil
}

func (s *ResourceService) publish(r models.Resource) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(events.EventResourceChanged, r); err != nil {
		s.logger.Error().Err(err).Str("resource_id", r.ID).Msg("publish event error")
	}
}

func (s *ResourceService) announce(ctx context.Context) {
	if s.feed == nil {
		return
	}
	if err := s.feed.PublishChange(ctx, models.EntityResources); err != nil {
		s.logger.Warn().Err(err).Msg("change feed publish error")
	}
}

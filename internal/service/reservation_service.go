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

// ReservationService maps (date, time-slot) pairs to reservations and
// owns the reservation lifecycle. Slot labels are canonicalized before
// any comparison, so raw and canonical labels address the same slot.
type ReservationService struct {
	store  *cache.Store
	gw     domain.Gateway
	exec   *executor.Executor
	bus    domain.EventPublisher
	feed   domain.ChangePublisher
	logger zerolog.Logger
	now    func() time.Time
}

func NewReservationService(store *cache.Store, gw domain.Gateway, exec *executor.Executor, bus domain.EventPublisher, feed domain.ChangePublisher, logger zerolog.Logger) *ReservationService {
	return &ReservationService{
		store:  store,
		gw:     gw,
		exec:   exec,
		bus:    bus,
		feed:   feed,
		logger: logger,
		now:    time.Now,
	}
}

// FindForSlot returns the reservation occupying the slot on the given
// day, if any. Cancelled reservations do not occupy their slot.
func (s *ReservationService) FindForSlot(date time.Time, slot string) (*models.Reservation, bool) {
	canonical := models.ResolveSlotLabel(slot)
	for _, r := range cache.Read[models.Reservation](s.store, models.EntityReservations) {
		if r.Blocks() && r.Slot == canonical && models.SameDay(r.Date, date) {
			return &r, true
		}
	}
	return nil, false
}

// ToggleSlot flips slotID in the selection set and returns the new
// set. Pure: the input set is not modified. Used while composing a
// multi-slot reservation request before submission.
func ToggleSlot(slotID string, selected map[string]bool) map[string]bool {
	out := make(map[string]bool, len(selected)+1)
	for id, on := range selected {
		if on {
			out[id] = true
		}
	}
	if out[slotID] {
		delete(out, slotID)
	} else {
		out[slotID] = true
	}
	return out
}

// Create inserts a confirmed reservation, refusing double-booking of a
// slot already held by a non-cancelled reservation.
func (s *ReservationService) Create(ctx context.Context, req models.ReservationRequest) (*models.Reservation, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("reservation create: user id is required")
	}

	canonical := models.ResolveSlotLabel(req.Slot)
	if canonical == "" {
		return nil, fmt.Errorf("reservation create: time slot is required")
	}
	hours := cache.Read[models.PedagogicalHour](s.store, models.EntityHours)
	if !models.KnownSlot(canonical, hours) {
		return nil, fmt.Errorf("reservation create: unknown time slot %q: %w", canonical, domain.ErrNotFound)
	}

	if held, ok := s.FindForSlot(req.Date, canonical); ok {
		return nil, fmt.Errorf("reservation create: %s on %s held by reservation %s: %w",
			canonical, req.Date.Format("2006-01-02"), held.ID, domain.ErrSlotConflict)
	}

	now := s.now()
	reservation := models.Reservation{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		UserName:  NewUserLookup(s.store).ByID(req.UserID).Name,
		Purpose:   req.Purpose,
		Date:      req.Date,
		Slot:      canonical,
		Status:    models.ReservationConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var created models.Reservation
	err := s.exec.Do(ctx, "create reservation",
		[]models.EntityType{models.EntityReservations},
		[]cache.Mutation{cache.Put(models.EntityReservations, reservation)},
		func(ctx context.Context) ([]cache.Mutation, error) {
			confirmed, err := s.gw.CreateReservation(ctx, &reservation)
			if err != nil {
				return nil, err
			}
			created = *confirmed
			return []cache.Mutation{cache.Put(models.EntityReservations, created)}, nil
		})
	if err != nil {
		return nil, err
	}

	s.publishReservationEvent(events.EventReservationCreated, created)
	s.announce(ctx, models.EntityReservations)
	s.logger.Info().
		Str("reservation_id", created.ID).
		Str("slot", created.Slot).
		Time("date", created.Date).
		Msg("reservation created")
	return &created, nil
}

// UpdateStatus transitions a confirmed reservation to completed,
// no_show or cancelled. Any other source status is rejected.
func (s *ReservationService) UpdateStatus(ctx context.Context, id string, status string) (*models.Reservation, error) {
	if !models.ValidReservationStatus(status) || status == models.ReservationConfirmed {
		return nil, fmt.Errorf("reservation %s: target status %q not allowed: %w",
			id, status, domain.ErrInvalidTransition)
	}

	current, ok := cache.Find[models.Reservation](s.store, models.EntityReservations, id)
	if !ok {
		return nil, fmt.Errorf("reservation %s: %w", id, domain.ErrNotFound)
	}
	if current.Status != models.ReservationConfirmed {
		return nil, fmt.Errorf("reservation %s: status is %s, want %s: %w",
			id, current.Status, models.ReservationConfirmed, domain.ErrInvalidTransition)
	}

	next := current
	next.Status = status
	next.UpdatedAt = s.now()

	var updated models.Reservation
	err := s.exec.Do(ctx, "update reservation status",
		[]models.EntityType{models.EntityReservations},
		[]cache.Mutation{cache.Put(models.EntityReservations, next)},
		func(ctx context.Context) ([]cache.Mutation, error) {
			confirmed, err := s.gw.UpdateReservationStatus(ctx, id, status)
			if err != nil {
				return nil, err
			}
			updated = *confirmed
			return []cache.Mutation{cache.Put(models.EntityReservations, updated)}, nil
		})
	if err != nil {
		return nil, err
	}

	s.publishReservationEvent(events.EventReservationUpdated, updated)
	s.announce(ctx, models.EntityReservations)
	s.logger.Info().
		Str("reservation_id", updated.ID).
		Str("status", updated.Status).
		Msg("reservation status updated")
	return &updated, nil
}

func (s *ReservationService) publishReservationEvent(eventType string, r models.Reservation) {
	if s.bus == nil {
		return
	}
	payload := events.ReservationEventPayload{
		ReservationID: r.ID,
		UserID:        r.UserID,
		Status:        r.Status,
		Date:          r.Date,
		Slot:          r.Slot,
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("reservation_id", r.ID).Msg("publish event error")
	}
}

func (s *ReservationService) announce(ctx context.Context, t models.EntityType) {
	if s.feed == nil {
		return
	}
	if err := s.feed.PublishChange(ctx, t); err != nil {
		s.logger.Warn().Err(err).Str("entity_type", string(t)).Msg("change feed publish error")
	}
}

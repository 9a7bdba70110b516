package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lendhub/internal/cache"
	"lendhub/internal/domain"
	"lendhub/internal/events"
	"lendhub/internal/executor"
	"lendhub/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)

func seedReservationStore() *cache.Store {
	store := cache.New(nil)
	cache.Replace(store, models.EntityUsers, []models.User{
		{ID: "u1", Name: "Ana Torres", Role: models.RoleTeacher},
	})
	cache.Replace(store, models.EntityHours, []models.PedagogicalHour{
		{ID: "h1", Label: "1st period", Position: 1},
		{ID: "h2", Label: "2nd period", Position: 2},
		{ID: "h3", Label: "3rd period", Position: 3},
	})
	cache.Replace(store, models.EntityReservations, []models.Reservation{
		{ID: "b1", UserID: "u1", Date: testDay, Slot: "1st period", Status: models.ReservationConfirmed},
		{ID: "b2", UserID: "u1", Date: testDay, Slot: "2nd period", Status: models.ReservationCancelled},
	})
	return store
}

func newReservationService(store *cache.Store, gw *mockGateway) *ReservationService {
	svc := NewReservationService(store, gw, executor.New(store, zerolog.Nop()), events.NewEventBus(), nil, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestFindForSlot(t *testing.T) {
	store := seedReservationStore()
	svc := newReservationService(store, &mockGateway{})

	t.Run("occupied slot", func(t *testing.T) {
		r, ok := svc.FindForSlot(testDay, "1st period")
		require.True(t, ok)
		assert.Equal(t, "b1", r.ID)
	})

	t.Run("raw label resolves to the same slot", func(t *testing.T) {
		r, ok := svc.FindForSlot(testDay, `{"hora":"1st period"}`)
		require.True(t, ok)
		assert.Equal(t, "b1", r.ID)
	})

	t.Run("different time on the same day still matches", func(t *testing.T) {
		_, ok := svc.FindForSlot(testDay.Add(13*time.Hour), "1st period")
		assert.True(t, ok)
	})

	t.Run("cancelled reservation does not occupy", func(t *testing.T) {
		_, ok := svc.FindForSlot(testDay, "2nd period")
		assert.False(t, ok)
	})

	t.Run("other day is free", func(t *testing.T) {
		_, ok := svc.FindForSlot(testDay.AddDate(0, 0, 1), "1st period")
		assert.False(t, ok)
	})
}

func TestToggleSlot(t *testing.T) {
	empty := map[string]bool{}

	one := ToggleSlot("h1", empty)
	assert.True(t, one["h1"])
	assert.Empty(t, empty, "input set is not modified")

	two := ToggleSlot("h2", one)
	assert.True(t, two["h1"])
	assert.True(t, two["h2"])

	back := ToggleSlot("h2", two)
	assert.True(t, back["h1"])
	assert.NotContains(t, back, "h2")
}

func TestCreateReservation(t *testing.T) {
	store := seedReservationStore()
	gw := &mockGateway{}
	svc := newReservationService(store, gw)

	gw.On("CreateReservation", mock.Anything, mock.AnythingOfType("*models.Reservation")).
		Return(func(r *models.Reservation) *models.Reservation { return r }, nil)

	created, err := svc.Create(context.Background(), models.ReservationRequest{
		UserID:  "u1",
		Purpose: "chemistry lab",
		Date:    testDay,
		Slot:    "3rd period",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ReservationConfirmed, created.Status)
	assert.Equal(t, "Ana Torres", created.UserName)
	assert.Equal(t, "3rd period", created.Slot)

	found, ok := svc.FindForSlot(testDay, "3rd period")
	require.True(t, ok)
	assert.Equal(t, created.ID, found.ID)
}

func TestCreateReservationSlotConflict(t *testing.T) {
	store := seedReservationStore()
	gw := &mockGateway{}
	svc := newReservationService(store, gw)

	t.Run("confirmed reservation blocks the slot", func(t *testing.T) {
		_, err := svc.Create(context.Background(), models.ReservationRequest{
			UserID: "u1",
			Date:   testDay,
			Slot:   "1st period",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrSlotConflict)
		gw.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything)
	})

	t.Run("cancelled reservation frees the slot", func(t *testing.T) {
		gw.On("CreateReservation", mock.Anything, mock.AnythingOfType("*models.Reservation")).
			Return(func(r *models.Reservation) *models.Reservation { return r }, nil)

		created, err := svc.Create(context.Background(), models.ReservationRequest{
			UserID: "u1",
			Date:   testDay,
			Slot:   "2nd period",
		})
		require.NoError(t, err)
		assert.Equal(t, models.ReservationConfirmed, created.Status)
	})
}

func TestCreateReservationUnknownSlot(t *testing.T) {
	store := seedReservationStore()
	svc := newReservationService(store, &mockGateway{})

	_, err := svc.Create(context.Background(), models.ReservationRequest{
		UserID: "u1",
		Date:   testDay,
		Slot:   "13th period",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateReservationRollsBackOnRemoteFailure(t *testing.T) {
	store := seedReservationStore()
	gw := &mockGateway{}
	svc := newReservationService(store, gw)

	gw.On("CreateReservation", mock.Anything, mock.AnythingOfType("*models.Reservation")).
		Return(nil, domain.NewRemoteError("create", domain.KindTimeout, errors.New("deadline exceeded")))

	_, err := svc.Create(context.Background(), models.ReservationRequest{
		UserID: "u1",
		Date:   testDay,
		Slot:   "3rd period",
	})
	require.Error(t, err)

	_, ok := svc.FindForSlot(testDay, "3rd period")
	assert.False(t, ok, "optimistic insert reverted")
}

func TestUpdateReservationStatus(t *testing.T) {
	store := seedReservationStore()
	gw := &mockGateway{}
	svc := newReservationService(store, gw)

	for _, target := range []string{models.ReservationCompleted, models.ReservationNoShow, models.ReservationCancelled} {
		t.Run("confirmed to "+target, func(t *testing.T) {
			cache.Replace(store, models.EntityReservations, []models.Reservation{
				{ID: "b1", UserID: "u1", Date: testDay, Slot: "1st period", Status: models.ReservationConfirmed},
			})
			gw.On("UpdateReservationStatus", mock.Anything, "b1", target).
				Return(&models.Reservation{ID: "b1", Status: target, Date: testDay, Slot: "1st period"}, nil).Once()

			updated, err := svc.UpdateStatus(context.Background(), "b1", target)
			require.NoError(t, err)
			assert.Equal(t, target, updated.Status)
		})
	}

	t.Run("terminal source is rejected", func(t *testing.T) {
		cache.Replace(store, models.EntityReservations, []models.Reservation{
			{ID: "b1", Status: models.ReservationCompleted},
		})
		_, err := svc.UpdateStatus(context.Background(), "b1", models.ReservationCancelled)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("confirmed is not a valid target", func(t *testing.T) {
		_, err := svc.UpdateStatus(context.Background(), "b1", models.ReservationConfirmed)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		_, err := svc.UpdateStatus(context.Background(), "nope", models.ReservationCancelled)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUserLookup(t *testing.T) {
	store := seedReservationStore()
	lookup := NewUserLookup(store)

	assert.Equal(t, "Ana Torres", lookup.ByID("u1").Name)
	assert.True(t, lookup.Known("u1"))

	ghost := lookup.ByID("ghost")
	assert.Equal(t, models.UnknownUserName, ghost.Name)
	assert.Equal(t, "ghost", ghost.ID)
	assert.False(t, lookup.Known("ghost"))
}

package gateway

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lendhub/internal/domain"
	"lendhub/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) *SQLite {
	t.Helper()
	g, err := New(filepath.Join(t.TempDir(), "lendhub.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func seedResources(t *testing.T, g *SQLite, ids ...string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	for _, id := range ids {
		_, err := g.CreateResource(ctx, &models.Resource{
			ID:        id,
			Name:      "laptop " + id,
			Status:    models.ResourceAvailable,
			CreatedAt: now,
			UpdatedAt: now,
		})
		require.NoError(t, err)
	}
}

func resourceStatus(t *testing.T, g *SQLite, id string) string {
	t.Helper()
	resources, err := g.FetchResources(context.Background())
	require.NoError(t, err)
	for _, r := range resources {
		if r.ID == id {
			return r.Status
		}
	}
	t.Fatalf("resource %s not found", id)
	return ""
}

func TestLoanLifecycle(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	seedResources(t, g, "r1", "r2", "r3")

	now := time.Now().UTC()
	loan := models.Loan{
		ID:          "l1",
		UserID:      "u1",
		UserName:    "Ana Torres",
		Purpose:     "science fair",
		ResourceIDs: []string{"r1", "r2", "r3"},
		Status:      models.LoanPending,
		LoanedAt:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	update, err := g.CreateLoan(ctx, &loan)
	require.NoError(t, err)
	assert.Equal(t, models.LoanPending, update.Loan.Status)
	require.Len(t, update.Resources, 3)
	for _, r := range update.Resources {
		assert.Equal(t, models.ResourceAvailable, r.Status, "pending loan does not touch resources")
	}

	t.Run("approve marks resources loaned", func(t *testing.T) {
		update, err := g.UpdateLoanStatus(ctx, "l1", models.LoanActive)
		require.NoError(t, err)
		assert.Equal(t, models.LoanActive, update.Loan.Status)
		require.Len(t, update.Resources, 3)
		for _, r := range update.Resources {
			assert.Equal(t, models.ResourceLoaned, r.Status)
		}
	})

	t.Run("return applies the damage policy", func(t *testing.T) {
		reports := models.ReturnReports{
			Damage: map[string]models.DamageReport{
				"r2": {Notes: "sticky keys"},
			},
			Suggestions: map[string]string{"r1": "replace the charger"},
			Missing:     []string{"r3"},
		}

		update, err := g.ProcessReturn(ctx, "l1", reports)
		require.NoError(t, err)
		assert.Equal(t, models.LoanReturned, update.Loan.Status)
		require.NotNil(t, update.Loan.ReturnedAt)
		assert.Equal(t, []string{"r3"}, update.Loan.MissingResources)

		assert.Equal(t, models.ResourceAvailable, resourceStatus(t, g, "r1"))
		assert.Equal(t, models.ResourceMaintenance, resourceStatus(t, g, "r2"))
		assert.Equal(t, models.ResourceLoaned, resourceStatus(t, g, "r3"), "missing resource stays loaned")
	})

	t.Run("loan round-trips through fetch", func(t *testing.T) {
		loans, err := g.FetchLoans(ctx)
		require.NoError(t, err)
		require.Len(t, loans, 1)

		got := loans[0]
		assert.Equal(t, []string{"r1", "r2", "r3"}, got.ResourceIDs)
		assert.Equal(t, "sticky keys", got.DamageReports["r2"].Notes)
		assert.Equal(t, "replace the charger", got.SuggestionReports["r1"])
		assert.Equal(t, []string{"r3"}, got.MissingResources)
		require.NotNil(t, got.ReturnedAt)
	})
}

func TestCreateLoanPrivileged(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	seedResources(t, g, "r1")

	now := time.Now().UTC()
	_, err := g.CreateLoan(ctx, &models.Loan{
		ID:          "l1",
		UserID:      "u1",
		ResourceIDs: []string{"r1"},
		Status:      models.LoanActive,
		LoanedAt:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ResourceLoaned, resourceStatus(t, g, "r1"))
}

func TestUpdateLoanStatusValidation(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	seedResources(t, g, "r1")

	now := time.Now().UTC()
	_, err := g.CreateLoan(ctx, &models.Loan{
		ID:          "l1",
		UserID:      "u1",
		ResourceIDs: []string{"r1"},
		Status:      models.LoanActive,
		LoanedAt:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	require.NoError(t, err)

	t.Run("unknown loan", func(t *testing.T) {
		_, err := g.UpdateLoanStatus(ctx, "nope", models.LoanActive)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("invalid target status", func(t *testing.T) {
		_, err := g.UpdateLoanStatus(ctx, "l1", models.LoanReturned)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("non-pending source", func(t *testing.T) {
		_, err := g.UpdateLoanStatus(ctx, "l1", models.LoanRejected)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("return requires an active loan", func(t *testing.T) {
		_, err := g.ProcessReturn(ctx, "l1", models.ReturnReports{})
		require.NoError(t, err)

		_, err = g.ProcessReturn(ctx, "l1", models.ReturnReports{})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestReservationSlotConflict(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	day := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)

	newReservation := func(id string) *models.Reservation {
		now := time.Now().UTC()
		return &models.Reservation{
			ID:        id,
			UserID:    "u1",
			Date:      day,
			Slot:      "1st period",
			Status:    models.ReservationConfirmed,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	_, err := g.CreateReservation(ctx, newReservation("b1"))
	require.NoError(t, err)

	t.Run("held slot is refused", func(t *testing.T) {
		_, err := g.CreateReservation(ctx, newReservation("b2"))
		assert.ErrorIs(t, err, domain.ErrSlotConflict)
	})

	t.Run("cancelled slot frees up", func(t *testing.T) {
		updated, err := g.UpdateReservationStatus(ctx, "b1", models.ReservationCancelled)
		require.NoError(t, err)
		assert.Equal(t, models.ReservationCancelled, updated.Status)

		_, err = g.CreateReservation(ctx, newReservation("b3"))
		require.NoError(t, err)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		_, err := g.UpdateReservationStatus(ctx, "nope", models.ReservationCancelled)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestResourceCRUD(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	now := time.Now().UTC()

	created, err := g.CreateResource(ctx, &models.Resource{
		ID:         "r1",
		Name:       "microscope",
		Brand:      "Zeiss",
		Status:     models.ResourceAvailable,
		Attributes: map[string]string{"magnification": "40x"},
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)

	resources, err := g.FetchResources(ctx)
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "40x", resources[0].Attributes["magnification"])

	created.Name = "microscope (lab 2)"
	created.UpdatedAt = time.Now().UTC()
	_, err = g.UpdateResource(ctx, created)
	require.NoError(t, err)

	resources, err = g.FetchResources(ctx)
	require.NoError(t, err)
	assert.Equal(t, "microscope (lab 2)", resources[0].Name)

	t.Run("update unknown resource", func(t *testing.T) {
		_, err := g.UpdateResource(ctx, &models.Resource{ID: "nope", Name: "x"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		ok, err := g.DeleteResource(ctx, "r1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = g.DeleteResource(ctx, "r1")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSeedAndFetch(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, g.UpsertUser(ctx, &models.User{
		ID: "u1", Name: "Ana Torres", Role: models.RoleTeacher, CreatedAt: now,
	}))
	require.NoError(t, g.UpsertCategory(ctx, &models.Category{ID: "c1", Name: "laptops"}))
	require.NoError(t, g.UpsertArea(ctx, &models.Area{ID: "a1", Name: "science lab"}))
	require.NoError(t, g.UpsertGrade(ctx, &models.Grade{ID: "g1", Name: "5th grade"}))
	require.NoError(t, g.UpsertHour(ctx, &models.PedagogicalHour{ID: "h1", Label: "1st period", Position: 1}))
	require.NoError(t, g.UpsertSettings(ctx, &models.AppSettings{
		ID: "s1", SchoolName: "Escola do Vale", MaxActiveLoans: 3, MaxLoanResources: 5,
	}))
	require.NoError(t, g.CreateMeeting(ctx, &models.Meeting{
		ID: "m1", Title: "staff sync", Date: now, Slot: "1st period", CreatedAt: now,
	}))

	users, err := g.FetchUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ana Torres", users[0].Name)

	t.Run("upsert updates in place", func(t *testing.T) {
		require.NoError(t, g.UpsertUser(ctx, &models.User{
			ID: "u1", Name: "Ana M. Torres", Role: models.RoleAdmin, CreatedAt: now,
		}))
		users, err := g.FetchUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "Ana M. Torres", users[0].Name)
		assert.Equal(t, models.RoleAdmin, users[0].Role)
	})

	categories, err := g.FetchCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)

	areas, err := g.FetchAreas(ctx)
	require.NoError(t, err)
	require.Len(t, areas, 1)

	grades, err := g.FetchGrades(ctx)
	require.NoError(t, err)
	require.Len(t, grades, 1)

	hours, err := g.FetchHours(ctx)
	require.NoError(t, err)
	require.Len(t, hours, 1)
	assert.Equal(t, "1st period", hours[0].Label)

	settings, err := g.FetchSettings(ctx)
	require.NoError(t, err)
	require.Len(t, settings, 1)
	assert.Equal(t, 3, settings[0].MaxActiveLoans)

	meetings, err := g.FetchMeetings(ctx)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "staff sync", meetings[0].Title)
}

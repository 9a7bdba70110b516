package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"lendhub/internal/models"
)

// fakeGateway is a controllable in-memory gateway for orchestrator
// tests: per-type payloads, injected errors, artificial latency and
// call counting.
type fakeGateway struct {
	mu sync.Mutex

	users        []models.User
	resources    []models.Resource
	loans        []models.Loan
	reservations []models.Reservation
	meetings     []models.Meeting
	categories   []models.Category
	areas        []models.Area
	grades       []models.Grade
	hours        []models.PedagogicalHour
	settings     []models.AppSettings

	errs   map[models.EntityType]error
	delays map[models.EntityType]time.Duration
	calls  map[models.EntityType]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		errs:   make(map[models.EntityType]error),
		delays: make(map[models.EntityType]time.Duration),
		calls:  make(map[models.EntityType]int),
	}
}

func (g *fakeGateway) failWith(t models.EntityType, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs[t] = err
}

func (g *fakeGateway) clearFailure(t models.EntityType) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.errs, t)
}

func (g *fakeGateway) delay(t models.EntityType, d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delays[t] = d
}

func (g *fakeGateway) callCount(t models.EntityType) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[t]
}

func fakeFetch[T any](g *fakeGateway, ctx context.Context, t models.EntityType, items []T) ([]T, error) {
	g.mu.Lock()
	g.calls[t]++
	err := g.errs[t]
	d := g.delays[t]
	g.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	out := make([]T, len(items))
	copy(out, items)
	return out, nil
}

func (g *fakeGateway) FetchUsers(ctx context.Context) ([]models.User, error) {
	return fakeFetch(g, ctx, models.EntityUsers, g.users)
}

func (g *fakeGateway) FetchResources(ctx context.Context) ([]models.Resource, error) {
	return fakeFetch(g, ctx, models.EntityResources, g.resources)
}

func (g *fakeGateway) FetchLoans(ctx context.Context) ([]models.Loan, error) {
	return fakeFetch(g, ctx, models.EntityLoans, g.loans)
}

func (g *fakeGateway) FetchReservations(ctx context.Context) ([]models.Reservation, error) {
	return fakeFetch(g, ctx, models.EntityReservations, g.reservations)
}

func (g *fakeGateway) FetchMeetings(ctx context.Context) ([]models.Meeting, error) {
	return fakeFetch(g, ctx, models.EntityMeetings, g.meetings)
}

func (g *fakeGateway) FetchCategories(ctx context.Context) ([]models.Category, error) {
	return fakeFetch(g, ctx, models.EntityCategories, g.categories)
}

func (g *fakeGateway) FetchAreas(ctx context.Context) ([]models.Area, error) {
	return fakeFetch(g, ctx, models.EntityAreas, g.areas)
}

func (g *fakeGateway) FetchGrades(ctx context.Context) ([]models.Grade, error) {
	return fakeFetch(g, ctx, models.EntityGrades, g.grades)
}

func (g *fakeGateway) FetchHours(ctx context.Context) ([]models.PedagogicalHour, error) {
	return fakeFetch(g, ctx, models.EntityHours, g.hours)
}

func (g *fakeGateway) FetchSettings(ctx context.Context) ([]models.AppSettings, error) {
	return fakeFetch(g, ctx, models.EntitySettings, g.settings)
}

var errFakeWrite = errors.New("fake gateway: writes not supported in sync tests")

func (g *fakeGateway) CreateLoan(context.Context, *models.Loan) (*models.LoanUpdate, error) {
	return nil, errFakeWrite
}

func (g *fakeGateway) UpdateLoanStatus(context.Context, string, string) (*models.LoanUpdate, error) {
	return nil, errFakeWrite
}

func (g *fakeGateway) ProcessReturn(context.Context, string, models.ReturnReports) (*models.LoanUpdate, error) {
	return nil, errFakeWrite
}

func (g *fakeGateway) CreateReservation(context.Context, *models.Reservation) (*models.Reservation, error) {
	return nil, errFakeWrite
}

func (g *fakeGateway) UpdateReservationStatus(context.Context, string, string) (*models.Reservation, error) {
	return nil, errFakeWrite
}

func (g *fakeGateway) CreateResource(context.Context, *models.Resource) (*models.Resource, error) {
	return nil, errFakeWrite
}

func (g *fakeGateway) UpdateResource(context.Context, *models.Resource) (*models.Resource, error) {
	return nil, errFakeWrite
}

func (g *fakeGateway) DeleteResource(context.Context, string) (bool, error) {
	return false, errFakeWrite
}

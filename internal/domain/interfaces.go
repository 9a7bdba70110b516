package domain

import (
	"context"
	"time"

	"lendhub/internal/models"
)

// Gateway is the narrow read/write interface to the remote store. Every
// call may suspend; implementations must be safe for concurrent use and
// last-writer-wins safe across independent client instances.
type Gateway interface {
	FetchUsers(ctx context.Context) ([]models.User, error)
	FetchResources(ctx context.Context) ([]models.Resource, error)
	FetchLoans(ctx context.Context) ([]models.Loan, error)
	FetchReservations(ctx context.Context) ([]models.Reservation, error)
	FetchMeetings(ctx context.Context) ([]models.Meeting, error)
	FetchCategories(ctx context.Context) ([]models.Category, error)
	FetchAreas(ctx context.Context) ([]models.Area, error)
	FetchGrades(ctx context.Context) ([]models.Grade, error)
	FetchHours(ctx context.Context) ([]models.PedagogicalHour, error)
	FetchSettings(ctx context.Context) ([]models.AppSettings, error)

	CreateLoan(ctx context.Context, loan *models.Loan) (*models.LoanUpdate, error)
	// UpdateLoanStatus transitions a loan and returns the consistent
	// post-mutation loan/resources pair in one call, so the client never
	// coordinates two remote writes for one logical transition.
	UpdateLoanStatus(ctx context.Context, id string, status string) (*models.LoanUpdate, error)
	ProcessReturn(ctx context.Context, id string, reports models.ReturnReports) (*models.LoanUpdate, error)

	CreateReservation(ctx context.Context, r *models.Reservation) (*models.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id string, status string) (*models.Reservation, error)

	CreateResource(ctx context.Context, r *models.Resource) (*models.Resource, error)
	UpdateResource(ctx context.Context, r *models.Resource) (*models.Resource, error)
	DeleteResource(ctx context.Context, id string) (bool, error)
}

// Refresher triggers a domain re-synchronization. Implemented by the
// sync orchestrator, consumed by the change feed listener and the API.
type Refresher interface {
	LoadAll(ctx context.Context, force bool) (RefreshResult, error)
	RefreshTypes(ctx context.Context, types ...models.EntityType) error
}

// RefreshResult summarizes one orchestrated refresh.
type RefreshResult struct {
	Refreshed []models.EntityType
	Skipped   []models.EntityType
	Failed    map[models.EntityType]error
	Attempts  int
	Elapsed   time.Duration
}

// Partial reports whether at least one entity type failed to refresh.
func (r RefreshResult) Partial() bool { return len(r.Failed) > 0 }

// ChangePublisher announces that an entity type changed, so other
// domain instances can re-synchronize.
type ChangePublisher interface {
	PublishChange(ctx context.Context, t models.EntityType) error
}

// EventPublisher is the in-process bus mutation events go through.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// LoanManager owns the loan state machine and the coupled resource
// status side effects. No other component may set a resource to loaned
// or back as a consequence of lending activity.
type LoanManager interface {
	Create(ctx context.Context, req models.LoanRequest, creatorRole string) (*models.Loan, error)
	Approve(ctx context.Context, loanID string) (*models.Loan, error)
	Reject(ctx context.Context, loanID string) (*models.Loan, error)
	ProcessReturn(ctx context.Context, loanID string, reports models.ReturnReports) (*models.Loan, error)
}

// ReservationManager resolves calendar slots and owns the reservation
// lifecycle.
type ReservationManager interface {
	FindForSlot(date time.Time, slot string) (*models.Reservation, bool)
	Create(ctx context.Context, req models.ReservationRequest) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, id string, status string) (*models.Reservation, error)
}

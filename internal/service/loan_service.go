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

// loanTypes are the entity types a lending transition may touch.
var loanTypes = []models.EntityType{models.EntityLoans, models.EntityResources}

// LoanService owns the loan state machine and its side effects on
// resource status. It is the only component allowed to move a resource
// between available and loaned as a consequence of lending activity,
// and it presents every transition to cache readers as one atomic
// update.
type LoanService struct {
	store  *cache.Store
	gw     domain.Gateway
	exec   *executor.Executor
	bus    domain.EventPublisher
	feed   domain.ChangePublisher
	logger zerolog.Logger
	now    func() time.Time
}

func NewLoanService(store *cache.Store, gw domain.Gateway, exec *executor.Executor, bus domain.EventPublisher, feed domain.ChangePublisher, logger zerolog.Logger) *LoanService {
	return &LoanService{
		store:  store,
		gw:     gw,
		exec:   exec,
		bus:    bus,
		feed:   feed,
		logger: logger,
		now:    time.Now,
	}
}

// Create builds a new loan from the request. Privileged creators
// (admin, director) get the loan directly active with every resource
// marked loaned in the same step; everyone else starts at pending with
// resources untouched.
func (s *LoanService) Create(ctx context.Context, req models.LoanRequest, creatorRole string) (*models.Loan, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("loan create: user id is required")
	}
	if len(req.ResourceIDs) == 0 {
		return nil, fmt.Errorf("loan create: at least one resource is required")
	}

	resources := make([]models.Resource, 0, len(req.ResourceIDs))
	for _, id := range req.ResourceIDs {
		r, ok := cache.Find[models.Resource](s.store, models.EntityResources, id)
		if !ok {
			return nil, fmt.Errorf("loan create: resource %s: %w", id, domain.ErrNotFound)
		}
		if !r.Lendable() {
			return nil, fmt.Errorf("loan create: resource %s is %s: %w", id, r.Status, domain.ErrInvalidTransition)
		}
		resources = append(resources, r)
	}

	now := s.now()
	loan := models.Loan{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		UserName:    NewUserLookup(s.store).ByID(req.UserID).Name,
		Purpose:     req.Purpose,
		ResourceIDs: append([]string(nil), req.ResourceIDs...),
		Status:      models.LoanPending,
		LoanedAt:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	privileged := models.Privileged(creatorRole)
	if privileged {
		loan.Status = models.LoanActive
	}

	optimistic := []cache.Mutation{cache.Put(models.EntityLoans, loan)}
	if privileged {
		for _, r := range resources {
			r.Status = models.ResourceLoaned
			r.UpdatedAt = now
			optimistic = append(optimistic, cache.Put(models.EntityResources, r))
		}
	}

	var created models.Loan
	err := s.exec.Do(ctx, "create loan", loanTypes, optimistic, func(ctx context.Context) ([]cache.Mutation, error) {
		update, err := s.gw.CreateLoan(ctx, &loan)
		if err != nil {
			return nil, err
		}
		created = update.Loan
		return loanUpdateMutations(update), nil
	})
	if err != nil {
		return nil, err
	}

	s.publishLoanEvent(events.EventLoanCreated, created)
	s.announce(ctx, models.EntityLoans)
	if privileged {
		s.announce(ctx, models.EntityResources)
	}
	s.logger.Info().
		Str("loan_id", created.ID).
		Str("status", created.Status).
		Int("resources", len(created.ResourceIDs)).
		Msg("loan created")
	return &created, nil
}

// Approve moves a pending loan to active and every referenced resource
// to loaned as one logical operation.
func (s *LoanService) Approve(ctx context.Context, loanID string) (*models.Loan, error) {
	current, err := s.requireLoan(loanID, models.LoanPending, "approve")
	if err != nil {
		return nil, err
	}

	now := s.now()
	optimistic := make([]cache.Mutation, 0, len(current.ResourceIDs)+1)
	next := *current
	next.Status = models.LoanActive
	next.UpdatedAt = now
	optimistic = append(optimistic, cache.Put(models.EntityLoans, next))
	for _, id := range current.ResourceIDs {
		if r, ok := cache.Find[models.Resource](s.store, models.EntityResources, id); ok {
			r.Status = models.ResourceLoaned
			r.UpdatedAt = now
			optimistic = append(optimistic, cache.Put(models.EntityResources, r))
		}
	}

	var approved models.Loan
	err = s.exec.Do(ctx, "approve loan", loanTypes, optimistic, func(ctx context.Context) ([]cache.Mutation, error) {
		update, err := s.gw.UpdateLoanStatus(ctx, loanID, models.LoanActive)
		if err != nil {
			return nil, err
		}
		approved = update.Loan
		return loanUpdateMutations(update), nil
	})
	if err != nil {
		return nil, err
	}

	s.publishLoanEvent(events.EventLoanApproved, approved)
	s.announce(ctx, models.EntityLoans)
	s.announce(ctx, models.EntityResources)
	s.logger.Info().Str("loan_id", approved.ID).Msg("loan approved")
	return &approved, nil
}

// Reject moves a pending loan to rejected. Resources were never marked
// loaned, so they are not touched.
func (s *LoanService) Reject(ctx context.Context, loanID string) (*models.Loan, error) {
	current, err := s.requireLoan(loanID, models.LoanPending, "reject")
	if err != nil {
		return nil, err
	}

	next := *current
	next.Status = models.LoanRejected
	next.UpdatedAt = s.now()

	var rejected models.Loan
	err = s.exec.Do(ctx, "reject loan", loanTypes,
		[]cache.Mutation{cache.Put(models.EntityLoans, next)},
		func(ctx context.Context) ([]cache.Mutation, error) {
			update, err := s.gw.UpdateLoanStatus(ctx, loanID, models.LoanRejected)
			if err != nil {
				return nil, err
			}
			rejected = update.Loan
			return loanUpdateMutations(update), nil
		})
	if err != nil {
		return nil, err
	}

	s.publishLoanEvent(events.EventLoanRejected, rejected)
	s.announce(ctx, models.EntityLoans)
	s.logger.Info().Str("loan_id", rejected.ID).Msg("loan rejected")
	return &rejected, nil
}

// ProcessReturn closes an active loan. Every resource on the loan must
// be accounted for exactly once: received resources go back to
// available (or maintenance/damaged per the report), missing resources
// stay loaned and are annotated on the loan.
func (s *LoanService) ProcessReturn(ctx context.Context, loanID string, reports models.ReturnReports) (*models.Loan, error) {
	current, err := s.requireLoan(loanID, models.LoanActive, "return")
	if err != nil {
		return nil, err
	}

	if err := validateReturnReports(current, reports); err != nil {
		return nil, err
	}

	now := s.now()
	missing := make(map[string]bool, len(reports.Missing))
	for _, id := range reports.Missing {
		missing[id] = true
	}

	next := *current
	next.Status = models.LoanReturned
	next.ReturnedAt = &now
	next.UpdatedAt = now
	next.DamageReports = reports.Damage
	next.SuggestionReports = reports.Suggestions
	next.MissingResources = append([]string(nil), reports.Missing...)

	optimistic := []cache.Mutation{cache.Put(models.EntityLoans, next)}
	for _, id := range current.ResourceIDs {
		if missing[id] {
			// Stays loaned until it turns up; the loan carries the
			// missing-resource annotation.
			continue
		}
		r, ok := cache.Find[models.Resource](s.store, models.EntityResources, id)
		if !ok {
			continue
		}
		r.Status = models.ReturnedResourceStatus(reports.Damage[id])
		if notes := reports.Damage[id].Notes; notes != "" {
			r.DamageNotes = notes
		}
		r.UpdatedAt = now
		optimistic = append(optimistic, cache.Put(models.EntityResources, r))
	}

	var returned models.Loan
	err = s.exec.Do(ctx, "process return", loanTypes, optimistic, func(ctx context.Context) ([]cache.Mutation, error) {
		update, err := s.gw.ProcessReturn(ctx, loanID, reports)
		if err != nil {
			return nil, err
		}
		returned = update.Loan
		return loanUpdateMutations(update), nil
	})
	if err != nil {
		return nil, err
	}

	s.publishLoanEvent(events.EventLoanReturned, returned)
	s.announce(ctx, models.EntityLoans)
	s.announce(ctx, models.EntityResources)
	s.logger.Info().
		Str("loan_id", returned.ID).
		Int("missing", len(returned.MissingResources)).
		Int("damaged", len(returned.DamageReports)).
		Msg("loan returned")
	return &returned, nil
}

// requireLoan loads the loan and checks the state machine precondition
// against the status currently observable in the cache, converting
// races into a well-defined InvalidTransition.
func (s *LoanService) requireLoan(loanID, wantStatus, op string) (*models.Loan, error) {
	loan, ok := cache.Find[models.Loan](s.store, models.EntityLoans, loanID)
	if !ok {
		return nil, fmt.Errorf("%s loan %s: %w", op, loanID, domain.ErrNotFound)
	}
	if loan.Status != wantStatus {
		return nil, fmt.Errorf("%s loan %s: status is %s, want %s: %w",
			op, loanID, loan.Status, wantStatus, domain.ErrInvalidTransition)
	}
	return &loan, nil
}

// validateReturnReports enforces exhaustive accounting: reports may
// only reference resources on the loan, and no resource can be both
// missing and damaged.
func validateReturnReports(loan *models.Loan, reports models.ReturnReports) error {
	for _, id := range reports.Missing {
		if !loan.HasResource(id) {
			return fmt.Errorf("return loan %s: missing resource %s is not on the loan: %w",
				loan.ID, id, domain.ErrNotFound)
		}
	}
	missing := make(map[string]bool, len(reports.Missing))
	for _, id := range reports.Missing {
		missing[id] = true
	}
	for id := range reports.Damage {
		if !loan.HasResource(id) {
			return fmt.Errorf("return loan %s: damage report for %s, which is not on the loan: %w",
				loan.ID, id, domain.ErrNotFound)
		}
		if missing[id] {
			return fmt.Errorf("return loan %s: resource %s reported both missing and damaged: %w",
				loan.ID, id, domain.ErrInvalidTransition)
		}
	}
	for id := range reports.Suggestions {
		if !loan.HasResource(id) {
			return fmt.Errorf("return loan %s: suggestion for %s, which is not on the loan: %w",
				loan.ID, id, domain.ErrNotFound)
		}
	}
	return nil
}

func loanUpdateMutations(update *models.LoanUpdate) []cache.Mutation {
	muts := make([]cache.Mutation, 0, len(update.Resources)+1)
	muts = append(muts, cache.Put(models.EntityLoans, update.Loan))
	for _, r := range update.Resources {
		muts = append(muts, cache.Put(models.EntityResources, r))
	}
	return muts
}

func (s *LoanService) publishLoanEvent(eventType string, loan models.Loan) {
	if s.bus == nil {
		return
	}
	payload := events.LoanEventPayload{
		LoanID:      loan.ID,
		UserID:      loan.UserID,
		UserName:    loan.UserName,
		Status:      loan.Status,
		ResourceIDs: loan.ResourceIDs,
		Missing:     loan.MissingResources,
		When:        s.now(),
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("loan_id", loan.ID).Msg("publish event error")
	}
}

func (s *LoanService) announce(ctx context.Context, t models.EntityType) {
	if s.feed == nil {
		return
	}
	if err := s.feed.PublishChange(ctx, t); err != nil {
		s.logger.Warn().Err(err).Str("entity_type", string(t)).Msg("change feed publish error")
	}
}

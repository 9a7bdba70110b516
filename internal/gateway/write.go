package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lendhub/internal/domain"
	"lendhub/internal/models"
)

// CreateLoan inserts a loan. An active loan (privileged creation) marks
// every referenced resource loaned in the same transaction.
func (g *SQLite) CreateLoan(ctx context.Context, loan *models.Loan) (*models.LoanUpdate, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	resourceIDs, err := marshalJSON(loan.ResourceIDs)
	if err != nil {
		return nil, err
	}

	query := `
        INSERT INTO loans (id, user_id, user_name, purpose, resource_ids, status, loaned_at, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = tx.ExecContext(ctx, query,
		loan.ID, loan.UserID, loan.UserName, loan.Purpose,
		resourceIDs, loan.Status, loan.LoanedAt, loan.CreatedAt, loan.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if loan.Status == models.LoanActive {
		if err := g.setResourcesStatus(ctx, tx, loan.ResourceIDs, models.ResourceLoaned, loan.UpdatedAt); err != nil {
			return nil, err
		}
	}

	resources, err := g.resourcesByIDs(ctx, tx, loan.ResourceIDs)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.LoanUpdate{Loan: *loan, Resources: resources}, nil
}

// UpdateLoanStatus approves or rejects a pending loan. Approval also
// marks the loan's resources loaned; the caller gets the post-mutation
// loan and resources in one consistent pair.
func (g *SQLite) UpdateLoanStatus(ctx context.Context, id string, status string) (*models.LoanUpdate, error) {
	if status != models.LoanActive && status != models.LoanRejected {
		return nil, fmt.Errorf("loan %s: cannot move to %s: %w", id, status, domain.ErrInvalidTransition)
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	loan, err := g.loanByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanPending {
		return nil, fmt.Errorf("loan %s: status is %s, want %s: %w",
			id, loan.Status, models.LoanPending, domain.ErrInvalidTransition)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE loans SET status = ?, updated_at = ? WHERE id = ?`, status, now, id); err != nil {
		return nil, err
	}
	loan.Status = status
	loan.UpdatedAt = now

	if status == models.LoanActive {
		if err := g.setResourcesStatus(ctx, tx, loan.ResourceIDs, models.ResourceLoaned, now); err != nil {
			return nil, err
		}
	}

	resources, err := g.resourcesByIDs(ctx, tx, loan.ResourceIDs)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.LoanUpdate{Loan: loan, Resources: resources}, nil
}

// ProcessReturn closes an active loan. Received resources get their
// status from the damage severity policy; missing resources stay
// loaned and are recorded on the loan itself.
func (g *SQLite) ProcessReturn(ctx context.Context, id string, reports models.ReturnReports) (*models.LoanUpdate, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	loan, err := g.loanByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanActive {
		return nil, fmt.Errorf("loan %s: status is %s, want %s: %w",
			id, loan.Status, models.LoanActive, domain.ErrInvalidTransition)
	}

	now := time.Now().UTC()
	loan.Status = models.LoanReturned
	loan.ReturnedAt = &now
	loan.UpdatedAt = now
	loan.DamageReports = reports.Damage
	loan.SuggestionReports = reports.Suggestions
	loan.MissingResources = append([]string(nil), reports.Missing...)

	damageReports, err := marshalJSON(reports.Damage)
	if err != nil {
		return nil, err
	}
	suggestionReports, err := marshalJSON(reports.Suggestions)
	if err != nil {
		return nil, err
	}
	missingResources, err := marshalJSON(reports.Missing)
	if err != nil {
		return nil, err
	}

	query := `
        UPDATE loans
        SET status = ?, returned_at = ?, damage_reports = ?, suggestion_reports = ?, missing_resources = ?, updated_at = ?
        WHERE id = ?
    `
	if _, err := tx.ExecContext(ctx, query,
		loan.Status, now, damageReports, suggestionReports, missingResources, now, id); err != nil {
		return nil, err
	}

	missing := make(map[string]bool, len(reports.Missing))
	for _, rid := range reports.Missing {
		missing[rid] = true
	}
	for _, rid := range loan.ResourceIDs {
		if missing[rid] {
			continue
		}
		report := reports.Damage[rid]
		if _, err := tx.ExecContext(ctx,
			`UPDATE resources SET status = ?, damage_notes = ?, updated_at = ? WHERE id = ?`,
			models.ReturnedResourceStatus(report), report.Notes, now, rid); err != nil {
			return nil, err
		}
	}

	resources, err := g.resourcesByIDs(ctx, tx, loan.ResourceIDs)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.LoanUpdate{Loan: loan, Resources: resources}, nil
}

// CreateReservation inserts a reservation, refusing a slot already held
// by a non-cancelled reservation on the same day.
func (g *SQLite) CreateReservation(ctx context.Context, r *models.Reservation) (*models.Reservation, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
        SELECT COUNT(*)
        FROM reservations
        WHERE date(date) = date(?)
        AND slot = ?
        AND status != ?
    `
	var held int
	err = tx.QueryRowContext(ctx, query,
		r.Date.Format("2006-01-02"), r.Slot, models.ReservationCancelled).Scan(&held)
	if err != nil {
		return nil, err
	}
	if held > 0 {
		return nil, fmt.Errorf("reservation %s on %s: %w",
			r.Slot, r.Date.Format("2006-01-02"), domain.ErrSlotConflict)
	}

	insert := `
        INSERT INTO reservations (id, user_id, user_name, purpose, date, slot, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = tx.ExecContext(ctx, insert,
		r.ID, r.UserID, r.UserName, r.Purpose, r.Date, r.Slot, r.Status, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := *r
	return &created, nil
}

func (g *SQLite) UpdateReservationStatus(ctx context.Context, id string, status string) (*models.Reservation, error) {
	now := time.Now().UTC()
	result, err := g.db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("reservation %s: %w", id, domain.ErrNotFound)
	}

	row := g.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (g *SQLite) CreateResource(ctx context.Context, r *models.Resource) (*models.Resource, error) {
	attributes, err := marshalJSON(r.Attributes)
	if err != nil {
		return nil, err
	}

	query := `
        INSERT INTO resources (id, name, brand, model, status, category_id, area_id, attributes, damage_notes, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = g.db.ExecContext(ctx, query,
		r.ID, r.Name, r.Brand, r.Model, r.Status, r.CategoryID, r.AreaID,
		attributes, r.DamageNotes, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	created := *r
	return &created, nil
}

func (g *SQLite) UpdateResource(ctx context.Context, r *models.Resource) (*models.Resource, error) {
	attributes, err := marshalJSON(r.Attributes)
	if err != nil {
		return nil, err
	}

	query := `
        UPDATE resources
        SET name = ?, brand = ?, model = ?, status = ?, category_id = ?, area_id = ?, attributes = ?, damage_notes = ?, updated_at = ?
        WHERE id = ?
    `
	result, err := g.db.ExecContext(ctx, query,
		r.Name, r.Brand, r.Model, r.Status, r.CategoryID, r.AreaID,
		attributes, r.DamageNotes, r.UpdatedAt, r.ID)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("resource %s: %w", r.ID, domain.ErrNotFound)
	}

	updated := *r
	return &updated, nil
}

func (g *SQLite) DeleteResource(ctx context.Context, id string) (bool, error) {
	result, err := g.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (g *SQLite) loanByID(ctx context.Context, tx *sql.Tx, id string) (models.Loan, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = ?`, id)
	loan, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return loan, fmt.Errorf("loan %s: %w", id, domain.ErrNotFound)
	}
	return loan, err
}

func (g *SQLite) setResourcesStatus(ctx context.Context, tx *sql.Tx, ids []string, status string, now time.Time) error {
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE resources SET status = ?, updated_at = ? WHERE id = ?`, status, now, id); err != nil {
			return err
		}
	}
	return nil
}

func (g *SQLite) resourcesByIDs(ctx context.Context, tx *sql.Tx, ids []string) ([]models.Resource, error) {
	resources := make([]models.Resource, 0, len(ids))
	for _, id := range ids {
		row := tx.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id)
		r, err := scanResource(row)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	return resources, nil
}

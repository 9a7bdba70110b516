package gateway

import (
	"context"
	"time"

	"lendhub/internal/models"
)

// UpsertUser creates or updates a user record.
func (g *SQLite) UpsertUser(ctx context.Context, u *models.User) error {
	query := `
        INSERT INTO users (id, name, email, role, grade_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            email = excluded.email,
            role = excluded.role,
            grade_id = excluded.grade_id,
            updated_at = excluded.updated_at
    `
	_, err := g.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.Role, u.GradeID, u.CreatedAt, time.Now().UTC())
	return err
}

func (g *SQLite) UpsertCategory(ctx context.Context, c *models.Category) error {
	query := `
        INSERT INTO categories (id, name, description)
        VALUES (?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            description = excluded.description
    `
	_, err := g.db.ExecContext(ctx, query, c.ID, c.Name, c.Description)
	return err
}

func (g *SQLite) UpsertArea(ctx context.Context, a *models.Area) error {
	query := `
        INSERT INTO areas (id, name)
        VALUES (?, ?)
        ON CONFLICT(id) DO UPDATE SET name = excluded.name
    `
	_, err := g.db.ExecContext(ctx, query, a.ID, a.Name)
	return err
}

func (g *SQLite) UpsertGrade(ctx context.Context, gr *models.Grade) error {
	query := `
        INSERT INTO grades (id, name)
        VALUES (?, ?)
        ON CONFLICT(id) DO UPDATE SET name = excluded.name
    `
	_, err := g.db.ExecContext(ctx, query, gr.ID, gr.Name)
	return err
}

func (g *SQLite) UpsertHour(ctx context.Context, h *models.PedagogicalHour) error {
	query := `
        INSERT INTO pedagogical_hours (id, label, position)
        VALUES (?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            label = excluded.label,
            position = excluded.position
    `
	_, err := g.db.ExecContext(ctx, query, h.ID, h.Label, h.Position)
	return err
}

func (g *SQLite) UpsertSettings(ctx context.Context, s *models.AppSettings) error {
	query := `
        INSERT INTO settings (id, school_name, max_active_loans, max_loan_resources)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            school_name = excluded.school_name,
            max_active_loans = excluded.max_active_loans,
            max_loan_resources = excluded.max_loan_resources
    `
	_, err := g.db.ExecContext(ctx, query, s.ID, s.SchoolName, s.MaxActiveLoans, s.MaxLoanResources)
	return err
}

// CreateMeeting inserts a calendar meeting.
func (g *SQLite) CreateMeeting(ctx context.Context, m *models.Meeting) error {
	query := `
        INSERT INTO meetings (id, title, user_id, user_name, date, slot, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := g.db.ExecContext(ctx, query,
		m.ID, m.Title, m.UserID, m.UserName, m.Date, m.Slot, m.CreatedAt)
	return err
}

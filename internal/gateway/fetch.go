package gateway

import (
	"context"
	"database/sql"

	"lendhub/internal/models"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (g *SQLite) FetchUsers(ctx context.Context) ([]models.User, error) {
	query := `
        SELECT id, name, email, role, grade_id, created_at, updated_at
        FROM users ORDER BY name
    `

	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var email, gradeID sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &email, &u.Role, &gradeID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Email = email.String
		u.GradeID = gradeID.String
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanResource(row rowScanner) (models.Resource, error) {
	var r models.Resource
	var brand, model, categoryID, areaID, attributes, damageNotes sql.NullString
	err := row.Scan(&r.ID, &r.Name, &brand, &model, &r.Status,
		&categoryID, &areaID, &attributes, &damageNotes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	r.Brand = brand.String
	r.Model = model.String
	r.CategoryID = categoryID.String
	r.AreaID = areaID.String
	r.DamageNotes = damageNotes.String
	if err := unmarshalJSON(attributes, &r.Attributes); err != nil {
		return r, err
	}
	return r, nil
}

const resourceColumns = `id, name, brand, model, status, category_id, area_id, attributes, damage_notes, created_at, updated_at`

func (g *SQLite) FetchResources(ctx context.Context) ([]models.Resource, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT `+resourceColumns+` FROM resources ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

const loanColumns = `id, user_id, user_name, purpose, resource_ids, status, loaned_at, returned_at,
               damage_reports, suggestion_reports, missing_resources, created_at, updated_at`

func scanLoan(row rowScanner) (models.Loan, error) {
	var l models.Loan
	var userName, purpose sql.NullString
	var resourceIDs, damageReports, suggestionReports, missingResources sql.NullString
	var returnedAt sql.NullTime
	err := row.Scan(&l.ID, &l.UserID, &userName, &purpose, &resourceIDs, &l.Status,
		&l.LoanedAt, &returnedAt, &damageReports, &suggestionReports, &missingResources,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return l, err
	}
	l.UserName = userName.String
	l.Purpose = purpose.String
	if returnedAt.Valid {
		t := returnedAt.Time
		l.ReturnedAt = &t
	}
	if err := unmarshalJSON(resourceIDs, &l.ResourceIDs); err != nil {
		return l, err
	}
	if err := unmarshalJSON(damageReports, &l.DamageReports); err != nil {
		return l, err
	}
	if err := unmarshalJSON(suggestionReports, &l.SuggestionReports); err != nil {
		return l, err
	}
	if err := unmarshalJSON(missingResources, &l.MissingResources); err != nil {
		return l, err
	}
	return l, nil
}

func (g *SQLite) FetchLoans(ctx context.Context) ([]models.Loan, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

const reservationColumns = `id, user_id, user_name, purpose, date, slot, status, created_at, updated_at`

func scanReservation(row rowScanner) (models.Reservation, error) {
	var r models.Reservation
	var userName, purpose sql.NullString
	err := row.Scan(&r.ID, &r.UserID, &userName, &purpose, &r.Date, &r.Slot,
		&r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	r.UserName = userName.String
	r.Purpose = purpose.String
	return r, nil
}

func (g *SQLite) FetchReservations(ctx context.Context) ([]models.Reservation, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY date, slot`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

func (g *SQLite) FetchMeetings(ctx context.Context) ([]models.Meeting, error) {
	query := `SELECT id, title, user_id, user_name, date, slot, created_at FROM meetings ORDER BY date, slot`

	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []models.Meeting
	for rows.Next() {
		var m models.Meeting
		var userID, userName sql.NullString
		if err := rows.Scan(&m.ID, &m.Title, &userID, &userName, &m.Date, &m.Slot, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.UserID = userID.String
		m.UserName = userName.String
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

func (g *SQLite) FetchCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		var description sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &description); err != nil {
			return nil, err
		}
		c.Description = description.String
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (g *SQLite) FetchAreas(ctx context.Context) ([]models.Area, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT id, name FROM areas ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var areas []models.Area
	for rows.Next() {
		var a models.Area
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

func (g *SQLite) FetchGrades(ctx context.Context) ([]models.Grade, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT id, name FROM grades ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grades []models.Grade
	for rows.Next() {
		var gr models.Grade
		if err := rows.Scan(&gr.ID, &gr.Name); err != nil {
			return nil, err
		}
		grades = append(grades, gr)
	}
	return grades, rows.Err()
}

func (g *SQLite) FetchHours(ctx context.Context) ([]models.PedagogicalHour, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT id, label, position FROM pedagogical_hours ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hours []models.PedagogicalHour
	for rows.Next() {
		var h models.PedagogicalHour
		if err := rows.Scan(&h.ID, &h.Label, &h.Position); err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

func (g *SQLite) FetchSettings(ctx context.Context) ([]models.AppSettings, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT id, school_name, max_active_loans, max_loan_resources FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []models.AppSettings
	for rows.Next() {
		var s models.AppSettings
		var schoolName sql.NullString
		if err := rows.Scan(&s.ID, &schoolName, &s.MaxActiveLoans, &s.MaxLoanResources); err != nil {
			return nil, err
		}
		s.SchoolName = schoolName.String
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

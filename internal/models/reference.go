package models

import "time"

// Category groups resources by kind (laptops, projectors, lab kits).
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (c Category) EntityID() string { return c.ID }

// Area is a physical location resources belong to.
type Area struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (a Area) EntityID() string { return a.ID }

// Grade is a school class group users belong to.
type Grade struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (g Grade) EntityID() string { return g.ID }

// PedagogicalHour defines one reservable class period. Label is the
// canonical slot identifier used throughout the reservation calendar.
type PedagogicalHour struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Position int    `json:"position"`
}

func (h PedagogicalHour) EntityID() string { return h.ID }

// Meeting occupies a calendar slot without going through the
// reservation lifecycle (staff meetings share the calendar view).
type Meeting struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Date      time.Time `json:"date"`
	Slot      string    `json:"slot"`
	CreatedAt time.Time `json:"created_at"`
}

func (m Meeting) EntityID() string { return m.ID }

// AppSettings is the singleton institution-wide configuration record.
type AppSettings struct {
	ID               string `json:"id"`
	SchoolName       string `json:"school_name"`
	MaxActiveLoans   int    `json:"max_active_loans"`
	MaxLoanResources int    `json:"max_loan_resources"`
}

func (s AppSettings) EntityID() string { return s.ID }

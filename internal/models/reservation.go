package models

import "time"

const (
	ReservationConfirmed = "confirmed"
	ReservationCompleted = "completed"
	ReservationNoShow    = "no_show"
	ReservationCancelled = "cancelled"
)

// Reservation books a single pedagogical time slot on a given day.
type Reservation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Purpose   string    `json:"purpose"`
	Date      time.Time `json:"date"`
	Slot      string    `json:"slot"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r Reservation) EntityID() string { return r.ID }

// Blocks reports whether the reservation occupies its slot, i.e. whether a
// new reservation for the same (date, slot) pair must be refused.
func (r Reservation) Blocks() bool { return r.Status != ReservationCancelled }

// ReservationRequest is the caller-supplied input for creating a reservation.
type ReservationRequest struct {
	UserID  string    `json:"user_id"`
	Purpose string    `json:"purpose"`
	Date    time.Time `json:"date"`
	Slot    string    `json:"slot"`
}

// ValidReservationStatus reports whether s is a known reservation status.
func ValidReservationStatus(s string) bool {
	switch s {
	case ReservationConfirmed, ReservationCompleted, ReservationNoShow, ReservationCancelled:
		return true
	}
	return false
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

package models

import "time"

const (
	ResourceAvailable   = "available"
	ResourceLoaned      = "loaned"
	ResourceMaintenance = "maintenance"
	ResourceDamaged     = "damaged"
)

// Resource is a loanable institutional asset (device, equipment).
type Resource struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Brand       string            `json:"brand"`
	Model       string            `json:"model"`
	Status      string            `json:"status"`
	CategoryID  string            `json:"category_id"`
	AreaID      string            `json:"area_id"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	DamageNotes string            `json:"damage_notes,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (r Resource) EntityID() string { return r.ID }

// Lendable reports whether the resource can be attached to a new loan.
func (r Resource) Lendable() bool { return r.Status == ResourceAvailable }

// ValidResourceStatus reports whether s is a known resource status.
func ValidResourceStatus(s string) bool {
	switch s {
	case ResourceAvailable, ResourceLoaned, ResourceMaintenance, ResourceDamaged:
		return true
	}
	return false
}

package models

import "time"

const (
	LoanPending  = "pending"
	LoanActive   = "active"
	LoanRejected = "rejected"
	LoanReturned = "returned"
)

// DamageReport describes the state of one resource at return time.
// Codes are structured damage classifiers; Notes is free text from the
// person processing the return.
type DamageReport struct {
	Codes []string `json:"codes,omitempty"`
	Notes string   `json:"notes,omitempty"`
}

// Empty reports whether the report carries no information at all.
func (d DamageReport) Empty() bool { return len(d.Codes) == 0 && d.Notes == "" }

// Loan tracks a set of resources lent to a user.
type Loan struct {
	ID                string                  `json:"id"`
	UserID            string                  `json:"user_id"`
	UserName          string                  `json:"user_name,omitempty"`
	Purpose           string                  `json:"purpose"`
	ResourceIDs       []string                `json:"resource_ids"`
	Status            string                  `json:"status"`
	LoanedAt          time.Time               `json:"loaned_at"`
	ReturnedAt        *time.Time              `json:"returned_at,omitempty"`
	DamageReports     map[string]DamageReport `json:"damage_reports,omitempty"`
	SuggestionReports map[string]string       `json:"suggestion_reports,omitempty"`
	MissingResources  []string                `json:"missing_resources,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

func (l Loan) EntityID() string { return l.ID }

// Terminal reports whether the loan can no longer change status.
func (l Loan) Terminal() bool {
	return l.Status == LoanRejected || l.Status == LoanReturned
}

// HasResource reports whether the loan references the given resource.
func (l Loan) HasResource(resourceID string) bool {
	for _, id := range l.ResourceIDs {
		if id == resourceID {
			return true
		}
	}
	return false
}

// LoanRequest is the caller-supplied input for creating a loan.
type LoanRequest struct {
	UserID      string   `json:"user_id"`
	Purpose     string   `json:"purpose"`
	ResourceIDs []string `json:"resource_ids"`
}

// ReturnReports bundles everything recorded while processing a return.
type ReturnReports struct {
	Damage      map[string]DamageReport `json:"damage,omitempty"`
	Suggestions map[string]string       `json:"suggestions,omitempty"`
	Missing     []string                `json:"missing,omitempty"`
}

// ReturnedResourceStatus applies the damage severity policy to one
// returned resource: a structured damage code marks it damaged, a
// free-text note alone routes it to maintenance review, a clean report
// releases it back to available.
func ReturnedResourceStatus(report DamageReport) string {
	switch {
	case len(report.Codes) > 0:
		return ResourceDamaged
	case report.Notes != "":
		return ResourceMaintenance
	default:
		return ResourceAvailable
	}
}

// LoanUpdate is the consistent post-mutation pair returned by the gateway
// for operations that touch a loan and its resources together.
type LoanUpdate struct {
	Loan      Loan       `json:"loan"`
	Resources []Resource `json:"resources"`
}

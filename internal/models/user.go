package models

import "time"

const (
	RoleStudent  = "student"
	RoleTeacher  = "teacher"
	RoleAdmin    = "admin"
	RoleDirector = "director"
)

// User is a member of the institution who can borrow resources or
// reserve slots.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	GradeID   string    `json:"grade_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) EntityID() string { return u.ID }

// Privileged reports whether the role may create loans that skip the
// pending approval step.
func Privileged(role string) bool {
	return role == RoleAdmin || role == RoleDirector
}

// UnknownUserName is the placeholder substituted when a user reference
// cannot be resolved against the cached users collection.
const UnknownUserName = "(unknown user)"

// UnknownUser returns the placeholder record for an unresolvable id.
// Reference resolution degrades to this value instead of failing.
func UnknownUser(id string) User {
	return User{ID: id, Name: UnknownUserName}
}

// Package identity carries the authenticated caller's resolved role and
// attributes for a single request.
package identity

import "strings"

// Roles recognized by the lifecycle engine.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// Actor is the caller's identity for one request, resolved from the
// session. A zero Actor means the request carries no usable session.
type Actor struct {
	UserID    int    `json:"user_id"`
	Role      string `json:"role"`
	Email     string `json:"email"`
	DoctorID  int    `json:"doctor_id,omitempty"`
	PatientID int    `json:"patient_id,omitempty"`
}

// Authenticated reports whether the actor carries a resolved role.
func (a Actor) Authenticated() bool {
	return strings.TrimSpace(a.Role) != ""
}

// EmailMatches compares case-insensitively against the actor's email.
func (a Actor) EmailMatches(email string) bool {
	return a.Email != "" && strings.EqualFold(strings.TrimSpace(a.Email), strings.TrimSpace(email))
}

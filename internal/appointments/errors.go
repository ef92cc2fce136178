package appointments

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized is returned when the request carries no resolved
	// session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the actor's role lacks permission.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when no appointment matches the given id.
	ErrNotFound = errors.New("appointment not found")

	// ErrDoctorIDType is returned when doctor_id is not an integer.
	ErrDoctorIDType = errors.New("doctor_id must be an integer")

	// ErrDoctorMismatch is returned when the payload's doctor display
	// name disagrees with the directory record for doctor_id.
	ErrDoctorMismatch = errors.New("doctor_id does not match selected doctor name")
)

// MissingFieldsError reports which required creation fields were empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// UnknownDoctorError reports a doctor_id with no directory record.
type UnknownDoctorError struct {
	DoctorID int
}

func (e *UnknownDoctorError) Error() string {
	return fmt.Sprintf("invalid doctor_id: %d", e.DoctorID)
}

// InvalidStatusError reports a status outside the allowed set.
type InvalidStatusError struct {
	Status  string
	Allowed []string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status %q, allowed: %s", e.Status, strings.Join(e.Allowed, ", "))
}

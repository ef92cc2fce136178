// Package directory exposes the clinic's doctor reference data. Records
// are immutable from the API's point of view; writes happen out of band.
package directory

import "errors"

// ErrDoctorNotFound is returned when no doctor matches the given id.
var ErrDoctorNotFound = errors.New("doctor not found")

// Doctor is one row of reference data.
type Doctor struct {
	ID        int    `json:"id"`
	FullName  string `json:"full_name"`
	Specialty string `json:"specialty"`
	Available bool   `json:"available"`
}

// Filter narrows a doctor query. Zero-value fields are ignored.
type Filter struct {
	Specialty string
	Available *bool
}

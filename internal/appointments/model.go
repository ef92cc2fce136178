// Package appointments implements the appointment lifecycle engine:
// creation against the doctor directory, role-scoped listing, and
// status transitions with best-effort patient notification.
package appointments

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Status is an appointment's lifecycle state.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// AllowedStatuses lists the valid states in canonical order.
func AllowedStatuses() []string {
	return []string{
		string(StatusBooked),
		string(StatusConfirmed),
		string(StatusCancelled),
		string(StatusCompleted),
	}
}

// ParseStatus normalizes a raw status string case-insensitively.
func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusBooked:
		return StatusBooked, true
	case StatusConfirmed:
		return StatusConfirmed, true
	case StatusCancelled:
		return StatusCancelled, true
	case StatusCompleted:
		return StatusCompleted, true
	default:
		return "", false
	}
}

// Appointment is one booking record. The Doctor display name is checked
// against the directory at creation time only.
type Appointment struct {
	ID        int    `json:"id"`
	DoctorID  int    `json:"doctor_id"`
	Doctor    string `json:"doctor"`
	Specialty string `json:"specialty"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Status    Status `json:"status"`
}

// CreateRequest is the payload for booking an appointment. DoctorID is
// kept raw so both JSON numbers and numeric strings are accepted, and so
// an absent value can be told apart from a malformed one.
type CreateRequest struct {
	Specialty string          `json:"specialty"`
	Doctor    string          `json:"doctor"`
	Date      string          `json:"date"`
	Time      string          `json:"time"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Email     string          `json:"email"`
	DoctorID  json.RawMessage `json:"doctor_id"`
}

// MissingFields lists empty required fields in declaration order.
func (r *CreateRequest) MissingFields() []string {
	var missing []string
	check := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	check("specialty", r.Specialty)
	check("doctor", r.Doctor)
	check("date", r.Date)
	check("time", r.Time)
	check("name", r.Name)
	check("phone", r.Phone)
	check("email", r.Email)
	if r.doctorIDEmpty() {
		missing = append(missing, "doctor_id")
	}
	return missing
}

func (r *CreateRequest) doctorIDEmpty() bool {
	raw := strings.TrimSpace(string(r.DoctorID))
	if raw == "" || raw == "null" {
		return true
	}
	var s string
	if err := json.Unmarshal(r.DoctorID, &s); err == nil && strings.TrimSpace(s) == "" {
		return true
	}
	return false
}

// ParsedDoctorID returns the doctor id as an integer, accepting both
// JSON numbers and numeric strings.
func (r *CreateRequest) ParsedDoctorID() (int, error) {
	var id int
	if err := json.Unmarshal(r.DoctorID, &id); err == nil {
		return id, nil
	}
	var s string
	if err := json.Unmarshal(r.DoctorID, &s); err == nil {
		if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return id, nil
		}
	}
	return 0, ErrDoctorIDType
}

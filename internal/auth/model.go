// Package auth owns user accounts and the session layer that resolves a
// request's actor.
package auth

import (
	"strings"
	"time"
)

// User is an account row. PasswordHash never leaves the package.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	PatientID    int       `json:"patient_id,omitempty"`
	DoctorID     int       `json:"doctor_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the account shape returned by the API.
type PublicUser struct {
	UserID    int    `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	PatientID int    `json:"patient_id,omitempty"`
	DoctorID  int    `json:"doctor_id,omitempty"`
}

// Public strips credentials from the account.
func (u *User) Public() PublicUser {
	return PublicUser{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		PatientID: u.PatientID,
		DoctorID:  u.DoctorID,
	}
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// MissingFields lists empty required fields in declaration order.
func (r *RegisterRequest) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(r.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(r.Password) == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(r.Phone) == "" {
		missing = append(missing, "phone")
	}
	return missing
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

package auth

import "errors"

var (
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrUserNotFound is returned when no account matches.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionInvalid is returned when a session token cannot be
	// resolved to a live session.
	ErrSessionInvalid = errors.New("session invalid")
)

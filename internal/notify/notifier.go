// Package notify delivers best-effort patient notifications. Senders
// report a structured outcome and never raise: a failed delivery must
// not fail the request that triggered it.
package notify

import "context"

// Result is the outcome of a single notification attempt. It is attached
// to API responses but never persisted.
type Result struct {
	Sent  bool   `json:"sent"`
	SID   string `json:"sid,omitempty"`
	Error string `json:"error,omitempty"`
}

// Failure builds a not-sent result with a reason.
func Failure(reason string) Result {
	return Result{Sent: false, Error: reason}
}

// SMSNotifier sends a text message to a phone number.
type SMSNotifier interface {
	SendSMS(ctx context.Context, to, body string) Result
}

// Disabled is the sender used when SMS delivery is switched off. Every
// attempt reports a structured failure so callers can surface it.
type Disabled struct{}

// SendSMS reports the disabled state without delivering anything.
func (Disabled) SendSMS(ctx context.Context, to, body string) Result {
	return Failure("sms disabled")
}

package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/medibook/booking-platform/internal/directory"
	"github.com/medibook/booking-platform/internal/identity"
	"github.com/medibook/booking-platform/internal/notify"
	"github.com/medibook/booking-platform/internal/observability/metrics"
	"github.com/medibook/booking-platform/pkg/logging"
)

const defaultNotifyTimeout = 5 * time.Second

// ListOptions are the caller-supplied filters for a listing. They
// narrow the role-scoped set, never widen it.
type ListOptions struct {
	DoctorID *int
	Email    string
}

// StatusCount is one row of a report summary.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

// ReportSummary is the per-status roll-up for the actor's visible rows.
type ReportSummary struct {
	Count int           `json:"count"`
	Items []StatusCount `json:"items"`
}

// EngineConfig wires the lifecycle engine's collaborators. SMS, Email
// and Metrics are optional.
type EngineConfig struct {
	Repository    Repository
	Directory     directory.Directory
	SMS           notify.SMSNotifier
	Email         notify.EmailSender
	Metrics       *metrics.BookingMetrics
	Logger        *logging.Logger
	NotifyTimeout time.Duration
}

// Engine validates, authorizes and executes appointment operations.
type Engine struct {
	repo          Repository
	dir           directory.Directory
	sms           notify.SMSNotifier
	email         notify.EmailSender
	metrics       *metrics.BookingMetrics
	logger        *logging.Logger
	notifyTimeout time.Duration
}

// NewEngine creates a lifecycle engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Repository == nil {
		panic("appointments: repository required")
	}
	if cfg.Directory == nil {
		panic("appointments: doctor directory required")
	}
	if cfg.SMS == nil {
		cfg.SMS = notify.Disabled{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyTimeout
	}
	return &Engine{
		repo:          cfg.Repository,
		dir:           cfg.Directory,
		sms:           cfg.SMS,
		email:         cfg.Email,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		notifyTimeout: cfg.NotifyTimeout,
	}
}

// Create books an appointment for a patient actor. The returned
// notify.Result describes the confirmation SMS attempt; a failed send
// never fails the creation.
func (e *Engine) Create(ctx context.Context, actor identity.Actor, req CreateRequest) (Appointment, notify.Result, error) {
	if !actor.Authenticated() {
		return Appointment{}, notify.Result{}, ErrUnauthorized
	}
	if actor.Role != identity.RolePatient {
		return Appointment{}, notify.Result{}, ErrForbidden
	}

	if missing := req.MissingFields(); len(missing) > 0 {
		return Appointment{}, notify.Result{}, &MissingFieldsError{Fields: missing}
	}

	doctorID, err := req.ParsedDoctorID()
	if err != nil {
		return Appointment{}, notify.Result{}, err
	}

	doc, err := e.dir.FindByID(ctx, doctorID)
	if err != nil {
		if err == directory.ErrDoctorNotFound {
			return Appointment{}, notify.Result{}, &UnknownDoctorError{DoctorID: doctorID}
		}
		return Appointment{}, notify.Result{}, fmt.Errorf("appointments: doctor lookup: %w", err)
	}

	requestedName := strings.TrimSpace(req.Doctor)
	if requestedName != "" && !strings.EqualFold(requestedName, strings.TrimSpace(doc.FullName)) {
		return Appointment{}, notify.Result{}, ErrDoctorMismatch
	}

	appt, err := e.repo.Create(ctx, Appointment{
		DoctorID:  doctorID,
		Doctor:    requestedName,
		Specialty: strings.TrimSpace(req.Specialty),
		Date:      strings.TrimSpace(req.Date),
		Time:      strings.TrimSpace(req.Time),
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		Status:    StatusBooked,
	})
	if err != nil {
		return Appointment{}, notify.Result{}, err
	}

	e.metrics.ObserveCreated()
	e.logger.Info("appointment created",
		"id", appt.ID,
		"doctor_id", appt.DoctorID,
		"patient_email", appt.Email,
	)

	sms := e.sendBookingConfirmation(ctx, appt)
	return appt, sms, nil
}

// List returns the appointments visible to the actor, narrowed by the
// given options, newest-first.
func (e *Engine) List(ctx context.Context, actor identity.Actor, opts ListOptions) ([]Appointment, error) {
	filter, err := scopeFilter(actor)
	if err != nil {
		return nil, err
	}

	if opts.DoctorID != nil {
		if filter.DoctorID != nil && *filter.DoctorID != *opts.DoctorID {
			return []Appointment{}, nil
		}
		filter.DoctorID = opts.DoctorID
	}
	if opts.Email != "" {
		if filter.Email != "" && !strings.EqualFold(strings.TrimSpace(filter.Email), strings.TrimSpace(opts.Email)) {
			return []Appointment{}, nil
		}
		filter.Email = opts.Email
	}

	return e.repo.List(ctx, filter)
}

// UpdateStatus transitions an appointment. Patients may only cancel
// their own appointments; doctors and admins may set any status on any
// appointment. The notification is attempted only when the status
// actually changed.
func (e *Engine) UpdateStatus(ctx context.Context, actor identity.Actor, id int, rawStatus string) (Appointment, notify.Result, error) {
	status, ok := ParseStatus(rawStatus)
	if !ok {
		return Appointment{}, notify.Result{}, &InvalidStatusError{Status: rawStatus, Allowed: AllowedStatuses()}
	}

	if !actor.Authenticated() {
		return Appointment{}, notify.Result{}, ErrUnauthorized
	}

	current, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, notify.Result{}, err
	}

	switch actor.Role {
	case identity.RolePatient:
		if !actor.EmailMatches(current.Email) {
			return Appointment{}, notify.Result{}, ErrForbidden
		}
		if status != StatusCancelled {
			return Appointment{}, notify.Result{}, ErrForbidden
		}
	case identity.RoleDoctor, identity.RoleAdmin:
		// Any transition allowed, including re-opening completed or
		// cancelled appointments.
	default:
		return Appointment{}, notify.Result{}, ErrForbidden
	}

	updated, err := e.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return Appointment{}, notify.Result{}, err
	}

	changed := current.Status != status
	sms := notify.Failure("status unchanged")
	if changed {
		e.metrics.ObserveTransition(string(current.Status), string(status))
		e.logger.Info("appointment status changed",
			"id", updated.ID,
			"from", current.Status,
			"to", status,
			"actor_role", actor.Role,
		)
		sms = e.sendStatusUpdate(ctx, updated)
	}

	return updated, sms, nil
}

// Report rolls up the actor's visible appointments per status.
func (e *Engine) Report(ctx context.Context, actor identity.Actor) (ReportSummary, error) {
	filter, err := scopeFilter(actor)
	if err != nil {
		return ReportSummary{}, err
	}

	counts, err := e.repo.CountByStatus(ctx, filter)
	if err != nil {
		return ReportSummary{}, err
	}

	summary := ReportSummary{Items: make([]StatusCount, 0, len(counts))}
	for _, status := range AllowedStatuses() {
		if n := counts[Status(status)]; n > 0 {
			summary.Items = append(summary.Items, StatusCount{Status: Status(status), Count: n})
			summary.Count += n
		}
	}
	return summary, nil
}

// scopeFilter maps a role to the rows it may see. Applied before any
// caller-supplied filters.
func scopeFilter(actor identity.Actor) (Filter, error) {
	if !actor.Authenticated() {
		return Filter{}, ErrUnauthorized
	}
	switch actor.Role {
	case identity.RoleAdmin:
		return Filter{}, nil
	case identity.RoleDoctor:
		doctorID := actor.DoctorID
		return Filter{DoctorID: &doctorID}, nil
	case identity.RolePatient:
		return Filter{Email: actor.Email}, nil
	default:
		return Filter{}, ErrForbidden
	}
}

func (e *Engine) sendBookingConfirmation(ctx context.Context, appt Appointment) notify.Result {
	body, err := notify.BookingConfirmation(notify.MessageData{
		Doctor: appt.Doctor,
		Date:   appt.Date,
		Time:   appt.Time,
	})
	if err != nil {
		e.logger.Error("confirmation template failed", "error", err)
		return notify.Failure("message rendering failed")
	}

	result := e.sendSMS(ctx, appt.Phone, body)

	if e.email != nil {
		e.sendEmailCopy(ctx, appt, body)
	}
	return result
}

func (e *Engine) sendStatusUpdate(ctx context.Context, appt Appointment) notify.Result {
	body, err := notify.StatusUpdate(notify.MessageData{
		Doctor: appt.Doctor,
		Date:   appt.Date,
		Time:   appt.Time,
		Status: string(appt.Status),
	})
	if err != nil {
		e.logger.Error("status template failed", "error", err)
		return notify.Failure("message rendering failed")
	}
	return e.sendSMS(ctx, appt.Phone, body)
}

// sendSMS bounds the notifier call so a slow provider cannot stall the
// request past the configured timeout.
func (e *Engine) sendSMS(ctx context.Context, to, body string) notify.Result {
	ctx, cancel := context.WithTimeout(ctx, e.notifyTimeout)
	defer cancel()

	result := e.sms.SendSMS(ctx, to, body)
	e.metrics.ObserveSMS(result.Sent)
	if !result.Sent {
		e.logger.Warn("sms not delivered", "to", to, "reason", result.Error)
	}
	return result
}

// sendEmailCopy mirrors the confirmation to the patient's inbox.
// Strictly best-effort; failures are only logged.
func (e *Engine) sendEmailCopy(ctx context.Context, appt Appointment, body string) {
	ctx, cancel := context.WithTimeout(ctx, e.notifyTimeout)
	defer cancel()

	err := e.email.Send(ctx, notify.EmailMessage{
		To:      appt.Email,
		ToName:  appt.Name,
		Subject: "Appointment confirmation",
		Body:    body,
	})
	if err != nil {
		e.logger.Warn("confirmation email failed", "error", err, "to", appt.Email)
	}
}

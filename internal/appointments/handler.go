package appointments

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/medibook/booking-platform/internal/identity"
	"github.com/medibook/booking-platform/internal/notify"
	"github.com/medibook/booking-platform/pkg/logging"
)

// Handler exposes the lifecycle engine over HTTP.
type Handler struct {
	engine *Engine
	logger *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(engine *Engine, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

type appointmentResponse struct {
	Appointment Appointment   `json:"appointment"`
	SMS         notify.Result `json:"sms"`
}

// Create handles POST /api/appointments. An unreadable body is treated
// as an empty payload so the missing-field list stays informative.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := identity.ActorFromContext(r.Context())

	var req CreateRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	appt, sms, err := h.engine.Create(r.Context(), actor, req)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, appointmentResponse{Appointment: appt, SMS: sms})
}

type listResponse struct {
	Count int           `json:"count"`
	Items []Appointment `json:"items"`
}

// List handles GET /api/appointments with optional doctor_id and email
// query filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := identity.ActorFromContext(r.Context())

	var opts ListOptions
	if raw := r.URL.Query().Get("doctor_id"); raw != "" {
		id, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "doctor_id must be an integer"})
			return
		}
		opts.DoctorID = &id
	}
	opts.Email = strings.TrimSpace(r.URL.Query().Get("email"))

	items, err := h.engine.List(r.Context(), actor, opts)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Count: len(items), Items: items})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/appointments/{id}.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := identity.ActorFromContext(r.Context())

	var req updateStatusRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, ErrNotFound)
		return
	}

	appt, sms, err := h.engine.UpdateStatus(r.Context(), actor, id, req.Status)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, appointmentResponse{Appointment: appt, SMS: sms})
}

// Report handles GET /api/reports.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	actor, _ := identity.ActorFromContext(r.Context())

	summary, err := h.engine.Report(r.Context(), actor)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	var (
		missingErr *MissingFieldsError
		doctorErr  *UnknownDoctorError
		statusErr  *InvalidStatusError
	)
	switch {
	case errors.Is(err, ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Forbidden"})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Appointment not found"})
	case errors.Is(err, ErrDoctorIDType):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "doctor_id must be an integer"})
	case errors.Is(err, ErrDoctorMismatch):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "doctor_id does not match selected doctor name"})
	case errors.As(err, &missingErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Missing required fields",
			"missing": missingErr.Fields,
		})
	case errors.As(err, &doctorErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("Invalid doctor_id: %d", doctorErr.DoctorID),
		})
	case errors.As(err, &statusErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Invalid status",
			"allowed": statusErr.Allowed,
		})
	default:
		h.logger.Error("appointment operation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

package availability

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medibook/booking-platform/pkg/logging"
)

// Handler serves doctor availability schedules.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates an availability handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

type scheduleResponse struct {
	DoctorID string         `json:"doctor_id"`
	Weekly   WeeklySchedule `json:"weekly"`
}

// GetSchedule handles GET /api/doctors/{id}/availability. Doctors
// without a saved schedule get the default one; the default is not
// persisted on read.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "id")

	schedule, err := h.store.Get(r.Context(), doctorID)
	if err != nil {
		h.logger.Error("schedule load failed", "error", err, "doctor_id", doctorID)
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}
	if schedule == nil {
		schedule = DefaultWeeklySchedule()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(scheduleResponse{DoctorID: doctorID, Weekly: schedule})
}

type putScheduleRequest struct {
	Weekly WeeklySchedule `json:"weekly"`
}

// PutSchedule handles PUT /api/doctors/{id}/availability.
func (h *Handler) PutSchedule(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "id")

	var req putScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Weekly.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Put(r.Context(), doctorID, req.Weekly); err != nil {
		h.logger.Error("schedule save failed", "error", err, "doctor_id", doctorID)
		http.Error(w, "failed to save schedule", http.StatusInternalServerError)
		return
	}

	h.logger.Info("schedule updated", "doctor_id", doctorID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"ok":        true,
		"doctor_id": doctorID,
		"weekly":    req.Weekly,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

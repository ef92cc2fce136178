package directory

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/medibook/booking-platform/pkg/logging"
)

// Handler serves the public doctor listing.
type Handler struct {
	dir    Directory
	logger *logging.Logger
}

// NewHandler creates a directory handler.
func NewHandler(dir Directory, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{dir: dir, logger: logger}
}

// ListDoctors handles GET /api/doctors. No authentication required.
// A malformed available flag is treated as false.
func (h *Handler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	filter := Filter{
		Specialty: strings.TrimSpace(r.URL.Query().Get("specialty")),
	}
	if raw := r.URL.Query().Get("available"); raw != "" {
		available := strings.EqualFold(strings.TrimSpace(raw), "true")
		filter.Available = &available
	}

	doctors, err := h.dir.Query(r.Context(), filter)
	if err != nil {
		h.logger.Error("doctor query failed", "error", err)
		http.Error(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doctors)
}

package appointments

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/medibook/booking-platform/internal/identity"
	"github.com/medibook/booking-platform/internal/notify"
	"github.com/medibook/booking-platform/pkg/logging"
)

// newTestRouter mounts the handler the way the API router does, with a
// middleware that injects the given actor.
func newTestRouter(engine *Engine, actor identity.Actor) http.Handler {
	h := NewHandler(engine, logging.Default())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(identity.WithActor(req.Context(), actor)))
		})
	})
	r.Get("/api/appointments", h.List)
	r.Post("/api/appointments", h.Create)
	r.Patch("/api/appointments/{id}", h.UpdateStatus)
	r.Get("/api/reports", h.Report)
	return r
}

const validCreateBody = `{
	"specialty": "Cardiology",
	"doctor": "Dr John Smith",
	"date": "2024-05-01",
	"time": "09:00",
	"name": "Alice",
	"phone": "+23052512345",
	"email": "alice@x.com",
	"doctor_id": 1
}`

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return payload
}

func TestHandlerCreate(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{result: notify.Result{Sent: true, SID: "SM1"}})
	router := newTestRouter(engine, patientActor("alice@x.com"))

	rec := doRequest(t, router, http.MethodPost, "/api/appointments", validCreateBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	payload := decodeBody(t, rec)
	appt, ok := payload["appointment"].(map[string]any)
	if !ok {
		t.Fatalf("missing appointment object in %v", payload)
	}
	if appt["status"] != "booked" {
		t.Errorf("status = %v, want booked", appt["status"])
	}
	if appt["id"] != float64(1) {
		t.Errorf("id = %v, want 1", appt["id"])
	}
	sms, ok := payload["sms"].(map[string]any)
	if !ok || sms["sent"] != true {
		t.Errorf("sms = %v, want sent true", payload["sms"])
	}
}

func TestHandlerCreateMissingFields(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{})
	router := newTestRouter(engine, patientActor("alice@x.com"))

	rec := doRequest(t, router, http.MethodPost, "/api/appointments", `{"specialty": "Cardiology"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	payload := decodeBody(t, rec)
	if payload["error"] != "Missing required fields" {
		t.Errorf("error = %v", payload["error"])
	}
	missing, ok := payload["missing"].([]any)
	if !ok || len(missing) != 7 {
		t.Errorf("missing = %v, want 7 fields", payload["missing"])
	}
}

func TestHandlerCreateMalformedBody(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{})
	router := newTestRouter(engine, patientActor("alice@x.com"))

	// An unreadable body reports every field missing rather than a
	// generic parse error.
	rec := doRequest(t, router, http.MethodPost, "/api/appointments", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["error"] != "Missing required fields" {
		t.Errorf("error = %v", payload["error"])
	}
}

func TestHandlerCreateUnauthorized(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{})
	router := newTestRouter(engine, identity.Actor{})

	rec := doRequest(t, router, http.MethodPost, "/api/appointments", validCreateBody)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["error"] != "Unauthorized" {
		t.Errorf("error = %v", payload["error"])
	}
}

func TestHandlerCreateNonPatientForbidden(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{})
	router := newTestRouter(engine, doctorActor(1))

	rec := doRequest(t, router, http.MethodPost, "/api/appointments", validCreateBody)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestHandlerCreateUnknownDoctor(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{})
	router := newTestRouter(engine, patientActor("alice@x.com"))

	body := strings.Replace(validCreateBody, `"doctor_id": 1`, `"doctor_id": 42`, 1)
	rec := doRequest(t, router, http.MethodPost, "/api/appointments", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["error"] != "Invalid doctor_id: 42" {
		t.Errorf("error = %v", payload["error"])
	}
}

func TestHandlerCreateDoctorIDTypeError(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{})
	router := newTestRouter(engine, patientActor("alice@x.com"))

	body := strings.Replace(validCreateBody, `"doctor_id": 1`, `"doctor_id": "abc"`, 1)
	rec := doRequest(t, router, http.MethodPost, "/api/appointments", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["error"] != "doctor_id must be an integer" {
		t.Errorf("error = %v", payload["error"])
	}
}

func TestHandlerCreateDoctorMismatch(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{})
	router := newTestRouter(engine, patientActor("alice@x.com"))

	body := strings.Replace(validCreateBody, "Dr John Smith", "Dr Jane Doe", 1)
	rec := doRequest(t, router, http.MethodPost, "/api/appointments", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["error"] != "doctor_id does not match selected doctor name" {
		t.Errorf("error = %v", payload["error"])
	}
}

func TestHandlerList(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{result: notify.Result{Sent: true}})
	seedAppointments(t, engine)

	router := newTestRouter(engine, adminActor())
	rec := doRequest(t, router, http.MethodGet, "/api/appointments", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	payload := decodeBody(t, rec)
	if payload["count"] != float64(3) {
		t.Errorf("count = %v, want 3", payload["count"])
	}
	items := payload["items"].([]any)
	first := items[0].(map[string]any)
	if first["id"] != float64(3) {
		t.Errorf("first id = %v, want newest first", first["id"])
	}
}

func TestHandlerListDoctorIDFilter(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{result: notify.Result{Sent: true}})
	seedAppointments(t, engine)

	router := newTestRouter(engine, adminActor())
	rec := doRequest(t, router, http.MethodGet, "/api/appointments?doctor_id=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["count"] != float64(2) {
		t.Errorf("count = %v, want 2", payload["count"])
	}
}

func TestHandlerListBadDoctorID(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{})
	router := newTestRouter(engine, adminActor())

	rec := doRequest(t, router, http.MethodGet, "/api/appointments?doctor_id=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["error"] != "doctor_id must be an integer" {
		t.Errorf("error = %v", payload["error"])
	}
}

func TestHandlerListEmptySet(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{})
	router := newTestRouter(engine, adminActor())

	rec := doRequest(t, router, http.MethodGet, "/api/appointments", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	payload := decodeBody(t, rec)
	if payload["count"] != float64(0) {
		t.Errorf("count = %v, want 0", payload["count"])
	}
	if items, ok := payload["items"].([]any); !ok || items == nil {
		t.Errorf("items = %v, want empty array not null", payload["items"])
	}
}

func TestHandlerUpdateStatus(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{result: notify.Result{Sent: true}})
	seedAppointments(t, engine)

	router := newTestRouter(engine, doctorActor(1))
	rec := doRequest(t, router, http.MethodPatch, "/api/appointments/1", `{"status": "confirmed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	payload := decodeBody(t, rec)
	appt := payload["appointment"].(map[string]any)
	if appt["status"] != "confirmed" {
		t.Errorf("status = %v, want confirmed", appt["status"])
	}
}

func TestHandlerUpdateStatusPatientForbidden(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{result: notify.Result{Sent: true}})
	seedAppointments(t, engine)

	// The patient owns appointment 1 but may only cancel it.
	router := newTestRouter(engine, patientActor("alice@x.com"))
	rec := doRequest(t, router, http.MethodPatch, "/api/appointments/1", `{"status": "confirmed"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestHandlerUpdateStatusInvalid(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{})
	router := newTestRouter(engine, adminActor())

	rec := doRequest(t, router, http.MethodPatch, "/api/appointments/1", `{"status": "snoozed"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	payload := decodeBody(t, rec)
	if payload["error"] != "Invalid status" {
		t.Errorf("error = %v", payload["error"])
	}
	allowed, ok := payload["allowed"].([]any)
	if !ok || len(allowed) != 4 {
		t.Errorf("allowed = %v, want the 4 statuses", payload["allowed"])
	}
}

func TestHandlerUpdateStatusNotFound(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{})
	router := newTestRouter(engine, adminActor())

	for _, path := range []string{"/api/appointments/99", "/api/appointments/abc"} {
		rec := doRequest(t, router, http.MethodPatch, path, `{"status": "cancelled"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, rec.Code)
		}
	}
}

func TestHandlerReport(t *testing.T) {
	engine, _ := newTestEngine(&fakeNotifier{result: notify.Result{Sent: true}})
	seedAppointments(t, engine)

	router := newTestRouter(engine, adminActor())
	rec := doRequest(t, router, http.MethodGet, "/api/reports", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	payload := decodeBody(t, rec)
	if payload["count"] != float64(3) {
		t.Errorf("count = %v, want 3", payload["count"])
	}
	items := payload["items"].([]any)
	row := items[0].(map[string]any)
	if row["status"] != "booked" || row["count"] != float64(3) {
		t.Errorf("items = %v", payload["items"])
	}
}

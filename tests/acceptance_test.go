// Package tests contains end-to-end acceptance tests that exercise the
// assembled HTTP API: registration, login, booking, role-scoped listing,
// status transitions and reporting.
//
// Run with: go test -v ./tests/...
package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/booking-platform/internal/api/router"
	"github.com/medibook/booking-platform/internal/appointments"
	"github.com/medibook/booking-platform/internal/auth"
	"github.com/medibook/booking-platform/internal/availability"
	"github.com/medibook/booking-platform/internal/directory"
	"github.com/medibook/booking-platform/internal/notify"
	"github.com/medibook/booking-platform/pkg/logging"
)

// countingNotifier records every SMS so scenarios can assert on the
// notification side channel.
type countingNotifier struct {
	bodies []string
	fail   bool
}

func (n *countingNotifier) SendSMS(ctx context.Context, to, body string) notify.Result {
	n.bodies = append(n.bodies, body)
	if n.fail {
		return notify.Failure("provider down")
	}
	return notify.Result{Sent: true, SID: "SMtest"}
}

type testAPI struct {
	router   http.Handler
	notifier *countingNotifier
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	logger := logging.Default()
	users := auth.NewInMemoryUserRepository()
	require.NoError(t, auth.SeedDemoAccounts(context.Background(), users))
	sessions := auth.NewSessionProvider("acceptance-secret", time.Hour, auth.NewInMemorySessionStore(), users, logger)

	notifier := &countingNotifier{}
	doctors := directory.NewInMemoryDirectory(directory.SeedDoctors())
	engine := appointments.NewEngine(appointments.EngineConfig{
		Repository: appointments.NewInMemoryRepository(),
		Directory:  doctors,
		SMS:        notifier,
		Logger:     logger,
	})

	r := router.New(&router.Config{
		Logger:              logger,
		Sessions:            sessions,
		AuthHandler:         auth.NewHandler(users, sessions, false, logger),
		DoctorsHandler:      directory.NewHandler(doctors, logger),
		AvailabilityHandler: availability.NewHandler(availability.NewInMemoryStore(), logger),
		AppointmentsHandler: appointments.NewHandler(engine, logger),
	})

	return &testAPI{router: r, notifier: notifier}
}

func (api *testAPI) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	return rec
}

func (api *testAPI) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := api.do(t, http.MethodPost, "/api/auth/login",
		`{"email": "`+email+`", "password": "`+password+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, "login %s: %s", email, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatalf("login %s: no session cookie", email)
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload), "body: %s", rec.Body.String())
	return payload
}

const bookingBody = `{
	"specialty": "Cardiology",
	"doctor": "Dr John Smith",
	"date": "2024-06-10",
	"time": "10:30",
	"name": "Pat Patient",
	"phone": "+23052512345",
	"email": "patient@test.com",
	"doctor_id": 1
}`

func TestRegisterLoginAndBookFlow(t *testing.T) {
	api := newTestAPI(t)

	// Register a fresh patient; registration logs them in.
	rec := api.do(t, http.MethodPost, "/api/auth/register", `{
		"name": "New Patient",
		"email": "new@x.com",
		"password": "pw123456",
		"phone": "+23052500000"
	}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	payload := decode(t, rec)
	user := payload["user"].(map[string]any)
	assert.Equal(t, "patient", user["role"])
	assert.Equal(t, user["user_id"].(float64)+1000, user["patient_id"])

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "registration should set a session cookie")

	// The fresh session books an appointment.
	body := strings.Replace(bookingBody, "patient@test.com", "new@x.com", 1)
	rec = api.do(t, http.MethodPost, "/api/appointments", body, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	payload = decode(t, rec)
	appt := payload["appointment"].(map[string]any)
	assert.Equal(t, "booked", appt["status"])
	sms := payload["sms"].(map[string]any)
	assert.Equal(t, true, sms["sent"])
	require.Len(t, api.notifier.bodies, 1)
	assert.Contains(t, api.notifier.bodies[0], "Dr John Smith")
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/auth/register", `{
		"name": "Someone Else",
		"email": "PATIENT@test.com",
		"password": "pw123456",
		"phone": "+23052500001"
	}`, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already registered", decode(t, rec)["error"])
}

func TestBookingRequiresSession(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/appointments", bookingBody, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decode(t, rec)["error"])
}

func TestPatientCancelOwnBooking(t *testing.T) {
	api := newTestAPI(t)
	cookie := api.login(t, "patient@test.com", "1234")

	rec := api.do(t, http.MethodPost, "/api/appointments", bookingBody, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["appointment"].(map[string]any)["id"].(float64)

	// Only cancellation is allowed for the patient.
	rec = api.do(t, http.MethodPatch, "/api/appointments/1", `{"status": "confirmed"}`, cookie)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPatch, "/api/appointments/1", `{"status": "cancelled"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	appt := decode(t, rec)["appointment"].(map[string]any)
	assert.Equal(t, "cancelled", appt["status"])
	assert.Equal(t, id, appt["id"])
}

func TestDoctorScopingAndTransitions(t *testing.T) {
	api := newTestAPI(t)
	patient := api.login(t, "patient@test.com", "1234")

	// One booking with doctor 1, one with doctor 2.
	rec := api.do(t, http.MethodPost, "/api/appointments", bookingBody, patient)
	require.Equal(t, http.StatusCreated, rec.Code)
	other := strings.NewReplacer(
		"Cardiology", "Dermatology",
		"Dr John Smith", "Dr Jane Doe",
		`"doctor_id": 1`, `"doctor_id": 2`,
	).Replace(bookingBody)
	rec = api.do(t, http.MethodPost, "/api/appointments", other, patient)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// The demo doctor account is tied to doctor 1 and must not see
	// doctor 2's rows.
	doctor := api.login(t, "doctor@test.com", "1234")
	rec = api.do(t, http.MethodGet, "/api/appointments", "", doctor)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decode(t, rec)
	require.Equal(t, float64(1), payload["count"], rec.Body.String())
	row := payload["items"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(1), row["doctor_id"])

	// Filtering for the other doctor yields nothing rather than a leak.
	rec = api.do(t, http.MethodGet, "/api/appointments?doctor_id=2", "", doctor)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["count"])

	// The doctor confirms their own appointment.
	rec = api.do(t, http.MethodPatch, "/api/appointments/1", `{"status": "confirmed"}`, doctor)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAdminReportsRollUp(t *testing.T) {
	api := newTestAPI(t)
	patient := api.login(t, "patient@test.com", "1234")

	for i := 0; i < 3; i++ {
		rec := api.do(t, http.MethodPost, "/api/appointments", bookingBody, patient)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	admin := api.login(t, "admin@test.com", "1234")
	rec := api.do(t, http.MethodPatch, "/api/appointments/2", `{"status": "completed"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/reports", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decode(t, rec)
	assert.Equal(t, float64(3), payload["count"])

	items := payload["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "booked", first["status"])
	assert.Equal(t, float64(2), first["count"])

	// Reports are session-gated like every appointment surface.
	rec = api.do(t, http.MethodGet, "/api/reports", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFailedSMSNeverFailsBooking(t *testing.T) {
	api := newTestAPI(t)
	api.notifier.fail = true
	cookie := api.login(t, "patient@test.com", "1234")

	rec := api.do(t, http.MethodPost, "/api/appointments", bookingBody, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	payload := decode(t, rec)
	sms := payload["sms"].(map[string]any)
	assert.Equal(t, false, sms["sent"])
	assert.Equal(t, "provider down", sms["error"])

	// The appointment is nonetheless on file.
	rec = api.do(t, http.MethodGet, "/api/appointments", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])
}

func TestLogoutRevokesSession(t *testing.T) {
	api := newTestAPI(t)
	cookie := api.login(t, "patient@test.com", "1234")

	rec := api.do(t, http.MethodGet, "/api/me", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	// The old cookie no longer resolves.
	rec = api.do(t, http.MethodGet, "/api/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/appointments", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInvalidStatusListsAllowed(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login(t, "admin@test.com", "1234")

	rec := api.do(t, http.MethodPatch, "/api/appointments/1", `{"status": "snoozed"}`, admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	payload := decode(t, rec)
	assert.Equal(t, "Invalid status", payload["error"])
	allowed := payload["allowed"].([]any)
	assert.ElementsMatch(t, []any{"booked", "confirmed", "cancelled", "completed"}, allowed)
}

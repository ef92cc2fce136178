package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/medibook/booking-platform/internal/identity"
	"github.com/medibook/booking-platform/pkg/logging"
)

// Handler serves registration, login, logout and the current-user probe.
type Handler struct {
	users        UserRepository
	sessions     *SessionProvider
	cookieSecure bool
	logger       *logging.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users UserRepository, sessions *SessionProvider, cookieSecure bool, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		users:        users,
		sessions:     sessions,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// Register handles POST /api/auth/register. New accounts are patients
// and are logged in immediately.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}

	if missing := req.MissingFields(); len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Missing required fields",
			"missing": missing,
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(req.Password)), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("password hash failed", "error", err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}

	user, err := h.users.Create(r.Context(), &User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         identity.RolePatient,
	})
	if err != nil {
		if err == ErrDuplicateEmail {
			writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": "Email already registered"})
			return
		}
		h.logger.Error("user create failed", "error", err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}

	token, err := h.sessions.Issue(r.Context(), user)
	if err != nil {
		h.logger.Error("session issue failed", "error", err, "user_id", user.ID)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}
	h.setSessionCookie(w, token)

	h.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "user": user.Public()})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	if email == "" || password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Email and password required"})
		return
	}

	user, err := h.users.FindByEmail(r.Context(), email)
	if err != nil && err != ErrUserNotFound {
		h.logger.Error("user lookup failed", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	if err == ErrUserNotFound || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid credentials"})
		return
	}

	token, err := h.sessions.Issue(r.Context(), user)
	if err != nil {
		h.logger.Error("session issue failed", "error", err, "user_id", user.ID)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	h.setSessionCookie(w, token)

	h.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user.Public()})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Revoke(r.Context(), cookie.Value); err != nil {
			h.logger.Error("session revoke failed", "error", err)
		}
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Me handles GET /api/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Unauthorized"})
		return
	}

	user, err := h.users.FindByID(r.Context(), actor.UserID)
	if err != nil {
		if err == ErrUserNotFound {
			h.clearSessionCookie(w)
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Unauthorized"})
			return
		}
		h.logger.Error("user lookup failed", "error", err, "user_id", actor.UserID)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user.Public()})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

package auth

import (
	"net/http"

	"github.com/medibook/booking-platform/internal/identity"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "mb_session"

// Middleware resolves the session cookie into an actor and stores it in
// the request context. Requests without a resolvable session pass
// through without an actor; handlers decide whether that is a 401.
func (p *SessionProvider) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			actor, err := p.Resolve(r.Context(), cookie.Value)
			if err != nil {
				if err != ErrSessionInvalid {
					p.logger.Error("session resolution failed", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithActor(r.Context(), actor)))
		})
	}
}

package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medibook/booking-platform/internal/appointments"
	"github.com/medibook/booking-platform/internal/auth"
	"github.com/medibook/booking-platform/internal/availability"
	"github.com/medibook/booking-platform/internal/directory"
	httpmiddleware "github.com/medibook/booking-platform/internal/http/middleware"
	"github.com/medibook/booking-platform/internal/observability/metrics"
	"github.com/medibook/booking-platform/pkg/logging"
)

// Pinger reports backing-store reachability for the db-health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	Sessions            *auth.SessionProvider
	AuthHandler         *auth.Handler
	DoctorsHandler      *directory.Handler
	AvailabilityHandler *availability.Handler
	AppointmentsHandler *appointments.Handler
	Store               Pinger
	HTTPMetrics         *metrics.HTTPMetrics
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.HTTPMetrics != nil {
		r.Use(instrument(cfg.HTTPMetrics))
	}
	if cfg.Sessions != nil {
		r.Use(cfg.Sessions.Middleware())
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", healthCheck)
		api.Get("/db-health", dbHealth(cfg.Store))

		if cfg.AuthHandler != nil {
			api.Route("/auth", func(a chi.Router) {
				a.Post("/register", cfg.AuthHandler.Register)
				a.Post("/login", cfg.AuthHandler.Login)
				a.Post("/logout", cfg.AuthHandler.Logout)
			})
			api.Get("/me", cfg.AuthHandler.Me)
		}

		if cfg.DoctorsHandler != nil {
			api.Get("/doctors", cfg.DoctorsHandler.ListDoctors)
		}
		if cfg.AvailabilityHandler != nil {
			api.Route("/doctors/{id}/availability", func(a chi.Router) {
				a.Get("/", cfg.AvailabilityHandler.GetSchedule)
				a.Put("/", cfg.AvailabilityHandler.PutSchedule)
			})
		}

		if cfg.AppointmentsHandler != nil {
			api.Route("/appointments", func(a chi.Router) {
				a.Get("/", cfg.AppointmentsHandler.List)
				a.Post("/", cfg.AppointmentsHandler.Create)
				a.Patch("/{id}", cfg.AppointmentsHandler.UpdateStatus)
			})
			api.Get("/reports", cfg.AppointmentsHandler.Report)
		}
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// dbHealth pings the backing store. Degrades to 503 so load balancers
// can pull the instance without tearing down live sessions.
func dbHealth(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if store == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": "no store configured"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// instrument records per-route request latency. The chi route pattern is
// read after serving so parameterized paths collapse into one series.
func instrument(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			m.ObserveRequest(r.Method, route, ww.Status(), time.Since(start).Seconds())
		})
	}
}

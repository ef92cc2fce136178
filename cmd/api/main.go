package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/medibook/booking-platform/internal/api/router"
	"github.com/medibook/booking-platform/internal/appointments"
	"github.com/medibook/booking-platform/internal/auth"
	"github.com/medibook/booking-platform/internal/availability"
	appconfig "github.com/medibook/booking-platform/internal/config"
	"github.com/medibook/booking-platform/internal/directory"
	"github.com/medibook/booking-platform/internal/notify"
	"github.com/medibook/booking-platform/internal/observability/metrics"
	"github.com/medibook/booking-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Metrics registry
	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	// Storage: Postgres when configured, in-memory with seed data
	// otherwise so the server stays usable in development.
	var (
		apptRepo appointments.Repository
		userRepo auth.UserRepository
		doctors  directory.Directory
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		apptRepo = appointments.NewPostgresRepository(pool)
		userRepo = auth.NewPostgresUserRepository(pool)
		doctors = directory.NewPostgresDirectory(pool)
		logger.Info("using postgres storage")
	} else {
		memUsers := auth.NewInMemoryUserRepository()
		if err := auth.SeedDemoAccounts(ctx, memUsers); err != nil {
			logger.Error("failed to seed demo accounts", "error", err)
			os.Exit(1)
		}
		apptRepo = appointments.NewInMemoryRepository()
		userRepo = memUsers
		doctors = directory.NewInMemoryDirectory(directory.SeedDoctors())
		logger.Warn("DATABASE_URL not set; using in-memory storage with demo accounts")
	}

	// Sessions and availability: Redis when configured.
	var (
		sessionStore auth.SessionStore
		availStore   availability.Store
	)
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("redis ping failed", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		sessionStore = auth.NewRedisSessionStore(client)
		availStore = availability.NewRedisStore(client)
		logger.Info("using redis session and availability stores")
	} else {
		sessionStore = auth.NewInMemorySessionStore()
		availStore = availability.NewInMemoryStore()
		logger.Warn("REDIS_ADDR not set; sessions and schedules held in memory")
	}

	sessionSecret := cfg.SessionSecret
	if sessionSecret == "" {
		if cfg.Env != "development" {
			logger.Error("SESSION_SECRET is required outside development")
			os.Exit(1)
		}
		sessionSecret = "dev-session-secret"
		logger.Warn("SESSION_SECRET not set; using development default")
	}
	sessions := auth.NewSessionProvider(sessionSecret, cfg.SessionTTL, sessionStore, userRepo, logger)

	// Notifications
	var sms notify.SMSNotifier = notify.Disabled{}
	if cfg.SMSEnabled {
		if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
			logger.Warn("SMS_ENABLED but Twilio credentials incomplete; SMS stays disabled")
		} else {
			sms = notify.NewTwilioNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
			logger.Info("sms notifications enabled", "from", cfg.TwilioFromNumber)
		}
	}
	var email notify.EmailSender
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		email = sender
		logger.Info("email copies enabled", "from", cfg.SendGridFromEmail)
	}

	// Lifecycle engine and handlers
	engine := appointments.NewEngine(appointments.EngineConfig{
		Repository:    apptRepo,
		Directory:     doctors,
		SMS:           sms,
		Email:         email,
		Metrics:       bookingMetrics,
		Logger:        logger,
		NotifyTimeout: cfg.NotifyTimeout,
	})

	// Setup router
	routerCfg := &router.Config{
		Logger:              logger,
		Sessions:            sessions,
		AuthHandler:         auth.NewHandler(userRepo, sessions, cfg.CookieSecure, logger),
		DoctorsHandler:      directory.NewHandler(doctors, logger),
		AvailabilityHandler: availability.NewHandler(availStore, logger),
		AppointmentsHandler: appointments.NewHandler(engine, logger),
		Store:               apptRepo,
		HTTPMetrics:         httpMetrics,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

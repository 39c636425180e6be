// Copyright (c) 2026 Vacaplan. All rights reserved.

// Command api is the entry point for the Vacaplan HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire security primitives (hasher, JWT, rate gate).
//  7. Wire domain services and HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vacaplan/vacaplan/internal/api"
	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/notify"
	"github.com/vacaplan/vacaplan/internal/org/company"
	"github.com/vacaplan/vacaplan/internal/org/function"
	"github.com/vacaplan/vacaplan/internal/org/team"
	"github.com/vacaplan/vacaplan/internal/platform/clock"
	"github.com/vacaplan/vacaplan/internal/platform/config"
	"github.com/vacaplan/vacaplan/internal/platform/constants"
	"github.com/vacaplan/vacaplan/internal/platform/metrics"
	"github.com/vacaplan/vacaplan/internal/platform/migration"
	pgstore "github.com/vacaplan/vacaplan/internal/platform/postgres"
	redisstore "github.com/vacaplan/vacaplan/internal/platform/redis"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
	"github.com/vacaplan/vacaplan/internal/ratelimit"
	"github.com/vacaplan/vacaplan/internal/users/account"
	"github.com/vacaplan/vacaplan/internal/users/auth"
	"github.com/vacaplan/vacaplan/internal/vacation/export"
	"github.com/vacaplan/vacaplan/internal/vacation/period"
	"github.com/vacaplan/vacaplan/internal/vacation/request"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "vacaplan"))
	slog.SetDefault(log)

	log.Info("[Vacaplan] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "vacaplan"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Security Primitives ────────────────────────────────────────────
	systemClock := clock.System{}

	hasher := sec.NewPasswordHasher(sec.HashParams{
		TimeCost:    cfg.HashTimeCost,
		MemoryKiB:   cfg.HashMemoryKiB,
		Parallelism: cfg.HashParallel,
	})
	tokens := sec.NewTokenService([]byte(cfg.SigningKey), constants.AuthIssuer, cfg.AccessTokenTTL, systemClock)
	gate := ratelimit.NewRateGate(rdb, systemClock, nil)
	kernel := authz.NewKernel()
	meter := metrics.New()

	// ── 7. Notifications ──────────────────────────────────────────────────
	// Without SMTP configuration, outgoing mail lands in the log instead.
	var sender notify.Sender = notify.NewLogSender(log)
	if cfg.SMTPHost != "" {
		sender = notify.NewSMTPSender(cfg, log)
	}
	notifier := notify.NewService(sender, cfg.AppBaseURL, log)

	// ── 8. Health Handlers ────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	auditRepository := audit.NewPostgresRepository(pool)
	recorder := audit.NewRecorder(auditRepository, kernel, log)

	companyRepository := company.NewPostgresRepository(pool)
	companyService := company.NewService(companyRepository, kernel, recorder, log)

	functionRepository := function.NewPostgresRepository(pool)
	functionService := function.NewService(functionRepository, kernel, recorder, log)

	teamRepository := team.NewPostgresRepository(pool)
	teamService := team.NewService(teamRepository, kernel, recorder, log)

	accountRepository := account.NewPostgresRepository(pool)
	accountService := account.NewService(accountRepository, companyRepository, kernel, recorder, notifier, systemClock, log)

	authRepository := auth.NewPostgresRepository(pool)
	authService := auth.NewService(
		authRepository, accountRepository, tokens, hasher, gate, recorder,
		notifier, systemClock, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, log,
	)

	periodRepository := period.NewPostgresRepository(pool)
	periodService := period.NewService(periodRepository, kernel, recorder, log)

	requestRepository := request.NewPostgresRepository(pool)
	requestService := request.NewService(
		requestRepository, accountRepository, companyRepository, periodService,
		kernel, gate, recorder, systemClock, log,
	)

	exportRepository := export.NewPostgresRepository(pool)
	exportService := export.NewService(exportRepository, kernel, gate, recorder, log)

	periodHandler := period.NewHandler(periodService)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, cfg.IsProduction()),
		Account:   account.NewHandler(accountService),
		Company:   company.NewHandler(companyService, functionService, teamService),
		Function:  function.NewHandler(functionService),
		Team:      team.NewHandler(teamService),
		Period:    periodHandler,
		Vacation:  request.NewHandler(requestService, periodHandler.GetBalance),
		Export:    export.NewHandler(exportService),
		Audit:     audit.NewHandler(recorder),
	}

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, tokens, accountService, gate, meter, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

// Copyright (c) 2026 Vacaplan. All rights reserved.

// Command ctl is the Vacaplan operations CLI.
//
// # Subcommands
//
//	migrate      apply pending database migrations and exit
//	seed-admin   create the bootstrap company and admin account from env
//	export       write a vacation export for one company to a file
//
// ctl shares the configuration surface of the api server; it reads the
// same environment variables and touches the same database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/org/company"
	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	"github.com/vacaplan/vacaplan/internal/platform/clock"
	"github.com/vacaplan/vacaplan/internal/platform/config"
	"github.com/vacaplan/vacaplan/internal/platform/migration"
	pgstore "github.com/vacaplan/vacaplan/internal/platform/postgres"
	redisstore "github.com/vacaplan/vacaplan/internal/platform/redis"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
	"github.com/vacaplan/vacaplan/internal/ratelimit"
	"github.com/vacaplan/vacaplan/internal/users/account"
	"github.com/vacaplan/vacaplan/internal/vacation/export"
	"github.com/vacaplan/vacaplan/pkg/slug"
	"github.com/vacaplan/vacaplan/pkg/uuidv7"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil)).With(slog.String("app", "vacaplan-ctl"))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	must(log, err, "load configuration")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "migrate":
		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")
		log.Info("migrations applied")
	case "seed-admin":
		must(log, seedAdmin(ctx, cfg, log), "seed admin")
	case "export":
		must(log, runExport(ctx, cfg, log, os.Args[2:]), "export")
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ctl <migrate|seed-admin|export> [flags]")
}

// seedAdmin creates the bootstrap company and its first admin account.
//
// It is idempotent: an existing account under ADMIN_SEED_EMAIL leaves
// the database untouched.
func seedAdmin(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	if cfg.AdminSeedEmail == "" || cfg.AdminSeedPassword == "" {
		return fmt.Errorf("ADMIN_SEED_EMAIL and ADMIN_SEED_PASSWORD must be set")
	}

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	accounts := account.NewPostgresRepository(pool)
	companies := company.NewPostgresRepository(pool)

	if existing, err := accounts.FindByEmail(ctx, cfg.AdminSeedEmail); err == nil && existing != nil {
		log.Info("admin already exists, nothing to do", slog.String("email", cfg.AdminSeedEmail))
		return nil
	}

	companySlug := slug.From(cfg.AdminSeedCompany)
	tenant, err := companies.FindBySlug(ctx, companySlug)
	if err != nil && !apperr.IsCode(err, "NOT_FOUND") {
		return err
	}
	if tenant == nil {
		tenant = &company.Company{
			ID:       uuidv7.New(),
			Name:     cfg.AdminSeedCompany,
			Slug:     companySlug,
			Settings: company.DefaultSettings(),
		}
		if err := companies.Create(ctx, tenant); err != nil {
			return err
		}
		log.Info("company created", slog.String("name", tenant.Name), slog.String("id", tenant.ID))
	}

	hasher := sec.NewPasswordHasher(sec.HashParams{
		TimeCost:    cfg.HashTimeCost,
		MemoryKiB:   cfg.HashMemoryKiB,
		Parallelism: cfg.HashParallel,
	})
	hash, err := hasher.Hash(cfg.AdminSeedPassword)
	if err != nil {
		return err
	}

	admin := &account.User{
		ID:            uuidv7.New(),
		CompanyID:     tenant.ID,
		Email:         cfg.AdminSeedEmail,
		FirstName:     "Admin",
		LastName:      "User",
		PasswordHash:  hash,
		Role:          sec.RoleAdmin,
		IsActive:      true,
		EmailVerified: true,
	}
	if err := accounts.Create(ctx, admin); err != nil {
		return err
	}

	log.Info("admin created", slog.String("email", admin.Email), slog.String("company_id", tenant.ID))
	return nil
}

// runExport writes a company-wide vacation export to a file, acting as
// a synthetic admin of that company.
func runExport(ctx context.Context, cfg *config.Config, log *slog.Logger, args []string) error {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	companyID := flags.String("company", "", "company ID to export (required)")
	formatName := flags.String("format", "csv", "csv or xlsx")
	output := flags.String("out", "", "output file (default vacations-YYYYMMDD.<format>)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *companyID == "" {
		return fmt.Errorf("-company is required")
	}

	format, err := export.ParseFormat(*formatName)
	if err != nil {
		return err
	}

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := redisstore.NewClient(ctx, cfg.RedisURL, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	kernel := authz.NewKernel()
	recorder := audit.NewRecorder(audit.NewPostgresRepository(pool), kernel, log)
	gate := ratelimit.NewRateGate(rdb, clock.System{}, nil)
	service := export.NewService(export.NewPostgresRepository(pool), kernel, gate, recorder, log)

	path := *output
	if path == "" {
		path = fmt.Sprintf("vacations-%s.%s", time.Now().UTC().Format("20060102"), format)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	operator := authz.Principal{UserID: "ctl", CompanyID: *companyID, Role: sec.RoleAdmin}
	count, err := service.Export(ctx, operator, export.Filter{}, format, file)
	if err != nil {
		return err
	}

	log.Info("export written", slog.String("path", path), slog.Int("rows", count))
	return nil
}

// must logs a structured fatal error and terminates the process if err is non-nil.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("ctl failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

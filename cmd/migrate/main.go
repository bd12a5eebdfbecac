// Command migrate applies the embedded schema migrations. With no arguments
// it migrates up; "version" prints the current schema version and "force N"
// clears a dirty state after a failed run.
package main

import (
	"database/sql"
	"errors"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	appconfig "github.com/coverlinehq/coverline/internal/config"
	"github.com/coverlinehq/coverline/migrations"
	"github.com/coverlinehq/coverline/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel).Component("migrate")

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	m, cleanup, err := newMigrator(cfg.DatabaseURL)
	if err != nil {
		logger.Error("migrator init failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	switch {
	case len(os.Args) >= 3 && os.Args[1] == "force":
		v, err := strconv.Atoi(os.Args[2])
		if err != nil {
			logger.Error("force needs a numeric version", "arg", os.Args[2])
			os.Exit(1)
		}
		if err := m.Force(v); err != nil {
			logger.Error("force failed", "version", v, "error", err)
			os.Exit(1)
		}
		logger.Info("schema version forced", "version", v)

	case len(os.Args) >= 2 && os.Args[1] == "version":
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			logger.Error("version lookup failed", "error", err)
			os.Exit(1)
		}
		logger.Info("schema version", "version", v, "dirty", dirty)

	default:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Error("migrate up failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations complete")
	}
}

func newMigrator(databaseURL string) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", dbDriver)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return m, func() { _, _ = m.Close() }, nil
}

package db

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"

	config "github.com/blockpulse/indexer/configs"
)

// RunMigrations applies the Postgres schema migrations for the configured
// main storage. A memory-backed configuration has no schema to migrate.
func RunMigrations() error {
	cfg := config.Cfg.Storage.Main.Postgres
	if cfg == nil {
		log.Info().Msg("Main storage is not Postgres, skipping migrations")
		return nil
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.Username), url.QueryEscape(cfg.Password),
		cfg.Host, cfg.Port, cfg.Database, sslMode)

	m, err := migrate.New("file://db/pg_migrations", dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("Postgres migrations completed")
	return nil
}

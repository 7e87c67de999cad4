// Package dbstore provides the PostgreSQL connection pool and migration
// runner shared by every pgx-backed repository in this service
// (pkg/convstore, pkg/kb, pkg/orchestration).
package dbstore

import (
	stdsql "database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"context"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx driver for database/sql, used only by the migration runner
)

//go:embed all:migrations
var migrationsFS embed.FS

// Config holds database connection pool configuration.
type Config struct {
	DSN             string
	MaxOpenConns    int32
	MaxIdleConns    int32
	ConnMaxLifetime int64 // seconds; 0 means library default
}

// Client wraps a pgx connection pool. Every repository in this service
// takes a *Client (or its Pool) rather than embedding a generated ORM
// client, since entgo.io/ent is not used here (see DESIGN.md).
type Client struct {
	Pool *pgxpool.Pool
}

// NewClient opens a pooled connection, applies pending migrations, and
// returns a ready-to-use Client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = cfg.MaxOpenConns
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = cfg.MaxIdleConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(cfg.DSN); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Client{Pool: pool}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() {
	c.Pool.Close()
}

// runMigrations applies embedded SQL migrations with golang-migrate,
// using database/sql + the pgx stdlib driver purely for the migration
// run (pgxpool is the pool used for everything else).
//
// Migration workflow mirrors the teacher's: edit migrations/*.sql,
// commit, the binary embeds them via go:embed and applies pending ones
// on startup.
func runMigrations(dsn string) error {
	has, err := hasEmbeddedMigrations()
	if err != nil {
		return fmt.Errorf("failed to check embedded migrations: %w", err)
	}
	if !has {
		return fmt.Errorf("no embedded migration files found - binary may be built incorrectly")
	}

	db, err := stdsql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	defer sourceDriver.Close()

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

func hasEmbeddedMigrations() (bool, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && len(e.Name()) > 4 && e.Name()[len(e.Name())-4:] == ".sql" {
			return true, nil
		}
	}
	return false, nil
}

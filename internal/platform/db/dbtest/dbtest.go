// Package dbtest gives repository tests a migrated Postgres schema of their
// own. Tests are skipped unless MEDIBOOK_TEST_DATABASE_URL is set.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medibook/medibook/internal/platform/db"
)

// EnvURL names the variable holding the test database connection string.
const EnvURL = "MEDIBOOK_TEST_DATABASE_URL"

// MigrationsDir locates migrations/ relative to this file.
func MigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	// internal/platform/db/dbtest -> module root
	return filepath.Join(filepath.Dir(filename), "..", "..", "..", "..", "migrations")
}

// NewPool creates a fresh schema, applies every migration into it and returns
// a pool whose search_path points there. The schema is dropped on cleanup.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv(EnvURL)
	if url == "" {
		t.Skipf("%s not set, skipping Postgres test", EnvURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	schema := "medibook_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	if _, err := admin.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", schema)); err != nil {
		admin.Close()
		t.Fatalf("create schema %s: %v", schema, err)
	}
	t.Cleanup(func() {
		if _, err := admin.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
			t.Logf("warning: failed to drop schema %s: %v", schema, err)
		}
		admin.Close()
	})

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		t.Fatalf("parse %s: %v", EnvURL, err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := db.NewMigrator(pool, MigrationsDir()).Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

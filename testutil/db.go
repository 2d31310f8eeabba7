// Package testutil provides shared helpers for store-backed tests.
// SQLite helpers always run against a fresh file in t.TempDir(); Postgres
// helpers skip automatically when TEST_DATABASE_URL is not set, so the unit
// suite never needs a running database server.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"

	"github.com/pkordes/betterrecipe/internal/repo"
)

// NewSQLiteDB opens an unmigrated SQLite database in a per-test directory.
// The handle is closed automatically when the test finishes.
func NewSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	db, _, err := repo.OpenDB(context.Background(), filepath.Join(t.TempDir(), "recipes.db"))
	if err != nil {
		t.Fatalf("testutil.NewSQLiteDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// NewSQLiteStore returns a migrated, empty SQLite-backed Store.
func NewSQLiteStore(t *testing.T) *repo.Store {
	t.Helper()

	db := NewSQLiteDB(t)
	if err := repo.Migrate(context.Background(), db, goose.DialectSQLite3); err != nil {
		t.Fatalf("testutil.NewSQLiteStore: %v", err)
	}
	return repo.NewStore(repo.NewSQLBackend(db, goose.DialectSQLite3))
}

// NewPostgresStore returns a migrated Store connected to TEST_DATABASE_URL
// with the recipes table emptied. The test is skipped when the variable is unset.
func NewPostgresStore(t *testing.T) *repo.Store {
	t.Helper()

	dsn := requireDSN(t)
	ctx := context.Background()

	db, dialect, err := repo.OpenDB(ctx, dsn)
	if err != nil {
		t.Fatalf("testutil.NewPostgresStore: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := repo.Migrate(ctx, db, dialect); err != nil {
		t.Fatalf("testutil.NewPostgresStore: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM recipes`); err != nil {
		t.Fatalf("testutil.NewPostgresStore: truncate: %v", err)
	}
	return repo.NewStore(repo.NewSQLBackend(db, dialect))
}

// requireDSN returns the TEST_DATABASE_URL environment variable value,
// skipping the test if it is not set.
func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}
	return dsn
}

package db

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestMigrate_AppliesSchema(t *testing.T) {
	database := openTestDB(t)

	applied, err := database.MigrateWithInfo()
	if err != nil {
		t.Fatalf("MigrateWithInfo failed: %v", err)
	}
	if len(applied) == 0 {
		t.Fatal("expected at least one migration to apply")
	}

	for _, table := range []string{"mirrors", "clone_runs", "clone_records", "sync_log"} {
		var count int
		err := database.QueryRow(`
			SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?
		`, table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	database := openTestDB(t)

	if err := database.Migrate(); err != nil {
		t.Fatalf("first Migrate failed: %v", err)
	}

	applied, err := database.MigrateWithInfo()
	if err != nil {
		t.Fatalf("second MigrateWithInfo failed: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected no migrations on second run, got %v", applied)
	}
}

func TestMigrationStatus_FreshDatabase(t *testing.T) {
	database := openTestDB(t)

	applied, pending, err := database.MigrationStatus()
	if err != nil {
		t.Fatalf("MigrationStatus failed: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected no applied migrations, got %v", applied)
	}
	if len(pending) == 0 {
		t.Error("expected pending migrations on fresh database")
	}
}

func TestRequiresMigrationError(t *testing.T) {
	database := openTestDB(t)

	err := database.RequiresMigrationError()
	if err == nil {
		t.Fatal("expected error for unmigrated database")
	}

	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	if err := database.RequiresMigrationError(); err != nil {
		t.Errorf("expected nil after migration, got: %v", err)
	}
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "ledger.db")
	database, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer database.Close()

	if database.Path() != path {
		t.Errorf("Path() = %q, want %q", database.Path(), path)
	}
}

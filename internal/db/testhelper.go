package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestMetastore opens a metastore in t.TempDir(), runs all pending
// migrations, and registers cleanup.
func OpenTestMetastore(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test_meta.sqlite")

	store, err := OpenMetastore(path)
	if err != nil {
		t.Fatalf("open test metastore: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if err := RunMigrations(store); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return store
}

package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "firscan.db")

	db, err := Open(ctx, path, Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	for _, table := range []string{"samples", "rule_sets", "active_rule_set", "metrics"} {
		var n int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n)
		if err != nil {
			t.Fatalf("query %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "firscan.db")

	db, err := Open(ctx, path, Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := db.Exec(
		"INSERT INTO samples(id, spans, corrections, created_at) VALUES('a', '[]', '{}', '2025-01-01T00:00:00Z')",
	); err != nil {
		t.Fatalf("insert: %v", err)
	}
	db.Close()

	db, err = Open(ctx, path, Options{})
	if err != nil {
		t.Fatalf("Open() second time error = %v", err)
	}
	defer db.Close()

	var n, v int
	if err := db.QueryRow("SELECT COUNT(*) FROM samples").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("samples = %d after reopen, want 1", n)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&v); err != nil {
		t.Fatalf("count versions: %v", err)
	}
	if v != 1 {
		t.Errorf("schema_version rows = %d, want 1", v)
	}
}

func TestOpen_UnknownSchemaVersion(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "firscan.db")

	db, err := Open(ctx, path, Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("update: %v", err)
	}
	db.Close()

	if _, err := Open(ctx, path, Options{Attempts: 3}); err == nil {
		t.Error("Open() error = nil, want unknown schema version")
	}
}

package database

import (
	"testing"
	"testing/fstest"
)

func TestNewMemoryDB_AppliesSchema(t *testing.T) {
	db, err := NewMemoryDB()
	if err != nil {
		t.Fatalf("NewMemoryDB() error = %v", err)
	}
	defer db.Close()

	for _, table := range []string{"organizations", "users", "members", "forms", "submissions", "audit_logs"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrate_LexicalOrder(t *testing.T) {
	db, err := NewMemoryDB()
	if err != nil {
		t.Fatalf("NewMemoryDB() error = %v", err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"m/002_insert.sql": {Data: []byte(`INSERT INTO things (id) VALUES ('a');`)},
		"m/001_create.sql": {Data: []byte(`CREATE TABLE things (id TEXT PRIMARY KEY);`)},
		"m/README.md":      {Data: []byte(`not sql`)},
	}

	if err := Migrate(db, fsys, "m"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM things`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}
}

func TestMigrate_MissingDir(t *testing.T) {
	db, err := NewMemoryDB()
	if err != nil {
		t.Fatalf("NewMemoryDB() error = %v", err)
	}
	defer db.Close()

	if err := Migrate(db, fstest.MapFS{}, "nope"); err == nil {
		t.Error("expected error for missing directory")
	}
}

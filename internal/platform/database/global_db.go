package database

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"decode/internal/platform/config"
	"decode/migrations"
)

const MemoryURL = ":memory:"

func NewGlobalDB(cfg config.GlobalDBConfig) (*sql.DB, error) {
	if cfg.URL == MemoryURL {
		return NewMemoryDB()
	}

	dsn := cfg.URL
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// NewMemoryDB opens a private in-memory database with the global schema applied.
// It holds a single connection; the data lives as long as the *sql.DB.
func NewMemoryDB() (*sql.DB, error) {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := Migrate(db, migrations.Global, "global"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

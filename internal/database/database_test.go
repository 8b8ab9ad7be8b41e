package database

import (
	"path/filepath"
	"testing"
)

func TestNewSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")

	db, err := New("sqlite://" + path)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if db.Dialect != DialectSQLite {
		t.Errorf("expected sqlite dialect, got %s", db.Dialect)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}
}

func TestNewEmptySQLitePath(t *testing.T) {
	if _, err := New("sqlite://"); err == nil {
		t.Fatal("Expected error for empty path, got nil")
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	db, err := New("sqlite://:memory:")
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := db.Initialize(); err != nil {
			t.Fatalf("Initialize run %d failed: %v", i+1, err)
		}
	}

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='journal_entries'").Scan(&name)
	if err != nil {
		t.Fatalf("journal_entries table missing: %v", err)
	}

	var index string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_journal_date'").Scan(&index)
	if err != nil {
		t.Fatalf("idx_journal_date index missing: %v", err)
	}
}

func TestMySQLDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mysql://user:pass@db:3306/cahier", "user:pass@tcp(db:3306)/cahier?parseTime=true"},
		{"mysql://user:pass@db:3306/cahier?charset=utf8mb4", "user:pass@tcp(db:3306)/cahier?charset=utf8mb4&parseTime=true"},
		{"mysql://user:pass@db:3306/cahier?parseTime=false", "user:pass@tcp(db:3306)/cahier?parseTime=false"},
	}

	for _, tt := range tests {
		if got := mysqlDSN(tt.in); got != tt.want {
			t.Errorf("mysqlDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

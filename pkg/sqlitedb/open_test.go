package sqlitedb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func TestOpenAppliesSchema(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "open.db"),
		`CREATE TABLE IF NOT EXISTS things (id INTEGER PRIMARY KEY)`,
		`INSERT INTO things (id) VALUES (1)`,
	)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM things`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
}

func TestOpenBadSchema(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "bad.db"), `CREATE NONSENSE`)
	if err == nil {
		t.Fatal("expected migrate error")
	}
}

func TestIsBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "busy.db")
	dsn := path + "?_pragma=busy_timeout(0)&_txlock=immediate"

	first, err := Open(dsn, `CREATE TABLE IF NOT EXISTS things (id INTEGER PRIMARY KEY)`)
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close()
	second, err := Open(dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	tx, err := first.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()

	_, err = second.BeginTx(context.Background(), nil)
	if err == nil {
		t.Fatal("expected lock contention")
	}
	if !IsBusy(err) {
		t.Errorf("IsBusy(%v) = false", err)
	}
	if !IsBusy(fmt.Errorf("increment: %w", err)) {
		t.Error("wrapped busy error not detected")
	}

	if IsBusy(nil) {
		t.Error("nil is not busy")
	}
	if IsBusy(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Error("plain error text must not count as busy")
	}
}

func TestIsConstraint(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "constraint.db"),
		`CREATE TABLE IF NOT EXISTS things (id INTEGER PRIMARY KEY)`,
		`INSERT INTO things (id) VALUES (1)`,
	)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	_, err = db.Exec(`INSERT INTO things (id) VALUES (1)`)
	if !IsConstraint(err) {
		t.Errorf("IsConstraint(%v) = false", err)
	}
	if IsBusy(err) {
		t.Error("constraint violation reported as busy")
	}
}

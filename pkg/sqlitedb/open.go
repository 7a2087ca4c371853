// Package sqlitedb opens the SQLite databases shared by the mealcover stores.
package sqlitedb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Open opens the SQLite database at path with WAL journaling, a busy timeout and
// immediate transactions, then applies each schema statement in order.
func Open(path string, schema ...string) (*sql.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate&_time_format=sqlite"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite db: %w", err)
		}
	}
	return db, nil
}

// IsBusy reports whether err is a SQLite lock contention error.
func IsBusy(err error) bool {
	return hasCode(err, sqlite3.SQLITE_BUSY) || hasCode(err, sqlite3.SQLITE_LOCKED)
}

// IsConstraint reports whether err is a SQLite constraint violation.
func IsConstraint(err error) bool {
	return hasCode(err, sqlite3.SQLITE_CONSTRAINT)
}

// hasCode compares the primary result code, so extended codes such as
// SQLITE_BUSY_SNAPSHOT match their primary code.
func hasCode(err error, code int) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code()&0xff == code
}

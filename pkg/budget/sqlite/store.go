// Package sqlite implements budget.Store as a single-row SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/budget"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/sqlitedb"
)

// maxTxAttempts bounds retries of the increment transaction under lock contention.
const maxTxAttempts = 5

const createBudgetTable = `
CREATE TABLE IF NOT EXISTS budget_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	units_generated INTEGER NOT NULL CHECK (units_generated >= 0),
	total_cost_micros INTEGER NOT NULL CHECK (total_cost_micros >= 0),
	last_updated DATETIME NOT NULL
);
`

// Store is the SQLite budget record.
type Store struct {
	db *sql.DB
}

var _ budget.Store = (*Store)(nil)

// New opens the budget database and creates the schema.
func New(dbPath string) (*Store, error) {
	db, err := sqlitedb.Open(dbPath, createBudgetTable)
	if err != nil {
		return nil, fmt.Errorf("open budget db: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the budget record, if any.
func (s *Store) Get(ctx context.Context) (models.BudgetState, bool, error) {
	var st models.BudgetState
	err := s.db.QueryRowContext(ctx,
		`SELECT units_generated, total_cost_micros, last_updated FROM budget_state WHERE id = 1`,
	).Scan(&st.UnitsGenerated, &st.TotalCostMicros, &st.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BudgetState{}, false, nil
	}
	if err != nil {
		return models.BudgetState{}, false, fmt.Errorf("get budget: %w", err)
	}
	return st, true, nil
}

// Increment creates or bumps the record in one transaction, retrying on SQLITE_BUSY.
func (s *Store) Increment(ctx context.Context, unitCostMicros int64) (models.BudgetState, error) {
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		st, err := s.increment(ctx, unitCostMicros)
		if err == nil {
			return st, nil
		}
		if !sqlitedb.IsBusy(err) {
			return models.BudgetState{}, err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return models.BudgetState{}, ctx.Err()
		case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
		}
	}
	return models.BudgetState{}, fmt.Errorf("increment budget: %d attempts: %w", maxTxAttempts, lastErr)
}

func (s *Store) increment(ctx context.Context, unitCostMicros int64) (models.BudgetState, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.BudgetState{}, fmt.Errorf("begin budget tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	// The upsert is a single write statement, so the read-modify-write happens
	// under SQLite's write lock and concurrent increments cannot be lost.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO budget_state (id, units_generated, total_cost_micros, last_updated)
		 VALUES (1, 1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			units_generated = units_generated + 1,
			total_cost_micros = total_cost_micros + excluded.total_cost_micros,
			last_updated = excluded.last_updated`,
		unitCostMicros, now,
	)
	if err != nil {
		return models.BudgetState{}, fmt.Errorf("upsert budget: %w", err)
	}

	var st models.BudgetState
	err = tx.QueryRowContext(ctx,
		`SELECT units_generated, total_cost_micros, last_updated FROM budget_state WHERE id = 1`,
	).Scan(&st.UnitsGenerated, &st.TotalCostMicros, &st.LastUpdated)
	if err != nil {
		return models.BudgetState{}, fmt.Errorf("read budget: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.BudgetState{}, fmt.Errorf("commit budget tx: %w", err)
	}
	return st, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

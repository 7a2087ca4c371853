// Package budget enforces the global spend cap on artifact generation.
package budget

import (
	"context"
	"fmt"
	"math"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
)

// Store holds the singleton budget record.
type Store interface {
	// Get returns the current record. exists is false if none has been written.
	Get(ctx context.Context) (state models.BudgetState, exists bool, err error)
	// Increment atomically creates the record with one unit, or adds one unit
	// and unitCostMicros to it, and returns the new state.
	Increment(ctx context.Context, unitCostMicros int64) (models.BudgetState, error)
}

// Ledger checks and records spend against a fixed cap.
//
// CheckAvailable and CommitIncrement are separate operations, so concurrent
// callers can each pass the check and overshoot the cap by at most one unit per
// racing caller.
type Ledger struct {
	store     Store
	capMicros int64
	unitCost  int64
}

// New creates a Ledger. cap and unitCost are in currency units.
func New(store Store, cap, unitCost float64) *Ledger {
	return &Ledger{
		store:     store,
		capMicros: ToMicros(cap),
		unitCost:  ToMicros(unitCost),
	}
}

// ToMicros converts a currency amount to integer micro-units.
func ToMicros(amount float64) int64 {
	return int64(math.Round(amount * models.MicrosPerUnit))
}

// CheckAvailable reports whether one more unit fits under the cap.
// A missing record counts as zero spend.
func (l *Ledger) CheckAvailable(ctx context.Context) (bool, error) {
	state, exists, err := l.store.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("read budget: %w", err)
	}
	if !exists {
		return l.unitCost <= l.capMicros, nil
	}
	return state.TotalCostMicros+l.unitCost <= l.capMicros, nil
}

// CommitIncrement records one generated unit.
func (l *Ledger) CommitIncrement(ctx context.Context) (models.BudgetState, error) {
	state, err := l.store.Increment(ctx, l.unitCost)
	if err != nil {
		return models.BudgetState{}, fmt.Errorf("commit budget: %w", err)
	}
	return state, nil
}

// Status returns the current spend against the cap.
func (l *Ledger) Status(ctx context.Context) (models.BudgetStatus, error) {
	state, exists, err := l.store.Get(ctx)
	if err != nil {
		return models.BudgetStatus{}, fmt.Errorf("budget status: %w", err)
	}
	remaining := l.capMicros - state.TotalCostMicros
	if remaining < 0 {
		remaining = 0
	}
	return models.BudgetStatus{
		State:     state,
		Exists:    exists,
		Cap:       float64(l.capMicros) / models.MicrosPerUnit,
		UnitCost:  float64(l.unitCost) / models.MicrosPerUnit,
		Remaining: float64(remaining) / models.MicrosPerUnit,
	}, nil
}

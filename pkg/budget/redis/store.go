// Package redis implements budget.Store as a Redis hash.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/budget"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
)

const (
	fieldUnits       = "units_generated"
	fieldCostMicros  = "total_cost_micros"
	fieldLastUpdated = "last_updated"
)

// Store keeps the budget record in one hash. Increments run in MULTI/EXEC.
type Store struct {
	client *goredis.Client
	key    string
}

var _ budget.Store = (*Store)(nil)

// New creates a Store under keyPrefix, e.g. "mealcover" -> "mealcover:budget".
func New(client *goredis.Client, keyPrefix string) *Store {
	return &Store{client: client, key: keyPrefix + ":budget"}
}

// Get returns the budget record, if any.
func (s *Store) Get(ctx context.Context) (models.BudgetState, bool, error) {
	vals, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return models.BudgetState{}, false, fmt.Errorf("get budget: %w", err)
	}
	if len(vals) == 0 {
		return models.BudgetState{}, false, nil
	}
	st, err := parseState(vals)
	if err != nil {
		return models.BudgetState{}, false, err
	}
	return st, true, nil
}

// Increment adds one unit and unitCostMicros. HINCRBY creates missing fields
// at zero, so the first increment creates the record.
func (s *Store) Increment(ctx context.Context, unitCostMicros int64) (models.BudgetState, error) {
	now := time.Now().UTC()

	var units, cost *goredis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		units = pipe.HIncrBy(ctx, s.key, fieldUnits, 1)
		cost = pipe.HIncrBy(ctx, s.key, fieldCostMicros, unitCostMicros)
		pipe.HSet(ctx, s.key, fieldLastUpdated, now.Format(time.RFC3339Nano))
		return nil
	})
	if err != nil {
		return models.BudgetState{}, fmt.Errorf("increment budget: %w", err)
	}

	return models.BudgetState{
		UnitsGenerated:  units.Val(),
		TotalCostMicros: cost.Val(),
		LastUpdated:     now,
	}, nil
}

func parseState(vals map[string]string) (models.BudgetState, error) {
	var st models.BudgetState
	var err error
	if st.UnitsGenerated, err = strconv.ParseInt(vals[fieldUnits], 10, 64); err != nil {
		return st, fmt.Errorf("parse %s: %w", fieldUnits, err)
	}
	if st.TotalCostMicros, err = strconv.ParseInt(vals[fieldCostMicros], 10, 64); err != nil {
		return st, fmt.Errorf("parse %s: %w", fieldCostMicros, err)
	}
	if raw, ok := vals[fieldLastUpdated]; ok {
		if st.LastUpdated, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return st, fmt.Errorf("parse %s: %w", fieldLastUpdated, err)
		}
	}
	return st, nil
}

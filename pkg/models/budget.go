package models

import "time"

// MicrosPerUnit is the number of stored micro-units per currency unit.
const MicrosPerUnit = 1_000_000

// BudgetState is the singleton spend ledger record.
// Cost is kept in integer micro-units so that
// TotalCostMicros == UnitsGenerated * unitCostMicros holds exactly.
type BudgetState struct {
	UnitsGenerated  int64     `json:"units_generated"`
	TotalCostMicros int64     `json:"total_cost_micros"`
	LastUpdated     time.Time `json:"last_updated"`
}

// TotalCostSpent returns the spend in currency units.
func (s BudgetState) TotalCostSpent() float64 {
	return float64(s.TotalCostMicros) / MicrosPerUnit
}

// BudgetStatus shows current spend against the global cap.
type BudgetStatus struct {
	State     BudgetState `json:"state"`
	Exists    bool        `json:"exists"`
	Cap       float64     `json:"cap"`
	UnitCost  float64     `json:"unit_cost"`
	Remaining float64     `json:"remaining"`
}

package models

import "time"

// Outcome classifies how a pipeline run ended.
type Outcome string

const (
	OutcomeCacheHit       Outcome = "cache_hit"
	OutcomeGenerated      Outcome = "generated"
	OutcomeBudgetExceeded Outcome = "budget_exceeded"
	OutcomeFailed         Outcome = "failed"
	OutcomeRejected       Outcome = "rejected"
)

// AuditEntry records the outcome of a single pipeline run.
type AuditEntry struct {
	RequestID     string    `json:"request_id"`
	GroupID       string    `json:"group_id"`
	CallerName    string    `json:"caller_name"`
	SubjectText   string    `json:"subject_text,omitempty"`
	NormalizedKey string    `json:"normalized_key"`
	Outcome       Outcome   `json:"outcome"`
	ArtifactURL   string    `json:"artifact_url,omitempty"`
	Error         string    `json:"error,omitempty"`
	LatencyMs     int64     `json:"latency_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// AuditQueryOpts specifies filters for querying audit entries.
type AuditQueryOpts struct {
	GroupID   string
	Outcome   Outcome
	Since     time.Time
	RequestID string
	Limit     int
}

// AuditStat holds aggregate audit counts for an outcome/day combination.
type AuditStat struct {
	Outcome Outcome
	Day     string
	Count   int
}

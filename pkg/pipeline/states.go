package pipeline

// State is a step of a pipeline run. Every run ends in StateResponding.
type State string

const (
	StateAuthorizing      State = "authorizing"
	StateCacheChecking    State = "cache_checking"
	StateCacheHit         State = "cache_hit"
	StateBudgetChecking   State = "budget_checking"
	StateBudgetExceeded   State = "budget_exceeded"
	StateGenerating       State = "generating"
	StateUploading        State = "uploading"
	StateAccountingCommit State = "accounting_commit"
	StateCacheWriting     State = "cache_writing"
	StateResponding       State = "responding"
)

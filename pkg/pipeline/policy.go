package pipeline

// Collaborator names a dependency whose errors the pipeline handles.
type Collaborator string

const (
	Membership   Collaborator = "membership"
	CacheRead    Collaborator = "cache_read"
	CacheWrite   Collaborator = "cache_write"
	BudgetRead   Collaborator = "budget_read"
	BudgetCommit Collaborator = "budget_commit"
	Generation   Collaborator = "generation"
	Storage      Collaborator = "storage"
)

// Behavior is how the pipeline reacts to a collaborator error.
type Behavior int

const (
	// FailClosed denies the guarded action.
	FailClosed Behavior = iota
	// FailOpen proceeds as if the collaborator had answered favourably.
	FailOpen
	// Swallow logs the error and continues.
	Swallow
	// Surface ends the run with an error response.
	Surface
)

func (b Behavior) String() string {
	switch b {
	case FailClosed:
		return "fail_closed"
	case FailOpen:
		return "fail_open"
	case Swallow:
		return "swallow"
	case Surface:
		return "surface"
	default:
		return "unknown"
	}
}

// proceeds reports whether the run continues past the failed step.
func (b Behavior) proceeds() bool {
	return b == FailOpen || b == Swallow
}

// Policy maps each collaborator to its error behavior.
type Policy map[Collaborator]Behavior

// DefaultPolicy returns the standard error posture.
func DefaultPolicy() Policy {
	return Policy{
		Membership:   FailClosed,
		CacheRead:    FailOpen,
		CacheWrite:   Swallow,
		BudgetRead:   FailOpen,
		BudgetCommit: Swallow,
		Generation:   Surface,
		Storage:      Surface,
	}
}

// For returns the behavior for c. Collaborators missing from p use the default.
func (p Policy) For(c Collaborator) Behavior {
	if b, ok := p[c]; ok {
		return b
	}
	return DefaultPolicy()[c]
}

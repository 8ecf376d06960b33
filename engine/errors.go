package engine

import "fmt"

// InfeasibleQueryError is spec.md §6's InfeasibleQuery: the structured error
// raised when the bound manager's consistency check fails, either because a
// tightening crossed lb > ub or because the facade's own consistency check
// failed after applying a case. It is not caught inside the tightener or the
// bound manager (spec.md §7): it propagates to the search driver, which
// reacts by calling DecisionStack.PopSplit.
type InfeasibleQueryError struct {
	Variable    Variable
	HasVariable bool
	Reason      string
}

func (e *InfeasibleQueryError) Error() string {
	if e.HasVariable {
		return fmt.Sprintf("infeasible query: %s (variable %d)", e.Reason, e.Variable)
	}
	return fmt.Sprintf("infeasible query: %s", e.Reason)
}

// NewInfeasibleQuery builds an InfeasibleQueryError for a crossing bound on
// the given variable.
func NewInfeasibleQuery(v Variable, reason string) *InfeasibleQueryError {
	return &InfeasibleQueryError{Variable: v, HasVariable: true, Reason: reason}
}

// NewInfeasibleQueryNoVariable builds an InfeasibleQueryError for a failure
// not attributable to a single variable (e.g. the facade's own consistency
// check).
func NewInfeasibleQueryNoVariable(reason string) *InfeasibleQueryError {
	return &InfeasibleQueryError{Reason: reason}
}

// PreconditionViolation is spec.md §7's "Precondition violation (assertion)"
// error kind: a programmer error, not recoverable. Callers are expected to
// let it propagate as a panic rather than branch on it; it implements error
// only so it prints usefully if it does escape to a top-level recover.
type PreconditionViolation struct {
	Message string
}

func (e *PreconditionViolation) Error() string {
	return "precondition violation: " + e.Message
}

// Panic raises a PreconditionViolation.
func Panic(message string) {
	panic(&PreconditionViolation{Message: message})
}

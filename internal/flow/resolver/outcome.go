package resolver

import (
	"github.com/kingrea/flowsem/internal/diag"
	"github.com/kingrea/flowsem/internal/flow"
)

// OutcomeKind tags the result of a get-or-create or port lookup.
type OutcomeKind int

const (
	OutcomeCreated OutcomeKind = iota
	OutcomeFound
	OutcomeConflict
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCreated:
		return "created"
	case OutcomeFound:
		return "found"
	case OutcomeConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// AddOpResult is the outcome of Registry.GetOrCreate. On OutcomeConflict,
// Op holds the unchanged existing operation, RequestedType the rejected type
// and Pos the position of the offending reference.
type AddOpResult struct {
	Kind          OutcomeKind
	Op            flow.Operation
	RequestedType string
	Pos           int
	// Refined is set when an untyped operation adopted RequestedType.
	Refined bool

	state *opState
}

// Err returns the conflict as an error, or nil for Created and Found.
func (r AddOpResult) Err() error {
	if r.Kind != OutcomeConflict {
		return nil
	}
	return &ConflictError{
		Kind:      diag.KindNameTypeConflict,
		Operation: r.Op.Name,
		Expected:  r.Op.Type,
		Actual:    r.RequestedType,
		Pos:       r.Pos,
	}
}

// PortResult is the outcome of a port resolution. On OutcomeConflict,
// Port holds the stored entry that clashes and Pos the reported position.
type PortResult struct {
	Kind OutcomeKind
	Port flow.PortData
	Pos  int

	requested flow.PortData
	owner     string
	dir       flow.Direction
}

// Err returns the conflict as an error, or nil for Created and Found.
func (r PortResult) Err() error {
	if r.Kind != OutcomeConflict {
		return nil
	}
	return &ConflictError{
		Kind:      diag.KindPortShapeConflict,
		Operation: r.owner,
		Port:      r.requested.Name,
		Direction: r.dir.String(),
		Expected:  r.Port.Key(),
		Actual:    r.requested.Key(),
		Pos:       r.Pos,
	}
}

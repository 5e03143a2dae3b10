package resolver

import (
	"errors"
	"fmt"

	"github.com/kingrea/flowsem/internal/diag"
)

// Sentinel errors for programmatic checks via errors.Is().
var (
	// ErrNameTypeConflict marks an operation name reused with another type.
	ErrNameTypeConflict = errors.New("name/type conflict")

	// ErrPortShapeConflict marks a port used both as scalar and as indexed.
	ErrPortShapeConflict = errors.New("port shape conflict")

	// ErrUnresolvedDataType marks a connection no chain supplied a type for.
	ErrUnresolvedDataType = errors.New("unresolved data type")

	// ErrOutPortReused marks an output port feeding more than one connection.
	ErrOutPortReused = errors.New("output port reused")

	// ErrStructural marks a broken internal invariant of an assembled flow.
	ErrStructural = errors.New("structural invariant violation")
)

// ConflictError describes a per-chain semantic conflict. It unwraps to
// ErrNameTypeConflict or ErrPortShapeConflict.
type ConflictError struct {
	Kind      diag.Kind
	Operation string
	Port      string
	Direction string
	Expected  string
	Actual    string
	Pos       int
}

func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case diag.KindNameTypeConflict:
		return fmt.Sprintf("the operation '%s' has got two different types '%s' and '%s'", e.Operation, e.Expected, e.Actual)
	case diag.KindPortShapeConflict:
		if e.Operation == "" {
			return fmt.Sprintf("the flow %s port '%s' is used as indexed and unindexed port", e.Direction, e.Port)
		}
		return fmt.Sprintf("the %s port '%s' of the operation '%s' is used as indexed and unindexed port in the same flow", e.Direction, e.Port, e.Operation)
	default:
		return fmt.Sprintf("conflict on %s", e.Operation)
	}
}

func (e *ConflictError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Kind == diag.KindPortShapeConflict {
		return ErrPortShapeConflict
	}
	return ErrNameTypeConflict
}

// StructuralError reports an assembled flow that fails the consistency
// check. It is fatal for the whole flow file.
type StructuralError struct {
	Flow string
	Msg  string
}

func (e *StructuralError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return ErrStructural.Error()
	}
	return fmt.Sprintf("%s: flow %s: %s", ErrStructural.Error(), e.Flow, e.Msg)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

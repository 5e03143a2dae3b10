package resolver

import (
	"fmt"

	"github.com/kingrea/flowsem/internal/chain"
	"github.com/kingrea/flowsem/internal/flow"
)

// opState is the mutable working copy of an operation while its flow is
// being resolved. It never leaves this package; Assemble freezes it.
type opState struct {
	name   string
	typ    string
	srcPos int
	in     []flow.PortData
	out    []flow.PortData
	pairs  []flow.PortPair
}

func (s *opState) ports(dir flow.Direction) []flow.PortData {
	if dir == flow.DirOut {
		return s.out
	}
	return s.in
}

func (s *opState) appendPort(dir flow.Direction, port flow.PortData) {
	if dir == flow.DirOut {
		s.out = append(s.out, port)
		return
	}
	s.in = append(s.in, port)
}

func (s *opState) freeze() flow.Operation {
	return flow.NewOperation(s.name, s.typ, s.srcPos, s.in, s.out, s.pairs)
}

// Registry is the name-keyed table of operations seen in one flow. It is
// owned by a single walker and not safe for concurrent use.
type Registry struct {
	ops   map[string]*opState
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: map[string]*opState{}}
}

// GetOrCreate returns the operation registered under name, creating it when
// unseen. A different non-empty type for a known name is a conflict and
// leaves the registry untouched. An empty type never conflicts, and a known
// operation without a type adopts the first type it is referenced with.
func (r *Registry) GetOrCreate(name, typ string, srcPos int) AddOpResult {
	existing, ok := r.ops[name]
	if !ok {
		state := &opState{name: name, typ: typ, srcPos: srcPos}
		r.ops[name] = state
		r.order = append(r.order, name)
		return AddOpResult{Kind: OutcomeCreated, Op: state.freeze(), RequestedType: typ, Pos: srcPos, state: state}
	}
	switch {
	case typ == "" || typ == existing.typ:
		return AddOpResult{Kind: OutcomeFound, Op: existing.freeze(), RequestedType: typ, Pos: srcPos, state: existing}
	case existing.typ == "":
		existing.typ = typ
		return AddOpResult{Kind: OutcomeFound, Op: existing.freeze(), RequestedType: typ, Pos: srcPos, Refined: true, state: existing}
	default:
		return AddOpResult{Kind: OutcomeConflict, Op: existing.freeze(), RequestedType: typ, Pos: srcPos, state: existing}
	}
}

// ResolvePort finds or creates a port on the named operation.
func (r *Registry) ResolvePort(opName string, ref chain.PortRef, dir flow.Direction) (PortResult, error) {
	state, ok := r.ops[opName]
	if !ok {
		return PortResult{}, fmt.Errorf("resolver: unknown operation %s", opName)
	}
	return resolvePort(state, ref, dir), nil
}

// Len returns the number of registered operations.
func (r *Registry) Len() int {
	return len(r.order)
}

// Operation returns a snapshot of the named operation.
func (r *Registry) Operation(name string) (flow.Operation, bool) {
	state, ok := r.ops[name]
	if !ok {
		return flow.Operation{}, false
	}
	return state.freeze(), true
}

// Operations returns snapshots in creation order.
func (r *Registry) Operations() []flow.Operation {
	out := make([]flow.Operation, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.ops[name].freeze())
	}
	return out
}

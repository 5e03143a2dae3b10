package resolver

import (
	"errors"
	"fmt"

	"github.com/kingrea/flowsem/internal/chain"
	"github.com/kingrea/flowsem/internal/diag"
	"github.com/kingrea/flowsem/internal/flow"
	"github.com/kingrea/flowsem/internal/metrics"
)

// ChainStatus tells whether a chain contributed to the flow.
type ChainStatus string

const (
	ChainResolved ChainStatus = "resolved"
	ChainSkipped  ChainStatus = "skipped"
)

// ChainResult is the outcome of walking one chain. Err is a *ConflictError
// when the chain was skipped.
type ChainResult struct {
	Status      ChainStatus
	Connections int
	Err         error
}

// WalkStats summarizes a walker's work.
type WalkStats struct {
	Chains      int
	Skipped     int
	Connections int
}

// Walker resolves the chains of a single flow, left to right and one chain
// at a time. It exclusively owns the flow's registry and connection list.
type Walker struct {
	file     string
	flowName string
	flowPos  int
	opts     Options
	reporter diag.Reporter

	registry *Registry
	boundary *opState
	types    *typeMemory

	conns     []flow.Connection
	connChain []int
	stats     WalkStats
	finished  bool
}

// NewWalker creates a walker for the flow named flowName. A nil reporter
// discards diagnostics.
func NewWalker(file, flowName string, flowPos int, reporter diag.Reporter, opts Options) *Walker {
	if reporter == nil {
		reporter = diag.Discard
	}
	opts = opts.normalized()
	return &Walker{
		file:     file,
		flowName: flowName,
		flowPos:  flowPos,
		opts:     opts,
		reporter: reporter,
		registry: NewRegistry(),
		boundary: &opState{},
		types:    newTypeMemory(opts.TypePolicy),
	}
}

// Registry exposes the walker's operation table.
func (w *Walker) Registry() *Registry {
	return w.registry
}

// Stats returns counters for the chains walked so far.
func (w *Walker) Stats() WalkStats {
	return w.stats
}

// chainWalk is the working state of the chain currently being walked.
// Connections and port pairs are only committed when the chain completes.
type chainWalk struct {
	index      int
	current    *opState
	currentIn  flow.PortData
	currentOut flow.PortData
	lastType   string
	conns      []flow.Connection
	pairs      []pendingPair
}

type pendingPair struct {
	op   *opState
	pair flow.PortPair
}

// Walk resolves one chain. A conflict aborts this chain only: it is
// reported, nothing the chain emitted is kept, and the walker stays usable
// for the next chain.
func (w *Walker) Walk(index int, c chain.Chain) ChainResult {
	if w.finished {
		return ChainResult{Status: ChainSkipped, Err: fmt.Errorf("resolver: flow %s already assembled", w.flowName)}
	}
	w.stats.Chains++
	cw := &chainWalk{index: index}
	for _, el := range c.Elements() {
		var err error
		switch e := el.(type) {
		case chain.BeginRef:
			err = w.begin(cw, e)
		case chain.MiddleLink:
			err = w.middle(cw, e)
		case chain.EndConnection:
			err = w.end(cw, e)
		default:
			err = fmt.Errorf("resolver: unexpected chain element %T", el)
		}
		if err != nil {
			w.skip(cw, err)
			return ChainResult{Status: ChainSkipped, Err: err}
		}
	}
	w.commit(cw)
	return ChainResult{Status: ChainResolved, Connections: len(cw.conns)}
}

func (w *Walker) begin(cw *chainWalk, b chain.BeginRef) error {
	res := w.registry.GetOrCreate(b.Op.Name, b.Op.Type, b.Op.SrcPos)
	w.trace(cw, res)
	if res.Kind == OutcomeConflict {
		return res.Err()
	}
	cw.current = res.state
	if b.FlowPort == nil {
		return nil
	}
	flowPort := resolvePort(w.boundary, b.FlowPort.OrDefault(w.opts.DefaultInPort, b.SrcPos), flow.DirIn)
	if flowPort.Kind == OutcomeConflict {
		return flowPort.Err()
	}
	in := resolvePort(cw.current, b.InPort.OrDefault(w.opts.DefaultInPort, b.SrcPos), flow.DirIn)
	if in.Kind == OutcomeConflict {
		return in.Err()
	}
	w.emit(cw, "", flowPort.Port, cw.current.name, in.Port, b.DataType, b.SrcPos)
	cw.currentIn = in.Port
	return nil
}

func (w *Walker) middle(cw *chainWalk, m chain.MiddleLink) error {
	out := resolvePort(cw.current, m.OutPort.OrDefault(w.opts.DefaultOutPort, m.SrcPos), flow.DirOut)
	if out.Kind == OutcomeConflict {
		return out.Err()
	}
	res := w.registry.GetOrCreate(m.Op.Name, m.Op.Type, m.Op.SrcPos)
	w.trace(cw, res)
	if res.Kind == OutcomeConflict {
		return res.Err()
	}
	in := resolvePort(res.state, m.InPort.OrDefault(w.opts.DefaultInPort, m.SrcPos), flow.DirIn)
	if in.Kind == OutcomeConflict {
		return in.Err()
	}
	w.emit(cw, cw.current.name, out.Port, res.state.name, in.Port, m.DataType, m.SrcPos)
	cw.pairs = append(cw.pairs, pendingPair{op: cw.current, pair: flow.PortPair{InPort: cw.currentIn, OutPort: out.Port}})
	cw.current = res.state
	cw.currentIn = in.Port
	return nil
}

func (w *Walker) end(cw *chainWalk, e chain.EndConnection) error {
	out := resolvePort(cw.current, e.OutPort.OrDefault(w.opts.DefaultOutPort, e.SrcPos), flow.DirOut)
	if out.Kind == OutcomeConflict {
		return out.Err()
	}
	flowPort := resolvePort(w.boundary, e.FlowPort.OrDefault(w.opts.DefaultOutPort, e.SrcPos), flow.DirOut)
	if flowPort.Kind == OutcomeConflict {
		return flowPort.Err()
	}
	w.emit(cw, cw.current.name, out.Port, "", flowPort.Port, e.DataType, e.SrcPos)
	cw.currentOut = out.Port
	return nil
}

// emit appends a connection to the chain. An undeclared type is inherited
// from the nearest declared type earlier in the chain, then from a type
// already recorded for either endpoint; otherwise it stays empty and is
// retried when the flow is finished.
func (w *Walker) emit(cw *chainWalk, fromOp string, fromPort flow.PortData, toOp string, toPort flow.PortData, declared string, pos int) {
	dataType := declared
	if declared != "" {
		cw.lastType = declared
	} else {
		dataType = cw.lastType
	}
	c := flow.NewConnection(fromOp, fromPort, toOp, toPort, dataType, declared != "", pos)
	if c.DataType == "" {
		if inherited := w.types.infer(c); inherited != "" {
			c = c.WithDataType(inherited)
		}
	}
	cw.conns = append(cw.conns, c)
}

func (w *Walker) commit(cw *chainWalk) {
	if cw.current != nil && !(cw.currentIn.IsZero() && cw.currentOut.IsZero()) {
		cw.pairs = append(cw.pairs, pendingPair{op: cw.current, pair: flow.PortPair{InPort: cw.currentIn, OutPort: cw.currentOut}})
	}
	if n := len(cw.pairs); n > 0 {
		cw.pairs[n-1].pair.IsLast = true
	}
	for _, p := range cw.pairs {
		p.op.pairs = append(p.op.pairs, p.pair)
	}
	for _, c := range cw.conns {
		w.conns = append(w.conns, c)
		w.connChain = append(w.connChain, cw.index)
		w.types.record(c)
	}
	w.stats.Connections += len(cw.conns)
	w.opts.Metrics.ObserveChain(metrics.ChainResolved)
}

func (w *Walker) skip(cw *chainWalk, err error) {
	w.stats.Skipped++
	w.opts.Metrics.ObserveChain(metrics.ChainSkipped)
	w.opts.logf("flow %s chain %d skipped: %v", w.flowName, cw.index+1, err)
	d := diag.Diagnostic{
		Severity: diag.SeverityError,
		File:     w.file,
		Flow:     w.flowName,
		Chain:    cw.index,
		Message:  err.Error(),
		Err:      err,
	}
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		d.Kind = conflict.Kind
		d.Pos = conflict.Pos
		d.Expected = conflict.Expected
		d.Actual = conflict.Actual
	} else {
		d.Kind = diag.KindStructural
	}
	w.report(d)
}

func (w *Walker) trace(cw *chainWalk, res AddOpResult) {
	if !w.opts.Trace || res.Kind == OutcomeConflict {
		return
	}
	kind := diag.KindFound
	if res.Kind == OutcomeCreated {
		kind = diag.KindCreated
	}
	w.report(diag.Diagnostic{
		Kind:     kind,
		Severity: diag.SeverityInfo,
		File:     w.file,
		Flow:     w.flowName,
		Chain:    cw.index,
		Pos:      res.Pos,
		Message:  fmt.Sprintf("operation '%s' %s", res.Op.Name, res.Kind),
		Actual:   res.Op.Type,
	})
}

func (w *Walker) report(d diag.Diagnostic) {
	w.reporter.Report(d)
	if d.Severity != diag.SeverityInfo {
		w.opts.Metrics.ObserveDiagnostic(string(d.Kind))
	}
}

// Finish runs the deferred checks and assembles the flow. Deferred data
// types are retried until no more can be inferred; connections still
// untyped are reported once each. A StructuralError is fatal.
func (w *Walker) Finish() (flow.Flow, error) {
	if w.finished {
		return flow.Flow{}, fmt.Errorf("resolver: flow %s already assembled", w.flowName)
	}
	w.finished = true
	w.resolveDeferredTypes()
	if w.opts.CheckOutPorts {
		w.checkOutPorts()
	}
	f, err := Assemble(w.flowName, w.flowPos, w.registry, w.conns, Boundary{InPorts: w.boundary.in, OutPorts: w.boundary.out})
	if err != nil {
		w.report(diag.Diagnostic{
			Kind:     diag.KindStructural,
			Severity: diag.SeverityError,
			File:     w.file,
			Flow:     w.flowName,
			Chain:    -1,
			Pos:      w.flowPos,
			Message:  err.Error(),
			Err:      err,
		})
		return flow.Flow{}, err
	}
	return f, nil
}

func (w *Walker) resolveDeferredTypes() {
	for changed := true; changed; {
		changed = false
		for i, c := range w.conns {
			if c.DataType != "" {
				continue
			}
			if inherited := w.types.infer(c); inherited != "" {
				w.conns[i] = c.WithDataType(inherited)
				w.types.record(w.conns[i])
				changed = true
			}
		}
	}
	for i, c := range w.conns {
		if c.DataType != "" {
			continue
		}
		w.report(diag.Diagnostic{
			Kind:     diag.KindUnresolvedDataType,
			Severity: diag.SeverityError,
			File:     w.file,
			Flow:     w.flowName,
			Chain:    w.connChain[i],
			Pos:      c.SrcPos,
			Message:  fmt.Sprintf("no data type declared for connection %s", c),
			Err:      ErrUnresolvedDataType,
		})
	}
}

func (w *Walker) checkOutPorts() {
	seen := make(map[string]struct{}, len(w.conns))
	for i, c := range w.conns {
		key := sourceKey(c)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			continue
		}
		msg := fmt.Sprintf("the output port '%s' of the operation '%s' is connected more than once", c.FromPort.Key(), c.FromOp)
		if c.FromBoundary() {
			msg = fmt.Sprintf("the flow input port '%s' is connected more than once", c.FromPort.Key())
		}
		w.report(diag.Diagnostic{
			Kind:     diag.KindOutPortReused,
			Severity: diag.SeverityWarning,
			File:     w.file,
			Flow:     w.flowName,
			Chain:    w.connChain[i],
			Pos:      c.SrcPos,
			Message:  msg,
			Err:      ErrOutPortReused,
		})
	}
}

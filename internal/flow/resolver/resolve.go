package resolver

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/flowsem/internal/chain"
	"github.com/kingrea/flowsem/internal/diag"
	"github.com/kingrea/flowsem/internal/flow"
)

// Stats aggregates walker counters over a file.
type Stats struct {
	Flows       int
	Chains      int
	Skipped     int
	Connections int
	Elapsed     time.Duration
}

// Result is the outcome of resolving one document.
type Result struct {
	RunID       uuid.UUID
	File        flow.FlowFile
	Diagnostics []diag.Diagnostic
	Stats       Stats
}

// HasErrors reports whether any error-severity diagnostic was produced.
func (r Result) HasErrors() bool {
	return diag.HasErrors(r.Diagnostics)
}

// ResolveFlow walks every chain of the unit in order and assembles the flow.
// Conflicts are reported and skip their chain; only a StructuralError is
// returned.
func ResolveFlow(file string, unit chain.FlowUnit, reporter diag.Reporter, opts Options) (flow.Flow, WalkStats, error) {
	started := time.Now()
	w := NewWalker(file, unit.Name, unit.SrcPos, reporter, opts)
	for i, c := range unit.Chains {
		w.Walk(i, c)
	}
	f, err := w.Finish()
	stats := w.Stats()
	if err != nil {
		return flow.Flow{}, stats, err
	}
	w.opts.Metrics.ObserveFlow(time.Since(started), stats.Connections)
	return f, stats, nil
}

// ResolveFile resolves every flow of the document. Flows are independent and
// run concurrently, bounded by opts.MaxParallel (GOMAXPROCS when 0). Flows
// and diagnostics are returned in source order regardless. A structural
// failure in any flow fails the whole file.
func ResolveFile(ctx context.Context, doc chain.Document, opts Options) (Result, error) {
	started := time.Now()
	result := Result{RunID: uuid.New()}
	if err := doc.Validate(); err != nil {
		return result, fmt.Errorf("resolver: %w", err)
	}
	opts = opts.normalized()

	flows := make([]flow.Flow, len(doc.Flows))
	stats := make([]WalkStats, len(doc.Flows))
	collectors := make([]*diag.Collector, len(doc.Flows))

	g, gctx := errgroup.WithContext(ctx)
	limit := opts.MaxParallel
	if limit == 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for i, unit := range doc.Flows {
		i, unit := i, unit
		collectors[i] = diag.NewCollector()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, s, err := ResolveFlow(doc.File, unit, collectors[i], opts)
			if err != nil {
				return fmt.Errorf("resolver: %s: %w", doc.File, err)
			}
			flows[i] = f
			stats[i] = s
			return nil
		})
	}
	err := g.Wait()

	for i := range doc.Flows {
		result.Diagnostics = append(result.Diagnostics, collectors[i].Diagnostics()...)
		result.Stats.Chains += stats[i].Chains
		result.Stats.Skipped += stats[i].Skipped
		result.Stats.Connections += stats[i].Connections
	}
	result.Stats.Elapsed = time.Since(started)
	if err != nil {
		return result, err
	}
	result.Stats.Flows = len(flows)
	result.File = AssembleFile(doc.File, doc.Version, flows)
	return result, nil
}

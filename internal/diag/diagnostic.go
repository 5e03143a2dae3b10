// Package diag carries resolution outcomes and semantic errors, each with a
// source position, from the resolver to whatever layer presents them.
package diag

import (
	"fmt"
	"sync"
)

// Severity ranks a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Kind tags the outcome a diagnostic describes.
type Kind string

const (
	KindCreated            Kind = "created"
	KindFound              Kind = "found"
	KindNameTypeConflict   Kind = "name-type-conflict"
	KindPortShapeConflict  Kind = "port-shape-conflict"
	KindUnresolvedDataType Kind = "unresolved-data-type"
	KindOutPortReused      Kind = "out-port-reused"
	KindStructural         Kind = "structural-invariant"
)

// Diagnostic is one reported outcome. Chain is the zero-based chain index
// inside the flow, or -1 when the diagnostic concerns the whole flow.
type Diagnostic struct {
	Kind     Kind     `json:"kind" yaml:"kind"`
	Severity Severity `json:"severity" yaml:"severity"`
	File     string   `json:"file,omitempty" yaml:"file,omitempty"`
	Flow     string   `json:"flow,omitempty" yaml:"flow,omitempty"`
	Chain    int      `json:"chain" yaml:"chain"`
	Pos      int      `json:"pos" yaml:"pos"`
	Message  string   `json:"message" yaml:"message"`
	Expected string   `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual   string   `json:"actual,omitempty" yaml:"actual,omitempty"`
	Err      error    `json:"-" yaml:"-"`
}

func (d Diagnostic) String() string {
	loc := d.File
	if loc == "" {
		loc = "<input>"
	}
	if d.Flow != "" {
		return fmt.Sprintf("%s:%d: %s: flow %s: %s", loc, d.Pos, d.Severity, d.Flow, d.Message)
	}
	return fmt.Sprintf("%s:%d: %s: %s", loc, d.Pos, d.Severity, d.Message)
}

// Unwrap exposes the underlying error so errors.Is works on diagnostics.
func (d Diagnostic) Unwrap() error { return d.Err }

// Error makes a diagnostic usable as an error value.
func (d Diagnostic) Error() string { return d.String() }

// Reporter receives diagnostics.
type Reporter interface {
	Report(Diagnostic)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Diagnostic)

// Report calls f(d).
func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Reporter = ReporterFunc(func(Diagnostic) {})

// Collector keeps diagnostics in report order. It is safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Report appends d.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, d)
}

// Diagnostics returns a copy of everything reported so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return nil
	}
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// HasErrors reports whether an error-severity diagnostic was collected.
func (c *Collector) HasErrors() bool {
	return HasErrors(c.Diagnostics())
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns how many diagnostics have the given kind.
func Count(ds []Diagnostic, kind Kind) int {
	n := 0
	for _, d := range ds {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Filter returns the diagnostics at or above the given severity.
func Filter(ds []Diagnostic, min Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range ds {
		if rank(d.Severity) >= rank(min) {
			out = append(out, d)
		}
	}
	return out
}

func rank(s Severity) int {
	switch s {
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

package chain

import (
	"fmt"
	"strings"

	"github.com/kingrea/flowsem/internal/flow"
)

// OpRef references an operation by name and implementation type.
type OpRef struct {
	Name   string
	Type   string
	SrcPos int
}

// PortRef references a port as written in the source. A zero PortRef means
// the port was omitted and the resolver applies its default name.
type PortRef struct {
	Name     string
	CapName  string
	HasIndex bool
	Index    int
	SrcPos   int
}

// Port builds a scalar port reference.
func Port(name string, srcPos int) PortRef {
	return PortRef{Name: name, SrcPos: srcPos}
}

// IndexedPort builds an indexed port reference such as out[2].
func IndexedPort(name string, index, srcPos int) PortRef {
	return PortRef{Name: name, HasIndex: true, Index: index, SrcPos: srcPos}
}

// IsZero reports whether the reference was omitted.
func (r PortRef) IsZero() bool {
	return r.Name == "" && r.CapName == "" && !r.HasIndex
}

// OrDefault fills in the default port name when the reference was omitted.
// pos is used as source position for an omitted reference.
func (r PortRef) OrDefault(name string, pos int) PortRef {
	if r.Name == "" && r.CapName == "" {
		r.Name = name
		if !r.HasIndex {
			r.SrcPos = pos
		}
	}
	return r
}

// Data converts the reference into a port value; a missing alias is derived
// from the name and vice versa.
func (r PortRef) Data() flow.PortData {
	p := flow.PortData{
		Name:     r.Name,
		CapName:  r.CapName,
		HasIndex: r.HasIndex,
		SrcPos:   r.SrcPos,
	}
	if r.HasIndex {
		p.Index = r.Index
	}
	if p.CapName == "" {
		p.CapName = flow.CapitalizeName(p.Name)
	}
	if p.Name == "" {
		p.Name = lowerFirst(p.CapName)
	}
	return p
}

// Element is one tagged part of a chain: BeginRef, MiddleLink or
// EndConnection.
type Element interface {
	Pos() int
	element()
}

// BeginRef opens a chain with its first operation. When FlowPort is set the
// chain starts at the flow's input boundary: data enters on FlowPort and
// travels to InPort of Op.
type BeginRef struct {
	Op       OpRef
	FlowPort *PortRef
	DataType string
	InPort   PortRef
	SrcPos   int
}

// MiddleLink leaves the current operation on OutPort and arrives at InPort of
// the next operation Op.
type MiddleLink struct {
	OutPort  PortRef
	DataType string
	InPort   PortRef
	Op       OpRef
	SrcPos   int
}

// EndConnection closes a chain at the flow's output boundary.
type EndConnection struct {
	OutPort  PortRef
	DataType string
	FlowPort PortRef
	SrcPos   int
}

func (b BeginRef) Pos() int      { return b.SrcPos }
func (m MiddleLink) Pos() int    { return m.SrcPos }
func (e EndConnection) Pos() int { return e.SrcPos }

func (BeginRef) element()      {}
func (MiddleLink) element()    {}
func (EndConnection) element() {}

// Chain is one parsed connection chain: a beginning, zero or more middle
// links and an optional ending.
type Chain struct {
	Begin  BeginRef
	Links  []MiddleLink
	End    *EndConnection
	SrcPos int
}

// Elements returns the chain as a sequence of tagged elements in source
// order.
func (c Chain) Elements() []Element {
	out := make([]Element, 0, len(c.Links)+2)
	out = append(out, c.Begin)
	for _, link := range c.Links {
		out = append(out, link)
	}
	if c.End != nil {
		out = append(out, *c.End)
	}
	return out
}

// Len returns the number of operations the chain references.
func (c Chain) Len() int {
	return 1 + len(c.Links)
}

// Validate ensures every operation reference carries a name.
func (c Chain) Validate() error {
	if strings.TrimSpace(c.Begin.Op.Name) == "" {
		return fmt.Errorf("chain: operation at %d has no name", c.Begin.Op.SrcPos)
	}
	for i, link := range c.Links {
		if strings.TrimSpace(link.Op.Name) == "" {
			return fmt.Errorf("chain: link[%d] operation at %d has no name", i, link.Op.SrcPos)
		}
	}
	return nil
}

// FlowUnit is the chain data of one flow.
type FlowUnit struct {
	Name   string
	SrcPos int
	Chains []Chain
}

// Validate ensures the unit is named and its chains are well-formed.
func (u FlowUnit) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("chain: flow at %d has no name", u.SrcPos)
	}
	for i, c := range u.Chains {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("flow %s chain[%d]: %w", u.Name, i, err)
		}
	}
	return nil
}

// Document is the full parser output for one flow file.
type Document struct {
	File    string
	Version flow.Version
	Flows   []FlowUnit
}

// Validate checks the version and flow units and rejects duplicate flow
// names.
func (d Document) Validate() error {
	if err := d.Version.Validate(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(d.Flows))
	for i, unit := range d.Flows {
		if err := unit.Validate(); err != nil {
			return fmt.Errorf("chain: flows[%d]: %w", i, err)
		}
		if _, ok := seen[unit.Name]; ok {
			return fmt.Errorf("chain: duplicate flow %s", unit.Name)
		}
		seen[unit.Name] = struct{}{}
	}
	return nil
}

// OperationName derives an operation name from its type when only the type
// was given: the first letter is lower-cased.
func OperationName(name, typ string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return lowerFirst(strings.TrimSpace(typ))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

package chain

import (
	"fmt"

	"github.com/kingrea/flowsem/internal/flow"
)

type rawDocument struct {
	File    string       `yaml:"file"`
	Version flow.Version `yaml:"version"`
	Flows   []rawUnit    `yaml:"flows"`
}

type rawUnit struct {
	Name   string       `yaml:"name"`
	Pos    int          `yaml:"pos"`
	Chains [][]rawEntry `yaml:"chains"`
}

// rawEntry holds exactly one of its fields; the schema enforces that.
type rawEntry struct {
	Start *rawStart `yaml:"start,omitempty"`
	Op    *rawOp    `yaml:"op,omitempty"`
	Link  *rawLink  `yaml:"link,omitempty"`
	End   *rawEnd   `yaml:"end,omitempty"`
}

type rawPort struct {
	Name  string `yaml:"name,omitempty"`
	Cap   string `yaml:"cap,omitempty"`
	Index *int   `yaml:"index,omitempty"`
	Pos   int    `yaml:"pos,omitempty"`
}

type rawOp struct {
	Name string `yaml:"name,omitempty"`
	Type string `yaml:"type,omitempty"`
	Pos  int    `yaml:"pos,omitempty"`
}

type rawStart struct {
	Port *rawPort `yaml:"port,omitempty"`
	Type string   `yaml:"type,omitempty"`
	In   *rawPort `yaml:"in,omitempty"`
	Pos  int      `yaml:"pos,omitempty"`
}

type rawLink struct {
	Out  *rawPort `yaml:"out,omitempty"`
	Type string   `yaml:"type,omitempty"`
	In   *rawPort `yaml:"in,omitempty"`
	Pos  int      `yaml:"pos,omitempty"`
}

type rawEnd struct {
	Out  *rawPort `yaml:"out,omitempty"`
	Type string   `yaml:"type,omitempty"`
	Port *rawPort `yaml:"port,omitempty"`
	Pos  int      `yaml:"pos,omitempty"`
}

func (p *rawPort) ref() PortRef {
	if p == nil {
		return PortRef{}
	}
	ref := PortRef{Name: p.Name, CapName: p.Cap, SrcPos: p.Pos}
	if p.Index != nil {
		ref.HasIndex = true
		ref.Index = *p.Index
	}
	return ref
}

func (o *rawOp) ref() OpRef {
	return OpRef{Name: OperationName(o.Name, o.Type), Type: o.Type, SrcPos: o.Pos}
}

func (d rawDocument) document() (Document, error) {
	doc := Document{File: d.File, Version: d.Version}
	for i, unit := range d.Flows {
		converted, err := unit.unit()
		if err != nil {
			return Document{}, fmt.Errorf("chain: flows[%d]: %w", i, err)
		}
		doc.Flows = append(doc.Flows, converted)
	}
	return doc, nil
}

func (u rawUnit) unit() (FlowUnit, error) {
	unit := FlowUnit{Name: u.Name, SrcPos: u.Pos}
	for i, entries := range u.Chains {
		c, err := buildChain(entries)
		if err != nil {
			return FlowUnit{}, fmt.Errorf("flow %s chain[%d]: %w", u.Name, i, err)
		}
		unit.Chains = append(unit.Chains, c)
	}
	return unit, nil
}

// buildChain turns the flat element list into a Chain. Accepted shape:
// start? op (link op)* end?
func buildChain(entries []rawEntry) (Chain, error) {
	if len(entries) == 0 {
		return Chain{}, fmt.Errorf("chain is empty")
	}
	var c Chain
	idx := 0
	if start := entries[0].Start; start != nil {
		flowPort := start.Port.ref()
		c.Begin.FlowPort = &flowPort
		c.Begin.DataType = start.Type
		c.Begin.InPort = start.In.ref()
		c.Begin.SrcPos = start.Pos
		idx++
	}
	if idx >= len(entries) || entries[idx].Op == nil {
		return Chain{}, fmt.Errorf("element %d: expected op", idx)
	}
	c.Begin.Op = entries[idx].Op.ref()
	if c.Begin.FlowPort == nil {
		c.Begin.SrcPos = c.Begin.Op.SrcPos
	}
	c.SrcPos = c.Begin.SrcPos
	idx++
	for idx < len(entries) {
		entry := entries[idx]
		switch {
		case entry.Link != nil:
			if idx+1 >= len(entries) || entries[idx+1].Op == nil {
				return Chain{}, fmt.Errorf("element %d: link must be followed by op", idx)
			}
			c.Links = append(c.Links, MiddleLink{
				OutPort:  entry.Link.Out.ref(),
				DataType: entry.Link.Type,
				InPort:   entry.Link.In.ref(),
				Op:       entries[idx+1].Op.ref(),
				SrcPos:   entry.Link.Pos,
			})
			idx += 2
		case entry.End != nil:
			if idx != len(entries)-1 {
				return Chain{}, fmt.Errorf("element %d: end must be the last element", idx)
			}
			c.End = &EndConnection{
				OutPort:  entry.End.Out.ref(),
				DataType: entry.End.Type,
				FlowPort: entry.End.Port.ref(),
				SrcPos:   entry.End.Pos,
			}
			idx++
		case entry.Start != nil:
			return Chain{}, fmt.Errorf("element %d: start is only allowed first", idx)
		default:
			return Chain{}, fmt.Errorf("element %d: expected link or end", idx)
		}
	}
	if err := c.Validate(); err != nil {
		return Chain{}, err
	}
	return c, nil
}

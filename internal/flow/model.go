package flow

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default port names used when a chain element omits an explicit port.
const (
	DefaultInPort  = "in"
	DefaultOutPort = "out"
)

// Direction selects the in- or out-port list of an operation.
type Direction int

const (
	DirIn Direction = iota
	DirOut
)

func (d Direction) String() string {
	if d == DirOut {
		return "output"
	}
	return "input"
}

// PortData is a data entry or exit point on an operation. Index is only
// meaningful when HasIndex is set.
type PortData struct {
	Name     string `json:"name" yaml:"name"`
	CapName  string `json:"cap_name,omitempty" yaml:"cap_name,omitempty"`
	HasIndex bool   `json:"has_index,omitempty" yaml:"has_index,omitempty"`
	Index    int    `json:"index,omitempty" yaml:"index,omitempty"`
	SrcPos   int    `json:"src_pos" yaml:"src_pos"`
}

// NewPort builds a scalar port. The capitalized alias is derived from name.
func NewPort(name string, srcPos int) PortData {
	return PortData{Name: name, CapName: CapitalizeName(name), SrcPos: srcPos}
}

// NewIndexedPort builds one element of an indexed port array.
func NewIndexedPort(name string, index, srcPos int) PortData {
	return PortData{Name: name, CapName: CapitalizeName(name), HasIndex: true, Index: index, SrcPos: srcPos}
}

// CapitalizeName upper-cases the first letter of name.
func CapitalizeName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// IsZero reports whether the port is unset.
func (p PortData) IsZero() bool {
	return p.Name == "" && p.CapName == "" && !p.HasIndex
}

// Key renders the port as name or name[index].
func (p PortData) Key() string {
	if p.HasIndex {
		return fmt.Sprintf("%s[%d]", p.Name, p.Index)
	}
	return p.Name
}

// SameIdentity compares the identity fields and ignores the source position.
func (p PortData) SameIdentity(other PortData) bool {
	return p.Name == other.Name &&
		p.CapName == other.CapName &&
		p.HasIndex == other.HasIndex &&
		p.Index == other.Index
}

// PortPair records one traversal of an operation inside a chain: data
// arrives on InPort and leaves on OutPort.
type PortPair struct {
	InPort  PortData `json:"in_port" yaml:"in_port"`
	OutPort PortData `json:"out_port" yaml:"out_port"`
	IsLast  bool     `json:"is_last,omitempty" yaml:"is_last,omitempty"`
}

// Operation is a named processing unit of a flow.
type Operation struct {
	Name      string     `json:"name" yaml:"name"`
	Type      string     `json:"type" yaml:"type"`
	InPorts   []PortData `json:"in_ports,omitempty" yaml:"in_ports,omitempty"`
	OutPorts  []PortData `json:"out_ports,omitempty" yaml:"out_ports,omitempty"`
	SrcPos    int        `json:"src_pos" yaml:"src_pos"`
	PortPairs []PortPair `json:"port_pairs,omitempty" yaml:"port_pairs,omitempty"`
}

// NewOperation builds a finished operation. Slice inputs are copied.
func NewOperation(name, typ string, srcPos int, inPorts, outPorts []PortData, pairs []PortPair) Operation {
	return Operation{
		Name:      name,
		Type:      typ,
		InPorts:   clonePorts(inPorts),
		OutPorts:  clonePorts(outPorts),
		SrcPos:    srcPos,
		PortPairs: clonePairs(pairs),
	}
}

// Clone returns a deep copy of the operation.
func (op Operation) Clone() Operation {
	return NewOperation(op.Name, op.Type, op.SrcPos, op.InPorts, op.OutPorts, op.PortPairs)
}

// Ports returns the port list for the direction.
func (op Operation) Ports(dir Direction) []PortData {
	if dir == DirOut {
		return op.OutPorts
	}
	return op.InPorts
}

// HasPort reports whether a port with the same identity exists.
func (op Operation) HasPort(dir Direction, port PortData) bool {
	return containsPort(op.Ports(dir), port)
}

// Connection is a directed, typed edge. An empty FromOp starts at the flow's
// input boundary and an empty ToOp ends at the flow's output boundary.
type Connection struct {
	FromOp       string   `json:"from_op,omitempty" yaml:"from_op,omitempty"`
	FromPort     PortData `json:"from_port" yaml:"from_port"`
	ToOp         string   `json:"to_op,omitempty" yaml:"to_op,omitempty"`
	ToPort       PortData `json:"to_port" yaml:"to_port"`
	DataType     string   `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	ShowDataType bool     `json:"show_data_type,omitempty" yaml:"show_data_type,omitempty"`
	SrcPos       int      `json:"src_pos" yaml:"src_pos"`
}

// NewConnection builds a finished connection.
func NewConnection(fromOp string, fromPort PortData, toOp string, toPort PortData, dataType string, showDataType bool, srcPos int) Connection {
	return Connection{
		FromOp:       fromOp,
		FromPort:     fromPort,
		ToOp:         toOp,
		ToPort:       toPort,
		DataType:     dataType,
		ShowDataType: showDataType,
		SrcPos:       srcPos,
	}
}

// FromBoundary reports whether the connection starts at a flow in-port.
func (c Connection) FromBoundary() bool { return c.FromOp == "" }

// ToBoundary reports whether the connection ends at a flow out-port.
func (c Connection) ToBoundary() bool { return c.ToOp == "" }

// WithDataType returns a copy carrying the given (inherited) data type.
func (c Connection) WithDataType(dataType string) Connection {
	c.DataType = dataType
	return c
}

func (c Connection) String() string {
	var b strings.Builder
	b.WriteString(endpoint(c.FromOp, c.FromPort))
	if c.DataType != "" {
		fmt.Fprintf(&b, " -[%s]-> ", c.DataType)
	} else {
		b.WriteString(" -> ")
	}
	b.WriteString(endpoint(c.ToOp, c.ToPort))
	return b.String()
}

func endpoint(op string, port PortData) string {
	if op == "" {
		return "<flow>." + port.Key()
	}
	return op + "." + port.Key()
}

func clonePorts(ports []PortData) []PortData {
	if len(ports) == 0 {
		return nil
	}
	out := make([]PortData, len(ports))
	copy(out, ports)
	return out
}

func clonePairs(pairs []PortPair) []PortPair {
	if len(pairs) == 0 {
		return nil
	}
	out := make([]PortPair, len(pairs))
	copy(out, pairs)
	return out
}

func containsPort(ports []PortData, port PortData) bool {
	for _, p := range ports {
		if p.SameIdentity(port) {
			return true
		}
	}
	return false
}

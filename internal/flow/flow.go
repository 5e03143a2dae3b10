package flow

import "fmt"

// Version identifies the flow-file format revision.
type Version struct {
	Political int `json:"political" yaml:"political"`
	Major     int `json:"major" yaml:"major"`
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Political, v.Major)
}

// Validate rejects negative version components.
func (v Version) Validate() error {
	if v.Political < 0 || v.Major < 0 {
		return fmt.Errorf("flow: version %s must not be negative", v)
	}
	return nil
}

// Flow is a named graph of operations and typed connections. Operations
// keep first-seen order and connections keep chain-emission order.
type Flow struct {
	Name        string       `json:"name" yaml:"name"`
	SrcPos      int          `json:"src_pos" yaml:"src_pos"`
	Operations  []Operation  `json:"operations,omitempty" yaml:"operations,omitempty"`
	Connections []Connection `json:"connections,omitempty" yaml:"connections,omitempty"`
	InPorts     []PortData   `json:"in_ports,omitempty" yaml:"in_ports,omitempty"`
	OutPorts    []PortData   `json:"out_ports,omitempty" yaml:"out_ports,omitempty"`
}

// NewFlow builds a finished flow. Every slice input is deep-copied.
func NewFlow(name string, srcPos int, ops []Operation, conns []Connection, inPorts, outPorts []PortData) Flow {
	f := Flow{
		Name:     name,
		SrcPos:   srcPos,
		InPorts:  clonePorts(inPorts),
		OutPorts: clonePorts(outPorts),
	}
	if len(ops) > 0 {
		f.Operations = make([]Operation, len(ops))
		for i, op := range ops {
			f.Operations[i] = op.Clone()
		}
	}
	if len(conns) > 0 {
		f.Connections = make([]Connection, len(conns))
		copy(f.Connections, conns)
	}
	return f
}

// Clone returns a deep copy of the flow.
func (f Flow) Clone() Flow {
	return NewFlow(f.Name, f.SrcPos, f.Operations, f.Connections, f.InPorts, f.OutPorts)
}

// Operation looks up an operation by name.
func (f Flow) Operation(name string) (Operation, bool) {
	for _, op := range f.Operations {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}

// OperationNames returns the operation names in flow order.
func (f Flow) OperationNames() []string {
	names := make([]string, 0, len(f.Operations))
	for _, op := range f.Operations {
		names = append(names, op.Name)
	}
	return names
}

// ConnectionsFrom returns connections leaving the named operation. An empty
// name selects connections that start at the flow boundary.
func (f Flow) ConnectionsFrom(op string) []Connection {
	var out []Connection
	for _, c := range f.Connections {
		if c.FromOp == op {
			out = append(out, c)
		}
	}
	return out
}

// ConnectionsTo returns connections arriving at the named operation. An
// empty name selects connections that end at the flow boundary.
func (f Flow) ConnectionsTo(op string) []Connection {
	var out []Connection
	for _, c := range f.Connections {
		if c.ToOp == op {
			out = append(out, c)
		}
	}
	return out
}

// BoundaryPorts returns the flow's own in- or out-ports.
func (f Flow) BoundaryPorts(dir Direction) []PortData {
	if dir == DirOut {
		return f.OutPorts
	}
	return f.InPorts
}

// FlowFile is the top-level resolved unit: one source file, its format
// version and its flows in source order.
type FlowFile struct {
	FileName string  `json:"file_name" yaml:"file_name"`
	Version  Version `json:"version" yaml:"version"`
	Flows    []Flow  `json:"flows,omitempty" yaml:"flows,omitempty"`
}

// NewFlowFile builds a finished flow file.
func NewFlowFile(fileName string, version Version, flows []Flow) FlowFile {
	ff := FlowFile{FileName: fileName, Version: version}
	if len(flows) > 0 {
		ff.Flows = make([]Flow, len(flows))
		for i, f := range flows {
			ff.Flows[i] = f.Clone()
		}
	}
	return ff
}

// Clone returns a deep copy of the flow file.
func (ff FlowFile) Clone() FlowFile {
	return NewFlowFile(ff.FileName, ff.Version, ff.Flows)
}

// Flow looks up a flow by name.
func (ff FlowFile) Flow(name string) (Flow, bool) {
	for _, f := range ff.Flows {
		if f.Name == name {
			return f, true
		}
	}
	return Flow{}, false
}

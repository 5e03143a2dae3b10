package resolver

import (
	"fmt"

	"github.com/kingrea/flowsem/internal/flow"
)

// Boundary holds the flow-level ports collected while walking chains.
type Boundary struct {
	InPorts  []flow.PortData
	OutPorts []flow.PortData
}

// Assemble freezes the registry and connections into a Flow and checks that
// every connection endpoint exists on its operation, or on the boundary for
// flow ports. A failed check is a StructuralError.
func Assemble(name string, srcPos int, registry *Registry, conns []flow.Connection, boundary Boundary) (flow.Flow, error) {
	if registry == nil {
		registry = NewRegistry()
	}
	ops := registry.Operations()
	f := flow.NewFlow(name, srcPos, ops, conns, boundary.InPorts, boundary.OutPorts)
	if err := checkStructure(f); err != nil {
		return flow.Flow{}, err
	}
	return f, nil
}

func checkStructure(f flow.Flow) error {
	names := make(map[string]struct{}, len(f.Operations))
	for _, op := range f.Operations {
		if op.Name == "" {
			return &StructuralError{Flow: f.Name, Msg: "operation without name"}
		}
		if _, ok := names[op.Name]; ok {
			return &StructuralError{Flow: f.Name, Msg: fmt.Sprintf("operation %s registered twice", op.Name)}
		}
		names[op.Name] = struct{}{}
	}
	for i, c := range f.Connections {
		if err := checkEndpoint(f, c.FromOp, c.FromPort, flow.DirOut, flow.DirIn); err != nil {
			return &StructuralError{Flow: f.Name, Msg: fmt.Sprintf("connection[%d] %s: source %v", i, c, err)}
		}
		if err := checkEndpoint(f, c.ToOp, c.ToPort, flow.DirIn, flow.DirOut); err != nil {
			return &StructuralError{Flow: f.Name, Msg: fmt.Sprintf("connection[%d] %s: destination %v", i, c, err)}
		}
	}
	return nil
}

// checkEndpoint looks the port up in opDir on the named operation, or in
// boundaryDir on the flow when op is empty.
func checkEndpoint(f flow.Flow, op string, port flow.PortData, opDir, boundaryDir flow.Direction) error {
	if op == "" {
		for _, p := range f.BoundaryPorts(boundaryDir) {
			if p.SameIdentity(port) {
				return nil
			}
		}
		return fmt.Errorf("flow %s port %s missing", boundaryDir, port.Key())
	}
	found, ok := f.Operation(op)
	if !ok {
		return fmt.Errorf("operation %s missing", op)
	}
	if !found.HasPort(opDir, port) {
		return fmt.Errorf("%s port %s missing on %s", opDir, port.Key(), op)
	}
	return nil
}

// AssembleFile collects resolved flows, in source order, into a FlowFile.
func AssembleFile(fileName string, version flow.Version, flows []flow.Flow) flow.FlowFile {
	return flow.NewFlowFile(fileName, version, flows)
}

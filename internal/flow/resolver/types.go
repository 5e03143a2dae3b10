package resolver

import (
	"fmt"
	"strings"

	"github.com/kingrea/flowsem/internal/flow"
)

// TypePolicy decides which earlier connection's data type an untyped
// connection inherits when its port was connected several times.
type TypePolicy string

const (
	// TypePolicyFirst keeps the first type declared for a port.
	TypePolicyFirst TypePolicy = "first"
	// TypePolicyLast keeps the most recently declared type for a port.
	TypePolicyLast TypePolicy = "last"
)

// ParseTypePolicy accepts "first" or "last"; empty selects first.
func ParseTypePolicy(value string) (TypePolicy, error) {
	switch TypePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", TypePolicyFirst:
		return TypePolicyFirst, nil
	case TypePolicyLast:
		return TypePolicyLast, nil
	default:
		return "", fmt.Errorf("resolver: unknown type policy %q", value)
	}
}

// typeMemory remembers the data type seen on each connection endpoint of
// a flow. Source and destination endpoints are kept apart, so an in-port and
// an out-port sharing a name never share a type.
type typeMemory struct {
	policy TypePolicy
	types  map[string]string
}

func newTypeMemory(policy TypePolicy) *typeMemory {
	if policy == "" {
		policy = TypePolicyFirst
	}
	return &typeMemory{policy: policy, types: map[string]string{}}
}

func endpointKey(side byte, op string, port flow.PortData) string {
	return string(side) + "\x00" + op + "\x00" + port.Key()
}

func sourceKey(c flow.Connection) string {
	return endpointKey('>', c.FromOp, c.FromPort)
}

func destinationKey(c flow.Connection) string {
	return endpointKey('<', c.ToOp, c.ToPort)
}

func (m *typeMemory) remember(key, dataType string) {
	if dataType == "" {
		return
	}
	if _, ok := m.types[key]; ok && m.policy == TypePolicyFirst {
		return
	}
	m.types[key] = dataType
}

// record stores both endpoints of a typed connection.
func (m *typeMemory) record(c flow.Connection) {
	m.remember(sourceKey(c), c.DataType)
	m.remember(destinationKey(c), c.DataType)
}

// infer looks a type up for an untyped connection: the source endpoint
// first, then the destination.
func (m *typeMemory) infer(c flow.Connection) string {
	if t := m.types[sourceKey(c)]; t != "" {
		return t
	}
	return m.types[destinationKey(c)]
}

package dsl

import "github.com/aretw0/comfyforge/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	id   domain.NodeID
	node domain.Node
}

// ID returns the id assigned to the node.
func (n *NodeBuilder) ID() domain.NodeID {
	return n.id
}

// Out returns a reference to one of the node's output slots.
func (n *NodeBuilder) Out(slot int) domain.OutputRef {
	return domain.OutputRef{Node: n.id, Slot: slot}
}

// Set assigns a literal input.
func (n *NodeBuilder) Set(name string, value any) *NodeBuilder {
	n.node.Inputs[name] = domain.Literal(value)
	return n
}

// Link wires an input to another node's output.
func (n *NodeBuilder) Link(name string, from domain.OutputRef) *NodeBuilder {
	n.node.Inputs[name] = domain.RefTo(from)
	return n
}

// Title sets the display title (emitted as _meta.title).
func (n *NodeBuilder) Title(title string) *NodeBuilder {
	n.node.Title = title
	return n
}

// Input returns the current value of an input.
func (n *NodeBuilder) Input(name string) (domain.Value, bool) {
	v, ok := n.node.Inputs[name]
	return v, ok
}

// Build returns a copy of the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	inputs := make(map[string]domain.Value, len(n.node.Inputs))
	for k, v := range n.node.Inputs {
		inputs[k] = v
	}
	return domain.Node{ClassType: n.node.ClassType, Inputs: inputs, Title: n.node.Title}
}

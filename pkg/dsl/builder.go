package dsl

import (
	"fmt"
	"strconv"

	"github.com/aretw0/comfyforge/pkg/domain"
)

// Builder manages the graph construction.
// Node ids are assigned sequentially ("1", "2", ...) in insertion order, so the same
// sequence of calls always yields the same graph.
type Builder struct {
	nodes map[domain.NodeID]*NodeBuilder
	next  int
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[domain.NodeID]*NodeBuilder),
	}
}

// Add appends a node with the given opcode and returns its builder.
func (b *Builder) Add(ct domain.ClassType) *NodeBuilder {
	b.next++
	id := domain.NodeID(strconv.Itoa(b.next))
	nb := &NodeBuilder{
		id: id,
		node: domain.Node{
			ClassType: ct,
			Inputs:    make(map[string]domain.Value),
		},
	}
	b.nodes[id] = nb
	return nb
}

// Node returns the builder of an existing node.
func (b *Builder) Node(id domain.NodeID) (*NodeBuilder, bool) {
	nb, ok := b.nodes[id]
	return nb, ok
}

// Len returns the number of nodes added so far.
func (b *Builder) Len() int {
	return len(b.nodes)
}

// Snapshot returns the graph as built so far without checking it.
func (b *Builder) Snapshot() domain.Graph {
	g := make(domain.Graph, len(b.nodes))
	for id, nb := range b.nodes {
		g[id] = nb.Build()
	}
	return g
}

// Build compiles the graph and checks referential closure.
func (b *Builder) Build() (domain.Graph, error) {
	g := b.Snapshot()
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return g, nil
}

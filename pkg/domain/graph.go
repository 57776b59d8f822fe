package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Graph is a node graph keyed by node id. It has no explicit root.
type Graph map[NodeID]Node

// Edge is one wired input: Consumer.Input <- From.
type Edge struct {
	Consumer NodeID
	Input    string
	From     OutputRef
}

// IDs returns the node ids in a stable order.
func (g Graph) IDs() []NodeID {
	ids := make([]NodeID, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	SortNodeIDs(ids)
	return ids
}

// Edges lists every wired input in a stable order.
func (g Graph) Edges() []Edge {
	var edges []Edge
	for _, id := range g.IDs() {
		node := g[id]
		names := make([]string, 0, len(node.Inputs))
		for name := range node.Inputs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if ref, ok := node.Inputs[name].AsRef(); ok {
				edges = append(edges, Edge{Consumer: id, Input: name, From: ref})
			}
		}
	}
	return edges
}

// Consumers returns the edges reading from the given output.
func (g Graph) Consumers(from OutputRef) []Edge {
	var out []Edge
	for _, e := range g.Edges() {
		if e.From == from {
			out = append(out, e)
		}
	}
	return out
}

// Dangling returns the edges whose source node is not part of the graph.
func (g Graph) Dangling() []Edge {
	var out []Edge
	for _, e := range g.Edges() {
		if _, ok := g[e.From.Node]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks referential closure: every wire must resolve to a node of this graph.
func (g Graph) Validate() error {
	dangling := g.Dangling()
	if len(dangling) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(dangling))
	for _, e := range dangling {
		msgs = append(msgs, fmt.Sprintf("%s.%s -> %s", e.Consumer, e.Input, e.From))
	}
	return fmt.Errorf("%w: %d dangling reference(s):\n- %s", ErrBrokenGraph, len(dangling), strings.Join(msgs, "\n- "))
}

// ClassTypes returns the distinct opcodes of the graph, sorted.
func (g Graph) ClassTypes() []ClassType {
	seen := make(map[ClassType]bool, len(g))
	for _, n := range g {
		seen[n.ClassType] = true
	}
	out := make([]ClassType, 0, len(seen))
	for ct := range seen {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NodesOf returns the ids of the nodes with the given opcode, in stable order.
func (g Graph) NodesOf(ct ClassType) []NodeID {
	var out []NodeID
	for _, id := range g.IDs() {
		if g[id].ClassType == ct {
			out = append(out, id)
		}
	}
	return out
}

// Clone returns a deep copy of the graph structure. Literal payloads are shared.
func (g Graph) Clone() Graph {
	if g == nil {
		return nil
	}
	out := make(Graph, len(g))
	for id, n := range g {
		inputs := make(map[string]Value, len(n.Inputs))
		for k, v := range n.Inputs {
			if ref, ok := v.AsRef(); ok {
				inputs[k] = RefTo(ref)
				continue
			}
			inputs[k] = v
		}
		out[id] = Node{ClassType: n.ClassType, Inputs: inputs, Title: n.Title}
	}
	return out
}

// ParseGraph decodes a wire graph without failing on malformed nodes.
// Only a payload that is not a JSON object is an error; nodes that do not decode are
// dropped and inputs that are not an object become empty.
func ParseGraph(data []byte) (Graph, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("graph must be a JSON object: %w", err)
	}
	g := make(Graph, len(raw))
	for id, msg := range raw {
		node, ok := parseNode(msg)
		if !ok {
			continue
		}
		g[NodeID(id)] = node
	}
	return g, nil
}

func parseNode(msg json.RawMessage) (Node, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(msg, &fields); err != nil {
		return Node{}, false
	}
	node := Node{Inputs: map[string]Value{}}
	if ct, ok := fields["class_type"]; ok {
		var s string
		if json.Unmarshal(ct, &s) == nil {
			node.ClassType = ClassType(s)
		}
	}
	if in, ok := fields["inputs"]; ok {
		var inputs map[string]Value
		if json.Unmarshal(in, &inputs) == nil && inputs != nil {
			node.Inputs = inputs
		}
	}
	if meta, ok := fields["_meta"]; ok {
		var m nodeMeta
		if json.Unmarshal(meta, &m) == nil {
			node.Title = m.Title
		}
	}
	return node, true
}

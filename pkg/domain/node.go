package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// NodeID identifies a node within one graph.
type NodeID string

// OutputRef points at one output slot of one node.
type OutputRef struct {
	Node NodeID
	Slot int
}

func (r OutputRef) String() string {
	return fmt.Sprintf("%s:%d", r.Node, r.Slot)
}

// Value is the value of a node input: either a literal or a wire to another node's output.
// The zero Value is a nil literal.
type Value struct {
	ref     *OutputRef
	literal any
}

// Literal wraps a constant input value.
func Literal(v any) Value {
	return Value{literal: v}
}

// Ref wires an input to the output slot of another node.
func Ref(node NodeID, slot int) Value {
	return Value{ref: &OutputRef{Node: node, Slot: slot}}
}

// RefTo wires an input to an existing OutputRef.
func RefTo(r OutputRef) Value {
	return Ref(r.Node, r.Slot)
}

// IsRef reports whether the value is a wire.
func (v Value) IsRef() bool { return v.ref != nil }

// AsRef returns the wired output, if any.
func (v Value) AsRef() (OutputRef, bool) {
	if v.ref == nil {
		return OutputRef{}, false
	}
	return *v.ref, true
}

// Literal returns the literal payload. It is nil for wires.
func (v Value) Literal() any {
	if v.ref != nil {
		return nil
	}
	return v.literal
}

// MarshalJSON encodes wires as ["<node>", <slot>] and literals as themselves.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.ref != nil {
		return json.Marshal([]any{string(v.ref.Node), v.ref.Slot})
	}
	return json.Marshal(v.literal)
}

// UnmarshalJSON treats exactly [string, integer] as a wire; anything else is a literal.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if ref, ok := refFromWire(raw); ok {
		*v = Value{ref: &ref}
		return nil
	}
	*v = Value{literal: raw}
	return nil
}

func refFromWire(raw any) (OutputRef, bool) {
	pair, ok := raw.([]any)
	if !ok || len(pair) != 2 {
		return OutputRef{}, false
	}
	id, ok := pair[0].(string)
	if !ok {
		return OutputRef{}, false
	}
	slot, ok := pair[1].(float64)
	if !ok || slot < 0 || slot != float64(int(slot)) {
		return OutputRef{}, false
	}
	return OutputRef{Node: NodeID(id), Slot: int(slot)}, true
}

// Node is one computation step of the graph.
type Node struct {
	ClassType ClassType
	Inputs    map[string]Value
	Title     string
}

type nodeMeta struct {
	Title string `json:"title,omitempty"`
}

type wireNode struct {
	ClassType ClassType        `json:"class_type"`
	Inputs    map[string]Value `json:"inputs"`
	Meta      *nodeMeta        `json:"_meta,omitempty"`
}

// MarshalJSON emits the execution engine's node shape.
func (n Node) MarshalJSON() ([]byte, error) {
	w := wireNode{ClassType: n.ClassType, Inputs: n.Inputs}
	if w.Inputs == nil {
		w.Inputs = map[string]Value{}
	}
	if n.Title != "" {
		w.Meta = &nodeMeta{Title: n.Title}
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the execution engine's node shape.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	n.ClassType = w.ClassType
	n.Inputs = w.Inputs
	if n.Inputs == nil {
		n.Inputs = map[string]Value{}
	}
	n.Title = ""
	if w.Meta != nil {
		n.Title = w.Meta.Title
	}
	return nil
}

// SortNodeIDs orders ids numerically when they are numbers and lexically otherwise.
func SortNodeIDs(ids []NodeID) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(string(ids[i]))
		b, errB := strconv.Atoi(string(ids[j]))
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return ids[i] < ids[j]
	})
}

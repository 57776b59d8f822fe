package domain

import (
	"reflect"
	"sort"
)

// InputChange is one input whose value differs between two graphs.
type InputChange struct {
	Node  NodeID `json:"node"`
	Input string `json:"input"`
	Old   Value  `json:"old"`
	New   Value  `json:"new"`
}

// GraphDiff lists the structural differences between two graphs.
type GraphDiff struct {
	Added   []NodeID      `json:"added,omitempty"`
	Removed []NodeID      `json:"removed,omitempty"`
	Retyped []NodeID      `json:"retyped,omitempty"`
	Changed []InputChange `json:"changed,omitempty"`
}

// Empty reports whether the graphs are identical.
func (d GraphDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Retyped) == 0 && len(d.Changed) == 0
}

// Diff compares two graphs node by node. Titles are ignored and numbers compare by value.
func Diff(oldGraph, newGraph Graph) GraphDiff {
	var d GraphDiff

	for _, id := range oldGraph.IDs() {
		if _, ok := newGraph[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}

	for _, id := range newGraph.IDs() {
		newNode := newGraph[id]
		oldNode, ok := oldGraph[id]
		if !ok {
			d.Added = append(d.Added, id)
			continue
		}
		if oldNode.ClassType != newNode.ClassType {
			d.Retyped = append(d.Retyped, id)
			continue
		}

		names := make(map[string]bool)
		for k := range oldNode.Inputs {
			names[k] = true
		}
		for k := range newNode.Inputs {
			names[k] = true
		}
		sorted := make([]string, 0, len(names))
		for k := range names {
			sorted = append(sorted, k)
		}
		sort.Strings(sorted)

		for _, name := range sorted {
			ov, nv := oldNode.Inputs[name], newNode.Inputs[name]
			if !sameValue(ov, nv) {
				d.Changed = append(d.Changed, InputChange{Node: id, Input: name, Old: ov, New: nv})
			}
		}
	}
	return d
}

func sameValue(a, b Value) bool {
	ra, aok := a.AsRef()
	rb, bok := b.AsRef()
	if aok || bok {
		return aok && bok && ra == rb
	}
	if fa, ok := number(a.Literal()); ok {
		fb, ok := number(b.Literal())
		return ok && fa == fb
	}
	return reflect.DeepEqual(a.Literal(), b.Literal())
}

// number widens the numeric types a literal can hold. Decoded graphs carry float64
// where built graphs carry int.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

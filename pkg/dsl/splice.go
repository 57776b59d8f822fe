package dsl

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/comfyforge/pkg/domain"
)

// ErrNoConsumers is returned by Splice when a rewired output has nobody reading it,
// which means the splice point was chosen wrong.
var ErrNoConsumers = errors.New("splice source has no consumers")

// Patch rewires one input of one node to a new output.
type Patch struct {
	Consumer domain.NodeID
	Input    string
	From     domain.OutputRef
	To       domain.OutputRef
}

// Rewire computes the patch table that redirects every consumer of each source output
// in moves to its destination. Nodes listed in skip (usually the nodes being inserted)
// keep reading the original output.
func (b *Builder) Rewire(moves map[domain.OutputRef]domain.OutputRef, skip ...domain.NodeID) []Patch {
	skipped := make(map[domain.NodeID]bool, len(skip))
	for _, id := range skip {
		skipped[id] = true
	}

	ids := make([]domain.NodeID, 0, len(b.nodes))
	for id := range b.nodes {
		ids = append(ids, id)
	}
	domain.SortNodeIDs(ids)

	var patches []Patch
	for _, id := range ids {
		if skipped[id] {
			continue
		}
		nb := b.nodes[id]
		names := make([]string, 0, len(nb.node.Inputs))
		for name := range nb.node.Inputs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ref, ok := nb.node.Inputs[name].AsRef()
			if !ok {
				continue
			}
			if to, moved := moves[ref]; moved {
				patches = append(patches, Patch{Consumer: id, Input: name, From: ref, To: to})
			}
		}
	}
	return patches
}

// Apply installs every patch or none of them. A patch is rejected when its consumer or
// target node does not exist, or when the consumer input no longer reads From.
func (b *Builder) Apply(patches []Patch) error {
	for _, p := range patches {
		nb, ok := b.nodes[p.Consumer]
		if !ok {
			return fmt.Errorf("patch %s.%s: consumer not found", p.Consumer, p.Input)
		}
		ref, ok := nb.node.Inputs[p.Input].AsRef()
		if !ok || ref != p.From {
			return fmt.Errorf("patch %s.%s: input is not wired to %s", p.Consumer, p.Input, p.From)
		}
		if _, ok := b.nodes[p.To.Node]; !ok {
			return fmt.Errorf("patch %s.%s: target %s not found", p.Consumer, p.Input, p.To)
		}
	}
	for _, p := range patches {
		b.nodes[p.Consumer].Link(p.Input, p.To)
	}
	return nil
}

// Splice redirects all consumers of the moved outputs in one atomic step.
// Every source must have at least one consumer outside skip.
func (b *Builder) Splice(moves map[domain.OutputRef]domain.OutputRef, skip ...domain.NodeID) ([]Patch, error) {
	patches := b.Rewire(moves, skip...)
	covered := make(map[domain.OutputRef]bool, len(moves))
	for _, p := range patches {
		covered[p.From] = true
	}
	for from := range moves {
		if !covered[from] {
			return nil, fmt.Errorf("%w: %s", ErrNoConsumers, from)
		}
	}
	if err := b.Apply(patches); err != nil {
		return nil, err
	}
	return patches, nil
}

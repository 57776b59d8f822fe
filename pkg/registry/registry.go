// Package registry is the static technique catalog: enumeration, building, and executor
// compatibility checks.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/comfyforge/pkg/domain"
	"github.com/aretw0/comfyforge/pkg/technique"
)

// Placeholder parameters used to build the template of every technique.
var templateParams = domain.BuildParameters{
	Prompt:         "template",
	ReferenceImage: "reference.png",
}.WithSeed(0)

// Definition is the catalog entry of one technique.
type Definition struct {
	ID             domain.TechniqueID `json:"id" yaml:"id"`
	DisplayName    string             `json:"display_name" yaml:"display_name"`
	Description    string             `json:"description" yaml:"description"`
	Family         string             `json:"family" yaml:"family"`
	RequiredModels []string           `json:"required_models" yaml:"required_models"`
	// RequiredNodeTypes are the non-core opcodes of the template. An executor must
	// support all of them to run the technique.
	RequiredNodeTypes []domain.ClassType `json:"required_node_types" yaml:"required_node_types"`
	NeedsReference    bool               `json:"needs_reference_image" yaml:"needs_reference_image"`
	Defaults          technique.Defaults `json:"defaults" yaml:"defaults"`
	// Template is the graph built from placeholder parameters with the default sampler strategy.
	Template domain.Graph `json:"-" yaml:"-"`
}

// Compatibility is the outcome of checking a technique against an executor.
type Compatibility struct {
	Compatible bool               `json:"compatible"`
	Missing    []domain.ClassType `json:"missing,omitempty"`
}

// Registry is the immutable technique catalog. It is safe for concurrent use.
type Registry struct {
	order   []domain.TechniqueID
	entries map[domain.TechniqueID]entry
}

type entry struct {
	def   Definition
	build technique.BuildFunc
}

// New builds a catalog from the given techniques, or from technique.All() when none are
// given. Every template is built here, once.
func New(techniques ...technique.Technique) (*Registry, error) {
	if len(techniques) == 0 {
		techniques = technique.All()
	}
	r := &Registry{entries: make(map[domain.TechniqueID]entry, len(techniques))}
	for _, t := range techniques {
		if _, dup := r.entries[t.ID]; dup {
			return nil, fmt.Errorf("duplicate technique %q", t.ID)
		}
		tpl, err := t.Build(templateParams)
		if err != nil {
			return nil, fmt.Errorf("failed to build template for %q: %w", t.ID, err)
		}
		r.order = append(r.order, t.ID)
		r.entries[t.ID] = entry{
			def: Definition{
				ID:                t.ID,
				DisplayName:       t.DisplayName,
				Description:       t.Description,
				Family:            t.Family,
				RequiredModels:    append([]string(nil), t.RequiredModels...),
				RequiredNodeTypes: requiredNodeTypes(tpl),
				NeedsReference:    t.NeedsReference,
				Defaults:          t.Defaults,
				Template:          tpl,
			},
			build: t.Build,
		}
	}
	return r, nil
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the built-in catalog. It panics if a built-in template cannot be
// built, which is a programming error.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := New()
		if err != nil {
			panic(err)
		}
		defaultReg = r
	})
	return defaultReg
}

func requiredNodeTypes(g domain.Graph) []domain.ClassType {
	var out []domain.ClassType
	for _, ct := range g.ClassTypes() {
		if !ct.Core() {
			out = append(out, ct)
		}
	}
	return out
}

// Get returns a copy of a definition.
func (r *Registry) Get(id domain.TechniqueID) (Definition, error) {
	e, ok := r.entries[id]
	if !ok {
		return Definition{}, &domain.NotFoundError{ID: id}
	}
	return e.def.copy(), nil
}

// List returns every definition in declaration order.
func (r *Registry) List() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].def.copy())
	}
	return out
}

// IDs returns the technique ids in declaration order.
func (r *Registry) IDs() []domain.TechniqueID {
	return append([]domain.TechniqueID(nil), r.order...)
}

// Build delegates to the technique's builder. An unknown id never falls back to another technique.
func (r *Registry) Build(id domain.TechniqueID, p domain.BuildParameters) (domain.Graph, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, &domain.NotFoundError{ID: id}
	}
	return e.build(p)
}

// CheckCompatibility reports which non-core opcodes of the technique the executor lacks.
// Core opcodes are implicitly available.
func (r *Registry) CheckCompatibility(id domain.TechniqueID, available []domain.ClassType) (Compatibility, error) {
	e, ok := r.entries[id]
	if !ok {
		return Compatibility{}, &domain.NotFoundError{ID: id}
	}
	have := make(map[domain.ClassType]bool, len(available))
	for _, ct := range available {
		have[ct] = true
	}
	var missing []domain.ClassType
	for _, ct := range e.def.RequiredNodeTypes {
		if !have[ct] {
			missing = append(missing, ct)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return Compatibility{Compatible: len(missing) == 0, Missing: missing}, nil
}

// Recommend picks the optimized technique when the executor can run it, the baseline otherwise.
// A custom catalog lacking the baseline falls back to its first compatible technique, then
// to its first technique.
func (r *Registry) Recommend(available []domain.ClassType) domain.TechniqueID {
	if c, err := r.CheckCompatibility(technique.FluxDevNunchaku, available); err == nil && c.Compatible {
		return technique.FluxDevNunchaku
	}
	if _, ok := r.entries[technique.FluxDev]; ok {
		return technique.FluxDev
	}
	for _, id := range r.order {
		if c, _ := r.CheckCompatibility(id, available); c.Compatible {
			return id
		}
	}
	if len(r.order) == 0 {
		return domain.Unknown
	}
	return r.order[0]
}

func (d Definition) copy() Definition {
	d.RequiredModels = append([]string(nil), d.RequiredModels...)
	d.RequiredNodeTypes = append([]domain.ClassType(nil), d.RequiredNodeTypes...)
	d.Template = d.Template.Clone()
	return d
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/comfyforge/internal/presentation/graph"
	"github.com/aretw0/comfyforge/internal/presentation/tui"
	"github.com/aretw0/comfyforge/internal/validator"
	"github.com/aretw0/comfyforge/pkg/domain"
	"github.com/aretw0/comfyforge/pkg/wire"
)

// ErrIncompatible is returned by Check when the executor lacks required nodes, so that
// the process exits non-zero.
var ErrIncompatible = errors.New("executor is missing required node types")

// List prints the technique catalog.
func (a *App) List() error {
	defs := a.Engine.Techniques()
	if a.pretty() {
		return a.render(tui.CatalogMarkdown(defs))
	}
	return a.encode(defs)
}

// Describe prints one catalog entry.
func (a *App) Describe(id string) error {
	def, err := a.Engine.Technique(domain.TechniqueID(id))
	if err != nil {
		return err
	}
	if a.pretty() {
		return a.render(tui.DefinitionMarkdown(def))
	}
	return a.encode(def)
}

func (a *App) render(markdown string) error {
	render, err := tui.NewRenderer(0)
	if err != nil {
		return err
	}
	out, err := render(markdown)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.Stdout, out)
	return err
}

// BuildOptions control the shape of build output.
type BuildOptions struct {
	Envelope bool
	// ClientID overrides executor.client_id for the envelope.
	ClientID string
}

// Build compiles a technique and prints the graph, or its submission envelope.
func (a *App) Build(ctx context.Context, id string, p domain.BuildParameters, opts BuildOptions) error {
	if opts.Envelope {
		clientID := opts.ClientID
		if clientID == "" {
			clientID = a.Config.Executor.ClientID
		}
		env, err := a.Engine.Envelope(ctx, domain.TechniqueID(id), p, clientID)
		if err != nil {
			return err
		}
		return a.encode(env)
	}
	g, err := a.Engine.Build(ctx, domain.TechniqueID(id), p)
	if err != nil {
		return err
	}
	return a.encode(g)
}

// Detect classifies the graph read from path.
func (a *App) Detect(ctx context.Context, path string) error {
	data, err := a.readInput(path)
	if err != nil {
		return err
	}
	return a.encode(a.Engine.DetectJSON(ctx, data))
}

// available falls back to the configured executor when no opcodes were given.
func (a *App) available(nodeTypes []string) []domain.ClassType {
	if len(nodeTypes) == 0 {
		return a.Config.Executor.ClassTypes()
	}
	out := make([]domain.ClassType, 0, len(nodeTypes))
	for _, s := range nodeTypes {
		out = append(out, domain.ClassType(strings.TrimSpace(s)))
	}
	return out
}

// Check reports what the executor lacks to run a technique.
func (a *App) Check(id string, nodeTypes []string) error {
	c, err := a.Engine.CheckCompatibility(domain.TechniqueID(id), a.available(nodeTypes))
	if err != nil {
		return err
	}
	if err := a.encode(c); err != nil {
		return err
	}
	if !c.Compatible {
		return ErrIncompatible
	}
	return nil
}

// Recommend prints the best technique for the executor.
func (a *App) Recommend(nodeTypes []string) error {
	_, err := fmt.Fprintln(a.Stdout, a.Engine.Recommend(a.available(nodeTypes)))
	return err
}

// GraphOfTechnique prints a Mermaid chart of a built technique. Nodes the configured
// executor cannot run are marked.
func (a *App) GraphOfTechnique(ctx context.Context, id string, p domain.BuildParameters) error {
	g, err := a.Engine.Build(ctx, domain.TechniqueID(id), p)
	if err != nil {
		return err
	}
	c, err := a.Engine.CheckCompatibility(domain.TechniqueID(id), a.Config.Executor.ClassTypes())
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.Stdout, graph.GenerateMermaid(g, &graph.GraphOverlay{Missing: c.Missing}))
	return err
}

// GraphOfDocument prints a Mermaid chart of a graph file.
func (a *App) GraphOfDocument(path string) error {
	data, err := a.readInput(path)
	if err != nil {
		return err
	}
	g, err := domain.ParseGraph(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.Stdout, graph.GenerateMermaid(g, nil))
	return err
}

// Validate checks a graph file against the schema, referential closure and output
// reachability.
func (a *App) Validate(path string) error {
	data, err := a.readInput(path)
	if err != nil {
		return err
	}
	g, err := wire.DecodeGraph(data)
	if err != nil {
		return err
	}
	report := validator.Check(g)
	if err := report.Err(); err != nil {
		return err
	}
	for _, issue := range report.Warnings() {
		a.Logger.Warn("graph lint", "node", issue.Node, "issue", issue.Message)
	}
	for _, ct := range g.ClassTypes() {
		if !ct.Known() {
			a.Logger.Warn("graph uses an opcode this module never emits", "class_type", ct)
		}
	}
	_, err = fmt.Fprintf(a.Stdout, "Graph is valid: %d nodes, %d links.\n", len(g), len(g.Edges()))
	return err
}

// Diff prints the structural difference between two graph files.
func (a *App) Diff(oldPath, newPath string) error {
	oldGraph, err := a.readGraph(oldPath)
	if err != nil {
		return err
	}
	newGraph, err := a.readGraph(newPath)
	if err != nil {
		return err
	}
	return a.encode(domain.Diff(oldGraph, newGraph))
}

func (a *App) readGraph(path string) (domain.Graph, error) {
	data, err := a.readInput(path)
	if err != nil {
		return nil, err
	}
	g, err := domain.ParseGraph(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

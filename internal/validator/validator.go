// Package validator lints node graphs beyond referential closure.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/comfyforge/pkg/domain"
)

// Severity ranks an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding about a graph.
type Issue struct {
	Severity Severity      `json:"severity"`
	Node     domain.NodeID `json:"node,omitempty"`
	Message  string        `json:"message"`
}

func (i Issue) String() string {
	if i.Node == "" {
		return i.Message
	}
	return fmt.Sprintf("node %s: %s", i.Node, i.Message)
}

// Report collects the issues found by Check.
type Report struct {
	Outputs []domain.NodeID `json:"outputs"`
	Issues  []Issue         `json:"issues,omitempty"`
}

// Errors returns the issues that make the graph unusable.
func (r Report) Errors() []Issue { return r.filter(SeverityError) }

// Warnings returns the issues an executor tolerates.
func (r Report) Warnings() []Issue { return r.filter(SeverityWarning) }

func (r Report) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Err returns nil when the report has no errors.
func (r Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, i := range errs {
		msgs = append(msgs, i.String())
	}
	return fmt.Errorf("%w: found %d errors:\n- %s", domain.ErrBrokenGraph, len(errs), strings.Join(msgs, "\n- "))
}

// IsOutput reports whether an opcode produces a result the executor keeps.
// An executor only runs what feeds one of these.
func IsOutput(ct domain.ClassType) bool {
	if ct == domain.SaveImage {
		return true
	}
	s := string(ct)
	return strings.HasPrefix(s, "Save") || strings.HasPrefix(s, "Preview")
}

// Check walks the graph backwards from its output nodes. Wires to absent nodes and
// graphs with no output are errors; nodes that feed no output are warnings.
func Check(g domain.Graph) Report {
	var report Report

	for _, e := range g.Dangling() {
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityError,
			Node:     e.Consumer,
			Message:  fmt.Sprintf("input %q reads missing node %s", e.Input, e.From.Node),
		})
	}

	var queue []domain.NodeID
	for _, id := range g.IDs() {
		if IsOutput(g[id].ClassType) {
			report.Outputs = append(report.Outputs, id)
			queue = append(queue, id)
		}
	}
	if len(report.Outputs) == 0 {
		report.Issues = append(report.Issues, Issue{Severity: SeverityError, Message: "graph has no output node"})
		return report
	}

	visited := make(map[domain.NodeID]bool, len(g))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		node, ok := g[current]
		if !ok {
			continue // reported as dangling
		}
		for _, v := range node.Inputs {
			if ref, ok := v.AsRef(); ok && !visited[ref.Node] {
				queue = append(queue, ref.Node)
			}
		}
	}

	for _, id := range g.IDs() {
		if !visited[id] {
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityWarning,
				Node:     id,
				Message:  fmt.Sprintf("%s does not feed any output", g[id].ClassType),
			})
		}
	}
	return report
}

package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/comfyforge/pkg/domain"
)

// GraphOverlay marks nodes that deserve attention on the rendered chart.
type GraphOverlay struct {
	// Missing lists opcodes the target executor lacks.
	Missing []domain.ClassType
	// Highlight lists nodes to emphasise, e.g. the ones a detector rule matched.
	Highlight []domain.NodeID
}

// GenerateMermaid produces a Mermaid flowchart of a node graph.
// Shapes follow the node's role:
// - Loaders: [(Cylinder)]
// - SaveImage: ((Circle))
// - Custom-node opcodes: [[Subroutine]]
// - Default: [Rectangle]
// Edges are labelled with the consumer's input name; wires to absent nodes are dotted.
func GenerateMermaid(g domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, id := range g.IDs() {
		node := g[id]
		safeID := sanitizeMermaidID(string(id))

		opener, closer := "[", "]"
		switch {
		case node.ClassType == domain.SaveImage:
			opener, closer = "((", "))"
		case isLoader(node.ClassType):
			opener, closer = "[(", ")]"
		case !node.ClassType.Core():
			opener, closer = "[[", "]]"
		}

		label := fmt.Sprintf("%s: %s", id, node.ClassType)
		if node.Title != "" {
			label = fmt.Sprintf("%s <br/> %s", label, node.Title)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(label), closer))
	}

	for _, e := range g.Edges() {
		arrow := fmt.Sprintf("-- \"%s\" -->", escapeLabel(e.Input))
		if _, ok := g[e.From.Node]; !ok {
			arrow = fmt.Sprintf("-. \"%s\" .->", escapeLabel(e.Input))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n",
			sanitizeMermaidID(string(e.From.Node)), arrow, sanitizeMermaidID(string(e.Consumer))))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef missing fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef highlight fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		missing := make(map[domain.ClassType]bool, len(overlay.Missing))
		for _, ct := range overlay.Missing {
			missing[ct] = true
		}
		for _, id := range g.IDs() {
			if missing[g[id].ClassType] {
				sb.WriteString(fmt.Sprintf("    class %s missing;\n", sanitizeMermaidID(string(id))))
			}
		}

		seen := make(map[string]bool)
		highlight := append([]domain.NodeID(nil), overlay.Highlight...)
		sort.Slice(highlight, func(i, j int) bool { return highlight[i] < highlight[j] })
		for _, id := range highlight {
			safeID := sanitizeMermaidID(string(id))
			if _, ok := g[id]; !ok || seen[safeID] {
				continue
			}
			seen[safeID] = true
			sb.WriteString(fmt.Sprintf("    class %s highlight;\n", safeID))
		}
	}

	return sb.String()
}

func isLoader(ct domain.ClassType) bool {
	return strings.HasSuffix(string(ct), "Loader") || strings.HasSuffix(string(ct), "LoaderSimple")
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

// Node ids are usually bare numbers, so every id gets a letter prefix.
func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return "n" + s
}

package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/comfyforge/pkg/registry"
)

// CatalogMarkdown renders the technique catalog as a markdown table.
func CatalogMarkdown(defs []registry.Definition) string {
	var sb strings.Builder
	sb.WriteString("# Techniques\n\n")
	sb.WriteString("| ID | Name | Family | Reference | Extensions |\n")
	sb.WriteString("|----|------|--------|-----------|------------|\n")
	for _, d := range defs {
		ref := "no"
		if d.NeedsReference {
			ref = "yes"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s | %d |\n", d.ID, d.DisplayName, d.Family, ref, len(d.RequiredNodeTypes))
	}
	return sb.String()
}

// DefinitionMarkdown renders one catalog entry in full.
func DefinitionMarkdown(d registry.Definition) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", d.DisplayName)
	fmt.Fprintf(&sb, "`%s` (%s)\n\n%s\n\n", d.ID, d.Family, d.Description)

	sb.WriteString("## Defaults\n\n")
	fmt.Fprintf(&sb, "- Size: %dx%d\n", d.Defaults.Width, d.Defaults.Height)
	fmt.Fprintf(&sb, "- Steps: %d\n", d.Defaults.Steps)
	fmt.Fprintf(&sb, "- Guidance: %g\n", d.Defaults.GuidanceScale)
	fmt.Fprintf(&sb, "- Sampler: %s\n", d.Defaults.Sampler)
	if d.NeedsReference {
		sb.WriteString("- Requires a reference image\n")
	}

	sb.WriteString("\n## Models\n\n")
	for _, m := range d.RequiredModels {
		fmt.Fprintf(&sb, "- `%s`\n", m)
	}

	sb.WriteString("\n## Custom nodes\n\n")
	if len(d.RequiredNodeTypes) == 0 {
		sb.WriteString("None. Runs on a stock executor.\n")
	}
	for _, ct := range d.RequiredNodeTypes {
		fmt.Fprintf(&sb, "- `%s`\n", ct)
	}
	return sb.String()
}

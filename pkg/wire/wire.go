// Package wire converts graphs, parameters and results to and from their serialized forms.
//
// Graphs go over the wire as JSON; YAML output is offered for humans. Incoming documents
// are checked against the embedded JSON schemas before they are decoded.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/comfyforge/pkg/domain"
)

// Format selects an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// Encode writes v in the given format. Values go through their JSON encoding first so
// that YAML output has the same shape as the wire form (refs stay two-element arrays).
func Encode(w io.Writer, v any, f Format) error {
	switch f {
	case FormatYAML:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode: %w", err)
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("failed to encode: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q", f)
}

// Marshal is Encode into a byte slice.
func Marshal(v any, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeGraph validates a wire graph against the schema and referential closure, then
// decodes it. Use domain.ParseGraph for tolerant decoding.
func DecodeGraph(data []byte) (domain.Graph, error) {
	if err := ValidateGraph(data); err != nil {
		return nil, err
	}
	g, err := domain.ParseGraph(data)
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// toDocument reads JSON or YAML into a generic value. YAML is a superset of JSON, so one
// decoder serves both.
func toDocument(data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return doc, nil
}

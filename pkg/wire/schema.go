package wire

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

var (
	//go:embed schemas/graph.schema.json
	graphSchemaJSON []byte
	//go:embed schemas/params.schema.json
	paramsSchemaJSON []byte
)

// ErrSchema is wrapped by every SchemaError.
var ErrSchema = errors.New("document does not match schema")

// SchemaError lists the schema violations of one document.
type SchemaError struct {
	Schema     string
	Violations []Violation
}

// Violation is one failed schema rule.
type Violation struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Description
	}
	return fmt.Sprintf("%s: %s", e.Schema, strings.Join(parts, "; "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

type compiled struct {
	name string
	src  []byte
	once sync.Once
	s    *gojsonschema.Schema
	err  error
}

func (c *compiled) schema() (*gojsonschema.Schema, error) {
	c.once.Do(func() {
		c.s, c.err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(c.src))
	})
	return c.s, c.err
}

func (c *compiled) validate(doc gojsonschema.JSONLoader) error {
	s, err := c.schema()
	if err != nil {
		return fmt.Errorf("failed to load %s schema: %w", c.name, err)
	}
	result, err := s.Validate(doc)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	serr := &SchemaError{Schema: c.name}
	for _, desc := range result.Errors() {
		serr.Violations = append(serr.Violations, Violation{Field: desc.Field(), Description: desc.Description()})
	}
	return serr
}

var (
	graphSchema  = &compiled{name: "graph", src: graphSchemaJSON}
	paramsSchema = &compiled{name: "parameters", src: paramsSchemaJSON}
)

// GraphSchema returns the JSON schema wire graphs are checked against.
func GraphSchema() []byte { return append([]byte(nil), graphSchemaJSON...) }

// ParametersSchema returns the JSON schema parameter documents are checked against.
func ParametersSchema() []byte { return append([]byte(nil), paramsSchemaJSON...) }

// ValidateGraph checks a JSON graph against the graph schema.
func ValidateGraph(data []byte) error {
	return graphSchema.validate(gojsonschema.NewBytesLoader(data))
}

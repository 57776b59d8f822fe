package wire

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"

	"github.com/aretw0/comfyforge/pkg/domain"
)

// ParseParameters reads a JSON or YAML parameter document. The document is checked
// against the parameter schema; violations come back as *domain.ValidationError.
func ParseParameters(data []byte) (domain.BuildParameters, error) {
	raw, err := ParseDocument(data)
	if err != nil {
		return domain.BuildParameters{}, err
	}
	return DecodeParameters(raw)
}

// ParseDocument reads a JSON or YAML mapping without interpreting it. An empty document
// is an empty map.
func ParseDocument(data []byte) (map[string]any, error) {
	doc, err := toDocument(data)
	if err != nil {
		return nil, invalid("document", err.Error())
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	raw, ok := doc.(map[string]any)
	if !ok {
		return nil, invalid("document", "parameters must be a mapping")
	}
	return raw, nil
}

// DecodeParameters decodes a loose map (flags, tool arguments, parsed files) into
// BuildParameters after schema validation. Numbers may arrive as float64.
func DecodeParameters(raw map[string]any) (domain.BuildParameters, error) {
	var p domain.BuildParameters
	if err := paramsSchema.validate(gojsonschema.NewGoLoader(raw)); err != nil {
		var serr *SchemaError
		if errors.As(err, &serr) && len(serr.Violations) > 0 {
			v := serr.Violations[0]
			return p, invalid(v.Field, serr.Error())
		}
		return p, err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return p, err
	}
	if err := dec.Decode(raw); err != nil {
		return p, invalid("document", fmt.Sprintf("failed to decode parameters: %v", err))
	}
	if err := sanitizeParameters(&p); err != nil {
		return domain.BuildParameters{}, err
	}
	return p, nil
}

func invalid(field, reason string) *domain.ValidationError {
	return &domain.ValidationError{Code: domain.CodeInvalidValue, Field: field, Reason: reason}
}

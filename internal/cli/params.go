package cli

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/aretw0/comfyforge/pkg/domain"
	"github.com/aretw0/comfyforge/pkg/wire"
)

type flagKind int

const (
	kindString flagKind = iota
	kindInt
	kindInt64
	kindFloat
)

// paramFlag binds a command-line flag to a key of the parameter document.
// Dotted keys address nested mappings.
type paramFlag struct {
	name  string
	key   string
	kind  flagKind
	usage string
}

var paramFlags = []paramFlag{
	{"prompt", "prompt", kindString, "Positive prompt"},
	{"negative", "negative_prompt", kindString, "Negative prompt"},
	{"width", "width", kindInt, "Canvas width in pixels"},
	{"height", "height", kindInt, "Canvas height in pixels"},
	{"steps", "steps", kindInt, "Sampling steps"},
	{"guidance", "guidance_scale", kindFloat, "Guidance scale"},
	{"seed", "seed", kindInt64, "Noise seed (random when omitted)"},
	{"prefix", "filename_prefix", kindString, "Output filename prefix"},
	{"lora", "style_adapter.file_name", kindString, "Style adapter file"},
	{"lora-strength", "style_adapter.strength", kindFloat, "Style adapter strength"},
	{"reference", "reference_image", kindString, "Reference image for identity and edit techniques"},
	{"identity-strength", "identity_strength", kindFloat, "Identity conditioning weight"},
	{"identity-start", "identity_start", kindFloat, "Identity window start (0-1)"},
	{"identity-end", "identity_end", kindFloat, "Identity window end (0-1)"},
	{"controlnet-strength", "controlnet_strength", kindFloat, "InstantID controlnet strength"},
	{"face-provider", "face_provider", kindString, "Face analysis provider: CPU, CUDA, ROCM or CoreML"},
	{"sampler", "sampler_strategy", kindString, "Sampler strategy: standard or custom"},
}

// RegisterParamFlags adds the build parameter flags plus --params to fs.
func RegisterParamFlags(fs *pflag.FlagSet) {
	fs.StringP("params", "f", "", "Parameter document (JSON or YAML, - for stdin)")
	for _, f := range paramFlags {
		switch f.kind {
		case kindString:
			fs.String(f.name, "", f.usage)
		case kindInt:
			fs.Int(f.name, 0, f.usage)
		case kindInt64:
			fs.Int64(f.name, 0, f.usage)
		case kindFloat:
			fs.Float64(f.name, 0, f.usage)
		}
	}
}

// Parameters merges the --params document with explicitly set flags. Flags win.
// The merged document goes through the same schema and decoding as any other input.
func (a *App) Parameters(fs *pflag.FlagSet) (domain.BuildParameters, error) {
	raw := map[string]any{}
	if path, _ := fs.GetString("params"); path != "" {
		data, err := a.readInput(path)
		if err != nil {
			return domain.BuildParameters{}, err
		}
		if raw, err = wire.ParseDocument(data); err != nil {
			return domain.BuildParameters{}, err
		}
	}

	for _, f := range paramFlags {
		if !fs.Changed(f.name) {
			continue
		}
		var v any
		switch f.kind {
		case kindString:
			v, _ = fs.GetString(f.name)
		case kindInt:
			v, _ = fs.GetInt(f.name)
		case kindInt64:
			v, _ = fs.GetInt64(f.name)
		case kindFloat:
			v, _ = fs.GetFloat64(f.name)
		}
		setPath(raw, f.key, v)
	}
	return wire.DecodeParameters(raw)
}

func setPath(m map[string]any, key string, v any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

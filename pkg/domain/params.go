package domain

import "strings"

// SamplerStrategy selects how a builder wires its sampling stage.
type SamplerStrategy string

const (
	// SamplerStandard uses a single iterative sampler node.
	SamplerStandard SamplerStrategy = "standard"
	// SamplerCustomSchedule uses scheduler -> sigma rescaler -> custom sampler with a fixed solver.
	SamplerCustomSchedule SamplerStrategy = "custom"
)

// StyleAdapter is a small auxiliary model spliced into the model/text-encoder path.
type StyleAdapter struct {
	FileName string `json:"file_name" yaml:"file_name" mapstructure:"file_name"`
	// Strength drives the model and clip paths alike. Nil means DefaultStyleStrength;
	// an explicit 0 disables the adapter's effect.
	Strength *float64 `json:"strength,omitempty" yaml:"strength,omitempty" mapstructure:"strength"`
}

// DefaultStyleStrength applies when a style adapter carries no strength.
const DefaultStyleStrength = 1.0

// NewStyleAdapter returns an adapter with an explicit strength.
func NewStyleAdapter(fileName string, strength float64) *StyleAdapter {
	return &StyleAdapter{FileName: fileName, Strength: &strength}
}

// EffectiveStrength resolves a nil strength to DefaultStyleStrength.
func (a StyleAdapter) EffectiveStrength() float64 {
	if a.Strength == nil {
		return DefaultStyleStrength
	}
	return *a.Strength
}

// BuildParameters is the compact input of every builder.
// Zero values mean "use the technique default" except where noted.
type BuildParameters struct {
	Prompt         string `json:"prompt" yaml:"prompt" mapstructure:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty" yaml:"negative_prompt,omitempty" mapstructure:"negative_prompt"`

	Width         int     `json:"width,omitempty" yaml:"width,omitempty" mapstructure:"width"`
	Height        int     `json:"height,omitempty" yaml:"height,omitempty" mapstructure:"height"`
	Steps         int     `json:"steps,omitempty" yaml:"steps,omitempty" mapstructure:"steps"`
	GuidanceScale float64 `json:"guidance_scale,omitempty" yaml:"guidance_scale,omitempty" mapstructure:"guidance_scale"`

	// Seed is drawn at random when nil.
	Seed *int64 `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`

	StyleAdapter   *StyleAdapter `json:"style_adapter,omitempty" yaml:"style_adapter,omitempty" mapstructure:"style_adapter"`
	FilenamePrefix string        `json:"filename_prefix,omitempty" yaml:"filename_prefix,omitempty" mapstructure:"filename_prefix"`

	// Identity and edit techniques.
	ReferenceImage     string          `json:"reference_image,omitempty" yaml:"reference_image,omitempty" mapstructure:"reference_image"`
	IdentityStrength   float64         `json:"identity_strength,omitempty" yaml:"identity_strength,omitempty" mapstructure:"identity_strength"`
	IdentityStart      float64         `json:"identity_start,omitempty" yaml:"identity_start,omitempty" mapstructure:"identity_start"`
	IdentityEnd        float64         `json:"identity_end,omitempty" yaml:"identity_end,omitempty" mapstructure:"identity_end"`
	ControlNetStrength float64         `json:"controlnet_strength,omitempty" yaml:"controlnet_strength,omitempty" mapstructure:"controlnet_strength"`
	FaceProvider       string          `json:"face_provider,omitempty" yaml:"face_provider,omitempty" mapstructure:"face_provider"`
	SamplerStrategy    SamplerStrategy `json:"sampler_strategy,omitempty" yaml:"sampler_strategy,omitempty" mapstructure:"sampler_strategy"`
}

// WithSeed returns a copy of p with an explicit seed.
func (p BuildParameters) WithSeed(seed int64) BuildParameters {
	p.Seed = &seed
	return p
}

// Validate checks the fields shared by every technique.
func (p BuildParameters) Validate() error {
	if strings.TrimSpace(p.Prompt) == "" {
		return &ValidationError{Code: CodeMissingPrompt, Field: "prompt", Reason: "prompt is required"}
	}
	if p.Width < 0 || p.Height < 0 {
		return &ValidationError{Code: CodeInvalidValue, Field: "width/height", Reason: "dimensions must not be negative"}
	}
	if p.Steps < 0 {
		return &ValidationError{Code: CodeInvalidValue, Field: "steps", Reason: "steps must not be negative"}
	}
	if p.StyleAdapter != nil && strings.TrimSpace(p.StyleAdapter.FileName) == "" {
		return &ValidationError{Code: CodeInvalidValue, Field: "style_adapter.file_name", Reason: "style adapter needs a file name"}
	}
	switch p.SamplerStrategy {
	case "", SamplerStandard, SamplerCustomSchedule:
	default:
		return &ValidationError{Code: CodeInvalidValue, Field: "sampler_strategy", Reason: "unknown sampler strategy " + string(p.SamplerStrategy)}
	}
	return nil
}

// DetectedParameters is the best-effort parameter bag extracted from a graph.
// A nil field was not found; it is never defaulted.
type DetectedParameters struct {
	Prompt             *string       `json:"prompt,omitempty"`
	NegativePrompt     *string       `json:"negative_prompt,omitempty"`
	Width              *int          `json:"width,omitempty"`
	Height             *int          `json:"height,omitempty"`
	Steps              *int          `json:"steps,omitempty"`
	GuidanceScale      *float64      `json:"guidance_scale,omitempty"`
	Seed               *int64        `json:"seed,omitempty"`
	StyleAdapter       *StyleAdapter `json:"style_adapter,omitempty"`
	FilenamePrefix     *string       `json:"filename_prefix,omitempty"`
	ReferenceImage     *string       `json:"reference_image,omitempty"`
	IdentityStrength   *float64      `json:"identity_strength,omitempty"`
	IdentityStart      *float64      `json:"identity_start,omitempty"`
	IdentityEnd        *float64      `json:"identity_end,omitempty"`
	ControlNetStrength *float64      `json:"controlnet_strength,omitempty"`
	FaceProvider       *string       `json:"face_provider,omitempty"`
}

// IsEmpty reports whether nothing was extracted.
func (d DetectedParameters) IsEmpty() bool {
	return d == DetectedParameters{}
}

// DetectedResult is the outcome of classifying a graph.
type DetectedResult struct {
	Type       TechniqueID        `json:"type"`
	Parameters DetectedParameters `json:"parameters"`
}

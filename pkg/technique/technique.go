// Package technique holds one pure builder per supported generation pipeline.
//
// Every builder maps domain.BuildParameters to a complete graph: model, text-encoder and
// decoder loaders, one positive and one negative conditioning node, an empty-latent
// canvas, a sampling stage, a decode node and a save node. Optional features (style
// adapter, identity conditioning) are spliced in afterwards through dsl.Builder.Splice,
// which rewires every consumer of the replaced outputs in one step.
//
// Builders are deterministic given an explicit seed. When the seed is nil a fresh
// 32-bit value is drawn; that is the only source of randomness in the package.
package technique

import "github.com/aretw0/comfyforge/pkg/domain"

// Technique ids.
const (
	FluxDev         domain.TechniqueID = "flux-dev"
	FluxDevNunchaku domain.TechniqueID = "flux-dev-nunchaku"
	FluxPulid       domain.TechniqueID = "flux-pulid"
	SDXLInstantID   domain.TechniqueID = "sdxl-instantid"
	QwenImage       domain.TechniqueID = "qwen-image"
	QwenImageEdit   domain.TechniqueID = "qwen-image-edit"
)

// Model families, as they appear in loader file names and opcodes.
const (
	FamilyFlux = "flux"
	FamilySDXL = "sdxl"
	FamilyQwen = "qwen"
)

// BuildFunc maps parameters to a complete graph.
type BuildFunc func(domain.BuildParameters) (domain.Graph, error)

// Defaults are the values a builder uses for zero-valued parameters.
type Defaults struct {
	Width         int                    `json:"width" yaml:"width"`
	Height        int                    `json:"height" yaml:"height"`
	Steps         int                    `json:"steps" yaml:"steps"`
	GuidanceScale float64                `json:"guidance_scale" yaml:"guidance_scale"`
	Sampler       domain.SamplerStrategy `json:"sampler_strategy" yaml:"sampler_strategy"`
}

// Technique describes one pipeline and how to build it.
type Technique struct {
	ID             domain.TechniqueID
	DisplayName    string
	Description    string
	Family         string
	RequiredModels []string
	// NeedsReference is true when the builder rejects parameters without a reference image.
	NeedsReference bool
	Defaults       Defaults
	Build          BuildFunc
}

// All returns every technique in declaration order.
// The first entry is the baseline, which only uses core opcodes.
func All() []Technique {
	return []Technique{
		{
			ID:             FluxDev,
			DisplayName:    "FLUX.1 [dev]",
			Description:    "Baseline text-to-image with FLUX.1 dev and a single KSampler. Runs on any executor.",
			Family:         FamilyFlux,
			RequiredModels: []string{fluxUNet, fluxT5, fluxCLIPL, fluxVAE},
			Defaults:       fluxDevDefaults,
			Build:          BuildFluxDev,
		},
		{
			ID:             FluxDevNunchaku,
			DisplayName:    "FLUX.1 [dev] Nunchaku",
			Description:    "4-bit SVDQuant FLUX.1 dev with a rescaled sigma schedule. Faster, needs the Nunchaku and Detail Daemon extensions. Ignores the negative prompt.",
			Family:         FamilyFlux,
			RequiredModels: []string{nunchakuModel, fluxT5, fluxCLIPL, fluxVAE},
			Defaults:       nunchakuDefaults,
			Build:          BuildFluxDevNunchaku,
		},
		{
			ID:             FluxPulid,
			DisplayName:    "FLUX.1 [dev] PuLID",
			Description:    "Face-consistent FLUX.1 dev generation from a reference image using PuLID.",
			Family:         FamilyFlux,
			RequiredModels: []string{fluxUNet, fluxT5, fluxCLIPL, fluxVAE, pulidModel},
			NeedsReference: true,
			Defaults:       pulidDefaults,
			Build:          BuildFluxPulid,
		},
		{
			ID:             SDXLInstantID,
			DisplayName:    "SDXL InstantID",
			Description:    "Face-consistent SDXL generation from a reference image using InstantID and its ControlNet.",
			Family:         FamilySDXL,
			RequiredModels: []string{sdxlCheckpoint, instantIDModel, instantIDControlNet},
			NeedsReference: true,
			Defaults:       instantIDDefaults,
			Build:          BuildSDXLInstantID,
		},
		{
			ID:             QwenImage,
			DisplayName:    "Qwen-Image",
			Description:    "Text-to-image with Qwen-Image, strong at rendering text.",
			Family:         FamilyQwen,
			RequiredModels: []string{qwenUNet, qwenTextEncoder, qwenVAE},
			Defaults:       qwenDefaults,
			Build:          BuildQwenImage,
		},
		{
			ID:             QwenImageEdit,
			DisplayName:    "Qwen-Image-Edit",
			Description:    "Instruction-based editing of a reference image with Qwen-Image-Edit.",
			Family:         FamilyQwen,
			RequiredModels: []string{qwenEditUNet, qwenTextEncoder, qwenVAE},
			NeedsReference: true,
			Defaults:       qwenDefaults,
			Build:          BuildQwenImageEdit,
		},
	}
}

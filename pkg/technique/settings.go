package technique

import (
	"math/rand/v2"
	"strings"

	"github.com/aretw0/comfyforge/pkg/domain"
)

// settings are the parameters of one build after defaults are applied.
type settings struct {
	prompt   string
	negative string
	width    int
	height   int
	steps    int
	cfg      float64
	seed     int64
	prefix   string
	sampler  domain.SamplerStrategy
}

func resolve(id domain.TechniqueID, p domain.BuildParameters, d Defaults) settings {
	s := settings{
		prompt:   p.Prompt,
		negative: p.NegativePrompt,
		width:    orInt(p.Width, d.Width),
		height:   orInt(p.Height, d.Height),
		steps:    orInt(p.Steps, d.Steps),
		cfg:      orFloat(p.GuidanceScale, d.GuidanceScale),
		seed:     resolveSeed(p.Seed),
		prefix:   p.FilenamePrefix,
		sampler:  p.SamplerStrategy,
	}
	if s.prefix == "" {
		s.prefix = string(id)
	}
	if s.sampler == "" {
		s.sampler = d.Sampler
	}
	return s
}

// resolveSeed is the only place the package draws randomness.
func resolveSeed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return int64(rand.Uint32())
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// identity settings shared by the face-consistency techniques.
type identity struct {
	image    string
	strength float64
	start    float64
	end      float64
	provider string
}

var faceProviders = map[string]string{
	"cpu":    "CPU",
	"cuda":   "CUDA",
	"rocm":   "ROCM",
	"coreml": "CoreML",
}

func requireReference(p domain.BuildParameters) error {
	if strings.TrimSpace(p.ReferenceImage) == "" {
		return &domain.ValidationError{
			Code:   domain.CodeMissingReferenceImage,
			Field:  "reference_image",
			Reason: "reference image is required for this technique",
		}
	}
	return nil
}

func resolveIdentity(p domain.BuildParameters, defaultStrength float64) (identity, error) {
	id := identity{
		image:    p.ReferenceImage,
		strength: orFloat(p.IdentityStrength, defaultStrength),
		start:    p.IdentityStart,
		end:      orFloat(p.IdentityEnd, 1.0),
		provider: "CPU",
	}
	if p.FaceProvider != "" {
		provider, ok := faceProviders[strings.ToLower(p.FaceProvider)]
		if !ok {
			return identity{}, &domain.ValidationError{
				Code:   domain.CodeInvalidValue,
				Field:  "face_provider",
				Reason: "unsupported face detection provider " + p.FaceProvider,
			}
		}
		id.provider = provider
	}
	if id.start < 0 || id.end > 1 || id.start >= id.end {
		return identity{}, &domain.ValidationError{
			Code:   domain.CodeInvalidValue,
			Field:  "identity_start/identity_end",
			Reason: "identity window must satisfy 0 <= start < end <= 1",
		}
	}
	return id, nil
}

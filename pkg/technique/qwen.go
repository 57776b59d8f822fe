package technique

import (
	"github.com/aretw0/comfyforge/pkg/domain"
	"github.com/aretw0/comfyforge/pkg/dsl"
)

var qwenDefaults = Defaults{
	Width: domain.DefaultWidth, Height: domain.DefaultHeight,
	Steps: 20, GuidanceScale: 2.5,
	Sampler: domain.SamplerStandard,
}

var qwenSampling = sampling{sampler: "euler", scheduler: "simple", sigmaFactor: 1.0}

const qwenShift = 3.1

func (sk *skeleton) qwenLoaders(unet string) {
	sk.model = sk.b.Add(domain.UNETLoader).
		Set("unet_name", unet).
		Set("weight_dtype", "fp8_e4m3fn").
		Out(0)
	sk.clip = sk.b.Add(domain.CLIPLoader).
		Set("clip_name", qwenTextEncoder).
		Set("type", "qwen_image").
		Set("device", "default").
		Out(0)
	sk.loadVAE(qwenVAE)
}

// auraFlow shifts the model's timestep distribution. The sampler reads its output,
// so a style adapter lands between the loader and this node.
func (sk *skeleton) auraFlow() domain.OutputRef {
	return sk.b.Add(domain.ModelSamplingAuraFlow).
		Link("model", sk.model).
		Set("shift", qwenShift).
		Out(0)
}

// BuildQwenImage builds a Qwen-Image text-to-image graph.
func BuildQwenImage(p domain.BuildParameters) (domain.Graph, error) {
	s, err := prepare(QwenImage, p, qwenDefaults)
	if err != nil {
		return nil, err
	}
	s.sampler = domain.SamplerStandard

	sk := newSkeleton(s)
	sk.qwenLoaders(qwenUNet)
	sk.encode()
	sk.canvas(domain.EmptySD3LatentImage)
	sk.finish(sk.sample(sk.auraFlow(), qwenSampling))
	return sk.build(p.StyleAdapter)
}

// BuildQwenImageEdit builds an instruction-based edit of the reference image.
// Both conditionings see the scaled reference through TextEncodeQwenImageEdit.
func BuildQwenImageEdit(p domain.BuildParameters) (domain.Graph, error) {
	if err := requireReference(p); err != nil {
		return nil, err
	}
	s, err := prepare(QwenImageEdit, p, qwenDefaults)
	if err != nil {
		return nil, err
	}
	s.sampler = domain.SamplerStandard

	sk := newSkeleton(s)
	sk.qwenLoaders(qwenEditUNet)
	image := sk.loadReference(p.ReferenceImage)
	scaled := sk.b.Add(domain.ImageScaleToTotalPixels).
		Link("image", image).
		Set("upscale_method", "lanczos").
		Set("megapixels", 1.0).
		Out(0)
	sk.positive = sk.editEncoder("Positive Prompt", s.prompt, scaled)
	sk.negative = sk.editEncoder("Negative Prompt", s.negative, scaled)
	sk.posCond, sk.negCond = sk.positive.Out(0), sk.negative.Out(0)
	sk.canvas(domain.EmptySD3LatentImage)
	sk.finish(sk.sample(sk.auraFlow(), qwenSampling))
	return sk.build(p.StyleAdapter)
}

func (sk *skeleton) editEncoder(title, text string, image domain.OutputRef) *dsl.NodeBuilder {
	return sk.b.Add(domain.TextEncodeQwenImageEdit).
		Title(title).
		Link("clip", sk.clip).
		Set("prompt", text).
		Link("vae", sk.vae).
		Link("image", image)
}

package technique

import (
	"fmt"

	"github.com/aretw0/comfyforge/pkg/domain"
	"github.com/aretw0/comfyforge/pkg/dsl"
)

// Model files referenced by the loaders.
const (
	fluxUNet            = "flux1-dev.safetensors"
	fluxT5              = "t5xxl_fp16.safetensors"
	fluxCLIPL           = "clip_l.safetensors"
	fluxVAE             = "ae.safetensors"
	nunchakuModel       = "svdq-int4_r32-flux.1-dev"
	pulidModel          = "pulid_flux_v0.9.1.safetensors"
	sdxlCheckpoint      = "sd_xl_base_1.0.safetensors"
	instantIDModel      = "ip-adapter.bin"
	instantIDControlNet = "instantid/diffusion_pytorch_model.safetensors"
	qwenUNet            = "qwen_image_fp8_e4m3fn.safetensors"
	qwenEditUNet        = "qwen_image_edit_fp8_e4m3fn.safetensors"
	qwenTextEncoder     = "qwen_2.5_vl_7b_fp8_scaled.safetensors"
	qwenVAE             = "qwen_image_vae.safetensors"
)

// The custom pipeline always solves with this sampler.
const customSolver = "euler"

// sampling is the per-technique configuration of the sampling stage.
type sampling struct {
	sampler   string
	scheduler string
	// sigmaFactor scales the schedule on the custom pipeline.
	sigmaFactor float64
}

// skeleton tracks the outputs that splices may redirect.
type skeleton struct {
	b *dsl.Builder
	s settings

	model domain.OutputRef
	clip  domain.OutputRef
	vae   domain.OutputRef

	positive *dsl.NodeBuilder
	negative *dsl.NodeBuilder
	// posCond and negCond feed the sampler.
	posCond domain.OutputRef
	negCond domain.OutputRef

	latent domain.OutputRef
	// sampler is the node carrying the seed: KSampler or SamplerCustom.
	sampler *dsl.NodeBuilder
}

func newSkeleton(s settings) *skeleton {
	return &skeleton{b: dsl.New(), s: s}
}

func (sk *skeleton) fluxLoaders() {
	unet := sk.b.Add(domain.UNETLoader).
		Set("unet_name", fluxUNet).
		Set("weight_dtype", "default")
	sk.model = unet.Out(0)
	sk.dualCLIP()
	sk.loadVAE(fluxVAE)
}

func (sk *skeleton) dualCLIP() {
	clip := sk.b.Add(domain.DualCLIPLoader).
		Set("clip_name1", fluxT5).
		Set("clip_name2", fluxCLIPL).
		Set("type", "flux")
	sk.clip = clip.Out(0)
}

func (sk *skeleton) loadVAE(name string) {
	sk.vae = sk.b.Add(domain.VAELoader).Set("vae_name", name).Out(0)
}

// encode adds the positive and negative text encoders.
func (sk *skeleton) encode() {
	sk.positive = sk.b.Add(domain.CLIPTextEncode).
		Title("Positive Prompt").
		Link("clip", sk.clip).
		Set("text", sk.s.prompt)
	sk.negative = sk.b.Add(domain.CLIPTextEncode).
		Title("Negative Prompt").
		Link("clip", sk.clip).
		Set("text", sk.s.negative)
	sk.posCond = sk.positive.Out(0)
	sk.negCond = sk.negative.Out(0)
}

func (sk *skeleton) canvas(ct domain.ClassType) {
	sk.latent = sk.b.Add(ct).
		Set("width", sk.s.width).
		Set("height", sk.s.height).
		Set("batch_size", 1).
		Out(0)
}

// sample adds the sampling stage for the resolved strategy and returns the latent it produces.
func (sk *skeleton) sample(model domain.OutputRef, cfg sampling) domain.OutputRef {
	if sk.s.sampler == domain.SamplerCustomSchedule {
		return sk.sampleCustom(model, cfg)
	}
	sk.sampler = sk.b.Add(domain.KSampler).
		Link("model", model).
		Link("positive", sk.posCond).
		Link("negative", sk.negCond).
		Link("latent_image", sk.latent).
		Set("seed", sk.s.seed).
		Set("steps", sk.s.steps).
		Set("cfg", sk.s.cfg).
		Set("sampler_name", cfg.sampler).
		Set("scheduler", cfg.scheduler).
		Set("denoise", 1.0)
	return sk.sampler.Out(0)
}

func (sk *skeleton) sampleCustom(model domain.OutputRef, cfg sampling) domain.OutputRef {
	sched := sk.b.Add(domain.BasicScheduler).
		Link("model", model).
		Set("scheduler", cfg.scheduler).
		Set("steps", sk.s.steps).
		Set("denoise", 1.0)
	sigmas := sk.b.Add(domain.MultiplySigmas).
		Link("sigmas", sched.Out(0)).
		Set("factor", cfg.sigmaFactor).
		Set("start", 0.0).
		Set("end", 1.0)
	solver := sk.b.Add(domain.KSamplerSelect).Set("sampler_name", customSolver)
	sk.sampler = sk.b.Add(domain.SamplerCustom).
		Link("model", model).
		Set("add_noise", true).
		Set("noise_seed", sk.s.seed).
		Set("cfg", sk.s.cfg).
		Link("positive", sk.posCond).
		Link("negative", sk.negCond).
		Link("sampler", solver.Out(0)).
		Link("sigmas", sigmas.Out(0)).
		Link("latent_image", sk.latent)
	return sk.sampler.Out(0)
}

// finish adds decode and save.
func (sk *skeleton) finish(samples domain.OutputRef) {
	decoded := sk.b.Add(domain.VAEDecode).
		Link("samples", samples).
		Link("vae", sk.vae)
	sk.b.Add(domain.SaveImage).
		Link("images", decoded.Out(0)).
		Set("filename_prefix", sk.s.prefix)
}

// build applies the optional style adapter and compiles the graph.
func (sk *skeleton) build(adapter *domain.StyleAdapter) (domain.Graph, error) {
	if err := sk.styleAdapter(adapter); err != nil {
		return nil, err
	}
	return sk.b.Build()
}

// styleAdapter inserts a LoraLoader behind the current model and clip outputs and moves
// every consumer of those outputs onto it. The same strength drives both paths.
func (sk *skeleton) styleAdapter(adapter *domain.StyleAdapter) error {
	if adapter == nil {
		return nil
	}
	strength := adapter.EffectiveStrength()
	lora := sk.b.Add(domain.LoraLoader).
		Link("model", sk.model).
		Link("clip", sk.clip).
		Set("lora_name", adapter.FileName).
		Set("strength_model", strength).
		Set("strength_clip", strength)
	moves := map[domain.OutputRef]domain.OutputRef{
		sk.model: lora.Out(0),
		sk.clip:  lora.Out(1),
	}
	if _, err := sk.b.Splice(moves, lora.ID()); err != nil {
		return fmt.Errorf("style adapter: %w", err)
	}
	sk.model, sk.clip = lora.Out(0), lora.Out(1)
	return nil
}

// loadReference adds the image loader for a reference image id.
func (sk *skeleton) loadReference(image string) domain.OutputRef {
	return sk.b.Add(domain.LoadImage).
		Title("Reference Image").
		Set("image", image).
		Out(0)
}

// prepare runs the checks every builder shares.
func prepare(id domain.TechniqueID, p domain.BuildParameters, d Defaults) (settings, error) {
	if err := p.Validate(); err != nil {
		return settings{}, err
	}
	return resolve(id, p, d), nil
}

package technique

import (
	"fmt"

	"github.com/aretw0/comfyforge/pkg/domain"
)

var (
	fluxDevDefaults = Defaults{
		Width: domain.DefaultWidth, Height: domain.DefaultHeight,
		Steps: 20, GuidanceScale: 1.0,
		Sampler: domain.SamplerStandard,
	}
	nunchakuDefaults = Defaults{
		Width: domain.DefaultWidth, Height: domain.DefaultHeight,
		Steps: 8, GuidanceScale: 1.0,
		Sampler: domain.SamplerCustomSchedule,
	}
	pulidDefaults = Defaults{
		Width: domain.DefaultWidth, Height: domain.DefaultHeight,
		Steps: 20, GuidanceScale: 1.0,
		Sampler: domain.SamplerStandard,
	}
)

var fluxSampling = sampling{sampler: "euler", scheduler: "simple", sigmaFactor: 0.95}

// BuildFluxDev builds the baseline graph. It only uses core opcodes.
func BuildFluxDev(p domain.BuildParameters) (domain.Graph, error) {
	s, err := prepare(FluxDev, p, fluxDevDefaults)
	if err != nil {
		return nil, err
	}
	// The baseline has a single sampler whatever the caller asked for.
	s.sampler = domain.SamplerStandard

	sk := newSkeleton(s)
	sk.fluxLoaders()
	sk.encode()
	sk.canvas(domain.EmptySD3LatentImage)
	sk.finish(sk.sample(sk.model, fluxSampling))
	return sk.build(p.StyleAdapter)
}

// BuildFluxDevNunchaku builds the quantized FLUX graph on the custom sampling pipeline.
// The negative prompt is ignored: its encoder gets an empty string and is zeroed out.
func BuildFluxDevNunchaku(p domain.BuildParameters) (domain.Graph, error) {
	s, err := prepare(FluxDevNunchaku, p, nunchakuDefaults)
	if err != nil {
		return nil, err
	}
	s.sampler = domain.SamplerCustomSchedule
	s.negative = ""

	sk := newSkeleton(s)
	sk.model = sk.b.Add(domain.NunchakuFluxDiTLoader).
		Set("model_path", nunchakuModel).
		Set("cache_threshold", 0).
		Set("attention", "nunchaku-fp16").
		Set("cpu_offload", "auto").
		Set("device_id", 0).
		Set("data_type", "bfloat16").
		Set("i2f_mode", "enabled").
		Out(0)
	sk.dualCLIP()
	sk.loadVAE(fluxVAE)
	sk.encode()
	sk.negCond = sk.b.Add(domain.ConditioningZeroOut).
		Link("conditioning", sk.negative.Out(0)).
		Out(0)
	sk.canvas(domain.EmptySD3LatentImage)
	sk.finish(sk.sample(sk.model, fluxSampling))
	return sk.build(p.StyleAdapter)
}

// BuildFluxPulid builds a face-consistent FLUX graph. On the custom pipeline a
// FixPulidFluxPatch node always sits between ApplyPulidFlux and the model consumers.
func BuildFluxPulid(p domain.BuildParameters) (domain.Graph, error) {
	if err := requireReference(p); err != nil {
		return nil, err
	}
	s, err := prepare(FluxPulid, p, pulidDefaults)
	if err != nil {
		return nil, err
	}
	id, err := resolveIdentity(p, 1.0)
	if err != nil {
		return nil, err
	}

	sk := newSkeleton(s)
	sk.fluxLoaders()
	sk.encode()
	sk.canvas(domain.EmptySD3LatentImage)
	sk.finish(sk.sample(sk.model, fluxSampling))

	pulid := sk.b.Add(domain.PulidFluxModelLoader).Set("pulid_file", pulidModel)
	eva := sk.b.Add(domain.PulidFluxEvaClipLoader)
	face := sk.b.Add(domain.PulidFluxInsightFaceLoader).Set("provider", id.provider)
	image := sk.loadReference(id.image)
	apply := sk.b.Add(domain.ApplyPulidFlux).
		Link("model", sk.model).
		Link("pulid_flux", pulid.Out(0)).
		Link("eva_clip", eva.Out(0)).
		Link("face_analysis", face.Out(0)).
		Link("image", image).
		Set("weight", id.strength).
		Set("start_at", id.start).
		Set("end_at", id.end)

	patched := apply.Out(0)
	skip := []domain.NodeID{apply.ID()}
	if s.sampler == domain.SamplerCustomSchedule {
		fix := sk.b.Add(domain.FixPulidFluxPatch).Link("model", apply.Out(0))
		patched = fix.Out(0)
		skip = append(skip, fix.ID())
	}
	moves := map[domain.OutputRef]domain.OutputRef{sk.model: patched}
	if _, err := sk.b.Splice(moves, skip...); err != nil {
		return nil, fmt.Errorf("identity splice: %w", err)
	}
	return sk.build(p.StyleAdapter)
}

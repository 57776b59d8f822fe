package technique

import (
	"fmt"

	"github.com/aretw0/comfyforge/pkg/domain"
)

var instantIDDefaults = Defaults{
	Width: domain.DefaultWidth, Height: domain.DefaultHeight,
	Steps: 30, GuidanceScale: 4.5,
	Sampler: domain.SamplerStandard,
}

var sdxlSampling = sampling{sampler: "dpmpp_2m", scheduler: "karras", sigmaFactor: 0.96}

// Applied when the caller leaves the strengths at zero.
const (
	defaultIPWeight   = 0.8
	defaultCNStrength = 0.8
)

// BuildSDXLInstantID builds a face-consistent SDXL graph. ApplyInstantIDAdvanced takes over
// the model and both conditionings, so all three are spliced in one patch table.
func BuildSDXLInstantID(p domain.BuildParameters) (domain.Graph, error) {
	if err := requireReference(p); err != nil {
		return nil, err
	}
	s, err := prepare(SDXLInstantID, p, instantIDDefaults)
	if err != nil {
		return nil, err
	}
	id, err := resolveIdentity(p, defaultIPWeight)
	if err != nil {
		return nil, err
	}
	cn := orFloat(p.ControlNetStrength, defaultCNStrength)

	sk := newSkeleton(s)
	ckpt := sk.b.Add(domain.CheckpointLoaderSimple).Set("ckpt_name", sdxlCheckpoint)
	sk.model, sk.clip, sk.vae = ckpt.Out(0), ckpt.Out(1), ckpt.Out(2)
	sk.encode()
	sk.canvas(domain.EmptyLatentImage)
	sk.finish(sk.sample(sk.model, sdxlSampling))

	face := sk.b.Add(domain.InstantIDFaceAnalysis).Set("provider", id.provider)
	model := sk.b.Add(domain.InstantIDModelLoader).Set("instantid_file", instantIDModel)
	image := sk.loadReference(id.image)
	control := sk.b.Add(domain.ControlNetLoader).Set("control_net_name", instantIDControlNet)
	apply := sk.b.Add(domain.ApplyInstantIDAdvanced).
		Link("instantid", model.Out(0)).
		Link("insightface", face.Out(0)).
		Link("control_net", control.Out(0)).
		Link("image", image).
		Link("model", sk.model).
		Link("positive", sk.posCond).
		Link("negative", sk.negCond).
		Set("ip_weight", id.strength).
		Set("cn_strength", cn).
		Set("start_at", id.start).
		Set("end_at", id.end).
		Set("noise", 0.35).
		Set("combine_embeds", "average")

	moves := map[domain.OutputRef]domain.OutputRef{
		sk.model:   apply.Out(0),
		sk.posCond: apply.Out(1),
		sk.negCond: apply.Out(2),
	}
	if _, err := sk.b.Splice(moves, apply.ID()); err != nil {
		return nil, fmt.Errorf("identity splice: %w", err)
	}
	return sk.build(p.StyleAdapter)
}

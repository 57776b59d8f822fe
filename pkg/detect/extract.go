package detect

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/aretw0/comfyforge/pkg/domain"
)

// Detect classifies the graph and extracts its parameters. Both passes always run.
func Detect(g domain.Graph) domain.DetectedResult {
	return domain.DetectedResult{
		Type:       Classify(Inspect(g)),
		Parameters: Extract(g),
	}
}

// DetectJSON is Detect over a wire payload. Anything that is not a JSON object is
// reported as an unknown graph with no parameters.
func DetectJSON(data []byte) domain.DetectedResult {
	g, err := domain.ParseGraph(data)
	if err != nil {
		return domain.DetectedResult{Type: domain.Unknown}
	}
	return Detect(g)
}

// negativeMarkers flag a text encoder as the negative prompt. A positive prompt that
// contains one of them is misfiled; no better discriminator exists in the graph.
var negativeMarkers = []string{"negative", "deformed"}

// Extract fills every field it can find. The first node that supplies a field wins;
// nodes are visited in id order.
func Extract(g domain.Graph) domain.DetectedParameters {
	var p domain.DetectedParameters
	for _, id := range g.IDs() {
		n := g[id]
		in := inputs(n.Inputs)
		switch n.ClassType {
		case domain.CLIPTextEncode:
			setText(&p, in.stringAt("text"))
		case domain.TextEncodeQwenImageEdit:
			setText(&p, in.stringAt("prompt"))
		case domain.EmptyLatentImage, domain.EmptySD3LatentImage:
			setInt(&p.Width, in.intAt("width"))
			setInt(&p.Height, in.intAt("height"))
		case domain.KSampler:
			setInt(&p.Steps, in.intAt("steps"))
			setFloat(&p.GuidanceScale, in.floatAt("cfg"))
			setInt64(&p.Seed, in.int64At("seed"))
		case domain.KSamplerAdvanced:
			setInt(&p.Steps, in.intAt("steps"))
			setFloat(&p.GuidanceScale, in.floatAt("cfg"))
			setInt64(&p.Seed, in.int64At("noise_seed"))
		case domain.SamplerCustom:
			setFloat(&p.GuidanceScale, in.floatAt("cfg"))
			setInt64(&p.Seed, in.int64At("noise_seed"))
		case domain.BasicScheduler:
			setInt(&p.Steps, in.intAt("steps"))
		case domain.RandomNoise:
			setInt64(&p.Seed, in.int64At("noise_seed"))
		case domain.LoadImage:
			setString(&p.ReferenceImage, in.stringAt("image"))
		case domain.ApplyPulidFlux:
			setFloat(&p.IdentityStrength, in.floatAt("weight"))
			setWindow(&p, in)
		case domain.ApplyInstantID, domain.ApplyInstantIDAdvanced:
			setFloat(&p.IdentityStrength, in.floatAt("weight"))
			setFloat(&p.IdentityStrength, in.floatAt("ip_weight"))
			setFloat(&p.ControlNetStrength, in.floatAt("cn_strength"))
			setWindow(&p, in)
		case domain.PulidFluxInsightFaceLoader, domain.InstantIDFaceAnalysis:
			setString(&p.FaceProvider, in.stringAt("provider"))
		case domain.LoraLoader:
			if p.StyleAdapter == nil {
				if name := in.stringAt("lora_name"); name != nil && *name != "" {
					p.StyleAdapter = &domain.StyleAdapter{FileName: *name, Strength: in.floatAt("strength_model")}
				}
			}
		case domain.SaveImage:
			setString(&p.FilenamePrefix, in.stringAt("filename_prefix"))
		}
	}
	return p
}

// setText files a conditioning text as prompt or negative prompt. Empty texts are skipped.
func setText(p *domain.DetectedParameters, s *string) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return
	}
	lower := strings.ToLower(*s)
	for _, m := range negativeMarkers {
		if strings.Contains(lower, m) {
			setString(&p.NegativePrompt, s)
			return
		}
	}
	setString(&p.Prompt, s)
}

func setWindow(p *domain.DetectedParameters, in inputs) {
	setFloat(&p.IdentityStart, in.floatAt("start_at"))
	setFloat(&p.IdentityEnd, in.floatAt("end_at"))
}

func setString(dst **string, v *string) {
	if *dst == nil && v != nil {
		*dst = v
	}
}

func setInt(dst **int, v *int) {
	if *dst == nil && v != nil {
		*dst = v
	}
}

func setInt64(dst **int64, v *int64) {
	if *dst == nil && v != nil {
		*dst = v
	}
}

func setFloat(dst **float64, v *float64) {
	if *dst == nil && v != nil {
		*dst = v
	}
}

// inputs reads literal values with tolerant numeric coercion. Wired inputs and values
// of the wrong type read as absent.
type inputs map[string]domain.Value

func (in inputs) literal(name string) (any, bool) {
	v, ok := in[name]
	if !ok || v.IsRef() {
		return nil, false
	}
	return v.Literal(), v.Literal() != nil
}

func (in inputs) stringAt(name string) *string {
	raw, ok := in.literal(name)
	if !ok {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	return &s
}

func (in inputs) floatAt(name string) *float64 {
	raw, ok := in.literal(name)
	if !ok {
		return nil
	}
	f, ok := toFloat(raw)
	if !ok {
		return nil
	}
	return &f
}

func (in inputs) int64At(name string) *int64 {
	f := in.floatAt(name)
	if f == nil || *f != math.Trunc(*f) || math.Abs(*f) > 1<<53 {
		return nil
	}
	v := int64(*f)
	return &v
}

func (in inputs) intAt(name string) *int {
	v := in.int64At(name)
	if v == nil || *v > math.MaxInt32 || *v < math.MinInt32 {
		return nil
	}
	i := int(*v)
	return &i
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

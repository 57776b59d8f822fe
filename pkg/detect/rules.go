// Package detect classifies graphs of unknown origin and pulls out whatever parameters
// they carry. It only reads its input and never fails: missing information is reported
// as an absent field or as domain.Unknown.
package detect

import (
	"strings"

	"github.com/aretw0/comfyforge/pkg/domain"
	"github.com/aretw0/comfyforge/pkg/technique"
)

// Input keys whose string values count as model markers.
var modelKeys = []string{"unet", "checkpoint", "model"}

// Signature is the lowercased text classification runs against.
type Signature struct {
	// Opcodes holds every opcode in the graph.
	Opcodes string
	// Haystack holds the opcodes plus every string input whose key names a model.
	Haystack string
}

// Inspect builds the signature of a graph.
func Inspect(g domain.Graph) Signature {
	var opcodes, models []string
	for _, id := range g.IDs() {
		n := g[id]
		opcodes = append(opcodes, strings.ToLower(string(n.ClassType)))
		for key, v := range n.Inputs {
			s, ok := v.Literal().(string)
			if !ok || v.IsRef() || !isModelKey(key) {
				continue
			}
			models = append(models, strings.ToLower(s))
		}
	}
	ops := strings.Join(opcodes, " ")
	return Signature{
		Opcodes:  ops,
		Haystack: ops + " " + strings.Join(models, " "),
	}
}

func isModelKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range modelKeys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}

// Predicate is one condition over a signature.
type Predicate func(Signature) bool

// Family matches a model-family marker anywhere in the haystack.
func Family(marker string) Predicate {
	return func(s Signature) bool { return strings.Contains(s.Haystack, marker) }
}

// Opcode matches a marker in the opcodes only.
func Opcode(marker string) Predicate {
	return func(s Signature) bool { return strings.Contains(s.Opcodes, marker) }
}

// All matches when every predicate does.
func All(preds ...Predicate) Predicate {
	return func(s Signature) bool {
		for _, p := range preds {
			if !p(s) {
				return false
			}
		}
		return true
	}
}

// Rule maps a predicate to a technique.
type Rule struct {
	Name   string
	Match  Predicate
	Result domain.TechniqueID
}

// Rules is evaluated top to bottom and the first match wins. The order is the tie-break
// between markers that can appear together and must not be rearranged.
var Rules = []Rule{
	{Name: "flux-identity", Match: All(Family(technique.FamilyFlux), Opcode("pulid")), Result: technique.FluxPulid},
	{Name: "flux-quantized", Match: All(Family(technique.FamilyFlux), Opcode("nunchaku")), Result: technique.FluxDevNunchaku},
	{Name: "flux", Match: Family(technique.FamilyFlux), Result: technique.FluxDev},
	{Name: "qwen-edit", Match: All(Family(technique.FamilyQwen), Opcode("textencodeqwenimageedit")), Result: technique.QwenImageEdit},
	{Name: "qwen", Match: Family(technique.FamilyQwen), Result: technique.QwenImage},
	// The sdxl marker must come from an opcode or a string input whose key contains
	// model, unet or checkpoint. A stock CheckpointLoaderSimple keys its file as ckpt_name,
	// which is none of these, so graphs built around it do not reach this rule.
	{Name: "sdxl-identity", Match: All(Family(technique.FamilySDXL), Opcode("instantid")), Result: technique.SDXLInstantID},
}

// Classify returns the result of the first matching rule, or domain.Unknown.
func Classify(s Signature) domain.TechniqueID {
	for _, r := range Rules {
		if r.Match(s) {
			return r.Result
		}
	}
	return domain.Unknown
}

package domain

// ClassType is the opcode of a node ("class_type" on the wire).
// The constants below are the opcodes this module emits. Graphs of unknown origin may
// carry any other string; those are valid ClassTypes too, they are just never emitted.
type ClassType string

// Core opcodes shipped with every execution engine.
const (
	CheckpointLoaderSimple  ClassType = "CheckpointLoaderSimple"
	UNETLoader              ClassType = "UNETLoader"
	DualCLIPLoader          ClassType = "DualCLIPLoader"
	CLIPLoader              ClassType = "CLIPLoader"
	VAELoader               ClassType = "VAELoader"
	LoraLoader              ClassType = "LoraLoader"
	ControlNetLoader        ClassType = "ControlNetLoader"
	CLIPTextEncode          ClassType = "CLIPTextEncode"
	TextEncodeQwenImageEdit ClassType = "TextEncodeQwenImageEdit"
	ConditioningZeroOut     ClassType = "ConditioningZeroOut"
	ModelSamplingAuraFlow   ClassType = "ModelSamplingAuraFlow"
	EmptyLatentImage        ClassType = "EmptyLatentImage"
	EmptySD3LatentImage     ClassType = "EmptySD3LatentImage"
	KSampler                ClassType = "KSampler"
	KSamplerAdvanced        ClassType = "KSamplerAdvanced"
	KSamplerSelect          ClassType = "KSamplerSelect"
	BasicScheduler          ClassType = "BasicScheduler"
	SamplerCustom           ClassType = "SamplerCustom"
	RandomNoise             ClassType = "RandomNoise"
	VAEDecode               ClassType = "VAEDecode"
	SaveImage               ClassType = "SaveImage"
	LoadImage               ClassType = "LoadImage"
	ImageScaleToTotalPixels ClassType = "ImageScaleToTotalPixels"
)

// Custom-node opcodes. An executor only runs these when the matching extension is installed.
const (
	NunchakuFluxDiTLoader      ClassType = "NunchakuFluxDiTLoader"
	MultiplySigmas             ClassType = "MultiplySigmas"
	PulidFluxModelLoader       ClassType = "PulidFluxModelLoader"
	PulidFluxInsightFaceLoader ClassType = "PulidFluxInsightFaceLoader"
	PulidFluxEvaClipLoader     ClassType = "PulidFluxEvaClipLoader"
	ApplyPulidFlux             ClassType = "ApplyPulidFlux"
	FixPulidFluxPatch          ClassType = "FixPulidFluxPatch"
	InstantIDModelLoader       ClassType = "InstantIDModelLoader"
	InstantIDFaceAnalysis      ClassType = "InstantIDFaceAnalysis"
	ApplyInstantID             ClassType = "ApplyInstantID"
	ApplyInstantIDAdvanced     ClassType = "ApplyInstantIDAdvanced"
)

// CoreClassTypes are implicitly available on every executor.
var CoreClassTypes = map[ClassType]bool{
	CheckpointLoaderSimple:  true,
	UNETLoader:              true,
	DualCLIPLoader:          true,
	CLIPLoader:              true,
	VAELoader:               true,
	LoraLoader:              true,
	ControlNetLoader:        true,
	CLIPTextEncode:          true,
	TextEncodeQwenImageEdit: true,
	ConditioningZeroOut:     true,
	ModelSamplingAuraFlow:   true,
	EmptyLatentImage:        true,
	EmptySD3LatentImage:     true,
	KSampler:                true,
	KSamplerAdvanced:        true,
	KSamplerSelect:          true,
	BasicScheduler:          true,
	SamplerCustom:           true,
	RandomNoise:             true,
	VAEDecode:               true,
	SaveImage:               true,
	LoadImage:               true,
	ImageScaleToTotalPixels: true,
}

var customClassTypes = map[ClassType]bool{
	NunchakuFluxDiTLoader:      true,
	MultiplySigmas:             true,
	PulidFluxModelLoader:       true,
	PulidFluxInsightFaceLoader: true,
	PulidFluxEvaClipLoader:     true,
	ApplyPulidFlux:             true,
	FixPulidFluxPatch:          true,
	InstantIDModelLoader:       true,
	InstantIDFaceAnalysis:      true,
	ApplyInstantID:             true,
	ApplyInstantIDAdvanced:     true,
}

// Known reports whether the opcode belongs to the closed set this module emits.
func (c ClassType) Known() bool {
	return CoreClassTypes[c] || customClassTypes[c]
}

// Core reports whether the opcode ships with every executor.
func (c ClassType) Core() bool {
	return CoreClassTypes[c]
}

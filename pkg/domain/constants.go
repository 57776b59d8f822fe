package domain

// TechniqueID names one supported generation pipeline.
type TechniqueID string

// Unknown is the detector's answer for graphs no rule recognises.
const Unknown TechniqueID = "unknown"

// Defaults applied by every builder when the caller leaves a field at its zero value.
const (
	DefaultWidth  = 1024
	DefaultHeight = 1024
)

package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventBuild  EventType = "build"
	EventDetect EventType = "detect"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// BuildEvent describes one finished build, successful or not.
type BuildEvent struct {
	EventBase
	Technique TechniqueID   `json:"technique"`
	Nodes     int           `json:"nodes"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// DetectEvent describes one classification.
type DetectEvent struct {
	EventBase
	Result   TechniqueID   `json:"result"`
	Nodes    int           `json:"nodes"`
	Duration time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for observability.
type LifecycleHooks struct {
	OnBuild  func(context.Context, *BuildEvent)
	OnDetect func(context.Context, *DetectEvent)
}

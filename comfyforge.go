package comfyforge

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/comfyforge/pkg/detect"
	"github.com/aretw0/comfyforge/pkg/domain"
	"github.com/aretw0/comfyforge/pkg/observability"
	"github.com/aretw0/comfyforge/pkg/registry"
	"github.com/aretw0/comfyforge/pkg/wire"
)

// Engine is the high-level entry point for the comfyforge library.
// It wraps the registry and the detector and reports every call through lifecycle hooks.
// An Engine is safe for concurrent use.
type Engine struct {
	registry *registry.Registry
	hooks    domain.LifecycleHooks
	metrics  *observability.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records builds and detections into the given collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithRegistry replaces the built-in technique catalog.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// New initializes an Engine. Without options it uses the built-in catalog and a
// discard logger.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.registry == nil {
		r, err := registry.New()
		if err != nil {
			return nil, err
		}
		eng.registry = r
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	hooks := []domain.LifecycleHooks{observability.LoggingHooks(eng.logger)}
	if eng.metrics != nil {
		hooks = append(hooks, eng.metrics.Hooks())
	}
	hooks = append(hooks, eng.hooks)
	eng.hooks = observability.Combine(hooks...)

	return eng, nil
}

// Build compiles the graph of a technique. Unknown ids fail with *domain.NotFoundError and
// unusable parameters with *domain.ValidationError.
func (e *Engine) Build(ctx context.Context, id domain.TechniqueID, p domain.BuildParameters) (domain.Graph, error) {
	start := e.now()
	g, err := e.registry.Build(id, p)
	e.hooks.OnBuild(ctx, &domain.BuildEvent{
		EventBase: domain.EventBase{Timestamp: start, Type: domain.EventBuild},
		Technique: id,
		Nodes:     len(g),
		Duration:  e.now().Sub(start),
		Err:       err,
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Envelope builds a graph and wraps it for submission.
func (e *Engine) Envelope(ctx context.Context, id domain.TechniqueID, p domain.BuildParameters, clientID string) (wire.Envelope, error) {
	g, err := e.Build(ctx, id, p)
	if err != nil {
		return wire.Envelope{}, err
	}
	return wire.NewEnvelopeFor(clientID, g), nil
}

// Detect classifies a graph. It never fails.
func (e *Engine) Detect(ctx context.Context, g domain.Graph) domain.DetectedResult {
	start := e.now()
	res := detect.Detect(g)
	e.hooks.OnDetect(ctx, &domain.DetectEvent{
		EventBase: domain.EventBase{Timestamp: start, Type: domain.EventDetect},
		Result:    res.Type,
		Nodes:     len(g),
		Duration:  e.now().Sub(start),
	})
	return res
}

// DetectJSON classifies a wire payload. Payloads that are not a JSON object are unknown.
func (e *Engine) DetectJSON(ctx context.Context, data []byte) domain.DetectedResult {
	g, err := domain.ParseGraph(data)
	if err != nil {
		e.logger.DebugContext(ctx, "payload is not a graph", "error", err)
	}
	return e.Detect(ctx, g)
}

// Techniques lists the catalog in declaration order.
func (e *Engine) Techniques() []registry.Definition {
	return e.registry.List()
}

// Technique returns one catalog entry.
func (e *Engine) Technique(id domain.TechniqueID) (registry.Definition, error) {
	return e.registry.Get(id)
}

// CheckCompatibility reports what an executor lacks to run a technique.
func (e *Engine) CheckCompatibility(id domain.TechniqueID, available []domain.ClassType) (registry.Compatibility, error) {
	return e.registry.CheckCompatibility(id, available)
}

// Recommend picks the best technique an executor can run.
func (e *Engine) Recommend(available []domain.ClassType) domain.TechniqueID {
	return e.registry.Recommend(available)
}

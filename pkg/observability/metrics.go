// Package observability turns build and detect lifecycle events into Prometheus metrics
// and structured log lines.
package observability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/comfyforge/pkg/domain"
)

const namespace = "comfyforge"

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics holds the collectors. They are safe for concurrent use.
type Metrics struct {
	Builds        *prometheus.CounterVec
	BuildDuration *prometheus.HistogramVec
	GraphNodes    *prometheus.HistogramVec
	Detections    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to keep the default registry clean.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Builds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "builds_total",
				Help:      "Graph builds by technique and outcome",
			},
			[]string{"technique", "outcome"},
		),
		BuildDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "build_duration_seconds",
				Help:      "Time spent building graphs",
				Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
			},
			[]string{"technique"},
		),
		GraphNodes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_nodes",
				Help:      "Node count of built graphs",
				Buckets:   prometheus.LinearBuckets(5, 5, 6),
			},
			[]string{"technique"},
		),
		Detections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "detections_total",
				Help:      "Graph classifications by detected technique",
			},
			[]string{"result"},
		),
	}
}

// Hooks records every event into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnBuild: func(_ context.Context, e *domain.BuildEvent) {
			outcome := Outcome(e.Err)
			technique := string(e.Technique)
			if outcome == OutcomeNotFound {
				// Caller-supplied ids must not mint new series.
				technique = string(domain.Unknown)
			}
			m.Builds.WithLabelValues(technique, outcome).Inc()
			if outcome != OutcomeOK {
				return
			}
			m.BuildDuration.WithLabelValues(string(e.Technique)).Observe(e.Duration.Seconds())
			m.GraphNodes.WithLabelValues(string(e.Technique)).Observe(float64(e.Nodes))
		},
		OnDetect: func(_ context.Context, e *domain.DetectEvent) {
			m.Detections.WithLabelValues(string(e.Result)).Inc()
		},
	}
}

// Outcome maps a build error to its label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrInvalidParameters):
		return OutcomeInvalid
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	}
	return OutcomeError
}

// LoggingHooks writes one line per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnBuild: func(ctx context.Context, e *domain.BuildEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "build failed",
					"technique", e.Technique,
					"error", e.Err,
				)
				return
			}
			logger.InfoContext(ctx, "graph built",
				"technique", e.Technique,
				"nodes", e.Nodes,
				"duration", e.Duration,
			)
		},
		OnDetect: func(ctx context.Context, e *domain.DetectEvent) {
			logger.InfoContext(ctx, "graph classified",
				"result", e.Result,
				"nodes", e.Nodes,
			)
		},
	}
}

// Combine fans every event out to all hooks, in order. Nil callbacks are skipped.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnBuild: func(ctx context.Context, e *domain.BuildEvent) {
			for _, h := range hooks {
				if h.OnBuild != nil {
					h.OnBuild(ctx, e)
				}
			}
		},
		OnDetect: func(ctx context.Context, e *domain.DetectEvent) {
			for _, h := range hooks {
				if h.OnDetect != nil {
					h.OnDetect(ctx, e)
				}
			}
		},
	}
}

// Package dimetrics exports Prometheus metrics for service construction.
package dimetrics

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sectrean/inject-kit"
	"github.com/sectrean/inject-kit/internal/errors"
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

// Hook is a [di.Hook] that counts and times constructions.
//
// Metrics:
//   - di_constructions_total{lifetime,result}
//   - di_construction_duration_seconds{lifetime}
type Hook struct {
	constructions *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

var _ di.Hook = (*Hook)(nil)

// NewHook creates a [Hook] and registers its metrics with reg.
//
// If the metrics are already registered with reg, the existing collectors are reused so
// several collections can share one registry.
func NewHook(reg prometheus.Registerer) (*Hook, error) {
	constructions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "di",
			Name:      "constructions_total",
			Help:      "Total number of service constructions.",
		},
		[]string{"lifetime", "result"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "di",
			Name:      "construction_duration_seconds",
			Help:      "Duration of service constructions in seconds.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"lifetime"},
	)

	var err error
	if constructions, err = register(reg, constructions); err != nil {
		return nil, errors.Wrap(err, "dimetrics.NewHook")
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, errors.Wrap(err, "dimetrics.NewHook")
	}

	return &Hook{
		constructions: constructions,
		duration:      duration,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

func (h *Hook) BeforeConstruct(ctx context.Context, _ di.Event) context.Context {
	return ctx
}

func (h *Hook) AfterConstruct(_ context.Context, e di.Event, err error) {
	lifetime := strings.ToLower(e.Lifetime.String())

	result := resultSuccess
	if err != nil {
		result = resultError
	}

	h.constructions.WithLabelValues(lifetime, result).Inc()
	h.duration.WithLabelValues(lifetime).Observe(e.Duration.Seconds())
}

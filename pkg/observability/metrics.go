package observability

import (
	"context"

	"github.com/aretw0/simevents/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "simevents"

// Metrics holds the Prometheus collectors fed by the block lifecycle hooks.
type Metrics struct {
	Steps       *prometheus.CounterVec
	Records     *prometheus.CounterVec
	Activations *prometheus.CounterVec
	DrainSize   prometheus.Histogram
	Phase       *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg skips registration (useful for tests that read collectors directly).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_total",
				Help:      "Total number of execution steps, by result.",
			},
			[]string{"result"},
		),
		Records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Total number of records drained from the connection.",
			},
			[]string{"kind", "outcome"},
		),
		Activations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "channel_activations_total",
				Help:      "Total number of event records applied to each output channel.",
			},
			[]string{"channel"},
		),
		DrainSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "drain_records",
				Help:      "Number of records drained per step.",
				Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
			},
		),
		Phase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "phase",
				Help:      "Lifecycle phase per block (0 uninitialized, 1 connected, 2 terminated).",
			},
			[]string{"block_id"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Steps, m.Records, m.Activations, m.DrainSize, m.Phase)
	}
	return m
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnInitialize: func(_ context.Context, e *domain.LifecycleEvent) {
			m.Phase.WithLabelValues(e.BlockID).Set(float64(e.Phase))
		},
		OnRecord: func(_ context.Context, e *domain.DispatchEvent) {
			outcome := "ignored"
			if e.Applied {
				outcome = "applied"
				if rule, ok := domain.RuleFor(e.Record.EventID); ok {
					m.Activations.WithLabelValues(rule.Channel.String()).Inc()
				}
			}
			m.Records.WithLabelValues(e.Record.Kind.String(), outcome).Inc()
		},
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			if e.Err != nil {
				m.Steps.WithLabelValues("error").Inc()
				return
			}
			m.Steps.WithLabelValues("ok").Inc()
			m.DrainSize.Observe(float64(e.Records))
		},
		OnTerminate: func(_ context.Context, e *domain.LifecycleEvent) {
			m.Phase.WithLabelValues(e.BlockID).Set(float64(e.Phase))
		},
	}
}

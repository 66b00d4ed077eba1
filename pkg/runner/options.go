package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/simevents/pkg/ports"
)

// DefaultPeriod is the default step period.
const DefaultPeriod = 100 * time.Millisecond

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithPeriod sets the step period. Non-positive values keep the default.
func WithPeriod(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.Period = d
		}
	}
}

// WithPublisher configures where step outputs are written.
func WithPublisher(p Publisher) Option {
	return func(r *Runner) {
		r.Publisher = p
	}
}

// WithSignals replaces the default in-memory output signals.
func WithSignals(signals ports.SignalResolver) Option {
	return func(r *Runner) {
		r.Signals = signals
	}
}

// WithMaxSteps stops the loop after n steps. 0 runs until the context is cancelled.
func WithMaxSteps(n uint64) Option {
	return func(r *Runner) {
		r.MaxSteps = n
	}
}

// WithChangesOnly publishes a step only when its outputs differ from the previous step.
func WithChangesOnly(enabled bool) Option {
	return func(r *Runner) {
		r.ChangesOnly = enabled
	}
}

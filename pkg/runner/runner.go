package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/simevents/internal/logging"
	"github.com/aretw0/simevents/pkg/adapters/memory"
	"github.com/aretw0/simevents/pkg/domain"
	"github.com/aretw0/simevents/pkg/ports"
)

// Block is the lifecycle the runner drives.
type Block interface {
	ID() string
	Initialize(ctx context.Context, params ports.ParameterStore) error
	Step(ctx context.Context, signals ports.SignalResolver) error
	Terminate(ctx context.Context) error
	Last() domain.Outputs
}

// Runner steps a block on a fixed period until the context is cancelled.
type Runner struct {
	// Logger is used for loop diagnostics. If nil, a no-op logger is used.
	Logger *slog.Logger

	// Period between steps.
	Period time.Duration

	// Publisher receives the outputs of every successful step. If nil, outputs are discarded.
	Publisher Publisher

	// Signals are the output handles passed to Step. Defaults to memory.NewSignals.
	Signals ports.SignalResolver

	// MaxSteps bounds the number of steps attempted. 0 means unbounded.
	MaxSteps uint64

	// ChangesOnly skips publishing steps whose outputs equal the previous step's.
	ChangesOnly bool
}

// NewRunner creates a runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Period: DefaultPeriod,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.Signals == nil {
		r.Signals = memory.NewSignals(domain.ChannelCount)
	}
	return r
}

// Run initializes the block, steps it every Period and terminates it on exit.
// An initialization failure is returned as is. Step failures are logged and the loop
// continues. Cancellation of ctx is a clean exit.
func (r *Runner) Run(ctx context.Context, block Block, params ports.ParameterStore) (err error) {
	if err := block.Initialize(ctx, params); err != nil {
		return fmt.Errorf("initialize block: %w", err)
	}
	defer func() {
		// The caller's context may already be cancelled; termination must still run.
		if terr := block.Terminate(context.WithoutCancel(ctx)); terr != nil {
			r.Logger.Warn("terminate failed", "block_id", block.ID(), "error", terr)
			if err == nil {
				err = terr
			}
		}
	}()

	ticker := time.NewTicker(r.Period)
	defer ticker.Stop()

	var (
		steps    uint64
		failures uint64
		previous domain.Outputs
		first    = true
	)
	r.Logger.Info("runner started", "block_id", block.ID(), "period", r.Period)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("runner stopped", "steps", steps, "failures", failures)
			return nil
		case <-ticker.C:
		}

		steps++
		if serr := block.Step(ctx, r.Signals); serr != nil {
			failures++
			if errors.Is(serr, domain.ErrNotConnected) {
				return fmt.Errorf("step %d: %w", steps, serr)
			}
			r.Logger.Error("step failed", "step", steps, "error", serr)
		} else if r.Publisher != nil {
			out := block.Last()
			if !r.ChangesOnly || first || out != previous {
				if perr := r.Publisher.Publish(ctx, steps, out); perr != nil {
					r.Logger.Warn("publish failed", "step", steps, "error", perr)
				}
			}
			previous, first = out, false
		}

		if r.MaxSteps > 0 && steps >= r.MaxSteps {
			r.Logger.Info("runner reached max steps", "steps", steps, "failures", failures)
			return nil
		}
	}
}

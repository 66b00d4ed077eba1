package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/simevents/internal/logging"
	"github.com/aretw0/simevents/pkg/domain"
	"github.com/aretw0/simevents/pkg/ports"
	"github.com/aretw0/simevents/pkg/registry"
	"github.com/google/uuid"
)

// Block is the event source block: it owns one connection, one registry and one accumulator.
// Initialize, Step and Terminate must be called from a single goroutine.
type Block struct {
	id       string
	source   ports.EventSource
	registry *registry.Registry
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	pump     *Pump

	params domain.Params
	conn   *handle
	acc    domain.Accumulator
	steps  uint64

	mu    sync.RWMutex // guards phase and last for concurrent readers
	phase domain.Phase
	last  domain.Outputs
}

// BlockOption configures a Block.
type BlockOption func(*Block)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) BlockOption {
	return func(b *Block) {
		b.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) BlockOption {
	return func(b *Block) {
		b.hooks = hooks
	}
}

// WithRegistry replaces the default event registry.
func WithRegistry(r *registry.Registry) BlockOption {
	return func(b *Block) {
		b.registry = r
	}
}

// WithBlockID sets the instance ID used in logs and hook events.
func WithBlockID(id string) BlockOption {
	return func(b *Block) {
		b.id = id
	}
}

// NewBlock creates an uninitialized block reading events from source.
func NewBlock(source ports.EventSource, opts ...BlockOption) *Block {
	b := &Block{
		source: source,
		phase:  domain.PhaseUninitialized,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.id == "" {
		b.id = uuid.NewString()
	}
	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if b.registry == nil {
		b.registry = registry.NewRegistry()
	}
	b.logger = b.logger.With("block_id", b.id)
	b.pump = NewPump(b.id, b.logger, b.hooks)
	return b
}

// ID returns the instance ID.
func (b *Block) ID() string { return b.id }

// Params returns the parameters decoded at initialization.
func (b *Block) Params() domain.Params { return b.params }

// Bindings returns the event bindings the block registers.
func (b *Block) Bindings() []domain.Binding { return b.registry.Bindings() }

// Phase returns the lifecycle phase. Safe for concurrent use.
func (b *Block) Phase() domain.Phase {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.phase
}

// Last returns the outputs written by the last successful step. Safe for concurrent use.
func (b *Block) Last() domain.Outputs {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last
}

func (b *Block) setPhase(p domain.Phase) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.phase = p
}

// Initialize reads the parameters, opens the connection and registers every event.
// On failure the connection, if any, is released and the block stays uninitialized.
func (b *Block) Initialize(ctx context.Context, store ports.ParameterStore) (err error) {
	if phase := b.Phase(); phase != domain.PhaseUninitialized {
		return fmt.Errorf("%w: initialize while %s", domain.ErrInvalidTransition, phase)
	}

	defer func() {
		if b.hooks.OnInitialize != nil {
			b.hooks.OnInitialize(ctx, &domain.LifecycleEvent{
				EventBase:      b.eventBase(domain.EventInitialize),
				ConnectionName: b.params.ConnectionName,
				Phase:          b.Phase(),
				Err:            err,
			})
		}
	}()

	params, err := DecodeParams(store)
	if err != nil {
		b.logger.Error("Failed to parse parameters", "error", err)
		return err
	}
	b.params = params

	conn, err := b.source.Open(ctx, params.ConnectionName)
	if err != nil {
		b.logger.Error("Failed to connect", "connection", params.ConnectionName, "error", err)
		return fmt.Errorf("%w: open %q: %w", domain.ErrConnection, params.ConnectionName, err)
	}
	h := acquire(conn)

	if err := b.registry.RegisterAll(ctx, conn); err != nil {
		b.logger.Error("Failed to initialize events", "connection", params.ConnectionName, "error", err)
		if cerr := h.release(); cerr != nil {
			b.logger.Warn("Failed to release connection", "error", cerr)
		}
		return err
	}

	b.conn = h
	b.acc.Reset()
	b.setPhase(domain.PhaseConnected)
	b.logger.Info("block connected",
		"connection", params.ConnectionName,
		"configuration_index", params.ConfigurationIndex,
		"bindings", len(b.registry.Bindings()),
	)
	return nil
}

// Step drains pending events, writes every channel to its output signal and resets the
// accumulator. If any output handle is unresolvable, nothing is drained or written.
func (b *Block) Step(ctx context.Context, signals ports.SignalResolver) (err error) {
	if phase := b.Phase(); phase != domain.PhaseConnected {
		return fmt.Errorf("%w: step while %s", domain.ErrNotConnected, phase)
	}

	var stats DrainStats
	defer func() {
		if b.hooks.OnStep != nil {
			b.hooks.OnStep(ctx, &domain.StepEvent{
				EventBase: b.eventBase(domain.EventStep),
				Step:      b.steps,
				Records:   stats.Records,
				Outputs:   b.Last(),
				Err:       err,
			})
		}
	}()

	handles := make([]ports.OutputSignal, domain.ChannelCount)
	for i := range handles {
		h, ok := signals.OutputSignal(i)
		if !ok {
			b.logger.Error("Signals not valid", "index", i)
			return &domain.SignalError{Index: i}
		}
		handles[i] = h
	}

	stats = b.pump.Drain(ctx, b.conn.Conn(), &b.acc)

	values := b.acc.Values()
	for i, h := range handles {
		h.Set(0, values[i])
	}
	b.acc.Reset()
	b.steps++

	b.mu.Lock()
	b.last = values
	b.mu.Unlock()

	if stats.Records > 0 {
		b.logger.Debug("step",
			"step", b.steps,
			"records", stats.Records,
			"applied", stats.Applied,
			"ignored", stats.Ignored,
		)
	}
	return nil
}

// Terminate releases the connection and moves the block to its terminal phase.
// It is safe to call when the connection was never opened, and more than once.
func (b *Block) Terminate(ctx context.Context) error {
	if b.Phase() == domain.PhaseTerminated {
		return nil
	}

	var err error
	if b.conn != nil {
		err = b.conn.release()
		b.conn = nil
	}
	b.setPhase(domain.PhaseTerminated)

	if b.hooks.OnTerminate != nil {
		b.hooks.OnTerminate(ctx, &domain.LifecycleEvent{
			EventBase:      b.eventBase(domain.EventTerminate),
			ConnectionName: b.params.ConnectionName,
			Phase:          domain.PhaseTerminated,
			Err:            err,
		})
	}

	if err != nil {
		b.logger.Warn("Failed to close connection", "error", err)
		return fmt.Errorf("close connection: %w", err)
	}
	b.logger.Info("block terminated", "steps", b.steps)
	return nil
}

func (b *Block) eventBase(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		BlockID:   b.id,
	}
}

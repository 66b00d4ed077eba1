package simevents

import (
	"context"
	"log/slog"

	"github.com/aretw0/simevents/internal/runtime"
	"github.com/aretw0/simevents/pkg/domain"
	"github.com/aretw0/simevents/pkg/ports"
	"github.com/aretw0/simevents/pkg/registry"
)

// Version is the library version reported by the CLI and the HTTP adapter.
const Version = "0.3.0"

// Block is the high-level entry point for the simevents library.
// It wraps the internal runtime and provides a simplified API for engines embedding the block.
type Block struct {
	runtime      *runtime.Block
	registry     *registry.Registry
	registryOpts []registry.Option
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	id           string
}

// Option defines a functional option for configuring the Block.
type Option func(*Block)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Block) {
		b.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the block.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Block) {
		b.logger = logger
	}
}

// WithBlockID sets the instance ID (default: a random UUID).
func WithBlockID(id string) Option {
	return func(b *Block) {
		b.id = id
	}
}

// WithBindings replaces the static event bindings.
func WithBindings(bindings []domain.Binding) Option {
	return func(b *Block) {
		b.registryOpts = append(b.registryOpts, registry.WithBindings(bindings))
	}
}

// WithGroup sets the notification group.
func WithGroup(group domain.GroupID) Option {
	return func(b *Block) {
		b.registryOpts = append(b.registryOpts, registry.WithGroup(group))
	}
}

// WithPriority sets the notification group priority.
func WithPriority(p domain.Priority) Option {
	return func(b *Block) {
		b.registryOpts = append(b.registryOpts, registry.WithPriority(p))
	}
}

// New creates an uninitialized block reading events from source.
func New(source ports.EventSource, opts ...Option) *Block {
	b := &Block{}
	for _, opt := range opts {
		opt(b)
	}
	b.registry = registry.NewRegistry(b.registryOpts...)

	runtimeOpts := []runtime.BlockOption{
		runtime.WithRegistry(b.registry),
		runtime.WithLifecycleHooks(b.hooks),
	}
	if b.logger != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithLogger(b.logger))
	}
	if b.id != "" {
		runtimeOpts = append(runtimeOpts, runtime.WithBlockID(b.id))
	}
	b.runtime = runtime.NewBlock(source, runtimeOpts...)
	return b
}

// Initialize reads the parameters, opens the connection and registers the events.
func (b *Block) Initialize(ctx context.Context, params ports.ParameterStore) error {
	return b.runtime.Initialize(ctx, params)
}

// Step drains pending events into the output signals and resets the accumulator.
func (b *Block) Step(ctx context.Context, signals ports.SignalResolver) error {
	return b.runtime.Step(ctx, signals)
}

// Terminate releases the connection.
func (b *Block) Terminate(ctx context.Context) error {
	return b.runtime.Terminate(ctx)
}

// ID returns the instance ID.
func (b *Block) ID() string { return b.runtime.ID() }

// Phase returns the lifecycle phase.
func (b *Block) Phase() domain.Phase { return b.runtime.Phase() }

// Last returns the outputs of the last successful step.
func (b *Block) Last() domain.Outputs { return b.runtime.Last() }

// Bindings returns the event bindings registered by the block.
func (b *Block) Bindings() []domain.Binding { return b.registry.Bindings() }

// Ports returns the declared port layout: no inputs, seven scalar double outputs.
func (b *Block) Ports() domain.PortsInfo { return domain.DeclaredPorts() }

// Parameters returns the declared parameters.
func (b *Block) Parameters() []domain.ParameterMetadata { return domain.DeclaredParameters() }

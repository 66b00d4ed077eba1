package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/simevents/pkg/domain"
	"github.com/aretw0/simevents/pkg/ports"
	"go.uber.org/multierr"
)

// Registry holds the event bindings a block subscribes to and registers them
// against a connection.
type Registry struct {
	mu       sync.RWMutex
	bindings []domain.Binding
	group    domain.GroupID
	priority domain.Priority
}

// Option configures the Registry.
type Option func(*Registry)

// WithBindings replaces the default bindings.
func WithBindings(bindings []domain.Binding) Option {
	return func(r *Registry) {
		r.bindings = append([]domain.Binding(nil), bindings...)
	}
}

// WithGroup sets the notification group (default: domain.DefaultGroup).
func WithGroup(group domain.GroupID) Option {
	return func(r *Registry) {
		r.group = group
	}
}

// WithPriority sets the group priority (default: domain.PriorityHighestMaskable).
func WithPriority(p domain.Priority) Option {
	return func(r *Registry) {
		r.priority = p
	}
}

// NewRegistry creates a registry with the static bindings.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		bindings: domain.DefaultBindings(),
		group:    domain.DefaultGroup,
		priority: domain.PriorityHighestMaskable,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bindings returns a copy of the registered bindings.
func (r *Registry) Bindings() []domain.Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Binding(nil), r.bindings...)
}

// Group returns the notification group.
func (r *Registry) Group() domain.GroupID { return r.group }

// Priority returns the group priority.
func (r *Registry) Priority() domain.Priority { return r.priority }

// RegisterAll maps every binding, adds it to the group and then sets the group priority.
// Every call is attempted; failures are combined into a single error matching
// domain.ErrConnection. Nothing is rolled back.
func (r *Registry) RegisterAll(ctx context.Context, conn ports.Connection) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs error
	for _, b := range r.bindings {
		errs = multierr.Append(errs, register(ctx, conn, r.group, b))
	}

	if err := conn.SetGroupPriority(ctx, r.group, r.priority); err != nil {
		errs = multierr.Append(errs, &domain.RegistrationError{Op: "priority", Err: err})
	}

	if errs != nil {
		return fmt.Errorf("failed to initialize events: %w", errs)
	}
	return nil
}

func register(ctx context.Context, conn ports.Connection, group domain.GroupID, b domain.Binding) error {
	if err := conn.MapEvent(ctx, b.ID, b.Name); err != nil {
		return &domain.RegistrationError{Op: "map", EventID: b.ID, Name: b.Name, Err: err}
	}
	if err := conn.AddToGroup(ctx, group, b.ID, b.Masked); err != nil {
		return &domain.RegistrationError{Op: "group", EventID: b.ID, Name: b.Name, Err: err}
	}
	return nil
}

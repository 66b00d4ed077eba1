package ports

import (
	"context"

	"github.com/aretw0/simevents/pkg/domain"
)

// EventSource opens connections to an external simulation.
type EventSource interface {
	// Open establishes a named connection.
	// A refused connection must be reported as an error; there is no retry.
	Open(ctx context.Context, name string) (Connection, error)
}

// Connection is an open handle on the external source.
// It is owned by a single block and must not be used after Close.
type Connection interface {
	// MapEvent associates a local event index with an external event name.
	MapEvent(ctx context.Context, id domain.EventID, name string) error

	// AddToGroup attaches a mapped event to a notification group.
	// Masked events have their default simulator handling suppressed.
	AddToGroup(ctx context.Context, group domain.GroupID, id domain.EventID, masked bool) error

	// SetGroupPriority sets the notification priority of a group.
	SetGroupPriority(ctx context.Context, group domain.GroupID, priority domain.Priority) error

	// Next returns the next already-queued record without waiting.
	// It returns domain.ErrNoPendingRecord when the queue is empty.
	Next(ctx context.Context) (domain.Record, error)

	// Close releases the connection. Calling it more than once is safe.
	Close() error
}

// Emitter pushes named events into a source, as the external simulation would.
// Only connections that mapped the event and added it to a group receive it.
type Emitter interface {
	Emit(ctx context.Context, connection, event string, data uint32) error
}

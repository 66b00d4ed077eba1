package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/simevents/pkg/domain"
	"github.com/aretw0/simevents/pkg/ports"
)

var (
	// ErrClosed is returned by a connection after Close.
	ErrClosed = errors.New("connection closed")
	// ErrUnknownEvent is returned when the simulator refuses an event name.
	ErrUnknownEvent = errors.New("unknown event name")
)

// Source implements ports.EventSource and ports.Emitter in memory.
// It behaves like a minimal simulator and is safe for concurrent use.
type Source struct {
	mu    sync.Mutex
	conns map[string][]*Conn

	openErr     error
	priorityErr error
	refused     map[string]struct{}
}

// Option configures the Source.
type Option func(*Source)

// WithOpenError makes every Open call fail with err.
func WithOpenError(err error) Option {
	return func(s *Source) {
		s.openErr = err
	}
}

// WithPriorityError makes SetGroupPriority fail with err.
func WithPriorityError(err error) Option {
	return func(s *Source) {
		s.priorityErr = err
	}
}

// WithRefusedEvents makes MapEvent fail for the given external names.
func WithRefusedEvents(names ...string) Option {
	return func(s *Source) {
		for _, n := range names {
			s.refused[n] = struct{}{}
		}
	}
}

// NewSource creates a new in-memory simulator.
func NewSource(opts ...Option) *Source {
	s := &Source{
		conns:   make(map[string][]*Conn),
		refused: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a connection with the given name.
func (s *Source) Open(ctx context.Context, name string) (ports.Connection, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	if name == "" {
		return nil, fmt.Errorf("empty connection name")
	}

	c := &Conn{
		source:     s,
		name:       name,
		names:      make(map[string]domain.EventID),
		groups:     make(map[domain.EventID]membership),
		priorities: make(map[domain.GroupID]domain.Priority),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[name] = append(s.conns[name], c)
	return c, nil
}

// Emit delivers a named event to every open connection with that name that subscribed to it.
func (s *Source) Emit(ctx context.Context, connection, event string, data uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns[connection] {
		c.deliver(event, data)
	}
	return nil
}

// Inject queues a raw record on every open connection with that name, bypassing subscriptions.
// It is used to simulate protocol noise.
func (s *Source) Inject(connection string, rec domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns[connection] {
		c.push(rec)
	}
}

// Connection returns the most recent open connection with the given name.
func (s *Source) Connection(name string) (*Conn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.conns[name]
	if len(list) == 0 {
		return nil, false
	}
	return list[len(list)-1], true
}

// OpenCount returns the number of open connections with the given name.
func (s *Source) OpenCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns[name])
}

func (s *Source) remove(c *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.conns[c.name]
	for i, other := range list {
		if other == c {
			s.conns[c.name] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(s.conns[c.name]) == 0 {
		delete(s.conns, c.name)
	}
}

type membership struct {
	group  domain.GroupID
	masked bool
}

// Conn is an in-memory connection. It implements ports.Connection.
type Conn struct {
	source *Source
	name   string

	mu         sync.Mutex
	names      map[string]domain.EventID
	groups     map[domain.EventID]membership
	priorities map[domain.GroupID]domain.Priority
	queue      []domain.Record
	closed     bool
}

// MapEvent associates a local index with an external name.
func (c *Conn) MapEvent(ctx context.Context, id domain.EventID, name string) error {
	if _, refused := c.source.refused[name]; refused {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.names[name] = id
	return nil
}

// AddToGroup attaches a mapped event to a notification group.
func (c *Conn) AddToGroup(ctx context.Context, group domain.GroupID, id domain.EventID, masked bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.groups[id] = membership{group: group, masked: masked}
	return nil
}

// SetGroupPriority records the group priority.
func (c *Conn) SetGroupPriority(ctx context.Context, group domain.GroupID, priority domain.Priority) error {
	if c.source.priorityErr != nil {
		return c.source.priorityErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.priorities[group] = priority
	return nil
}

// Next pops the oldest queued record.
func (c *Conn) Next(ctx context.Context) (domain.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.Record{}, ErrClosed
	}
	if len(c.queue) == 0 {
		return domain.Record{}, domain.ErrNoPendingRecord
	}
	rec := c.queue[0]
	c.queue = c.queue[1:]
	return rec, nil
}

// Close detaches the connection from the source. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.queue = nil
	c.mu.Unlock()

	c.source.remove(c)
	return nil
}

// Subscriptions returns the bindings that are both mapped and grouped.
func (c *Conn) Subscriptions() []domain.Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Binding, 0, len(c.names))
	for name, id := range c.names {
		if m, ok := c.groups[id]; ok {
			out = append(out, domain.Binding{ID: id, Name: name, Masked: m.masked})
		}
	}
	return out
}

// Priority returns the priority recorded for a group.
func (c *Conn) Priority(group domain.GroupID) (domain.Priority, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.priorities[group]
	return p, ok
}

// Pending returns the number of queued records.
func (c *Conn) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Conn) deliver(event string, data uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	id, ok := c.names[event]
	if !ok {
		return
	}
	m, ok := c.groups[id]
	if !ok {
		return
	}
	c.queue = append(c.queue, domain.Record{Kind: domain.RecordEvent, EventID: id, Group: m.group, Data: data})
}

func (c *Conn) push(rec domain.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.queue = append(c.queue, rec)
}

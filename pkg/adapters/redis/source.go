package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/aretw0/simevents/pkg/domain"
	"github.com/aretw0/simevents/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

var (
	// ErrClosed is returned by a connection after Close.
	ErrClosed = errors.New("connection closed")
	// ErrUnknownEvent is returned when the catalog does not contain an event name.
	ErrUnknownEvent = errors.New("unknown event name")
)

// DefaultBatchSize is the number of stream entries fetched per XREAD.
const DefaultBatchSize = 64

// Source implements ports.EventSource and ports.Emitter on Redis Streams.
//
// Each connection name owns a stream at <prefix><name>:stream. The simulator side (or Emit)
// appends entries with an "event" and a "data" field; entries with a "kind" field other than
// "event" are forwarded as non-event records. Registrations are stored per opened connection
// under <prefix><name>:<instance>:, and live instances are listed in <prefix><name>:instances,
// so several blocks may share a connection name.
type Source struct {
	client    *backend.Client
	prefix    string
	batchSize int64
	maxLen    int64
}

// Option configures the Source.
type Option func(*Source)

// WithPrefix sets the key prefix (default "simevents:").
func WithPrefix(prefix string) Option {
	return func(s *Source) {
		s.prefix = prefix
	}
}

// WithBatchSize sets how many entries a single XREAD may return.
func WithBatchSize(n int64) Option {
	return func(s *Source) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithMaxLen trims streams to approximately n entries on Emit. 0 disables trimming.
func WithMaxLen(n int64) Option {
	return func(s *Source) {
		s.maxLen = n
	}
}

// New creates a new Redis source with options.
func New(address, password string, db int, opts ...Option) *Source {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis source from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Source {
	s := &Source{
		client:    client,
		prefix:    "simevents:",
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) key(connection, suffix string) string {
	return s.prefix + connection + ":" + suffix
}

func (s *Source) catalogKey() string {
	return s.prefix + "catalog"
}

// Open pings the server and positions the connection after the last existing stream entry,
// so only events emitted from now on are delivered.
func (s *Source) Open(ctx context.Context, name string) (ports.Connection, error) {
	if name == "" {
		return nil, fmt.Errorf("empty connection name")
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}

	stream := s.key(name, "stream")
	lastID := "0-0"
	msgs, err := s.client.XRevRangeN(ctx, stream, "+", "-", 1).Result()
	if err != nil && err != backend.Nil {
		return nil, fmt.Errorf("failed to read stream tail: %w", err)
	}
	if len(msgs) > 0 {
		lastID = msgs[0].ID
	}

	instance := uuid.NewString()
	if err := s.client.SAdd(ctx, s.key(name, "instances"), instance).Err(); err != nil {
		return nil, fmt.Errorf("failed to register connection: %w", err)
	}

	return &Conn{
		source:   s,
		name:     name,
		instance: instance,
		stream:   stream,
		lastID:   lastID,
		names:  make(map[string]domain.EventID),
		groups: make(map[domain.EventID]domain.GroupID),
	}, nil
}

// Emit appends a named event to the connection's stream.
func (s *Source) Emit(ctx context.Context, connection, event string, data uint32) error {
	return s.add(ctx, connection, map[string]any{"event": event, "data": data})
}

// EmitKind appends a non-event record of the given kind.
func (s *Source) EmitKind(ctx context.Context, connection string, kind domain.RecordKind) error {
	return s.add(ctx, connection, map[string]any{"kind": kind.String()})
}

func (s *Source) add(ctx context.Context, connection string, values map[string]any) error {
	args := &backend.XAddArgs{
		Stream: s.key(connection, "stream"),
		Values: values,
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to append to stream: %w", err)
	}
	return nil
}

// RegisterCatalog adds known event names. Once the catalog is non-empty, MapEvent refuses
// names outside it.
func (s *Source) RegisterCatalog(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	members := make([]any, len(names))
	for i, n := range names {
		members[i] = n
	}
	return s.client.SAdd(ctx, s.catalogKey(), members...).Err()
}

// Close closes the redis client.
func (s *Source) Close() error {
	return s.client.Close()
}

// Conn is a Redis-backed connection. It implements ports.Connection.
type Conn struct {
	source   *Source
	name     string
	instance string
	stream   string

	mu      sync.Mutex
	lastID  string
	names   map[string]domain.EventID
	groups  map[domain.EventID]domain.GroupID
	pending []domain.Record
	closed  bool
}

// Instance returns the identifier of this connection among those sharing its name.
func (c *Conn) Instance() string { return c.instance }

func (c *Conn) key(suffix string) string {
	return c.source.key(c.name, c.instance+":"+suffix)
}

// MapEvent records the name mapping locally and in <prefix><name>:<instance>:events.
func (c *Conn) MapEvent(ctx context.Context, id domain.EventID, name string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	client := c.source.client

	size, err := client.SCard(ctx, c.source.catalogKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	if size > 0 {
		known, err := client.SIsMember(ctx, c.source.catalogKey(), name).Result()
		if err != nil {
			return fmt.Errorf("failed to read catalog: %w", err)
		}
		if !known {
			return fmt.Errorf("%w: %s", ErrUnknownEvent, name)
		}
	}

	if err := client.HSet(ctx, c.key("events"), name, uint32(id)).Err(); err != nil {
		return fmt.Errorf("failed to map event: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[name] = id
	return nil
}

// AddToGroup records group membership locally and in <prefix><name>:<instance>:group:<group>.
func (c *Conn) AddToGroup(ctx context.Context, group domain.GroupID, id domain.EventID, masked bool) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	key := c.key("group:" + strconv.FormatUint(uint64(group), 10))
	if err := c.source.client.HSet(ctx, key, strconv.FormatUint(uint64(id), 10), masked).Err(); err != nil {
		return fmt.Errorf("failed to add event to group: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[id] = group
	return nil
}

// SetGroupPriority stores the priority in <prefix><name>:<instance>:priority.
func (c *Conn) SetGroupPriority(ctx context.Context, group domain.GroupID, priority domain.Priority) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	field := strconv.FormatUint(uint64(group), 10)
	if err := c.source.client.HSet(ctx, c.key("priority"), field, uint32(priority)).Err(); err != nil {
		return fmt.Errorf("failed to set group priority: %w", err)
	}
	return nil
}

// Next returns the next subscribed record. It issues a non-blocking XREAD when the local
// batch is exhausted.
func (c *Conn) Next(ctx context.Context) (domain.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.Record{}, ErrClosed
	}

	for len(c.pending) == 0 {
		fetched, err := c.fetch(ctx)
		if err != nil {
			return domain.Record{}, err
		}
		if fetched == 0 {
			return domain.Record{}, domain.ErrNoPendingRecord
		}
	}

	rec := c.pending[0]
	c.pending = c.pending[1:]
	return rec, nil
}

// fetch reads one batch past lastID and queues the records this connection subscribed to.
// It returns the number of stream entries consumed, which may exceed the number queued.
func (c *Conn) fetch(ctx context.Context) (int, error) {
	streams, err := c.source.client.XRead(ctx, &backend.XReadArgs{
		Streams: []string{c.stream, c.lastID},
		Count:   c.source.batchSize,
		Block:   -1, // never block
	}).Result()
	if err == backend.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stream: %w", err)
	}

	consumed := 0
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			consumed++
			c.lastID = msg.ID
			if rec, ok := c.translate(msg.Values); ok {
				c.pending = append(c.pending, rec)
			}
		}
	}
	return consumed, nil
}

func (c *Conn) translate(values map[string]any) (domain.Record, bool) {
	if kind, ok := values["kind"].(string); ok && kind != domain.RecordEvent.String() {
		return domain.Record{Kind: domain.ParseRecordKind(kind)}, true
	}

	name, _ := values["event"].(string)
	id, ok := c.names[name]
	if !ok {
		return domain.Record{}, false
	}
	group, ok := c.groups[id]
	if !ok {
		return domain.Record{}, false
	}

	var data uint64
	if raw, ok := values["data"].(string); ok && raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return domain.Record{}, false
		}
		data = n
	}
	return domain.Record{Kind: domain.RecordEvent, EventID: id, Group: group, Data: uint32(data)}, true
}

// Close drops this connection's registrations. The stream and other instances are left alone.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.pending = nil
	groups := make(map[domain.GroupID]struct{})
	for _, g := range c.groups {
		groups[g] = struct{}{}
	}
	c.mu.Unlock()

	ctx := context.Background()
	keys := []string{c.key("events"), c.key("priority")}
	for g := range groups {
		keys = append(keys, c.key("group:"+strconv.FormatUint(uint64(g), 10)))
	}
	_, err := c.source.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.SRem(ctx, c.source.key(c.name, "instances"), c.instance)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to drop registrations: %w", err)
	}
	return nil
}

func (c *Conn) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

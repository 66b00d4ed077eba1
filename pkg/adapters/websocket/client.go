package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aretw0/simevents/internal/logging"
	"github.com/aretw0/simevents/pkg/domain"
	"github.com/aretw0/simevents/pkg/ports"
	"github.com/gorilla/websocket"
)

// DefaultRequestTimeout bounds the handshake and each registration round trip.
const DefaultRequestTimeout = 5 * time.Second

// Source implements ports.EventSource by dialing a simulator bridge over a websocket.
type Source struct {
	url     string
	dialer  *websocket.Dialer
	header  http.Header
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures the Source.
type Option func(*Source)

// WithDialer replaces the default websocket dialer (e.g. for TLS settings).
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Source) {
		s.dialer = d
	}
}

// WithHeader sets extra headers sent on the upgrade request.
func WithHeader(h http.Header) Option {
	return func(s *Source) {
		s.header = h
	}
}

// WithRequestTimeout bounds the handshake and each registration round trip.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used by the reader goroutine.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// NewSource creates a websocket source for the simulator bridge at rawURL (ws:// or wss://).
func NewSource(rawURL string, opts ...Option) *Source {
	s := &Source{
		url:     rawURL,
		dialer:  websocket.DefaultDialer,
		header:  http.Header{},
		timeout: DefaultRequestTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open dials the bridge with ?connection=<name> and waits for the hello frame.
func (s *Source) Open(ctx context.Context, name string) (ports.Connection, error) {
	if name == "" {
		return nil, fmt.Errorf("empty connection name")
	}
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge url: %w", err)
	}
	q := u.Query()
	q.Set("connection", name)
	u.RawQuery = q.Encode()

	dialCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ws, _, err := s.dialer.DialContext(dialCtx, u.String(), s.header)
	if err != nil {
		return nil, fmt.Errorf("dial bridge: %w", err)
	}

	_ = ws.SetReadDeadline(time.Now().Add(s.timeout))
	var hello Frame
	if err := ws.ReadJSON(&hello); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != OpHello {
		_ = ws.Close()
		return nil, fmt.Errorf("%w: expected hello, got %q", ErrProtocol, hello.Op)
	}
	_ = ws.SetReadDeadline(time.Time{})

	c := &Conn{
		ws:      ws,
		name:    name,
		timeout: s.timeout,
		logger:  s.logger.With("connection", name),
		waiters: make(map[uint64]chan error),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Conn is a websocket connection to the bridge. It implements ports.Connection.
type Conn struct {
	ws      *websocket.Conn
	name    string
	timeout time.Duration
	logger  *slog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	seq     uint64
	waiters map[uint64]chan error
	queue   []domain.Record
	readErr error
	closed  bool

	done      chan struct{}
	closeOnce sync.Once
}

// MapEvent asks the simulator to map a local index to an external name.
func (c *Conn) MapEvent(ctx context.Context, id domain.EventID, name string) error {
	return c.request(ctx, Frame{Op: OpMap, ID: uint32(id), Name: name})
}

// AddToGroup asks the simulator to attach a mapped event to a notification group.
func (c *Conn) AddToGroup(ctx context.Context, group domain.GroupID, id domain.EventID, masked bool) error {
	return c.request(ctx, Frame{Op: OpGroup, Group: uint32(group), ID: uint32(id), Masked: masked})
}

// SetGroupPriority asks the simulator to set the group priority.
func (c *Conn) SetGroupPriority(ctx context.Context, group domain.GroupID, priority domain.Priority) error {
	return c.request(ctx, Frame{Op: OpPriority, Group: uint32(group), Priority: uint32(priority)})
}

// Next pops the oldest record received by the reader goroutine. It never waits.
func (c *Conn) Next(ctx context.Context) (domain.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.Record{}, ErrClosed
	}
	if len(c.queue) == 0 {
		if c.readErr != nil {
			return domain.Record{}, fmt.Errorf("bridge connection lost: %w", c.readErr)
		}
		return domain.Record{}, domain.ErrNoPendingRecord
	}
	rec := c.queue[0]
	c.queue = c.queue[1:]
	return rec, nil
}

// Close sends a close frame and tears down the socket. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.queue = nil
		c.mu.Unlock()

		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.ws.Close()
		<-c.done
	})
	return err
}

func (c *Conn) request(ctx context.Context, f Frame) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.readErr != nil {
		err := c.readErr
		c.mu.Unlock()
		return fmt.Errorf("bridge connection lost: %w", err)
	}
	c.seq++
	f.Seq = c.seq
	ch := make(chan error, 1)
	c.waiters[f.Seq] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.waiters, f.Seq)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.timeout))
	err := c.ws.WriteJSON(f)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("send %s: %w", f.Op, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%s: no ack within %s", f.Op, c.timeout)
	case <-c.done:
		return fmt.Errorf("bridge connection lost before ack")
	}
}

func (c *Conn) readLoop() {
	defer close(c.done)
	for {
		var f Frame
		if err := c.ws.ReadJSON(&f); err != nil {
			c.mu.Lock()
			if !c.closed {
				c.readErr = err
				c.logger.Warn("bridge read failed", "error", err)
			}
			c.mu.Unlock()
			return
		}

		switch f.Op {
		case OpAck:
			c.mu.Lock()
			ch, ok := c.waiters[f.Seq]
			c.mu.Unlock()
			if ok {
				ch <- ackError(f)
			}
		case OpEvent:
			c.push(domain.Record{
				Kind:    domain.RecordEvent,
				EventID: domain.EventID(f.ID),
				Group:   domain.GroupID(f.Group),
				Data:    f.Data,
			})
		case OpRecord:
			c.push(domain.Record{Kind: domain.ParseRecordKind(f.Kind)})
		default:
			c.logger.Debug("ignoring frame", "op", f.Op)
		}
	}
}

func (c *Conn) push(rec domain.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.queue = append(c.queue, rec)
}

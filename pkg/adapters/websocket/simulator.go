package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/simevents/internal/logging"
	"github.com/aretw0/simevents/pkg/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
)

// Simulator is the bridge side of the protocol: an http.Handler accepting block connections
// and a ports.Emitter that delivers named events to them. It filters like the real simulator:
// only events that are both mapped and grouped reach a session.
type Simulator struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger
	refused  map[string]struct{}
	timeout  time.Duration

	mu       sync.Mutex
	sessions map[string][]*session
}

// SimulatorOption configures the Simulator.
type SimulatorOption func(*Simulator)

// WithRefusedEvents makes map requests fail for the given external names.
func WithRefusedEvents(names ...string) SimulatorOption {
	return func(s *Simulator) {
		for _, n := range names {
			s.refused[n] = struct{}{}
		}
	}
}

// WithSimulatorLogger sets the simulator logger.
func WithSimulatorLogger(logger *slog.Logger) SimulatorOption {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithCheckOrigin sets the upgrade origin check. The default accepts every origin.
func WithCheckOrigin(fn func(r *http.Request) bool) SimulatorOption {
	return func(s *Simulator) {
		s.upgrader.CheckOrigin = fn
	}
}

// NewSimulator creates a bridge simulator.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:   logging.NewNop(),
		refused:  make(map[string]struct{}),
		timeout:  DefaultRequestTimeout,
		sessions: make(map[string][]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type session struct {
	ws     *websocket.Conn
	name   string
	logger *slog.Logger

	writeMu sync.Mutex

	mu         sync.Mutex
	names      map[string]domain.EventID
	groups     map[domain.EventID]domain.GroupID
	priorities map[domain.GroupID]domain.Priority
}

// ServeHTTP upgrades the request and serves one block connection until it closes.
func (s *Simulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("connection")
	if name == "" {
		http.Error(w, "missing connection name", http.StatusBadRequest)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	sess := &session{
		ws:         ws,
		name:       name,
		logger:     s.logger.With("connection", name),
		names:      make(map[string]domain.EventID),
		groups:     make(map[domain.EventID]domain.GroupID),
		priorities: make(map[domain.GroupID]domain.Priority),
	}
	s.add(sess)
	defer s.remove(sess)

	if err := sess.write(Frame{Op: OpHello}, s.timeout); err != nil {
		sess.logger.Warn("hello failed", "error", err)
		return
	}
	sess.logger.Info("block connected")

	for {
		var f Frame
		if err := ws.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sess.logger.Warn("session ended", "error", err)
			} else {
				sess.logger.Info("block disconnected")
			}
			return
		}
		ack := Frame{Op: OpAck, Seq: f.Seq}
		if err := s.apply(sess, f); err != nil {
			ack.Error = err.Error()
		}
		if err := sess.write(ack, s.timeout); err != nil {
			sess.logger.Warn("ack failed", "error", err)
			return
		}
	}
}

func (s *Simulator) apply(sess *session, f Frame) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	switch f.Op {
	case OpMap:
		if _, refused := s.refused[f.Name]; refused {
			return fmt.Errorf("%w: %s", ErrUnknownEvent, f.Name)
		}
		sess.names[f.Name] = domain.EventID(f.ID)
	case OpGroup:
		sess.groups[domain.EventID(f.ID)] = domain.GroupID(f.Group)
	case OpPriority:
		sess.priorities[domain.GroupID(f.Group)] = domain.Priority(f.Priority)
	default:
		return fmt.Errorf("%w: unexpected op %q", ErrProtocol, f.Op)
	}
	return nil
}

// Emit delivers a named event to every session with that connection name that subscribed to it.
func (s *Simulator) Emit(ctx context.Context, connection, event string, data uint32) error {
	var errs error
	for _, sess := range s.lookup(connection) {
		sess.mu.Lock()
		id, mapped := sess.names[event]
		group, grouped := sess.groups[id]
		sess.mu.Unlock()
		if !mapped || !grouped {
			continue
		}
		f := Frame{Op: OpEvent, ID: uint32(id), Group: uint32(group), Data: data}
		errs = multierr.Append(errs, sess.write(f, s.timeout))
	}
	return errs
}

// EmitKind sends a non-event record to every session with that connection name.
func (s *Simulator) EmitKind(ctx context.Context, connection string, kind domain.RecordKind) error {
	var errs error
	for _, sess := range s.lookup(connection) {
		errs = multierr.Append(errs, sess.write(Frame{Op: OpRecord, Kind: kind.String()}, s.timeout))
	}
	return errs
}

// Disconnect sends a quit record to every session with that connection name and closes it.
// It returns the number of sessions closed.
func (s *Simulator) Disconnect(connection string) int {
	list := s.lookup(connection)
	for _, sess := range list {
		_ = sess.write(Frame{Op: OpRecord, Kind: domain.RecordQuit.String()}, s.timeout)
		sess.writeMu.Lock()
		_ = sess.ws.Close()
		sess.writeMu.Unlock()
	}
	return len(list)
}

// Sessions returns the number of open sessions with the given connection name.
func (s *Simulator) Sessions(name string) int {
	return len(s.lookup(name))
}

// Priority returns the priority the most recent session with that name set for a group.
func (s *Simulator) Priority(name string, group domain.GroupID) (domain.Priority, bool) {
	list := s.lookup(name)
	if len(list) == 0 {
		return 0, false
	}
	sess := list[len(list)-1]
	sess.mu.Lock()
	defer sess.mu.Unlock()
	p, ok := sess.priorities[group]
	return p, ok
}

func (s *Simulator) lookup(name string) []*session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*session(nil), s.sessions[name]...)
}

func (s *Simulator) add(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.name] = append(s.sessions[sess.name], sess)
}

func (s *Simulator) remove(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.sessions[sess.name]
	for i, other := range list {
		if other == sess {
			s.sessions[sess.name] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(s.sessions[sess.name]) == 0 {
		delete(s.sessions, sess.name)
	}
}

func (sess *session) write(f Frame, timeout time.Duration) error {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	_ = sess.ws.SetWriteDeadline(time.Now().Add(timeout))
	return sess.ws.WriteJSON(f)
}

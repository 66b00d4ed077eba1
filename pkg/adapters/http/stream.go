package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/simevents/internal/logging"
	"github.com/aretw0/simevents/pkg/domain"
)

// Message is one server-sent event.
type Message struct {
	Type domain.EventType
	Data []byte
}

// StreamManager fans block lifecycle events out to active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- Message]struct{}
	buffer      int
	logger      *slog.Logger
}

// NewStreamManager creates a stream manager. Each subscriber buffers up to buffer messages;
// a slow client loses messages rather than stalling the block.
func NewStreamManager(buffer int, logger *slog.Logger) *StreamManager {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[chan<- Message]struct{}),
		buffer:      buffer,
		logger:      logger,
	}
}

// Subscribe registers a new subscriber. The returned function unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe() (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, sm.buffer)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscribers.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast sends msg to every subscriber without blocking.
func (sm *StreamManager) Broadcast(msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "type", msg.Type)
		}
	}
}

type lifecyclePayload struct {
	domain.EventBase
	ConnectionName string `json:"connection_name,omitempty"`
	Phase          string `json:"phase"`
	Error          string `json:"error,omitempty"`
}

type stepPayload struct {
	domain.EventBase
	Step    uint64    `json:"step"`
	Records int       `json:"records"`
	Outputs []float64 `json:"outputs"`
	Error   string    `json:"error,omitempty"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Hooks returns lifecycle hooks that broadcast initialize, step and terminate events.
// Individual records are not streamed.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	lifecycle := func(_ context.Context, e *domain.LifecycleEvent) {
		sm.publish(e.Type, lifecyclePayload{
			EventBase:      e.EventBase,
			ConnectionName: e.ConnectionName,
			Phase:          e.Phase.String(),
			Error:          errString(e.Err),
		})
	}
	return domain.LifecycleHooks{
		OnInitialize: lifecycle,
		OnTerminate:  lifecycle,
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			sm.publish(e.Type, stepPayload{
				EventBase: e.EventBase,
				Step:      e.Step,
				Records:   e.Records,
				Outputs:   e.Outputs[:],
				Error:     errString(e.Err),
			})
		},
	}
}

func (sm *StreamManager) publish(t domain.EventType, v any) {
	if sm.Subscribers() == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Error("SSE: encode failed", "type", t, "error", err)
		return
	}
	sm.Broadcast(Message{Type: t, Data: data})
}

package runtime

import (
	"sync"

	"github.com/aretw0/simevents/pkg/ports"
)

// handle owns a connection and releases it exactly once.
type handle struct {
	mu   sync.Mutex
	conn ports.Connection
	once sync.Once
	err  error
}

func acquire(conn ports.Connection) *handle {
	return &handle{conn: conn}
}

// Conn returns the owned connection, or nil after release.
func (h *handle) Conn() ports.Connection {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn
}

// release closes the connection on the first call and returns the same result on every call.
func (h *handle) release() error {
	h.once.Do(func() {
		h.mu.Lock()
		conn := h.conn
		h.conn = nil
		h.mu.Unlock()
		if conn != nil {
			h.err = conn.Close()
		}
	})
	return h.err
}

package memory

import (
	"sync"

	"github.com/aretw0/simevents/pkg/ports"
)

// Signals implements ports.SignalResolver with one scalar per output port.
// Ports can be detached to simulate handles the engine fails to resolve.
type Signals struct {
	mu       sync.RWMutex
	values   []float64
	detached map[int]bool
}

// NewSignals creates n scalar output ports initialized to 0.
func NewSignals(n int) *Signals {
	return &Signals{
		values:   make([]float64, n),
		detached: make(map[int]bool),
	}
}

// OutputSignal returns the handle for port index.
func (s *Signals) OutputSignal(index int) (ports.OutputSignal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.values) || s.detached[index] {
		return nil, false
	}
	return &scalar{parent: s, port: index}, true
}

// Detach makes a port unresolvable.
func (s *Signals) Detach(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached[index] = true
}

// Attach makes a detached port resolvable again.
func (s *Signals) Attach(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.detached, index)
}

// Values returns a copy of the current port values.
func (s *Signals) Values() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

type scalar struct {
	parent *Signals
	port   int
}

// Set writes the scalar. Only element 0 exists.
func (h *scalar) Set(index int, value float64) bool {
	if index != 0 {
		return false
	}
	h.parent.mu.Lock()
	defer h.parent.mu.Unlock()
	h.parent.values[h.port] = value
	return true
}

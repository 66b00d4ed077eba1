package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalManager turns SIGINT and SIGTERM into context cancellation for the run loop.
type SignalManager struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSignalManager creates a manager derived from parent and starts listening immediately.
func NewSignalManager(parent context.Context) *SignalManager {
	sm := &SignalManager{}
	sm.ctx, sm.cancel = signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return sm
}

// Context returns the signal context. It is done after the first signal or Stop.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Stop stops listening and cancels the context.
func (sm *SignalManager) Stop() {
	sm.cancel()
}

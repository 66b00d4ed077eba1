package runner

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalManager_Lifecycle(t *testing.T) {
	sm := NewSignalManager(context.Background())

	ctx := sm.Context()
	assert.NotNil(t, ctx)
	assert.NoError(t, ctx.Err())

	sm.Stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.NotPanics(t, sm.Stop)
}

func TestSignalManager_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sm := NewSignalManager(parent)
	defer sm.Stop()

	cancel()
	<-sm.Context().Done()
	assert.ErrorIs(t, sm.Context().Err(), context.Canceled)
}

func TestSignalManager_Interrupt(t *testing.T) {
	sm := NewSignalManager(context.Background())
	defer sm.Stop()

	self, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	if err := self.Signal(os.Interrupt); err != nil {
		t.Skipf("interrupt not deliverable on this platform: %v", err)
	}

	select {
	case <-sm.Context().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by SIGINT")
	}
}

package ports

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/simevents/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunEventSourceContract runs a suite of tests to verify that an EventSource implementation
// adheres to the defined interface contract. The emitter must push events into the same backend.
func RunEventSourceContract(t *testing.T, source EventSource, emitter Emitter) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")

	open := func(t *testing.T, suffix string) (Connection, string) {
		name := fmt.Sprintf("%s-%s", prefix, suffix)
		conn, err := source.Open(ctx, name)
		require.NoError(t, err, "Open should not return error")
		t.Cleanup(func() { _ = conn.Close() })
		return conn, name
	}

	subscribe := func(t *testing.T, conn Connection, id domain.EventID, name string) {
		require.NoError(t, conn.MapEvent(ctx, id, name))
		require.NoError(t, conn.AddToGroup(ctx, domain.DefaultGroup, id, false))
	}

	t.Run("Drain Empty", func(t *testing.T) {
		conn, _ := open(t, "empty")
		_, err := conn.Next(ctx)
		assert.ErrorIs(t, err, domain.ErrNoPendingRecord)
	})

	t.Run("Registered Event Delivered", func(t *testing.T) {
		conn, name := open(t, "delivered")
		subscribe(t, conn, 2, "HEADING_SLOT_INDEX_SET")
		require.NoError(t, conn.SetGroupPriority(ctx, domain.DefaultGroup, domain.PriorityHighestMaskable))

		require.NoError(t, emitter.Emit(ctx, name, "HEADING_SLOT_INDEX_SET", 7))

		rec := nextEvent(t, ctx, conn)
		assert.Equal(t, domain.EventID(2), rec.EventID)
		assert.Equal(t, domain.DefaultGroup, rec.Group)
		assert.Equal(t, uint32(7), rec.Data)

		_, err := conn.Next(ctx)
		assert.ErrorIs(t, err, domain.ErrNoPendingRecord, "queue should be empty after the only record")
	})

	t.Run("Order Preserved", func(t *testing.T) {
		conn, name := open(t, "order")
		subscribe(t, conn, 3, "ALTITUDE_SLOT_INDEX_SET")

		for i := uint32(1); i <= 3; i++ {
			require.NoError(t, emitter.Emit(ctx, name, "ALTITUDE_SLOT_INDEX_SET", i))
		}
		for i := uint32(1); i <= 3; i++ {
			rec := nextEvent(t, ctx, conn)
			assert.Equal(t, i, rec.Data)
		}
	})

	t.Run("Unmapped Event Dropped", func(t *testing.T) {
		conn, name := open(t, "unmapped")
		subscribe(t, conn, 1, "AUTOPILOT_OFF")

		require.NoError(t, emitter.Emit(ctx, name, "AP_MASTER", 0))
		require.NoError(t, emitter.Emit(ctx, name, "AUTOPILOT_OFF", 0))

		rec := nextEvent(t, ctx, conn)
		assert.Equal(t, domain.EventID(1), rec.EventID, "unmapped event must not be delivered")
	})

	t.Run("Ungrouped Event Dropped", func(t *testing.T) {
		conn, name := open(t, "ungrouped")
		require.NoError(t, conn.MapEvent(ctx, 4, "AP_PANEL_VS_ON"))
		subscribe(t, conn, 5, "AP_LOC_HOLD")

		require.NoError(t, emitter.Emit(ctx, name, "AP_PANEL_VS_ON", 0))
		require.NoError(t, emitter.Emit(ctx, name, "AP_LOC_HOLD", 0))

		rec := nextEvent(t, ctx, conn)
		assert.Equal(t, domain.EventID(5), rec.EventID, "event outside any group must not be delivered")
	})

	t.Run("Connections Isolated", func(t *testing.T) {
		connA, nameA := open(t, "iso-a")
		connB, _ := open(t, "iso-b")
		subscribe(t, connA, 0, "AP_MASTER")
		subscribe(t, connB, 0, "AP_MASTER")

		require.NoError(t, emitter.Emit(ctx, nameA, "AP_MASTER", 0))
		nextEvent(t, ctx, connA)

		_, err := connB.Next(ctx)
		assert.ErrorIs(t, err, domain.ErrNoPendingRecord)
	})

	t.Run("Close Twice", func(t *testing.T) {
		conn, err := source.Open(ctx, prefix+"-close")
		require.NoError(t, err)
		assert.NoError(t, conn.Close())
		assert.NotPanics(t, func() { _ = conn.Close() })
	})
}

// nextEvent polls until an event record is available. Non-event records are skipped.
func nextEvent(t *testing.T, ctx context.Context, conn Connection) domain.Record {
	t.Helper()
	var got domain.Record
	require.Eventually(t, func() bool {
		for {
			rec, err := conn.Next(ctx)
			if err != nil {
				if !errors.Is(err, domain.ErrNoPendingRecord) {
					t.Logf("next: %v", err)
				}
				return false
			}
			if rec.Kind == domain.RecordEvent {
				got = rec
				return true
			}
		}
	}, 2*time.Second, 10*time.Millisecond, "expected an event record")
	return got
}

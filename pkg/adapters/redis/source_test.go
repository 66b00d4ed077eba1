package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/simevents/internal/testutils"
	"github.com/aretw0/simevents/pkg/adapters/redis"
	"github.com/aretw0/simevents/pkg/domain"
	"github.com/aretw0/simevents/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource(t *testing.T, opts ...redis.Option) (*redis.Source, *miniredis.Miniredis) {
	t.Helper()
	client, mr := testutils.SetupRedis(t)
	return redis.NewFromClient(client, opts...), mr
}

func TestRedisSource_Contract(t *testing.T) {
	source, _ := newSource(t)
	ports.RunEventSourceContract(t, source, source)
}

func TestRedisSource_SkipsHistory(t *testing.T) {
	ctx := context.Background()
	source, _ := newSource(t)

	// Emitted before the connection exists.
	require.NoError(t, source.Emit(ctx, "block", "AP_MASTER", 0))

	conn, err := source.Open(ctx, "block")
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.MapEvent(ctx, 0, "AP_MASTER"))
	require.NoError(t, conn.AddToGroup(ctx, domain.DefaultGroup, 0, true))

	_, err = conn.Next(ctx)
	assert.ErrorIs(t, err, domain.ErrNoPendingRecord)

	require.NoError(t, source.Emit(ctx, "block", "AP_MASTER", 0))
	rec, err := conn.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.EventRecord(0, 0), rec)
}

func TestRedisSource_Keys(t *testing.T) {
	ctx := context.Background()
	source, mr := newSource(t, redis.WithPrefix("test:"))

	conn, err := source.Open(ctx, "block")
	require.NoError(t, err)
	instance := conn.(*redis.Conn).Instance()
	require.NotEmpty(t, instance)
	base := "test:block:" + instance + ":"

	require.NoError(t, conn.MapEvent(ctx, 2, "HEADING_SLOT_INDEX_SET"))
	require.NoError(t, conn.AddToGroup(ctx, domain.DefaultGroup, 2, false))
	require.NoError(t, conn.SetGroupPriority(ctx, domain.DefaultGroup, domain.PriorityHighestMaskable))

	assert.Equal(t, "2", mr.HGet(base+"events", "HEADING_SLOT_INDEX_SET"))
	assert.True(t, mr.Exists(base+"group:0"))
	assert.Equal(t, "10000000", mr.HGet(base+"priority", "0"))
	members, err := mr.SMembers("test:block:instances")
	require.NoError(t, err)
	assert.Equal(t, []string{instance}, members)

	require.NoError(t, conn.Close())
	assert.False(t, mr.Exists(base+"events"), "close drops registrations")
	assert.False(t, mr.Exists(base+"priority"))
	assert.False(t, mr.Exists(base+"group:0"))
	assert.False(t, mr.Exists("test:block:instances"))

	_, err = conn.Next(ctx)
	assert.ErrorIs(t, err, redis.ErrClosed)
}

func TestRedisSource_SharedConnectionName(t *testing.T) {
	ctx := context.Background()
	source, mr := newSource(t)

	first, err := source.Open(ctx, "block")
	require.NoError(t, err)
	second, err := source.Open(ctx, "block")
	require.NoError(t, err)
	defer second.Close()

	for _, conn := range []ports.Connection{first, second} {
		require.NoError(t, conn.MapEvent(ctx, 0, "AP_MASTER"))
		require.NoError(t, conn.AddToGroup(ctx, domain.DefaultGroup, 0, true))
	}
	require.NoError(t, first.Close())

	kept := "simevents:block:" + second.(*redis.Conn).Instance() + ":"
	assert.Equal(t, "0", mr.HGet(kept+"events", "AP_MASTER"), "closing one block keeps the other's registrations")
	assert.True(t, mr.Exists(kept+"group:0"))

	require.NoError(t, source.Emit(ctx, "block", "AP_MASTER", 0))
	rec, err := second.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.EventRecord(0, 0), rec)
}

func TestRedisSource_Catalog(t *testing.T) {
	ctx := context.Background()
	source, _ := newSource(t)
	require.NoError(t, source.RegisterCatalog(ctx, "AP_MASTER", "AUTOPILOT_OFF"))

	conn, err := source.Open(ctx, "block")
	require.NoError(t, err)
	defer conn.Close()

	assert.NoError(t, conn.MapEvent(ctx, 0, "AP_MASTER"))
	assert.ErrorIs(t, conn.MapEvent(ctx, 7, "AP_APR_HOLD_ON"), redis.ErrUnknownEvent)
}

func TestRedisSource_NonEventRecords(t *testing.T) {
	ctx := context.Background()
	source, _ := newSource(t)

	conn, err := source.Open(ctx, "block")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, source.EmitKind(ctx, "block", domain.RecordOpen))
	rec, err := conn.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordOpen, rec.Kind)

	_, err = conn.Next(ctx)
	assert.ErrorIs(t, err, domain.ErrNoPendingRecord)
}

func TestRedisSource_BatchBoundary(t *testing.T) {
	ctx := context.Background()
	source, _ := newSource(t, redis.WithBatchSize(2))

	conn, err := source.Open(ctx, "block")
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.MapEvent(ctx, 3, "ALTITUDE_SLOT_INDEX_SET"))
	require.NoError(t, conn.AddToGroup(ctx, domain.DefaultGroup, 3, false))

	// A full batch of unsubscribed entries must not end the drain early.
	require.NoError(t, source.Emit(ctx, "block", "AP_MASTER", 0))
	require.NoError(t, source.Emit(ctx, "block", "AUTOPILOT_OFF", 0))
	require.NoError(t, source.Emit(ctx, "block", "ALTITUDE_SLOT_INDEX_SET", 12000))

	rec, err := conn.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(12000), rec.Data)
}

func TestRedisSource_OpenRefused(t *testing.T) {
	source, mr := newSource(t)
	mr.Close()

	_, err := source.Open(context.Background(), "block")
	assert.Error(t, err)
}

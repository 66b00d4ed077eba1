package simevents_test

import (
	"context"
	"testing"

	"github.com/aretw0/simevents"
	"github.com/aretw0/simevents/pkg/adapters/memory"
	"github.com/aretw0/simevents/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlock_Facade(t *testing.T) {
	ctx := context.Background()
	source := memory.NewSource()

	var stepped int
	block := simevents.New(source,
		simevents.WithBlockID("facade"),
		simevents.WithLifecycleHooks(domain.LifecycleHooks{
			OnStep: func(context.Context, *domain.StepEvent) { stepped++ },
		}),
	)
	assert.Equal(t, "facade", block.ID())
	assert.Len(t, block.Bindings(), 8)
	assert.Len(t, block.Ports().Outputs, domain.ChannelCount)
	assert.Len(t, block.Parameters(), 2)

	require.NoError(t, block.Initialize(ctx, memory.Params{
		domain.ParamConfigurationIndex: 0,
		domain.ParamConnectionName:     "facade",
	}))
	assert.Equal(t, domain.PhaseConnected, block.Phase())

	require.NoError(t, source.Emit(ctx, "facade", "AP_LOC_HOLD_OFF", 0))
	require.NoError(t, block.Step(ctx, memory.NewSignals(domain.ChannelCount)))
	assert.Equal(t, domain.Outputs{0, 0, 0, 0, 0, 0, 1}, block.Last())
	assert.Equal(t, 1, stepped)

	require.NoError(t, block.Terminate(ctx))
	assert.Equal(t, domain.PhaseTerminated, block.Phase())
}

func TestBlock_FacadeRegistryOptions(t *testing.T) {
	ctx := context.Background()
	source := memory.NewSource()

	block := simevents.New(source,
		simevents.WithBindings([]domain.Binding{{ID: 5, Name: "AP_LOC_HOLD"}}),
		simevents.WithGroup(2),
		simevents.WithPriority(domain.PriorityStandard),
	)
	require.NoError(t, block.Initialize(ctx, memory.Params{
		domain.ParamConfigurationIndex: 0,
		domain.ParamConnectionName:     "custom",
	}))
	defer block.Terminate(ctx)

	conn, ok := source.Connection("custom")
	require.True(t, ok)
	assert.Len(t, conn.Subscriptions(), 1)
	p, ok := conn.Priority(2)
	require.True(t, ok)
	assert.Equal(t, domain.PriorityStandard, p)

	// Unsubscribed events never reach the block.
	require.NoError(t, source.Emit(ctx, "custom", "AP_MASTER", 0))
	require.NoError(t, source.Emit(ctx, "custom", "AP_LOC_HOLD", 0))
	require.NoError(t, block.Step(ctx, memory.NewSignals(domain.ChannelCount)))
	assert.Equal(t, domain.Outputs{0, 0, 0, 0, 0, 1, 0}, block.Last())
}

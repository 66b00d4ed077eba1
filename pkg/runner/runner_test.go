package runner_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/simevents"
	"github.com/aretw0/simevents/internal/testutils"
	"github.com/aretw0/simevents/pkg/adapters/memory"
	"github.com/aretw0/simevents/pkg/domain"
	"github.com/aretw0/simevents/pkg/ports"
	"github.com/aretw0/simevents/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPublisher records published steps.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, step uint64, outputs domain.Outputs) error {
	args := m.Called(ctx, step, outputs)
	return args.Error(0)
}

func TestRunner_PublishesEverySuccessfulStep(t *testing.T) {
	source := memory.NewSource()
	block := simevents.New(source, simevents.WithBlockID("runner"))

	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	r := runner.NewRunner(
		runner.WithPeriod(time.Millisecond),
		runner.WithMaxSteps(3),
		runner.WithPublisher(pub),
	)
	require.NoError(t, r.Run(context.Background(), block, testutils.BlockParams("runner")))

	pub.AssertNumberOfCalls(t, "Publish", 3)
	pub.AssertCalled(t, "Publish", mock.Anything, uint64(1), domain.Outputs{})
	assert.Equal(t, domain.PhaseTerminated, block.Phase(), "runner terminates the block on exit")
	assert.Equal(t, 0, source.OpenCount("runner"))
}

func TestRunner_EventsReachPublisher(t *testing.T) {
	ctx := context.Background()
	source := memory.NewSource()
	block := simevents.New(source)

	var mu sync.Mutex
	var seen []domain.Outputs
	pub := runner.PublisherFunc(func(_ context.Context, step uint64, out domain.Outputs) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, out)
		// Queue an event for the next step once the first step has run.
		if step == 1 {
			_ = source.Emit(ctx, "runner", "HEADING_SLOT_INDEX_SET", 4)
		}
		return nil
	})

	r := runner.NewRunner(runner.WithPeriod(time.Millisecond), runner.WithMaxSteps(3), runner.WithPublisher(pub))
	require.NoError(t, r.Run(ctx, block, testutils.BlockParams("runner")))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.Equal(t, domain.Outputs{}, seen[0])
	assert.Equal(t, 4.0, seen[1][domain.ChannelHeadingSlot])
	assert.Equal(t, domain.Outputs{}, seen[2], "outputs reset after each step")
}

func TestRunner_ChangesOnly(t *testing.T) {
	block := simevents.New(memory.NewSource())

	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	r := runner.NewRunner(
		runner.WithPeriod(time.Millisecond),
		runner.WithMaxSteps(5),
		runner.WithPublisher(pub),
		runner.WithChangesOnly(true),
	)
	require.NoError(t, r.Run(context.Background(), block, testutils.BlockParams("quiet")))
	pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestRunner_InitializeFailure(t *testing.T) {
	refused := errors.New("sim not running")
	block := simevents.New(memory.NewSource(memory.WithOpenError(refused)))

	r := runner.NewRunner(runner.WithPeriod(time.Millisecond))
	err := r.Run(context.Background(), block, testutils.BlockParams("runner"))
	assert.ErrorIs(t, err, refused)
	assert.ErrorIs(t, err, domain.ErrConnection)
	assert.Equal(t, domain.PhaseUninitialized, block.Phase())
}

func TestRunner_StepFailureContinues(t *testing.T) {
	block := simevents.New(memory.NewSource())
	signals := memory.NewSignals(domain.ChannelCount)
	signals.Detach(0)

	pub := new(MockPublisher)
	r := runner.NewRunner(
		runner.WithPeriod(time.Millisecond),
		runner.WithMaxSteps(3),
		runner.WithSignals(signals),
		runner.WithPublisher(pub),
	)
	require.NoError(t, r.Run(context.Background(), block, testutils.BlockParams("runner")))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunner_Cancellation(t *testing.T) {
	source := memory.NewSource()
	block := simevents.New(source)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	r := runner.NewRunner(runner.WithPeriod(5 * time.Millisecond))
	require.NoError(t, r.Run(ctx, block, testutils.BlockParams("runner")))
	assert.Equal(t, domain.PhaseTerminated, block.Phase())
}

// externallyTerminated terminates itself after the first step, as an engine shutting down would.
type externallyTerminated struct {
	*simevents.Block
	steps int
}

func (b *externallyTerminated) Step(ctx context.Context, signals ports.SignalResolver) error {
	b.steps++
	if b.steps == 2 {
		_ = b.Block.Terminate(ctx)
	}
	return b.Block.Step(ctx, signals)
}

func TestRunner_StopsWhenBlockDisconnected(t *testing.T) {
	block := &externallyTerminated{Block: simevents.New(memory.NewSource())}

	r := runner.NewRunner(runner.WithPeriod(time.Millisecond), runner.WithMaxSteps(10))
	err := r.Run(context.Background(), block, testutils.BlockParams("runner"))
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.Equal(t, 2, block.steps)
}

func TestPublishers(t *testing.T) {
	ctx := context.Background()
	out := domain.Outputs{1, 0, 3, 0, 0, 0, 0}

	var jsonBuf bytes.Buffer
	require.NoError(t, runner.NewJSONPublisher(&jsonBuf).Publish(ctx, 7, out))
	assert.Contains(t, jsonBuf.String(), `"step":7`)
	assert.Contains(t, jsonBuf.String(), `"heading_slot_index":3`)

	var textBuf bytes.Buffer
	text := runner.NewTextPublisher(&textBuf)
	require.NoError(t, text.Publish(ctx, 7, out))
	require.NoError(t, text.Publish(ctx, 8, domain.Outputs{}))
	lines := strings.Split(strings.TrimSpace(textBuf.String()), "\n")
	assert.Equal(t, "step 7: ap_master=1 heading_slot_index=3", lines[0])
	assert.Equal(t, "step 8: -", lines[1])
}

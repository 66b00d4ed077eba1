package simevents_test

import (
	"context"
	"fmt"

	"github.com/aretw0/simevents"
	"github.com/aretw0/simevents/pkg/adapters/memory"
	"github.com/aretw0/simevents/pkg/domain"
)

func Example() {
	ctx := context.Background()
	source := memory.NewSource()

	block := simevents.New(source, simevents.WithBlockID("example"))
	params := memory.Params{
		domain.ParamConfigurationIndex: 0,
		domain.ParamConnectionName:     "autopilot",
	}
	if err := block.Initialize(ctx, params); err != nil {
		fmt.Println("init:", err)
		return
	}
	defer block.Terminate(ctx)

	_ = source.Emit(ctx, "autopilot", "AP_MASTER", 0)
	_ = source.Emit(ctx, "autopilot", "HEADING_SLOT_INDEX_SET", 3)
	_ = source.Emit(ctx, "autopilot", "AP_APR_HOLD_ON", 0)

	signals := memory.NewSignals(domain.ChannelCount)
	_ = block.Step(ctx, signals)
	fmt.Println(signals.Values())

	_ = block.Step(ctx, signals)
	fmt.Println(signals.Values())

	// Output:
	// [1 0 3 0 0 0 1]
	// [0 0 0 0 0 0 0]
}

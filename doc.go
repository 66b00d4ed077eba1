/*
Package simevents is an event source block for signal-flow block-diagram execution engines.

It bridges the discrete event stream of an external real-time simulation into a fixed set of
scalar output signals sampled once per execution step.

# Concept

At initialization the block opens a named connection on the external source and subscribes to
a static list of events inside one notification group. On every step it drains whatever
notifications are already queued (it never waits), maps each one to an output channel, writes
all channels and resets them. Pulse channels are therefore one step wide; value channels carry
the last payload received during the step.

# Key Features

  - Hexagonal Architecture: the engine (parameters, signals) and the simulator (connection) are ports.
  - Pluggable sources: in-memory simulator, Redis Streams and a websocket bridge.
  - Observability: lifecycle hooks with a Prometheus implementation.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/simevents"
		"github.com/aretw0/simevents/pkg/adapters/memory"
		"github.com/aretw0/simevents/pkg/domain"
	)

	func main() {
		ctx := context.Background()
		source := memory.NewSource()

		block := simevents.New(source)
		params := memory.Params{
			domain.ParamConfigurationIndex: 0,
			domain.ParamConnectionName:     "autopilot",
		}
		if err := block.Initialize(ctx, params); err != nil {
			log.Fatal(err)
		}
		defer block.Terminate(ctx)

		_ = source.Emit(ctx, "autopilot", "AP_MASTER", 0)

		signals := memory.NewSignals(domain.ChannelCount)
		if err := block.Step(ctx, signals); err != nil {
			log.Fatal(err)
		}
		log.Println(signals.Values()) // [1 0 0 0 0 0 0]
	}
*/
package simevents

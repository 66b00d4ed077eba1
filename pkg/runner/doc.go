/*
Package runner implements a standalone execution loop for the simevents block.

Inside a real block-diagram engine the engine itself calls Initialize, Step and Terminate. The
runner stands in for that engine: it initializes the block, steps it on a fixed period against
an in-memory signal set, and publishes each step's outputs through a pluggable Publisher.

# Key Components

  - Runner: the ticker loop. Step failures are logged and the loop continues.
  - Publisher: decouples where step outputs go (JSON lines, text, nothing).
  - SignalManager: turns SIGINT/SIGTERM into context cancellation.

# Usage

	r := runner.NewRunner(
		runner.WithPeriod(50*time.Millisecond),
		runner.WithPublisher(runner.NewJSONPublisher(os.Stdout)),
	)

	if err := r.Run(ctx, block, params); err != nil {
		log.Fatal(err)
	}
*/
package runner

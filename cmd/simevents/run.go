package main

import (
	"github.com/aretw0/simevents/internal/cli"
	"github.com/aretw0/simevents/pkg/runner"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the block against the configured event source",
	Long: `Initializes the block, steps it on the configured period and prints each step's
outputs to stdout. With http.listen set (or --listen) it also serves the status surface.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("backend") {
			cfg.Source.Backend, _ = flags.GetString("backend")
		}
		if flags.Changed("connection") {
			cfg.Block.ConnectionName, _ = flags.GetString("connection")
		}
		if flags.Changed("period") {
			cfg.Runner.Period, _ = flags.GetDuration("period")
		}
		if flags.Changed("steps") {
			cfg.Runner.MaxSteps, _ = flags.GetUint64("steps")
		}
		if flags.Changed("output") {
			cfg.Runner.Output, _ = flags.GetString("output")
		}
		if flags.Changed("listen") {
			cfg.HTTP.Listen, _ = flags.GetString("listen")
		}
		if flags.Changed("changes-only") {
			cfg.Runner.ChangesOnly, _ = flags.GetBool("changes-only")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()
		return cli.Run(sm.Context(), cli.RunOptions{Config: cfg, Stdout: cmd.OutOrStdout()})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("backend", "", "Event source backend (memory, redis, websocket)")
	runCmd.Flags().String("connection", "", "Connection name opened on the source")
	runCmd.Flags().Duration("period", 0, "Step period (e.g. 50ms)")
	runCmd.Flags().Uint64("steps", 0, "Stop after this many steps (0 runs until interrupted)")
	runCmd.Flags().StringP("output", "o", "", "Step output format (json, text, none)")
	runCmd.Flags().String("listen", "", "Address for the status surface (e.g. :8080)")
	runCmd.Flags().Bool("changes-only", false, "Only print steps whose outputs changed")
}

package main

import (
	"github.com/aretw0/simevents/internal/cli"
	"github.com/aretw0/simevents/internal/logging"
	"github.com/aretw0/simevents/pkg/runner"
	"github.com/spf13/cobra"
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Start a websocket simulator bridge",
	Long: `Starts a stand-in simulator. Blocks connect on /ws; events are injected with
POST /emit {"connection": "...", "event": "AP_MASTER", "data": 0}.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}

		listen, _ := cmd.Flags().GetString("listen")
		refused, _ := cmd.Flags().GetStringSlice("refuse")

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()
		return cli.RunSimulator(sm.Context(), cli.SimOptions{
			Listen:  listen,
			Refused: refused,
			Logger:  logging.New(level),
		})
	},
}

func init() {
	rootCmd.AddCommand(simCmd)

	simCmd.Flags().StringP("listen", "l", ":8765", "Address to listen on")
	simCmd.Flags().StringSlice("refuse", nil, "Event names the simulator refuses to map")
}

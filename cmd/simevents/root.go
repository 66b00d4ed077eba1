package main

import (
	"fmt"
	"os"

	"github.com/aretw0/simevents/internal/config"
	"github.com/aretw0/simevents/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "simevents",
	Short: "simevents bridges simulator events into sampled output signals",
	Long: `simevents subscribes to a fixed set of autopilot events on an external simulator and
turns them into seven scalar signals sampled once per step.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML or JSON configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
}

// loadConfig reads --config and applies the --log-level override.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		if _, err := logging.ParseLevel(level); err != nil {
			return nil, err
		}
		cfg.Log.Level = level
	}
	return cfg, nil
}

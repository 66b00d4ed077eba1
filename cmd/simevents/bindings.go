package main

import (
	"github.com/aretw0/simevents/internal/cli"
	"github.com/aretw0/simevents/pkg/domain"
	"github.com/spf13/cobra"
)

var bindingsCmd = &cobra.Command{
	Use:   "bindings",
	Short: "Print the event bindings and their output channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.PrintBindings(cmd.OutOrStdout(), domain.DefaultBindings())
	},
}

func init() {
	rootCmd.AddCommand(bindingsCmd)
}

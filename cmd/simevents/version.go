package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/simevents"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of simevents",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "simevents version %s\n", strings.TrimSpace(simevents.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

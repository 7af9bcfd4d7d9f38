package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360/nodeflow/system"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and plugin ABI of nodeflow",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build %s, plugin ABI %d)\n",
				appName, Version, BuildTime, system.LogicVersion)
		},
	}
}

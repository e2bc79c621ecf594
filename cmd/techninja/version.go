package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/techninja/techninja"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of TechNinja",
		// The version never needs the config file.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "techninja %s\n%s\n", techninja.Version, techninja.Stamp())
		},
	}
}

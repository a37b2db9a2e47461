package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// newCmdVersion returns a command that prints the application version.
func newCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "txtweaver version %s (built %s, %s)\n",
				Version, BuildDate, runtime.Version())
		},
	}
}

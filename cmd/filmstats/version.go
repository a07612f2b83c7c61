package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"filmstats/internal/app"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the filmstats version",
		Args:  cobra.NoArgs,
		// No config needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s version %s (%s)\n", app.AppName, app.Version, runtime.Version())
			if app.BuildTime != "" {
				fmt.Fprintf(out, "built %s\n", app.BuildTime)
			}
		},
	}
}

package main

import (
	"github.com/spf13/cobra"

	"filmstats/internal/app"
)

func newServeCmd(env *cliEnv) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the results, reports and pipeline runs over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				env.cfg.Server.Port = port
			}

			telemetry, shutdown, err := env.telemetry()
			if err != nil {
				return err
			}
			defer shutdown()

			application, err := app.NewApplication(env.cfg, telemetry, env.logger)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default: server.port from config)")
	return cmd
}

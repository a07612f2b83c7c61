package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"filmstats/internal/app"
	"filmstats/internal/config"
	"filmstats/internal/infrastructure"
)

// cliEnv carries what PersistentPreRunE resolved to the subcommands
type cliEnv struct {
	baseDir string
	verbose bool

	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	env := &cliEnv{}

	root := &cobra.Command{
		Use:   app.AppName,
		Short: "Letterboxd export statistics",
		Long: `filmstats cleans the Letterboxd movies, ratings and users exports,
aggregates ratings per movie, analyses genres, years and languages, and
writes markdown, PNG, xlsx and BSON reports. It can also serve the results
over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = infrastructure.CloseLogFile()
		},
	}

	root.PersistentFlags().StringVar(&env.baseDir, "base-dir", "", "project directory holding data/ and reports/ (default: working directory)")
	root.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newFixMoviesCmd(env),
		newStepCmd(env, "clean", "Load and clean the raw exports", "load", "clean"),
		newStepCmd(env, "aggregate", "Aggregate ratings per movie", "aggregate"),
		newStepCmd(env, "analyze", "Build the genre, year, language and distribution tables", "analyze"),
		newStepCmd(env, "report", "Render the analysis reports", "report"),
		newRunCmd(env),
		newServeCmd(env),
		newVersionCmd(),
	)
	return root
}

// load reads the configuration and installs the process logger
func (e *cliEnv) load() error {
	cfg, err := config.Load(e.baseDir)
	if err != nil {
		return err
	}
	if e.verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	e.cfg = cfg
	e.paths = cfg.ResolvePaths()
	e.logger = logger
	return nil
}

// telemetry starts the providers for one command. The returned func flushes
// them.
func (e *cliEnv) telemetry() (*infrastructure.TelemetryProviders, func(), error) {
	providers, err := infrastructure.InitializeTelemetry(e.cfg.Telemetry, app.Version, e.logger)
	if err != nil {
		return nil, nil, err
	}
	return providers, func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			e.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}, nil
}

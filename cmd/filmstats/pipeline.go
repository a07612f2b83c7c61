package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"filmstats/internal/app"
	"filmstats/internal/files"
)

// newStepCmd runs a fixed subset of the pipeline in the foreground
func newStepCmd(env *cliEnv, use, short string, steps ...string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pipeline, shutdown, err := env.pipeline()
			if err != nil {
				return err
			}
			defer shutdown()

			return runOnce(ctx, cmd, pipeline, steps...)
		},
	}
}

func newRunCmd(env *cliEnv) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every pipeline step",
		Long: `Run loads, cleans, aggregates, analyses and reports in one pass.
With --watch it keeps running and repeats the pipeline whenever one of the
raw exports in the data directory changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pipeline, shutdown, err := env.pipeline()
			if err != nil {
				return err
			}
			defer shutdown()

			err = runOnce(ctx, cmd, pipeline)
			if !watch {
				return err
			}
			if err != nil {
				env.logger.WarnContext(ctx, "initial run failed, waiting for input changes",
					slog.String("error", err.Error()))
			}

			watcher := files.NewWatcher(env.logger, env.paths.DataDir, env.cfg.Watch.Debounce)
			return watcher.Watch(ctx, func(ctx context.Context, changed []string) {
				env.logger.InfoContext(ctx, "inputs changed, rerunning pipeline",
					slog.Any("files", changed))
				if err := runOnce(ctx, cmd, pipeline); err != nil {
					env.logger.ErrorContext(ctx, "pipeline run failed", slog.String("error", err.Error()))
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rerun when the raw exports change")
	return cmd
}

// pipeline builds a foreground pipeline with telemetry. The returned func
// releases the telemetry providers.
func (e *cliEnv) pipeline() (*app.Pipeline, func(), error) {
	telemetry, shutdown, err := e.telemetry()
	if err != nil {
		return nil, nil, err
	}
	e.paths.LogPathResolution(e.logger)

	pipeline, err := app.NewPipeline(e.cfg, e.paths, nil, telemetry, e.logger)
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	return pipeline, shutdown, nil
}

// runFailure is a run error the summary has already printed
type runFailure struct{ err error }

func (f *runFailure) Error() string { return f.err.Error() }
func (f *runFailure) Unwrap() error { return f.err }

// runOnce executes steps and prints the run summary. The summary is printed
// for failed runs too.
func runOnce(ctx context.Context, cmd *cobra.Command, pipeline *app.Pipeline, steps ...string) error {
	resp, err := pipeline.Run(ctx, steps...)
	if resp != nil {
		printRunSummary(cmd.OutOrStdout(), resp)
		if err != nil && resp.Error != "" {
			return &runFailure{err: err}
		}
	}
	return err
}

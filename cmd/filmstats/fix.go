package main

import (
	"github.com/spf13/cobra"

	"filmstats/internal/ingest"
)

func newFixMoviesCmd(env *cliEnv) *cobra.Command {
	var src, dst string

	cmd := &cobra.Command{
		Use:   "fix-movies",
		Short: "Rewrite movies.csv without malformed lines and duplicate rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if src == "" {
				src = env.paths.MoviesCSV
			}
			if dst == "" {
				dst = env.paths.FixedMoviesCSV
			}

			res, err := ingest.FixMovies(cmd.Context(), src, dst, env.logger)
			if err != nil {
				return err
			}
			printFixSummary(cmd.OutOrStdout(), dst, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&src, "in", "", "movies export to fix (default: data/movies.csv)")
	cmd.Flags().StringVar(&dst, "out", "", "where to write the fixed file (default: data/movies_clean.csv)")
	return cmd
}

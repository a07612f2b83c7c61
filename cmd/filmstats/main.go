package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(runCLI(context.Background(), newRootCmd()))
}

// runCLI executes root and returns the process exit code. Errors are
// printed once: a failed run already shows its error in the summary.
func runCLI(ctx context.Context, root *cobra.Command) int {
	if err := root.ExecuteContext(ctx); err != nil {
		reportError(root.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func reportError(w io.Writer, err error) {
	var failed *runFailure
	if errors.As(err, &failed) {
		return
	}
	fmt.Fprintf(w, "%s %v\n", failColor.Sprint("Error:"), err)
}

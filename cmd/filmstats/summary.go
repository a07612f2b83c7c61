package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"filmstats/internal/ingest"
	"filmstats/internal/operations"
)

var stepOrder = []string{
	operations.StepIDLoad,
	operations.StepIDClean,
	operations.StepIDAggregate,
	operations.StepIDAnalyze,
	operations.StepIDReport,
}

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	skipColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
)

func colorStatus(status string) string {
	// Step and run statuses share the completed and failed values
	switch status {
	case string(operations.StepStatusCompleted):
		return okColor.Sprint(status)
	case string(operations.StepStatusFailed):
		return failColor.Sprint(status)
	case string(operations.StepStatusSkipped), string(operations.OperationStatusCancelled):
		return skipColor.Sprint(status)
	}
	return status
}

// printRunSummary writes the per-step table, the outputs table and the
// overall status of a run
func printRunSummary(w io.Writer, resp *operations.OperationResponse) {
	steps := tablewriter.NewWriter(w)
	steps.SetHeader([]string{"Step", "Status", "Duration", "Message"})
	steps.SetAutoWrapText(false)
	for _, id := range stepOrder {
		st, ok := resp.Steps[id]
		if !ok {
			continue
		}
		steps.Append([]string{id, colorStatus(string(st.Status)), stepDuration(st), st.Message})
	}
	steps.Render()

	if len(resp.Outputs) > 0 {
		fmt.Fprintln(w)
		outputs := tablewriter.NewWriter(w)
		outputs.SetHeader([]string{"Output", "Rows", "Size", "Step"})
		outputs.SetAutoWrapText(false)
		for _, out := range resp.Outputs {
			rows := "-"
			if out.Rows != nil {
				rows = strconv.Itoa(*out.Rows)
			}
			outputs.Append([]string{out.Name, rows, formatSize(out.Size), out.CreatedBy})
		}
		outputs.Render()
	}

	fmt.Fprintf(w, "\nrun %s %s in %s\n", dimColor.Sprint(resp.ID),
		colorStatus(string(resp.Status)), resp.Duration.Round(time.Millisecond))
	if resp.Error != "" {
		fmt.Fprintf(w, "%s %s\n", failColor.Sprint("error:"), resp.Error)
	}
}

func printFixSummary(w io.Writer, dst string, res *ingest.FixResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rows written", "Malformed lines skipped", "Duplicates dropped"})
	table.Append([]string{
		strconv.Itoa(res.Rows),
		strconv.Itoa(res.SkippedLines),
		strconv.Itoa(res.DuplicatesDrop),
	})
	table.Render()
	fmt.Fprintf(w, "%s %s\n", okColor.Sprint("wrote"), dst)
}

func stepDuration(st *operations.StepState) string {
	if st.StartTime == nil || st.EndTime == nil {
		return "-"
	}
	return st.EndTime.Sub(*st.StartTime).Round(time.Millisecond).String()
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"phiextract/internal/extraction"
)

// writeReport prints the stage table and a one-line outcome.
func writeReport(out io.Writer, report *extraction.Report) {
	if report == nil {
		return
	}
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		rows = append(rows, []string{
			string(res.Stage),
			string(res.Status),
			formatDuration(res.Duration),
			res.Detail,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Stage", "Status", "Time", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))

	switch {
	case report.Failed():
		fmt.Fprintln(out, renderStatusLine("Result", statusError, string(report.Reason), colorize))
	case len(report.Missing) > 0:
		fmt.Fprintln(out, renderStatusLine("Result", statusWarn,
			"partial output, missing "+strings.Join(report.Missing, ", "), colorize))
	default:
		fmt.Fprintln(out, renderStatusLine("Result", statusOK,
			fmt.Sprintf("%d files written", len(report.Written)), colorize))
	}
	if report.CatalogPath != "" {
		fmt.Fprintln(out, renderStatusLine("Catalog", statusInfo, report.CatalogPath, colorize))
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

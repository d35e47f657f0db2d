package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"tidy/internal/engine"
	"tidy/internal/ledger"
	"tidy/internal/logging"
	"tidy/internal/notifications"
	"tidy/internal/runs"
)

// localEngine builds a standalone engine for commands running without a
// daemon. The returned cleanup closes the ledger.
func (c *commandContext) localEngine() (*engine.Engine, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	eng, err := engine.New(cfg, store, notifications.NewService(cfg), logger)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return eng, func() { store.Close() }, nil
}

func printReport(out io.Writer, report runs.ExecutionReport, sourceRoot string) {
	verb := "Moved"
	if report.DryRun {
		verb = "Would move"
	}

	for _, outcome := range report.Succeeded {
		fmt.Fprintf(out, "%s %s -> %s\n", verb,
			displayPath(sourceRoot, outcome.Source),
			displayPath(sourceRoot, outcome.Destination))
	}
	for _, failure := range report.Failed {
		fmt.Fprintf(out, "Failed %s: %s\n", displayPath(sourceRoot, failure.Source), failure.Reason)
	}

	if report.Empty() {
		fmt.Fprintln(out, "Nothing to organize")
		return
	}
	fmt.Fprintf(out, "%d organized, %d failed\n", report.SucceededCount(), report.FailedCount())
}

func printUndoReport(out io.Writer, report runs.ExecutionReport, sourceRoot string) {
	for _, outcome := range report.Succeeded {
		fmt.Fprintf(out, "Restored %s -> %s\n",
			displayPath(sourceRoot, outcome.Source),
			displayPath(sourceRoot, outcome.Destination))
	}
	for _, failure := range report.Failed {
		fmt.Fprintf(out, "Conflict %s: %s\n", displayPath(sourceRoot, failure.Source), failure.Reason)
	}
	fmt.Fprintf(out, "%d restored, %d conflicts\n", report.SucceededCount(), report.FailedCount())
}

// displayPath shortens paths under the source root for readable output.
func displayPath(sourceRoot, path string) string {
	if sourceRoot == "" {
		return path
	}
	rel, err := filepath.Rel(sourceRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func formatBytes(n int64) string {
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

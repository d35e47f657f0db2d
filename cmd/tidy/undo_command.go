package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tidy/internal/ipc"
	"tidy/internal/ledger"
	"tidy/internal/runs"
)

func newUndoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Reverse the most recent organize run",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			cfg := ctx.configValue()

			var report runs.ExecutionReport
			err := ctx.withDaemon(func(client *ipc.Client) error {
				resp, err := client.Undo()
				if err != nil {
					return err
				}
				report = resp.Report
				return nil
			})
			if errors.Is(err, errNoDaemon) {
				eng, cleanup, lerr := ctx.localEngine()
				if lerr != nil {
					return lerr
				}
				defer cleanup()
				report, err = eng.UndoLastRun(cmd.Context())
			}
			if err != nil {
				// RPC errors arrive as strings, so match both forms.
				if errors.Is(err, ledger.ErrNoRuns) || strings.Contains(err.Error(), ledger.ErrNoRuns.Error()) {
					fmt.Fprintln(stdout, "No runs left to undo")
					return nil
				}
				return err
			}

			printUndoReport(stdout, report, cfg.Paths.SourceRoot)
			return nil
		},
	}
}

package main

import (
	"errors"

	"github.com/spf13/cobra"

	"tidy/internal/ipc"
	"tidy/internal/runs"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Organize the source folder once",
		Long: "Scans the source folder, classifies each file, and moves it into its " +
			"destination bucket. Prefers a running daemon; falls back to running " +
			"in-process when none is reachable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			cfg := ctx.configValue()

			var report runs.ExecutionReport
			err := ctx.withDaemon(func(client *ipc.Client) error {
				resp, err := client.Run(dryRun)
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
				report, err = eng.RunOnce(cmd.Context(), dryRun)
			}
			if err != nil {
				return err
			}

			printReport(stdout, report, cfg.Paths.SourceRoot)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show planned moves without touching any file")
	return cmd
}

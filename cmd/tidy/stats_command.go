package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tidy/internal/ipc"
	"tidy/internal/stats"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the organized tree and move trends",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			var summary *stats.Summary
			err := ctx.withDaemon(func(client *ipc.Client) error {
				resp, err := client.Stats()
				if err != nil {
					return err
				}
				summary = &resp.Summary
				return nil
			})
			if errors.Is(err, errNoDaemon) {
				eng, cleanup, engErr := ctx.localEngine()
				if engErr != nil {
					return engErr
				}
				defer cleanup()
				summary, err = eng.Stats(cmd.Context())
				if err != nil {
					return err
				}
			} else if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Source root: %s\n", summary.SourceRoot)
			fmt.Fprintf(stdout, "Unorganized files: %d\n\n", summary.Unorganized)

			if len(summary.Buckets) == 0 {
				fmt.Fprintln(stdout, "No organized buckets yet")
			} else {
				rows := make([][]string, 0, len(summary.Buckets)+1)
				for _, bucket := range summary.Buckets {
					rows = append(rows, []string{
						stats.Label(bucket.Bucket),
						strconv.Itoa(bucket.Files),
						formatBytes(bucket.Bytes),
					})
				}
				rows = append(rows, []string{"Total", strconv.Itoa(summary.TotalFiles), formatBytes(summary.TotalBytes)})
				aligns := []columnAlignment{alignLeft, alignRight, alignRight}
				fmt.Fprintln(stdout, renderTable([]string{"Bucket", "Files", "Size"}, rows, aligns))
			}

			if len(summary.Monthly) > 0 {
				fmt.Fprintln(stdout)
				rows := make([][]string, 0, len(summary.Monthly))
				for _, month := range summary.Monthly {
					rows = append(rows, []string{month.Month, strconv.Itoa(month.Moves)})
				}
				aligns := []columnAlignment{alignLeft, alignRight}
				fmt.Fprintln(stdout, renderTable([]string{"Month", "Moves"}, rows, aligns))
			}
			return nil
		},
	}
}

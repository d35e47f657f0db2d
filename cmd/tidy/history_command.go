package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tidy/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent organize runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			rows := make([][]string, 0)
			err := ctx.withDaemon(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				for _, run := range resp.Runs {
					rows = append(rows, historyRow(run.RunID, run.Trigger, run.StartedAt.Local().Format("2006-01-02 15:04"), run.Moves, run.Reverted))
				}
				return nil
			})
			if errors.Is(err, errNoDaemon) {
				eng, cleanup, engErr := ctx.localEngine()
				if engErr != nil {
					return engErr
				}
				defer cleanup()
				history, histErr := eng.History(cmd.Context(), limit)
				if histErr != nil {
					return histErr
				}
				for _, run := range history {
					rows = append(rows, historyRow(run.ID, run.Trigger, run.StartedAt.Local().Format("2006-01-02 15:04"), run.Records, run.Reverted))
				}
			} else if err != nil {
				return err
			}

			if len(rows) == 0 {
				fmt.Fprintln(stdout, "No runs recorded yet")
				return nil
			}
			headers := []string{"Run", "Trigger", "Started", "Moves", "Reverted"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
			fmt.Fprintln(stdout, renderTable(headers, rows, aligns))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of runs to list")
	return cmd
}

func historyRow(runID, trigger, started string, moves int, reverted bool) []string {
	return []string{shortRunID(runID), trigger, started, strconv.Itoa(moves), yesNo(reverted)}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tidy/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, watcher, and source folder status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			cfg := ctx.configValue()

			for _, line := range renderSectionHeader("System Status", colorize) {
				fmt.Fprintln(stdout, line)
			}

			err := ctx.withDaemon(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
				watchKind, watchMsg := statusInfo, "idle"
				if status.Watching {
					watchKind, watchMsg = statusOK, "active"
				}
				fmt.Fprintln(stdout, renderStatusLine("Watcher", watchKind, watchMsg, colorize))
				printSourceRoot(stdout, status.SourceRoot, status.SourceRootExists, colorize)
				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Paths", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Ledger", statusInfo, status.LedgerPath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Lock file", statusInfo, status.LockPath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Socket", statusInfo, ctx.socketPath(), colorize))
				return nil
			})
			if errors.Is(err, errNoDaemon) {
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "not running", colorize))
				_, statErr := os.Stat(cfg.Paths.SourceRoot)
				printSourceRoot(stdout, cfg.Paths.SourceRoot, statErr == nil, colorize)
				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Paths", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Ledger", statusInfo, cfg.LedgerPath(), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Socket", statusInfo, ctx.socketPath(), colorize))
				return nil
			}
			return err
		},
	}
}

func printSourceRoot(stdout io.Writer, root string, exists bool, colorize bool) {
	if exists {
		fmt.Fprintln(stdout, renderStatusLine("Source root", statusOK, root, colorize))
		return
	}
	fmt.Fprintln(stdout, renderStatusLine("Source root", statusError, fmt.Sprintf("%s (missing)", root), colorize))
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tidy/internal/ipc"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Control the daemon's filesystem watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Enable debounced automatic organizing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return toggleWatch(ctx, cmd, true)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Disable automatic organizing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return toggleWatch(ctx, cmd, false)
		},
	})

	return cmd
}

func toggleWatch(ctx *commandContext, cmd *cobra.Command, enable bool) error {
	stdout := cmd.OutOrStdout()
	err := ctx.withDaemon(func(client *ipc.Client) error {
		resp, err := client.Watch(enable)
		if err != nil {
			return err
		}
		if resp.Watching {
			fmt.Fprintln(stdout, "Watcher is active")
		} else {
			fmt.Fprintln(stdout, "Watcher is stopped")
		}
		return nil
	})
	if errors.Is(err, errNoDaemon) {
		return errors.New("watching requires the daemon; start it with `tidyd` or `tidy daemon run`")
	}
	return err
}

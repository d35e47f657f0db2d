package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tidy/internal/daemon"
	"tidy/internal/engine"
	"tidy/internal/ipc"
	"tidy/internal/ledger"
	"tidy/internal/logging"
	"tidy/internal/notifications"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Daemon management",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tidy daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd, ctx)
		},
	}

	daemonCmd.AddCommand(runCmd)
	return daemonCmd
}

func runDaemonProcess(cmd *cobra.Command, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	notifier := notifications.NewService(cfg)
	eng, err := engine.New(cfg, store, notifier, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("build engine: %w", err)
	}

	d, err := daemon.New(cfg, store, eng, notifier, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, ctx.socketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Daemon running, press Ctrl+C to stop")
	<-signalCtx.Done()
	logger.Info("tidy daemon shutting down")
	return nil
}

package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"tidy/internal/config"
	"tidy/internal/daemon"
	"tidy/internal/engine"
	"tidy/internal/ipc"
	"tidy/internal/ledger"
	"tidy/internal/logging"
	"tidy/internal/notifications"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		logger.Error("open ledger", logging.Error(err))
		return
	}

	notifier := notifications.NewService(cfg)
	eng, err := engine.New(cfg, store, notifier, logger)
	if err != nil {
		logger.Error("build engine", logging.Error(err))
		store.Close()
		return
	}

	d, err := daemon.New(cfg, store, eng, notifier, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		store.Close()
		return
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("tidyd shutting down")
}

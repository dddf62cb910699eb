package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"reelsmith/internal/config"
	"reelsmith/internal/ipc"
	"reelsmith/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := buildDaemon(cfg, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
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
	logger.Info("reelsmithd shutting down")
}

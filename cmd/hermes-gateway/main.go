// Command hermes-gateway exposes a Hermes bus over HTTP and WebSocket.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nfrund/hermes/internal/app"
	"github.com/nfrund/hermes/internal/config"
	"github.com/nfrund/hermes/internal/logging"
	"github.com/nfrund/hermes/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("gateway stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		// slog is not configured yet.
		log.Printf("configuration: %v", err)
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.LogFormat, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	if err := deps.Start(ctx); err != nil {
		return err
	}

	s, err := server.New(deps)
	if err != nil {
		return err
	}
	s.RegisterRoutes()

	return s.Start(ctx, cfg.Gateway.Addr)
}

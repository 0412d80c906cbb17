package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/di"
	"github.com/forsetihq/flowd/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}

	bootstrap := observability.NewBootstrapLogger(cfg)

	telemetry, err := observability.InitRuntime(ctx, cfg, bootstrap)
	if err != nil {
		bootstrap.Error("telemetry init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	application, err := di.InitializeApp(ctx, cfg, telemetry)
	if err != nil {
		bootstrap.Error("startup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		bootstrap.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

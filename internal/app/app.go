// Package app owns process lifecycle: serve, drain, shut down.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/database"
	"github.com/forsetihq/flowd/internal/observability"
	"github.com/forsetihq/flowd/internal/service"
)

const shutdownGrace = 15 * time.Second

type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	handler   http.Handler
	store     *database.Store
	lifecycle *service.DemoLifecycle
	telemetry *observability.Runtime
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	handler http.Handler,
	store *database.Store,
	lifecycle *service.DemoLifecycle,
	telemetry *observability.Runtime,
) *App {
	return &App{cfg: cfg, logger: logger, handler: handler, store: store, lifecycle: lifecycle, telemetry: telemetry}
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// flushes telemetry.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.HTTPPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go a.lifecycle.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening",
			slog.String("addr", srv.Addr),
			slog.String("auth_mode", string(a.cfg.AuthMode)),
			slog.Bool("demo", a.cfg.DemoMode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

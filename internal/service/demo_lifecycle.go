package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/database"
	"github.com/forsetihq/flowd/internal/observability"
	"github.com/forsetihq/flowd/internal/session"
)

const minResetDelay = time.Minute

// DemoLifecycle wipes and rebuilds the demo store: nightly at UTC midnight,
// and lazily when the store file has gone stale past the configured age
// (covers hosts that sleep through the schedule).
type DemoLifecycle struct {
	cfg      *config.Config
	store    *database.Store
	sessions session.Store
	logger   *slog.Logger
}

func NewDemoLifecycle(cfg *config.Config, store *database.Store, sessions session.Store, logger *slog.Logger) *DemoLifecycle {
	return &DemoLifecycle{cfg: cfg, store: store, sessions: sessions, logger: logger}
}

// Run blocks until ctx is done, resetting the store on each UTC midnight.
// The delay is floored at one minute so a reset can never retrigger itself
// in a tight loop right after midnight.
func (d *DemoLifecycle) Run(ctx context.Context) {
	if !d.cfg.DemoMode {
		return
	}
	for {
		delay := untilNextUTCMidnight(time.Now().UTC())
		if delay < minResetDelay {
			delay = minResetDelay
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			d.reset(ctx, "scheduled")
		}
	}
}

// MaybeReset performs a lazy reset when the store has not been rebuilt
// within the configured maximum age. Called from the request path, so a
// failed staleness probe is logged and ignored rather than failing requests.
func (d *DemoLifecycle) MaybeReset(ctx context.Context) {
	if !d.cfg.DemoMode {
		return
	}
	mtime, err := d.store.LastModified()
	if err != nil {
		d.logger.WarnContext(ctx, "demo staleness probe failed", slog.String("error", err.Error()))
		return
	}
	if time.Since(mtime) > d.cfg.DemoResetMaxAge {
		d.reset(ctx, "lazy")
	}
}

// reset rebuilds the store from an empty schema and revokes every session,
// so stale session cookies cannot outlive the data they pointed at.
func (d *DemoLifecycle) reset(ctx context.Context, trigger string) {
	if err := d.store.Reset(); err != nil {
		d.logger.ErrorContext(ctx, "demo reset failed", slog.String("trigger", trigger), slog.String("error", err.Error()))
		return
	}
	if err := d.sessions.RevokeAll(ctx); err != nil {
		d.logger.ErrorContext(ctx, "session revocation after reset failed", slog.String("error", err.Error()))
	}
	observability.RecordDemoReset(ctx, trigger)
	d.logger.InfoContext(ctx, "demo store reset", slog.String("trigger", trigger))
}

func untilNextUTCMidnight(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return next.Sub(now)
}

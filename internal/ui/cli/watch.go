package cli

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"brokenpkg/internal/core/config"
	"brokenpkg/internal/core/watcher"
)

// runWatch scans once, then rescans whenever the local package database
// changes, until ctx is cancelled.
func runWatch(ctx context.Context, a *app, cfgPath string) error {
	if _, err := a.scan(ctx); err != nil {
		return err
	}

	cfg := a.config()
	if addr := cfg.Observability.MetricsAddr; addr != "" {
		srv := NewObservabilityServer(addr, a)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(stopCtx)
		}()
	}

	if cfgPath != "" {
		cw := config.NewWatcher(cfgPath, a.reload)
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config file will not be reloaded", "path", cfgPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	return watchDatabase(ctx, a, func(ctx context.Context) {
		if _, err := a.scan(ctx); err != nil {
			slog.Error("rescan failed", "error", err)
		}
	})
}

// watchDatabase calls rescan after every debounced change below
// <dbpath>/local. Rescans never overlap.
func watchDatabase(ctx context.Context, a *app, rescan func(context.Context)) error {
	trigger := make(chan struct{}, 1)
	w, err := watcher.NewWatcher(a.config().Watch.Debounce, []string{"*.lck"}, func(entries []string) {
		slog.Info("package database changed", "entries", len(entries))
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	local := filepath.Join(a.paths.DBPath.String(), "local")
	if err := w.Watch(local); err != nil {
		return err
	}
	slog.Info("watching package database", "path", local)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-trigger:
			w.SetDebounce(a.config().Watch.Debounce)
			rescan(ctx)
		}
	}
}

// watchInBackground runs watchDatabase for callers that cannot act on its
// error. Failures other than cancellation are logged.
func watchInBackground(ctx context.Context, a *app, rescan func(context.Context)) {
	err := watchDatabase(ctx, a, rescan)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("database watch stopped", "path", a.paths.DBPath.String(), "error", err)
	}
}

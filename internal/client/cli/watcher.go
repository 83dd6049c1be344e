package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/simpleshare/internal/client/toaster"
)

const pingTimeout = 3 * time.Second

func (a *App) getMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// setMode records mode and raises a toast when it changes.
func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	prev := a.mode
	a.mode = mode
	a.mu.Unlock()

	if prev == mode {
		return
	}
	a.logger.Info(context.Background(), "connectivity changed", "mode", mode)
	if mode == ModeOnline {
		a.toast(toaster.KindInfo, "Server online")
	} else {
		a.toast(toaster.KindWarn, "Server unreachable, working offline")
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.pinger.Ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
	a.resumeListening(ctx)
}

// StartOnlineStatusWatcher pings the server right away and then every
// interval until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

package main

import (
	"context"
	"time"
)

const defaultSweepInterval = time.Minute

// IdleSweeper is implemented by SessionStore, and by stubs in tests
type IdleSweeper interface {
	SweepIdle(ttl time.Duration) int
}

// StartSessionSweeper removes idle sessions every interval until ctx is done.
// The returned channel is closed once the loop has exited.
func StartSessionSweeper(ctx context.Context, store IdleSweeper, ttl, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Infoln("Session sweeper shutting down")
				return
			case <-ticker.C:
				if removed := store.SweepIdle(ttl); removed > 0 {
					log.Debugf("Removed %d idle sessions", removed)
				}
			}
		}
	}()
	return done
}

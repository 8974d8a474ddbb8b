package service

import (
	"context"
	"time"
)

// RunEvery runs fn every interval until ctx is done, then returns nil.
func RunEvery(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fn()
		case <-ctx.Done():
			return nil
		}
	}
}

package monitor

import (
	"context"
	"time"
)

// Run evaluates the scanner on a fixed period until ctx is cancelled.
// Passes run synchronously on this goroutine, so a slow pass can never
// overlap the next one; the ticker just drops the beats it missed. The
// first pass runs immediately instead of waiting out a full interval.
func Run(ctx context.Context, scanner Scanner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	_, _ = scanner.Tick(ctx)
	for {
		select {
		case <-ticker.C:
			_, _ = scanner.Tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

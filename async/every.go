// Package async includes helpers for scheduling runnable, periodic functions.
package async

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// RunEvery runs the provided function periodically in a goroutine until the
// supplied context is cancelled. The first run happens one period after the
// call, not immediately.
func RunEvery(ctx context.Context, period time.Duration, f func()) {
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				f()
			case <-ctx.Done():
				log.WithField("period", period).Debug("Context closed, exiting periodic routine")
				return
			}
		}
	}()
}

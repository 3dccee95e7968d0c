package cache

import (
	"context"
	"sync"
	"time"
)

// StartAutoRefresh starts a background loop that calls EnsureFresh(false)
// every interval, so the mirror is refreshed as soon as the TTL lapses rather
// than on the next request. Failures are logged and the loop keeps going.
//
// Returns a function that stops the loop. It is safe to call multiple times
// and blocks until the goroutine has exited. A non-positive interval starts
// nothing.
//
// Example:
//
//	stop := mirror.StartAutoRefresh(10 * time.Minute)
//	defer stop()
func (m *Mirror) StartAutoRefresh(interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.EnsureFresh(ctx, false); err != nil && ctx.Err() == nil {
					m.logger.Warn(ctx, "background refresh failed", "error", err.Error())
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

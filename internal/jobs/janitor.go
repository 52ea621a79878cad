package jobs

import (
	"context"
	"log"
	"time"
)

// StartJanitor sweeps the registry on every tick so idle servers still
// reclaim disk. It stops when ctx is cancelled.
func StartJanitor(ctx context.Context, reg *Registry, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := reg.Sweep(); n > 0 {
					log.Printf("🧹 Janitor: evicted %d expired tasks", n)
				}
			}
		}
	}()
}

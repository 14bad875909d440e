package utils

import (
	"context"
	"os"
	"time"

	"blogium/store"
)

// StartUploadCleaner launches a background goroutine that periodically
// deletes post images whose attachment grace period expired without the
// upload ever being referenced by a post. Best-effort; failures are logged.
func StartUploadCleaner(st *store.Store, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			items, err := st.ExpiredUploads(ctx, 100)
			if err != nil {
				cancel()
				Sugar.Warnf("upload cleaner query failed: %v", err)
				continue
			}
			for _, it := range items {
				if it.FilePath != "" {
					_ = os.Remove(it.FilePath)
				}
				// Remove row regardless of file deletion outcome
				if err := st.DropUpload(ctx, it.ID); err != nil {
					Sugar.Warnf("upload cleaner delete row failed: %v", err)
				}
			}
			cancel()
		}
	}()
}

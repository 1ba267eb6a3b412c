package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Warmer rebuilds the cached feed on a fixed interval so requests rarely
// pay for a build.
type Warmer struct {
	cron  *cron.Cron
	cache *Cache
	log   *slog.Logger
}

// NewWarmer registers a refresh job that runs every interval.
func NewWarmer(cache *Cache, interval time.Duration, log *slog.Logger) (*Warmer, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("warm interval must be positive, got %s", interval)
	}

	w := &Warmer{
		cron:  cron.New(),
		cache: cache,
		log:   log,
	}

	if _, err := w.cron.AddFunc("@every "+interval.String(), w.runRefresh); err != nil {
		return nil, fmt.Errorf("registering warm job: %w", err)
	}

	return w, nil
}

// Start begins running the refresh job.
func (w *Warmer) Start() {
	w.log.Info("cache warmer started")
	w.cron.Start()
}

// Stop stops the scheduler. The returned context is done once a running
// refresh has finished.
func (w *Warmer) Stop() context.Context {
	w.log.Info("cache warmer stopping")
	return w.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (w *Warmer) Entries() []cron.Entry {
	return w.cron.Entries()
}

func (w *Warmer) runRefresh() {
	w.log.Info("scheduled feed refresh starting")
	doc, err := w.cache.Refresh(context.Background())
	if err != nil {
		w.log.Error("scheduled feed refresh failed", "error", err)
		return
	}
	w.log.Info("scheduled feed refresh done", "items", doc.Items)
}

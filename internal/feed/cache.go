package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/metrics"
	"github.com/donaldgifford/shopify-zbozi-feed/internal/notify"
)

// DefaultTTL is how long a built document is served before a rebuild.
const DefaultTTL = 900 * time.Second

const flightKey = "feed"

// Renderer builds a complete feed document.
type Renderer interface {
	Render(ctx context.Context) (*Document, error)
}

// CacheStatus describes the cache slot.
type CacheStatus struct {
	Cached     bool
	BuiltAt    time.Time
	ExpiresAt  time.Time
	Items      int
	Bytes      int
	Stats      BuildStats
	LastError  string
	LastFailed time.Time
}

// Cache holds the last rendered document until its TTL passes. Concurrent
// misses share one build.
type Cache struct {
	renderer Renderer
	ttl      time.Duration
	notifier notify.Notifier
	log      *slog.Logger
	nowFunc  func() time.Time
	group    singleflight.Group

	mu         sync.RWMutex
	doc        *Document
	expiresAt  time.Time
	lastErr    error
	lastFailed time.Time
}

// CacheOption configures the Cache.
type CacheOption func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithNotifier sends build failures to n.
func WithNotifier(n notify.Notifier) CacheOption {
	return func(c *Cache) {
		c.notifier = n
	}
}

// WithCacheLogger sets a custom logger.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.log = l
	}
}

// WithCacheNowFunc overrides the clock for testing.
func WithCacheNowFunc(f func() time.Time) CacheOption {
	return func(c *Cache) {
		c.nowFunc = f
	}
}

// NewCache creates an empty Cache in front of r.
func NewCache(r Renderer, opts ...CacheOption) *Cache {
	c := &Cache{
		renderer: r,
		ttl:      DefaultTTL,
		log:      slog.Default(),
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached document while it is fresh, otherwise builds a
// new one. A failed build leaves the previous slot untouched.
func (c *Cache) Get(ctx context.Context) (*Document, error) {
	if doc, ok := c.fresh(); ok {
		metrics.FeedCacheHitsTotal.Inc()
		return doc, nil
	}
	metrics.FeedCacheMissesTotal.Inc()
	return c.build(ctx, false)
}

// Refresh rebuilds the document regardless of its age.
func (c *Cache) Refresh(ctx context.Context) (*Document, error) {
	return c.build(ctx, true)
}

// Invalidate empties the slot so the next Get builds.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc = nil
	c.expiresAt = time.Time{}
}

// Status reports the slot contents without triggering a build.
func (c *Cache) Status() CacheStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var s CacheStatus
	if c.doc != nil {
		s.Cached = c.nowFunc().Before(c.expiresAt)
		s.BuiltAt = c.doc.BuiltAt
		s.ExpiresAt = c.expiresAt
		s.Items = c.doc.Items
		s.Bytes = len(c.doc.Body)
		s.Stats = c.doc.Stats
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
		s.LastFailed = c.lastFailed
	}
	return s
}

// TTL returns the configured lifetime of a document.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) fresh() (*Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.doc == nil || !c.nowFunc().Before(c.expiresAt) {
		return nil, false
	}
	return c.doc, true
}

func (c *Cache) build(ctx context.Context, force bool) (*Document, error) {
	// The flight outlives any single caller.
	flightCtx := context.WithoutCancel(ctx)

	ch := c.group.DoChan(flightKey, func() (any, error) {
		if !force {
			if doc, ok := c.fresh(); ok {
				return doc, nil
			}
		}
		return c.render(flightCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Document), nil
	}
}

func (c *Cache) render(ctx context.Context) (*Document, error) {
	doc, err := c.renderer.Render(ctx)
	now := c.nowFunc()
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.lastFailed = now
		c.mu.Unlock()

		c.log.Error("feed build failed", "error", err)
		c.notifyFailure(ctx, err, now)
		return nil, err
	}

	c.mu.Lock()
	c.doc = doc
	c.expiresAt = now.Add(c.ttl)
	c.lastErr = nil
	c.mu.Unlock()

	return doc, nil
}

func (c *Cache) notifyFailure(ctx context.Context, err error, at time.Time) {
	if c.notifier == nil {
		return
	}

	c.mu.RLock()
	var lastSuccess time.Time
	if c.doc != nil {
		lastSuccess = c.doc.BuiltAt
	}
	c.mu.RUnlock()

	failure := &notify.BuildFailure{
		Error:       err.Error(),
		FailedAt:    at,
		LastSuccess: lastSuccess,
	}
	if nerr := c.notifier.SendBuildFailure(ctx, failure); nerr != nil {
		metrics.NotificationFailuresTotal.Inc()
		c.log.Warn("build failure notification failed", "error", nerr)
	}
}

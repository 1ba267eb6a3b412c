package shopify

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultMaxAttempts is the attempt ceiling for one query.
	DefaultMaxAttempts = 8

	retryAfterMin     = 1 * time.Second
	retryAfterMax     = 30 * time.Second
	retryAfterDefault = 2 * time.Second

	restoreTarget     = 100.0
	restoreWaitMin    = 2 * time.Second
	backoffBase       = 500 * time.Millisecond
	backoffMax        = 30 * time.Second
	lowBudgetLimit    = 50.0
	lowBudgetPause    = 1 * time.Second
	throttledCode     = "THROTTLED"
	throttledFragment = "throttled"
)

// ThrottleStatus is the bucket state the Admin API reports in
// extensions.cost.throttleStatus.
type ThrottleStatus struct {
	MaximumAvailable   float64 `json:"maximumAvailable"`
	CurrentlyAvailable float64 `json:"currentlyAvailable"`
	RestoreRate        float64 `json:"restoreRate"`
}

// QueryCost is the extensions.cost object of a GraphQL response.
type QueryCost struct {
	RequestedQueryCost float64         `json:"requestedQueryCost"`
	ActualQueryCost    *float64        `json:"actualQueryCost"`
	ThrottleStatus     *ThrottleStatus `json:"throttleStatus"`
}

// retryAfterDelay parses a Retry-After header given in seconds and clamps it
// to [1s, 30s]. A missing or unparsable header yields two seconds.
func retryAfterDelay(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return retryAfterDefault
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(secs) {
		return retryAfterDefault
	}
	secs = min(max(secs, retryAfterMin.Seconds()), retryAfterMax.Seconds())
	return time.Duration(secs * float64(time.Second))
}

// restoreDelay is how long the bucket needs to regain roughly 100 cost
// units at the reported restore rate, never less than two seconds.
func restoreDelay(restoreRate float64) time.Duration {
	secs := math.Ceil(restoreTarget / restoreRate)
	return max(time.Duration(secs)*time.Second, restoreWaitMin)
}

// backoffDelay is 0.5s doubled per attempt (zero-based), capped at 30s.
func backoffDelay(attempt int) time.Duration {
	if attempt > 16 {
		return backoffMax
	}
	return min(backoffBase*time.Duration(1<<uint(attempt)), backoffMax)
}

// throttleDelay picks the wait after an API-reported throttle.
func throttleDelay(cost *QueryCost, attempt int) time.Duration {
	if cost != nil && cost.ThrottleStatus != nil && cost.ThrottleStatus.RestoreRate > 0 {
		return restoreDelay(cost.ThrottleStatus.RestoreRate)
	}
	return backoffDelay(attempt)
}

// lowBudget reports whether the bucket is nearly empty after a success.
func lowBudget(cost *QueryCost) bool {
	return cost != nil &&
		cost.ThrottleStatus != nil &&
		cost.ThrottleStatus.CurrentlyAvailable < lowBudgetLimit
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pacer spaces outgoing requests with a token bucket so that bursts of page
// fetches do not drain the Admin API budget in the first place.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer with the given per-second rate and burst size.
func NewPacer(perSecond float64, burst int) *Pacer {
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until the pacer allows the call, or the context is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacer wait: %w", err)
	}
	return nil
}

// ThrottleSnapshot is the last throttle state observed from the Admin API.
type ThrottleSnapshot struct {
	Status     ThrottleStatus
	ObservedAt time.Time
	Throttled  int64
	Requests   int64
}

// ThrottleTracker records the most recent throttle status and counters.
// It is safe for concurrent use.
type ThrottleTracker struct {
	mu   sync.Mutex
	snap ThrottleSnapshot
	seen bool
}

func (t *ThrottleTracker) observe(cost *QueryCost, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Requests++
	if cost != nil && cost.ThrottleStatus != nil {
		t.snap.Status = *cost.ThrottleStatus
		t.snap.ObservedAt = at
		t.seen = true
	}
}

func (t *ThrottleTracker) throttled() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Throttled++
}

// Snapshot returns the last observed state and whether any throttle status
// has been seen yet.
func (t *ThrottleTracker) Snapshot() (ThrottleSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap, t.seen
}

package main

import "errors"

// KnownMetrics is the set of metric names exported by zbozi-feed plus the
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"zfeed_http_request_duration_seconds": true,
	"zfeed_http_requests_total":           true,
	"zfeed_http_response_size_bytes":      true,

	// Probes.
	"zfeed_healthz_up": true,
	"zfeed_readyz_up":  true,

	// Feed build and cache.
	"zfeed_feed_build_duration_seconds": true,
	"zfeed_feed_build_errors_total":     true,
	"zfeed_feed_items":                  true,
	"zfeed_feed_products_skipped_total": true,
	"zfeed_feed_cache_hits_total":       true,
	"zfeed_feed_cache_misses_total":     true,

	// Shopify Admin API.
	"zfeed_shopify_requests_total":               true,
	"zfeed_shopify_throttle_waits_total":         true,
	"zfeed_shopify_throttle_currently_available": true,
	"zfeed_token_exchanges_total":                true,

	// Notifications.
	"zfeed_notification_duration_seconds": true,
	"zfeed_notification_failures_total":   true,

	// Recording rules.
	"zfeed:http_requests:rate5m":         true,
	"zfeed:http_errors:rate5m":           true,
	"zfeed:feed_cache_hits:rate1h":       true,
	"zfeed:feed_cache_misses:rate1h":     true,
	"zfeed:shopify_requests:rate5m":      true,
	"zfeed:shopify_throttled:rate5m":     true,
	"zfeed:notification_duration:p95_5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into
// ../../deploy (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}

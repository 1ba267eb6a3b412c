package rules

// RecordingRules returns the recording rules used by the dashboard and alerts.
func RecordingRules() PrometheusRule {
	return newPrometheusRule("zbozi-feed-recording-rules",
		RuleGroup{
			Name:     "zfeed.http",
			Interval: "30s",
			Rules: []Rule{
				{
					Record: "zfeed:http_requests:rate5m",
					Expr:   `sum(rate(zfeed_http_requests_total{job="zbozi-feed"}[5m])) by (path)`,
				},
				{
					Record: "zfeed:http_errors:rate5m",
					Expr:   `sum(rate(zfeed_http_requests_total{job="zbozi-feed",status=~"5.."}[5m])) by (path)`,
				},
			},
		},
		RuleGroup{
			Name:     "zfeed.feed",
			Interval: "1m",
			Rules: []Rule{
				{
					Record: "zfeed:feed_cache_hits:rate1h",
					Expr:   `sum(rate(zfeed_feed_cache_hits_total{job="zbozi-feed"}[1h]))`,
				},
				{
					Record: "zfeed:feed_cache_misses:rate1h",
					Expr:   `sum(rate(zfeed_feed_cache_misses_total{job="zbozi-feed"}[1h]))`,
				},
			},
		},
		RuleGroup{
			Name:     "zfeed.shopify",
			Interval: "30s",
			Rules: []Rule{
				{
					Record: "zfeed:shopify_requests:rate5m",
					Expr:   `sum(rate(zfeed_shopify_requests_total{job="zbozi-feed"}[5m])) by (state)`,
				},
				{
					Record: "zfeed:shopify_throttled:rate5m",
					Expr:   `sum(rate(zfeed_shopify_throttle_waits_total{job="zbozi-feed"}[5m]))`,
				},
			},
		},
		RuleGroup{
			Name:     "zfeed.notify",
			Interval: "1m",
			Rules: []Rule{
				{
					Record: "zfeed:notification_duration:p95_5m",
					Expr:   `histogram_quantile(0.95, sum(rate(zfeed_notification_duration_seconds_bucket{job="zbozi-feed"}[5m])) by (le))`,
				},
			},
		},
	)
}

package rules

// AlertRules returns the zbozi-feed alerting rules.
func AlertRules() PrometheusRule {
	return newPrometheusRule("zbozi-feed-alerts",
		RuleGroup{
			Name: "zfeed.availability",
			Rules: []Rule{
				alert("ZfeedDown",
					`up{job="zbozi-feed"} == 0`, "5m", "critical",
					"zbozi-feed is down",
					"The feed server has not been scraped successfully for 5 minutes."),
				alert("ZfeedNotReady",
					`zfeed_readyz_up{job="zbozi-feed"} == 0`, "10m", "warning",
					"zbozi-feed cannot obtain a Shopify token",
					"Readiness has failed for 10 minutes. Check the app credentials."),
				alert("ZfeedHighErrorRate",
					`sum(zfeed:http_errors:rate5m) / sum(zfeed:http_requests:rate5m) > 0.05`, "10m", "warning",
					"zbozi-feed 5xx rate above 5%",
					"{{ $value | humanizePercentage }} of requests fail."),
			},
		},
		RuleGroup{
			Name: "zfeed.feed",
			Rules: []Rule{
				alert("ZfeedBuildFailing",
					`increase(zfeed_feed_build_errors_total{job="zbozi-feed"}[1h]) >= 3`, "", "warning",
					"Feed builds keep failing",
					"{{ $value }} feed builds failed in the last hour."),
				alert("ZfeedEmpty",
					`zfeed_feed_items{job="zbozi-feed"} == 0`, "30m", "warning",
					"The feed has no items",
					"The last successful build produced an empty SHOP document."),
			},
		},
		RuleGroup{
			Name: "zfeed.shopify",
			Rules: []Rule{
				alert("ZfeedShopifyThrottling",
					`zfeed:shopify_throttled:rate5m > 0.2`, "15m", "info",
					"Shopify is throttling the feed",
					"Sustained backoff after 429 or THROTTLED responses."),
				alert("ZfeedNotificationFailures",
					`increase(zfeed_notification_failures_total{job="zbozi-feed"}[1h]) > 0`, "", "info",
					"Build failure notifications are not delivered",
					"The Discord webhook rejected {{ $value }} notifications in the last hour."),
			},
		},
	)
}

// All returns every rule CR the generator writes, keyed by file name.
func All() map[string]PrometheusRule {
	return map[string]PrometheusRule{
		"zbozi-feed-recording-rules.yaml": RecordingRules(),
		"zbozi-feed-alerts.yaml":          AlertRules(),
	}
}

// Expressions returns every rule expression in cr.
func Expressions(cr PrometheusRule) []string {
	var out []string
	for _, g := range cr.Spec.Groups {
		for _, r := range g.Rules {
			out = append(out, r.Expr)
		}
	}
	return out
}

package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/gauge"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// BuildDuration shows how long full catalog builds take.
func BuildDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Build Duration").
		Description("p50 and p95 of full feed builds").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`histogram_quantile(0.50, sum(rate(zfeed_feed_build_duration_seconds_bucket{job="zbozi-feed"}[30m])) by (le))`,
			"p50", "A",
		)).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(zfeed_feed_build_duration_seconds_bucket{job="zbozi-feed"}[30m])) by (le))`,
			"p95", "B",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenYellowRed(60, 240)).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// BuildErrors shows failed builds over the last day.
func BuildErrors() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Build Failures (24h)").
		Description("Feed builds that failed and left the cache unchanged").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`increase(`+sel("zfeed_feed_build_errors_total")+`[24h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 3)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

// CacheHitRatio shows the share of feed requests served from the cache.
func CacheHitRatio() *gauge.PanelBuilder {
	return gauge.NewPanelBuilder().
		Title("Cache Hit %").
		Description("Feed requests answered without a build").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(
			`zfeed:feed_cache_hits:rate1h / (zfeed:feed_cache_hits:rate1h + zfeed:feed_cache_misses:rate1h) * 100`,
			"", "A",
		)).
		Unit("percent").
		Min(0).
		Max(100).
		Thresholds(ThresholdsRedYellowGreen(50, 80)).
		ColorScheme(ColorSchemeThresholds())
}

// SkippedProducts shows why products stay out of the feed.
func SkippedProducts() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Skipped Products").
		Description("Products left out per build, by reason").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(FullWidth).
		WithTarget(PromQuery(
			`sum(increase(`+sel("zfeed_feed_products_skipped_total")+`[1h])) by (reason)`,
			"{{reason}}", "A",
		)).
		FillOpacity(30).
		LineWidth(1).
		Legend(TableLegend("last", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleBars)
}

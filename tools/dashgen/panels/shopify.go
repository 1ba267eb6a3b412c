package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// AttemptsByState shows GraphQL attempts by retry state.
func AttemptsByState() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("GraphQL Attempts").
		Description("Admin API attempts per second by resulting state").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`zfeed:shopify_requests:rate5m`, "{{state}}", "A")).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// BucketAvailable shows the cost units left in the Admin API bucket.
func BucketAvailable() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Throttle Bucket").
		Description(fmt.Sprintf("Cost units available at the last response (bucket %d)", ShopifyBucketSize)).
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(sel("zfeed_shopify_throttle_currently_available"), "available", "A")).
		Min(0).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsRedYellowGreen(50, ShopifyBucketSize*0.25)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ThrottleWaits shows backoff waits in the last day by kind.
func ThrottleWaits() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Throttle Waits (24h)").
		Description("Backoffs after HTTP 429 or THROTTLED errors").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum(increase(`+sel("zfeed_shopify_throttle_waits_total")+`[24h])) by (kind)`,
			"{{kind}}", "A",
		)).
		Thresholds(ThresholdsGreenYellowRed(10, 100)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

// TokenExchanges shows client credentials exchanges in the last day.
func TokenExchanges() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Token Exchanges (24h)").
		Description("Client credentials grants performed").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`increase(`+sel("zfeed_token_exchanges_total")+`[24h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(10, 50)).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeNone)
}

// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/shopify-zbozi-feed/tools/dashgen/panels"
)

// OverviewUID is the stable dashboard UID used in Grafana links.
const OverviewUID = "zbozi-feed-overview"

// BuildOverview constructs the zbozi-feed overview dashboard.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Zbozi Feed Overview").
		Uid(OverviewUID).
		Tags([]string{"zbozi-feed", "shopify"}).
		Refresh("1m").
		Time("now-24h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.FeedItemsStat()).
		WithPanel(panels.UptimeStat()))

	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.FeedLatency()).
		WithPanel(panels.ErrorRate()))

	b.WithRow(dashboard.NewRowBuilder("Feed").
		WithPanel(panels.BuildDuration()).
		WithPanel(panels.BuildErrors()).
		WithPanel(panels.CacheHitRatio()).
		WithPanel(panels.SkippedProducts()))

	b.WithRow(dashboard.NewRowBuilder("Shopify").
		WithPanel(panels.AttemptsByState()).
		WithPanel(panels.BucketAvailable()).
		WithPanel(panels.ThrottleWaits()).
		WithPanel(panels.TokenExchanges()))

	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationLatency()).
		WithPanel(panels.NotificationFailures()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}

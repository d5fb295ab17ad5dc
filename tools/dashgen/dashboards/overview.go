// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/zhuliguang/Sidekick/tools/dashgen/panels"
)

// BuildOverview constructs the Sidekick Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Sidekick Overview").
		Uid("sidekick-overview").
		Tags([]string{"sidekick", "trade"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.RefdataReadyStat()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Reference data.
	b.WithRow(dashboard.NewRowBuilder("Reference Data").
		WithPanel(panels.SyncOutcomes()).
		WithPanel(panels.FetchFailures()).
		WithPanel(panels.RetriesScheduled()))

	// Row 4: Queries.
	b.WithRow(dashboard.NewRowBuilder("Queries").
		WithPanel(panels.DispatchRate()).
		WithPanel(panels.DispatchLatency()))

	// Row 5: Trade API.
	b.WithRow(dashboard.NewRowBuilder("Trade API").
		WithPanel(panels.APIRequests()).
		WithPanel(panels.Throttled()).
		WithPanel(panels.ListingPageFailures()))

	// Row 6: Notifications.
	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationFailures()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}

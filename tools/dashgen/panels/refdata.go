package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// SyncOutcomes returns a timeseries panel showing sync batches per minute by
// outcome.
func SyncOutcomes() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Sync Batches / min").
		Description("Reference data sync batches per minute by outcome").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum(rate(sidekick_refdata_sync_total`+jobMatcher+`[5m])) by (outcome) * 60`,
			"{{outcome}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// FetchFailures returns a timeseries panel showing failed collection fetches
// per minute by collection.
func FetchFailures() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Fetch Failures / min").
		Description("Failed reference data fetches per minute by collection").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum(rate(sidekick_refdata_fetch_total{job="sidekick",outcome="failure"}[5m])) by (collection) * 60`,
			"{{collection}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenYellowRed(0.1, 1)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// RetriesScheduled returns a stat panel showing sync retries scheduled in
// the last hour.
func RetriesScheduled() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Retries (1h)").
		Description("Reference data sync retries scheduled in the last hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`increase(sidekick_refdata_retries_scheduled_total`+jobMatcher+`[1h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 10)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// DispatchRate returns a timeseries panel showing submitted queries per
// second by protocol.
func DispatchRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Queries / s").
		Description("Trade queries submitted per second by protocol").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`sidekick:dispatch:rate5m`, "{{protocol}}", "A")).
		WithTarget(PromQuery(`sidekick:dispatch_failures:rate5m`, "{{protocol}} failed", "B")).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// DispatchLatency returns a timeseries panel showing the p95 query
// submission latency by protocol.
func DispatchLatency() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Query Latency (p95)").
		Description("95th percentile query submission latency by protocol").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(sidekick_dispatch_duration_seconds_bucket`+jobMatcher+`[5m])) by (le, protocol))`,
			"{{protocol}}", "A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// APIRequests returns a timeseries panel showing remote API requests per
// second by status.
func APIRequests() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Trade API Requests").
		Description("Requests to the trading API per second by status").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum(rate(sidekick_trade_api_requests_total`+jobMatcher+`[5m])) by (status)`,
			"{{status}}", "A",
		)).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// Throttled returns a stat panel showing throttled responses in the last
// hour.
func Throttled() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Throttled (1h)").
		Description("Responses rejected by the trading API rate limit in the last hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`increase(sidekick_trade_api_throttled_total`+jobMatcher+`[1h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 20)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

// ListingPageFailures returns a timeseries panel showing failed listing
// page fetches per minute.
func ListingPageFailures() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Listing Page Failures / min").
		Description("Listing pages that could not be fetched, per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`sidekick:listing_page_failures:rate5m * 60`, "failures/min", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenRed(1)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return newPrometheusRule("sidekick-recording-rules", "sidekick-recording",
		Rule{
			Record: "sidekick:http_requests:rate5m",
			Expr:   `sum(rate(sidekick_http_requests_total[5m]))`,
		},
		Rule{
			Record: "sidekick:http_errors:rate5m",
			Expr:   `sum(rate(sidekick_http_requests_total{status=~"5.."}[5m]))`,
		},
		Rule{
			Record: "sidekick:refdata_sync_failures:rate5m",
			Expr:   `sum(rate(sidekick_refdata_sync_total{outcome="failure"}[5m]))`,
		},
		Rule{
			Record: "sidekick:dispatch:rate5m",
			Expr:   `sum by (protocol) (rate(sidekick_dispatch_total[5m]))`,
		},
		Rule{
			Record: "sidekick:dispatch_failures:rate5m",
			Expr:   `sum by (protocol) (rate(sidekick_dispatch_total{outcome="failure"}[5m]))`,
		},
		Rule{
			Record: "sidekick:trade_api_throttled:rate5m",
			Expr:   `sum(rate(sidekick_trade_api_throttled_total[5m]))`,
		},
		Rule{
			Record: "sidekick:listing_page_failures:rate5m",
			Expr:   `sum(rate(sidekick_listing_pages_total{outcome="failure"}[5m]))`,
		},
	)
}

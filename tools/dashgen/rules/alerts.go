package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// sidekick operational monitoring.
func AlertRules() PrometheusRule {
	return newPrometheusRule("sidekick-alerts", "sidekick-alerts",
		Rule{
			Alert: "SidekickDown",
			Expr:  `absent(up{job="sidekick"})`,
			For:   "2m",
			Labels: map[string]string{
				"severity": "critical",
			},
			Annotations: map[string]string{
				"summary":     "Sidekick is down",
				"description": "The sidekick job has been absent for more than 2 minutes.",
			},
		},
		Rule{
			Alert: "SidekickReferenceDataMissing",
			Expr:  `sidekick_refdata_ready == 0`,
			For:   "5m",
			Labels: map[string]string{
				"severity": "critical",
			},
			Annotations: map[string]string{
				"summary":     "Sidekick has no reference data",
				"description": "Reference data has not been loaded for more than 5 minutes; queries are rejected until it is.",
			},
		},
		Rule{
			Alert: "SidekickSyncRetrying",
			Expr:  `sidekick:refdata_sync_failures:rate5m > 0`,
			For:   "10m",
			Labels: map[string]string{
				"severity": "warning",
			},
			Annotations: map[string]string{
				"summary":     "Reference data sync keeps failing",
				"description": "Sync batches have been failing and retrying for more than 10 minutes.",
			},
		},
		Rule{
			Alert: "SidekickHighErrorRate",
			Expr:  `sidekick:http_errors:rate5m / sidekick:http_requests:rate5m > 0.05`,
			For:   "5m",
			Labels: map[string]string{
				"severity": "warning",
			},
			Annotations: map[string]string{
				"summary":     "High HTTP error rate on Sidekick",
				"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
			},
		},
		Rule{
			Alert: "SidekickDispatchFailures",
			Expr:  `sum(sidekick:dispatch_failures:rate5m) / sum(sidekick:dispatch:rate5m) > 0.2`,
			For:   "5m",
			Labels: map[string]string{
				"severity": "warning",
			},
			Annotations: map[string]string{
				"summary":     "Trade queries are failing",
				"description": "More than 20% of submitted trade queries have failed over the last 5 minutes.",
			},
		},
		Rule{
			Alert: "SidekickThrottled",
			Expr:  `sidekick:trade_api_throttled:rate5m > 0`,
			For:   "10m",
			Labels: map[string]string{
				"severity": "warning",
			},
			Annotations: map[string]string{
				"summary":     "Trading API is throttling Sidekick",
				"description": "The trading API has been answering 429 for more than 10 minutes; lower trade.rate_limit.per_second.",
			},
		},
		Rule{
			Alert: "SidekickNotificationFailures",
			Expr:  `increase(sidekick_notification_failures_total[5m]) > 0`,
			For:   "1m",
			Labels: map[string]string{
				"severity": "warning",
			},
			Annotations: map[string]string{
				"summary":     "Notification delivery failures detected",
				"description": "One or more ready notifications (Discord webhooks) have failed to send.",
			},
		},
	)
}

package main

import "errors"

// KnownMetrics is the set of metric names exported by sidekick plus the
// recording rule names referenced in dashboards and alerts. Histogram
// series suffixes (_bucket, _sum, _count) resolve to their base name.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"sidekick_http_request_duration_seconds": true,
	"sidekick_http_requests_total":           true,

	// Health metrics.
	"sidekick_healthz_up": true,
	"sidekick_readyz_up":  true,

	// Reference data metrics.
	"sidekick_refdata_fetch_total":             true,
	"sidekick_refdata_sync_total":              true,
	"sidekick_refdata_retries_scheduled_total": true,
	"sidekick_refdata_ready":                   true,

	// Query metrics.
	"sidekick_dispatch_total":            true,
	"sidekick_dispatch_duration_seconds": true,
	"sidekick_listing_pages_total":       true,

	// Trade API metrics.
	"sidekick_trade_api_requests_total":  true,
	"sidekick_trade_api_throttled_total": true,

	// Notification metrics.
	"sidekick_notification_failures_total": true,

	// Recording rules.
	"sidekick:http_requests:rate5m":         true,
	"sidekick:http_errors:rate5m":           true,
	"sidekick:refdata_sync_failures:rate5m": true,
	"sidekick:dispatch:rate5m":              true,
	"sidekick:dispatch_failures:rate5m":     true,
	"sidekick:trade_api_throttled:rate5m":   true,
	"sidekick:listing_page_failures:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}

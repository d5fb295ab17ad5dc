package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zhuliguang/Sidekick/internal/config"
	"github.com/zhuliguang/Sidekick/internal/engine"
	"github.com/zhuliguang/Sidekick/internal/notify"
	"github.com/zhuliguang/Sidekick/internal/trade"
)

const defaultWait = 2 * time.Minute

// newEngine wires the trade client, rate limiter and notifiers from cfg.
func newEngine(cfg *config.Config, log *slog.Logger) (*engine.Engine, error) {
	hc, err := trade.NewHTTPClient(cfg.Trade.Timeout, cfg.Trade.HTTP2Enabled())
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	api := trade.NewClient(
		trade.WithBaseURL(cfg.Trade.BaseURL),
		trade.WithUserAgent(cfg.Trade.UserAgent),
		trade.WithHTTPClient(hc),
		trade.WithRateLimiter(trade.NewRateLimiter(
			cfg.Trade.RateLimit.PerSecond,
			cfg.Trade.RateLimit.Burst,
		)),
	)

	opts := []engine.Option{
		engine.WithLogger(log),
		engine.WithRetryInterval(cfg.Sync.RetryInterval),
		engine.WithDefaultLeague(cfg.Sync.League),
		engine.WithDispatcherOptions(
			trade.WithSearchURL(cfg.Trade.SearchURL),
			trade.WithExchangeURL(cfg.Trade.ExchangeURL),
		),
	}

	if cfg.Notifications.Discord.Enabled {
		opts = append(opts, engine.WithNotifier(
			notify.NewDiscordNotifier(cfg.Notifications.Discord.WebhookURL, notify.WithHTTPClient(hc)),
		))
		log.Info("discord notifications enabled")
	} else {
		opts = append(opts, engine.WithNotifier(notify.NewNoOpNotifier(log)))
	}

	return engine.New(api, opts...), nil
}

// withLocalEngine runs fn against an in-process engine once reference data
// is ready and the configured league is selected.
func withLocalEngine(
	ctx context.Context,
	cfg *config.Config,
	wait time.Duration,
	fn func(context.Context, *engine.Engine) error,
) error {
	log := newLogger(cfg)

	eng, err := newEngine(cfg, log)
	if err != nil {
		return err
	}
	defer eng.Dispose()

	if err := eng.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := eng.WaitReady(waitCtx); err != nil {
		return fmt.Errorf("waiting for reference data: %w", err)
	}

	if cfg.Sync.League != "" {
		if _, err := eng.SelectLeague(cfg.Sync.League); err != nil {
			return err
		}
	}

	return fn(ctx, eng)
}

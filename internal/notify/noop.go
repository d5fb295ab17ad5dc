package notify

import (
	"context"
	"log/slog"

	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

// NoOpNotifier implements Notifier by logging the event. It is used when no
// webhook is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that only logs.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// NotifyReady logs the number of leagues.
func (n *NoOpNotifier) NotifyReady(_ context.Context, leagues []domain.League) error {
	n.log.Debug("ready notification discarded (no backend configured)",
		"leagues", len(leagues),
	)
	return nil
}

// Package notify delivers the "reference data ready" signal to consumers
// outside the core: league menus, user notifications, webhooks.
package notify

import (
	"context"

	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

// Notifier is told once per successful synchronization which leagues are
// available.
type Notifier interface {
	NotifyReady(ctx context.Context, leagues []domain.League) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, leagues []domain.League) error

// NotifyReady calls f.
func (f Func) NotifyReady(ctx context.Context, leagues []domain.League) error {
	return f(ctx, leagues)
}

// Package handlers implements the HTTP surface of the Sidekick trade client.
package handlers

import (
	"context"

	"github.com/zhuliguang/Sidekick/internal/engine"
	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

// StatusResponse is a generic status response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// TradeService is the engine surface the handlers depend on.
type TradeService interface {
	Ready() bool
	Status() engine.Status
	Resync() error
	Leagues() ([]domain.League, error)
	SelectLeague(id string) (domain.League, error)
	SelectedLeague() *domain.League
	Query(ctx context.Context, item domain.Item) (*domain.QueryResult[string], error)
	Search(ctx context.Context, item domain.Item) (*domain.QueryResult[domain.ListingResult], error)
}

package client

import (
	"context"

	"github.com/zhuliguang/Sidekick/internal/api/handlers"
	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

// LeaguesResponse is the body of GET /api/v1/leagues.
type LeaguesResponse struct {
	Leagues  []domain.League `json:"leagues"`
	Selected string          `json:"selected,omitempty"`
}

// StatusResponse is the body of GET /api/v1/refdata/status.
type StatusResponse struct {
	State          string `json:"state"`
	Ready          bool   `json:"ready"`
	Busy           bool   `json:"busy"`
	Leagues        int    `json:"leagues"`
	SelectedLeague string `json:"selected_league,omitempty"`
}

// QueryResponse is the body of POST /api/v1/queries.
type QueryResponse struct {
	ID     string   `json:"id"`
	Kind   string   `json:"kind"`
	Total  int      `json:"total"`
	URI    string   `json:"uri"`
	Result []string `json:"result"`
}

// ListingsResponse is the body of POST /api/v1/listings.
type ListingsResponse struct {
	ID     string                 `json:"id"`
	Kind   string                 `json:"kind"`
	Total  int                    `json:"total"`
	URI    string                 `json:"uri"`
	Result []domain.ListingResult `json:"result"`
}

// Leagues lists the leagues known to the server.
func (c *Client) Leagues(ctx context.Context) (*LeaguesResponse, error) {
	var resp LeaguesResponse
	if err := c.get(ctx, "/api/v1/leagues", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SelectLeague scopes the server's later queries to id.
func (c *Client) SelectLeague(ctx context.Context, id string) (*domain.League, error) {
	var l domain.League
	if err := c.put(ctx, "/api/v1/leagues/selected", map[string]string{"league": id}, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Status returns the server's reference data state.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get(ctx, "/api/v1/refdata/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resync asks the server to refetch its reference data.
func (c *Client) Resync(ctx context.Context) error {
	return c.post(ctx, "/api/v1/refdata/sync", nil, nil)
}

// Query submits item and returns the matching ids.
func (c *Client) Query(ctx context.Context, item *handlers.ItemBody) (*QueryResponse, error) {
	var resp QueryResponse
	if err := c.post(ctx, "/api/v1/queries", item, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search submits item and returns the listing details of the first pages.
func (c *Client) Search(ctx context.Context, item *handlers.ItemBody) (*ListingsResponse, error) {
	var resp ListingsResponse
	if err := c.post(ctx, "/api/v1/listings", item, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

// LeagueHandler lists leagues and manages the selected one.
type LeagueHandler struct {
	svc TradeService
}

// NewLeagueHandler creates a LeagueHandler.
func NewLeagueHandler(svc TradeService) *LeagueHandler {
	return &LeagueHandler{svc: svc}
}

// ListLeaguesOutput is the response for GET /api/v1/leagues.
type ListLeaguesOutput struct {
	Body struct {
		Leagues  []domain.League `json:"leagues" doc:"Known leagues"`
		Selected string          `json:"selected,omitempty" doc:"Id of the selected league"`
	}
}

// List returns the leagues from the reference data.
func (h *LeagueHandler) List(_ context.Context, _ *struct{}) (*ListLeaguesOutput, error) {
	leagues, err := h.svc.Leagues()
	if err != nil {
		return nil, apiError(err)
	}

	resp := &ListLeaguesOutput{}
	resp.Body.Leagues = leagues
	if resp.Body.Leagues == nil {
		resp.Body.Leagues = []domain.League{}
	}
	if l := h.svc.SelectedLeague(); l != nil {
		resp.Body.Selected = l.ID
	}
	return resp, nil
}

// LeagueOutput wraps a single league.
type LeagueOutput struct {
	Body domain.League
}

// GetSelected returns the selected league, or 404 when none is.
func (h *LeagueHandler) GetSelected(_ context.Context, _ *struct{}) (*LeagueOutput, error) {
	l := h.svc.SelectedLeague()
	if l == nil {
		return nil, huma.Error404NotFound("no league selected")
	}
	return &LeagueOutput{Body: *l}, nil
}

// SelectLeagueInput is the request for PUT /api/v1/leagues/selected.
type SelectLeagueInput struct {
	Body struct {
		League string `json:"league" minLength:"1" example:"Standard" doc:"League id"`
	}
}

// Select makes the given league the one queries are scoped to.
func (h *LeagueHandler) Select(_ context.Context, in *SelectLeagueInput) (*LeagueOutput, error) {
	l, err := h.svc.SelectLeague(in.Body.League)
	if err != nil {
		return nil, apiError(err)
	}
	return &LeagueOutput{Body: l}, nil
}

// RegisterLeagueRoutes registers league endpoints with the Huma API.
func RegisterLeagueRoutes(api huma.API, h *LeagueHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-leagues",
		Method:      http.MethodGet,
		Path:        "/api/v1/leagues",
		Summary:     "List leagues",
		Description: "Returns the leagues known from the reference data.",
		Tags:        []string{"leagues"},
		Errors:      []int{http.StatusServiceUnavailable},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-selected-league",
		Method:      http.MethodGet,
		Path:        "/api/v1/leagues/selected",
		Summary:     "Get selected league",
		Tags:        []string{"leagues"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetSelected)

	huma.Register(api, huma.Operation{
		OperationID: "select-league",
		Method:      http.MethodPut,
		Path:        "/api/v1/leagues/selected",
		Summary:     "Select league",
		Description: "Scopes every later query to the given league.",
		Tags:        []string{"leagues"},
		Errors:      []int{http.StatusNotFound, http.StatusServiceUnavailable},
	}, h.Select)
}

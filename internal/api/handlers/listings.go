package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

// ListingHandler submits trade queries and returns their listings.
type ListingHandler struct {
	svc TradeService
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(svc TradeService) *ListingHandler {
	return &ListingHandler{svc: svc}
}

// StatFilterBody is one stat constraint of a regular item query.
type StatFilterBody struct {
	ID       string   `json:"id" minLength:"1" example:"pseudo.pseudo_total_life"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Disabled bool     `json:"disabled,omitempty"`
}

// ItemBody describes the item to price. Regular items use the name, type,
// category, rarity and stats fields; currency items use have, want and
// minimum.
type ItemBody struct {
	Kind     string           `json:"kind" enum:"regular,currency" doc:"Item variant"`
	Name     string           `json:"name,omitempty" example:"Mageblood"`
	Type     string           `json:"type,omitempty" example:"Heavy Belt"`
	Category string           `json:"category,omitempty" example:"accessory.belt"`
	Rarity   string           `json:"rarity,omitempty" example:"unique"`
	Stats    []StatFilterBody `json:"stats,omitempty"`
	Have     []string         `json:"have,omitempty"`
	Want     []string         `json:"want,omitempty"`
	Minimum  int              `json:"minimum,omitempty" minimum:"0"`
}

// Item converts the body into the domain item it describes.
func (b *ItemBody) Item() (domain.Item, error) {
	switch domain.ItemKind(b.Kind) {
	case domain.KindCurrency:
		if len(b.Have) == 0 && len(b.Want) == 0 {
			return nil, huma.Error422UnprocessableEntity("currency items need have or want")
		}
		return domain.CurrencyItem{Have: b.Have, Want: b.Want, Minimum: b.Minimum}, nil
	case domain.KindRegular:
		it := domain.RegularItem{
			Name:     b.Name,
			Type:     b.Type,
			Category: b.Category,
			Rarity:   b.Rarity,
		}
		for _, s := range b.Stats {
			it.Stats = append(it.Stats, domain.StatFilter{
				ID:       s.ID,
				Min:      s.Min,
				Max:      s.Max,
				Disabled: s.Disabled,
			})
		}
		return it, nil
	default:
		return nil, huma.Error422UnprocessableEntity("unknown item kind " + b.Kind)
	}
}

// ItemInput is the request body shared by the query and listing endpoints.
type ItemInput struct {
	Body ItemBody
}

// QueryOutput is the response for POST /api/v1/queries.
type QueryOutput struct {
	Body struct {
		ID     string   `json:"id" doc:"Query token"`
		Kind   string   `json:"kind"`
		Total  int      `json:"total" doc:"Matches reported by the remote side"`
		URI    string   `json:"uri" doc:"Shareable trade site link"`
		Result []string `json:"result" doc:"Matching listing ids"`
	}
}

// Query submits the item and returns the matching ids without details.
func (h *ListingHandler) Query(ctx context.Context, in *ItemInput) (*QueryOutput, error) {
	item, err := in.Body.Item()
	if err != nil {
		return nil, err
	}

	q, err := h.svc.Query(ctx, item)
	if err != nil {
		return nil, apiError(err)
	}

	resp := &QueryOutput{}
	resp.Body.ID = q.ID
	resp.Body.Kind = string(item.Kind())
	resp.Body.Total = q.Total
	resp.Body.URI = q.URI
	resp.Body.Result = q.Result
	if resp.Body.Result == nil {
		resp.Body.Result = []string{}
	}
	return resp, nil
}

// ListingsOutput is the response for POST /api/v1/listings.
type ListingsOutput struct {
	Body struct {
		ID     string                 `json:"id" doc:"Query token"`
		Kind   string                 `json:"kind"`
		Total  int                    `json:"total" doc:"Matches reported by the remote side"`
		URI    string                 `json:"uri" doc:"Shareable trade site link"`
		Result []domain.ListingResult `json:"result" doc:"Listing details of the first pages"`
	}
}

// Search submits the item and returns the details of the first listing
// pages.
func (h *ListingHandler) Search(ctx context.Context, in *ItemInput) (*ListingsOutput, error) {
	item, err := in.Body.Item()
	if err != nil {
		return nil, err
	}

	q, err := h.svc.Search(ctx, item)
	if err != nil {
		return nil, apiError(err)
	}

	resp := &ListingsOutput{}
	resp.Body.ID = q.ID
	resp.Body.Kind = string(item.Kind())
	resp.Body.Total = q.Total
	resp.Body.URI = q.URI
	resp.Body.Result = q.Result
	if resp.Body.Result == nil {
		resp.Body.Result = []domain.ListingResult{}
	}
	return resp, nil
}

// RegisterListingRoutes registers query and listing endpoints with the Huma API.
func RegisterListingRoutes(api huma.API, h *ListingHandler) {
	queryErrors := []int{
		http.StatusPreconditionFailed,
		http.StatusUnprocessableEntity,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
	}

	huma.Register(api, huma.Operation{
		OperationID: "submit-query",
		Method:      http.MethodPost,
		Path:        "/api/v1/queries",
		Summary:     "Submit trade query",
		Description: "Submits the item to the exchange or search endpoint and " +
			"returns the query token, shareable link and matching ids.",
		Tags:   []string{"trade"},
		Errors: queryErrors,
	}, h.Query)

	huma.Register(api, huma.Operation{
		OperationID: "get-listings",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings",
		Summary:     "Get listings",
		Description: "Submits the item and fetches the listing details of the " +
			"first two pages of results.",
		Tags:   []string{"trade"},
		Errors: queryErrors,
	}, h.Search)
}

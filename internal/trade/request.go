package trade

import (
	"errors"
	"fmt"
	"net/url"

	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

// Protocol is the request shape used to submit a query.
type Protocol string

// Protocols. The value doubles as the POST path segment.
const (
	ProtocolSearch   Protocol = "search"
	ProtocolExchange Protocol = "exchange"
)

// ErrUnsupportedItem is returned for an Item value no protocol accepts.
var ErrUnsupportedItem = errors.New("unsupported item")

const statusOnline = "online"

type option struct {
	Option string `json:"option"`
}

type searchRequest struct {
	Query searchQuery       `json:"query"`
	Sort  map[string]string `json:"sort"`
}

type searchQuery struct {
	Status  option         `json:"status"`
	Name    string         `json:"name,omitempty"`
	Type    string         `json:"type,omitempty"`
	Stats   []statGroup    `json:"stats,omitempty"`
	Filters *searchFilters `json:"filters,omitempty"`
}

type statGroup struct {
	Type    string       `json:"type"`
	Filters []statFilter `json:"filters"`
}

type statFilter struct {
	ID       string  `json:"id"`
	Value    *minMax `json:"value,omitempty"`
	Disabled bool    `json:"disabled,omitempty"`
}

type minMax struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

type searchFilters struct {
	TypeFilters typeFilters `json:"typeFilters"`
}

type typeFilters struct {
	Filters typeFilterValues `json:"filters"`
}

type typeFilterValues struct {
	Category *option `json:"category,omitempty"`
	Rarity   *option `json:"rarity,omitempty"`
}

type exchangeRequest struct {
	Exchange exchangeQuery `json:"exchange"`
}

type exchangeQuery struct {
	Status  option   `json:"status"`
	Have    []string `json:"have"`
	Want    []string `json:"want"`
	Minimum int      `json:"minimum,omitempty"`
}

// buildRequest selects the protocol from the item variant and derives the
// matching request body. Selection depends on the variant only.
func buildRequest(item domain.Item) (Protocol, any, error) {
	switch it := item.(type) {
	case domain.CurrencyItem:
		return ProtocolExchange, exchangeBody(&it), nil
	case *domain.CurrencyItem:
		if it == nil {
			break
		}
		return ProtocolExchange, exchangeBody(it), nil
	case domain.RegularItem:
		return ProtocolSearch, searchBody(&it), nil
	case *domain.RegularItem:
		if it == nil {
			break
		}
		return ProtocolSearch, searchBody(it), nil
	}
	return "", nil, fmt.Errorf("%w: %T", ErrUnsupportedItem, item)
}

func exchangeBody(it *domain.CurrencyItem) *exchangeRequest {
	return &exchangeRequest{
		Exchange: exchangeQuery{
			Status:  option{Option: statusOnline},
			Have:    nonNil(it.Have),
			Want:    nonNil(it.Want),
			Minimum: it.Minimum,
		},
	}
}

func searchBody(it *domain.RegularItem) *searchRequest {
	q := searchQuery{
		Status: option{Option: statusOnline},
		Name:   it.Name,
		Type:   it.Type,
	}

	if len(it.Stats) > 0 {
		group := statGroup{Type: "and", Filters: make([]statFilter, 0, len(it.Stats))}
		for _, s := range it.Stats {
			f := statFilter{ID: s.ID, Disabled: s.Disabled}
			if s.Min != nil || s.Max != nil {
				f.Value = &minMax{Min: s.Min, Max: s.Max}
			}
			group.Filters = append(group.Filters, f)
		}
		q.Stats = []statGroup{group}
	}

	if it.Category != "" || it.Rarity != "" {
		var v typeFilterValues
		if it.Category != "" {
			v.Category = &option{Option: it.Category}
		}
		if it.Rarity != "" {
			v.Rarity = &option{Option: it.Rarity}
		}
		q.Filters = &searchFilters{TypeFilters: typeFilters{Filters: v}}
	}

	return &searchRequest{
		Query: q,
		Sort:  map[string]string{"price": "asc"},
	}
}

// submitPath is the POST path for protocol p in league.
func submitPath(p Protocol, league string) string {
	return string(p) + "/" + url.PathEscape(league)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

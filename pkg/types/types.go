// Package domain defines the core trade and reference data types shared by
// the synchronizer, the query dispatcher and the listing fetcher.
package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// League is a named game-world instance. Every query is scoped to one.
type League struct {
	ID    string `json:"id"`
	Realm string `json:"realm,omitempty"`
	Text  string `json:"text"`
}

// StaticEntry is a single bulk-tradeable entry (currency, fragments, ...).
type StaticEntry struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// StaticCategory groups static entries under a label.
type StaticCategory struct {
	ID      string        `json:"id"`
	Label   string        `json:"label,omitempty"`
	Entries []StaticEntry `json:"entries"`
}

// AttributeOption is a selectable value for option-type attributes.
type AttributeOption struct {
	ID   json.Number `json:"id"`
	Text string      `json:"text"`
}

// Attribute is a searchable item stat.
type Attribute struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Type   string `json:"type"`
	Option *struct {
		Options []AttributeOption `json:"options"`
	} `json:"option,omitempty"`
}

// AttributeCategory groups attributes (explicit, implicit, pseudo, ...).
type AttributeCategory struct {
	ID      string      `json:"id"`
	Label   string      `json:"label"`
	Entries []Attribute `json:"entries"`
}

// ItemEntry is a known base type or unique item name.
type ItemEntry struct {
	Name  string `json:"name,omitempty"`
	Type  string `json:"type"`
	Text  string `json:"text"`
	Disc  string `json:"disc,omitempty"`
	Flags *struct {
		Unique bool `json:"unique,omitempty"`
	} `json:"flags,omitempty"`
}

// ItemCategory groups item entries (accessories, armour, ...).
type ItemCategory struct {
	ID      string      `json:"id"`
	Label   string      `json:"label"`
	Entries []ItemEntry `json:"entries"`
}

// ReferenceDataSet holds the four reference collections fetched from the
// remote API. It is only considered complete when all four are non-nil.
type ReferenceDataSet struct {
	Leagues              []League            `json:"leagues"`
	StaticItemCategories []StaticCategory    `json:"static_item_categories"`
	AttributeCategories  []AttributeCategory `json:"attribute_categories"`
	ItemCategories       []ItemCategory      `json:"item_categories"`
}

// Complete reports whether every collection has been populated.
func (s *ReferenceDataSet) Complete() bool {
	return s.Leagues != nil &&
		s.StaticItemCategories != nil &&
		s.AttributeCategories != nil &&
		s.ItemCategories != nil
}

// QueryResult is the envelope returned by search, exchange and fetch calls.
// Total is the count reported by the remote side and may exceed len(Result).
type QueryResult[T any] struct {
	ID     string `json:"id"`
	Result []T    `json:"result"`
	Total  int    `json:"total"`
	Item   Item   `json:"-"`
	URI    string `json:"uri,omitempty"`
}

// WithResult returns a copy of q carrying result in place of q.Result.
func WithResult[T, U any](q *QueryResult[T], result []U) *QueryResult[U] {
	return &QueryResult[U]{
		ID:     q.ID,
		Result: result,
		Total:  q.Total,
		Item:   q.Item,
		URI:    q.URI,
	}
}

// Price is the asking price of a listing.
type Price struct {
	Type     string          `json:"type,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// String renders the price as "<amount> <currency>".
func (p *Price) String() string {
	if p == nil {
		return "-"
	}
	return p.Amount.String() + " " + p.Currency
}

// Account identifies the seller of a listing.
type Account struct {
	Name              string `json:"name"`
	LastCharacterName string `json:"lastCharacterName,omitempty"`
}

// Listing holds the offer details of a ListingResult.
type Listing struct {
	Method  string    `json:"method,omitempty"`
	Indexed time.Time `json:"indexed"`
	Whisper string    `json:"whisper,omitempty"`
	Account Account   `json:"account"`
	Price   *Price    `json:"price,omitempty"`
}

// ListingResult is one tradeable offer returned by the fetch endpoint.
// The item payload is kept opaque.
type ListingResult struct {
	ID      string          `json:"id"`
	Listing Listing         `json:"listing"`
	Item    json.RawMessage `json:"item,omitempty"`
}

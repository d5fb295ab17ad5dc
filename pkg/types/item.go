package domain

// Item describes what to look for on the market. It is a closed set:
// RegularItem and CurrencyItem are its only implementations.
type Item interface {
	// Kind names the variant.
	Kind() ItemKind

	isItem()
}

// ItemKind names an Item variant.
type ItemKind string

// Item kinds.
const (
	KindRegular  ItemKind = "regular"
	KindCurrency ItemKind = "currency"
)

// StatFilter constrains one attribute of a regular item.
type StatFilter struct {
	ID       string   `json:"id"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Disabled bool     `json:"disabled,omitempty"`
}

// RegularItem is an equipment or unique style item traded through search.
type RegularItem struct {
	Name     string       `json:"name,omitempty"`
	Type     string       `json:"type,omitempty"`
	Category string       `json:"category,omitempty"`
	Rarity   string       `json:"rarity,omitempty"`
	Stats    []StatFilter `json:"stats,omitempty"`
}

// Kind implements Item.
func (RegularItem) Kind() ItemKind { return KindRegular }

func (RegularItem) isItem() {}

// CurrencyItem is a fungible item traded through bulk exchange. Have and
// Want hold static entry ids.
type CurrencyItem struct {
	Have    []string `json:"have"`
	Want    []string `json:"want"`
	Minimum int      `json:"minimum,omitempty"`
}

// Kind implements Item.
func (CurrencyItem) Kind() ItemKind { return KindCurrency }

func (CurrencyItem) isItem() {}

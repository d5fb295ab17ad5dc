package trade

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

func ptr(f float64) *float64 { return &f }

func TestBuildRequest_SelectsProtocolByVariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		item domain.Item
		want Protocol
	}{
		{name: "currency value", item: domain.CurrencyItem{Have: []string{"chaos"}, Want: []string{"divine"}}, want: ProtocolExchange},
		{name: "currency pointer", item: &domain.CurrencyItem{}, want: ProtocolExchange},
		{name: "empty currency", item: domain.CurrencyItem{}, want: ProtocolExchange},
		{name: "regular value", item: domain.RegularItem{Name: "Headhunter"}, want: ProtocolSearch},
		{name: "regular pointer", item: &domain.RegularItem{Type: "Leather Belt"}, want: ProtocolSearch},
		{name: "regular that names a currency", item: domain.RegularItem{Type: "Chaos Orb"}, want: ProtocolSearch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, body, err := buildRequest(tt.item)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotNil(t, body)
		})
	}
}

func TestBuildRequest_Unsupported(t *testing.T) {
	t.Parallel()

	var nilCurrency *domain.CurrencyItem

	for _, item := range []domain.Item{nil, nilCurrency} {
		_, _, err := buildRequest(item)
		require.ErrorIs(t, err, ErrUnsupportedItem)
	}
}

func TestBuildRequest_ExchangeBody(t *testing.T) {
	t.Parallel()

	_, body, err := buildRequest(domain.CurrencyItem{Have: []string{"chaos"}, Want: []string{"divine"}, Minimum: 5})
	require.NoError(t, err)

	data, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"exchange": {
			"status": {"option": "online"},
			"have": ["chaos"],
			"want": ["divine"],
			"minimum": 5
		}
	}`, string(data))
}

func TestBuildRequest_ExchangeBodyNilSlices(t *testing.T) {
	t.Parallel()

	_, body, err := buildRequest(domain.CurrencyItem{})
	require.NoError(t, err)

	data, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"exchange":{"status":{"option":"online"},"have":[],"want":[]}}`, string(data))
}

func TestBuildRequest_SearchBody(t *testing.T) {
	t.Parallel()

	_, body, err := buildRequest(domain.RegularItem{
		Name:     "Tabula Rasa",
		Type:     "Simple Robe",
		Category: "armour.chest",
		Stats: []domain.StatFilter{
			{ID: "pseudo.pseudo_total_life", Min: ptr(70)},
			{ID: "explicit.stat_1", Disabled: true},
		},
	})
	require.NoError(t, err)

	data, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"query": {
			"status": {"option": "online"},
			"name": "Tabula Rasa",
			"type": "Simple Robe",
			"stats": [{
				"type": "and",
				"filters": [
					{"id": "pseudo.pseudo_total_life", "value": {"min": 70}},
					{"id": "explicit.stat_1", "disabled": true}
				]
			}],
			"filters": {"typeFilters": {"filters": {"category": {"option": "armour.chest"}}}}
		},
		"sort": {"price": "asc"}
	}`, string(data))
}

func TestSubmitPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "exchange/Standard", submitPath(ProtocolExchange, "Standard"))
	assert.Equal(t, "search/Standard", submitPath(ProtocolSearch, "Standard"))
	assert.Equal(t, "search/Hardcore%20Settlers", submitPath(ProtocolSearch, "Hardcore Settlers"))
}

func TestPageIDs(t *testing.T) {
	t.Parallel()

	ids := make([]string, 15)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}

	assert.Equal(t, ids[0:10], pageIDs(ids, 0))
	assert.Equal(t, ids[10:15], pageIDs(ids, 1))
	assert.Empty(t, pageIDs(ids, 2))
	assert.Empty(t, pageIDs(nil, 0))
	assert.NotNil(t, pageIDs(nil, 1))
}

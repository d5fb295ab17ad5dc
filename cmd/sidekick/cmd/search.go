package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apiclient "github.com/zhuliguang/Sidekick/internal/api/client"
	"github.com/zhuliguang/Sidekick/internal/api/handlers"
	"github.com/zhuliguang/Sidekick/internal/engine"
	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

var errMixedItem = errors.New("--have/--want cannot be combined with regular item flags")

type searchOptions struct {
	name     string
	typ      string
	category string
	rarity   string
	stats    []string
	have     []string
	want     []string
	minimum  int
	idsOnly  bool
	wait     time.Duration
}

func searchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [name]",
		Short: "Price an item on the trade site",
		Long: "Submits an item query and prints the first pages of listings.\n" +
			"Currency trades (--have/--want) go to the bulk exchange; every\n" +
			"other item goes to the regular search.",
		Example: `  sidekick search Mageblood --type "Heavy Belt"
  sidekick search --category armour.chest --stat pseudo.pseudo_total_life:90:
  sidekick search --have chaos --want divine --minimum 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.name = args[0]
			}
			return runSearch(cmd, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.typ, "type", "", "base type")
	f.StringVar(&opts.category, "category", "", "item category, e.g. accessory.belt")
	f.StringVar(&opts.rarity, "rarity", "", "item rarity")
	f.StringArrayVar(&opts.stats, "stat", nil, "stat filter as id[:min[:max]] (repeatable)")
	f.StringSliceVar(&opts.have, "have", nil, "currency offered")
	f.StringSliceVar(&opts.want, "want", nil, "currency wanted")
	f.IntVar(&opts.minimum, "minimum", 0, "minimum stock of the wanted currency")
	f.BoolVar(&opts.idsOnly, "ids-only", false, "submit the query without fetching listings")
	f.DurationVar(&opts.wait, "wait", defaultWait, "how long to wait for reference data")

	return cmd
}

func runSearch(cmd *cobra.Command, opts *searchOptions) error {
	body, err := opts.itemBody()
	if err != nil {
		return err
	}

	if c := remoteClient(); c != nil {
		return remoteSearch(cmd, c, body, opts.idsOnly)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	item, err := body.Item()
	if err != nil {
		return err
	}

	return withLocalEngine(cmd.Context(), cfg, opts.wait, func(ctx context.Context, eng *engine.Engine) error {
		if opts.idsOnly {
			q, err := eng.Query(ctx, item)
			if err != nil {
				return err
			}
			return printQuery(cmd, queryResponse(q))
		}
		q, err := eng.Search(ctx, item)
		if err != nil {
			return err
		}
		return printListings(cmd, listingsResponse(q))
	})
}

func remoteSearch(cmd *cobra.Command, c *apiclient.Client, body *handlers.ItemBody, idsOnly bool) error {
	if idsOnly {
		q, err := c.Query(cmd.Context(), body)
		if err != nil {
			return err
		}
		return printQuery(cmd, q)
	}
	q, err := c.Search(cmd.Context(), body)
	if err != nil {
		return err
	}
	return printListings(cmd, q)
}

func printQuery(cmd *cobra.Command, q *apiclient.QueryResponse) error {
	if jsonOutput() {
		return outputJSON(cmd.OutOrStdout(), q)
	}
	return printQueryDetail(cmd.OutOrStdout(), q)
}

func printListings(cmd *cobra.Command, q *apiclient.ListingsResponse) error {
	if jsonOutput() {
		return outputJSON(cmd.OutOrStdout(), q)
	}
	return printListingsTable(cmd.OutOrStdout(), q)
}

// itemBody builds the request body. Currency flags select the exchange.
func (o *searchOptions) itemBody() (*handlers.ItemBody, error) {
	if len(o.have) > 0 || len(o.want) > 0 {
		if o.name != "" || o.typ != "" || o.category != "" || o.rarity != "" || len(o.stats) > 0 {
			return nil, errMixedItem
		}
		return &handlers.ItemBody{
			Kind:    string(domain.KindCurrency),
			Have:    o.have,
			Want:    o.want,
			Minimum: o.minimum,
		}, nil
	}

	body := &handlers.ItemBody{
		Kind:     string(domain.KindRegular),
		Name:     o.name,
		Type:     o.typ,
		Category: o.category,
		Rarity:   o.rarity,
	}
	for _, raw := range o.stats {
		s, err := parseStat(raw)
		if err != nil {
			return nil, err
		}
		body.Stats = append(body.Stats, s)
	}
	return body, nil
}

// parseStat parses "id[:min[:max]]". Empty bounds are left open.
func parseStat(raw string) (handlers.StatFilterBody, error) {
	parts := strings.Split(raw, ":")
	if len(parts) > 3 || parts[0] == "" {
		return handlers.StatFilterBody{}, fmt.Errorf("invalid stat filter %q: want id[:min[:max]]", raw)
	}

	s := handlers.StatFilterBody{ID: parts[0]}
	bounds := []**float64{&s.Min, &s.Max}
	for i, p := range parts[1:] {
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return handlers.StatFilterBody{}, fmt.Errorf("invalid stat filter %q: %w", raw, err)
		}
		*bounds[i] = &v
	}
	return s, nil
}

func queryResponse(q *domain.QueryResult[string]) *apiclient.QueryResponse {
	resp := &apiclient.QueryResponse{ID: q.ID, Total: q.Total, URI: q.URI, Result: q.Result}
	if q.Item != nil {
		resp.Kind = string(q.Item.Kind())
	}
	return resp
}

func listingsResponse(q *domain.QueryResult[domain.ListingResult]) *apiclient.ListingsResponse {
	resp := &apiclient.ListingsResponse{ID: q.ID, Total: q.Total, URI: q.URI, Result: q.Result}
	if q.Item != nil {
		resp.Kind = string(q.Item.Kind())
	}
	return resp
}

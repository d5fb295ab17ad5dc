package trade

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/zhuliguang/Sidekick/internal/metrics"
	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

// Shareable link roots. They differ from the POST path segments on purpose:
// the links point at the website, the paths at the API.
const (
	DefaultSearchURL   = "https://www.pathofexile.com/trade/search/"
	DefaultExchangeURL = "https://www.pathofexile.com/trade/exchange/"
)

var (
	// ErrNoLeagueSelected is returned when a query is issued without a league.
	ErrNoLeagueSelected = errors.New("no league selected")

	// ErrDispatchFailed is returned when a query could not be submitted,
	// whether the transport failed or the remote side rejected it.
	ErrDispatchFailed = errors.New("query dispatch failed")
)

// Querier submits a query for an item and returns the query token and the
// matching result identifiers.
type Querier interface {
	Query(ctx context.Context, item domain.Item, league *domain.League) (*domain.QueryResult[string], error)
}

// Dispatcher implements Querier over the search and exchange endpoints.
type Dispatcher struct {
	api         API
	searchURL   string
	exchangeURL string
	log         *slog.Logger
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSearchURL overrides the shareable link root for search queries.
func WithSearchURL(u string) DispatcherOption {
	return func(d *Dispatcher) {
		d.searchURL = u
	}
}

// WithExchangeURL overrides the shareable link root for exchange queries.
func WithExchangeURL(u string) DispatcherOption {
	return func(d *Dispatcher) {
		d.exchangeURL = u
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(api API, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		api:         api,
		searchURL:   DefaultSearchURL,
		exchangeURL: DefaultExchangeURL,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type queryResponse struct {
	ID     string    `json:"id"`
	Result resultIDs `json:"result"`
	Total  int       `json:"total"`
}

// resultIDs accepts the result identifiers either as an array or, as the
// exchange endpoint answers, as an object keyed by identifier. Object keys
// keep their document order.
type resultIDs []string

func (r *resultIDs) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = nil
		return nil
	}
	if trimmed[0] == '[' {
		var ids []string
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return err
		}
		*r = ids
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return fmt.Errorf("result: expected array or object")
	}
	ids := []string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		ids = append(ids, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return err
		}
	}
	*r = ids
	return nil
}

// Query submits item to the endpoint chosen by its variant and returns the
// query envelope with a shareable URI.
func (d *Dispatcher) Query(
	ctx context.Context,
	item domain.Item,
	league *domain.League,
) (*domain.QueryResult[string], error) {
	if league == nil {
		return nil, ErrNoLeagueSelected
	}

	protocol, body, err := buildRequest(item)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var resp queryResponse
	err = d.api.Post(ctx, submitPath(protocol, league.ID), body, &resp)
	metrics.DispatchDuration.WithLabelValues(string(protocol)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.DispatchTotal.WithLabelValues(string(protocol), metrics.OutcomeFailure).Inc()
		d.log.Warn("query dispatch failed",
			"protocol", protocol,
			"league", league.ID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	metrics.DispatchTotal.WithLabelValues(string(protocol), metrics.OutcomeSuccess).Inc()
	d.log.Debug("query dispatched",
		"protocol", protocol,
		"league", league.ID,
		"query_id", resp.ID,
		"total", resp.Total,
	)

	return &domain.QueryResult[string]{
		ID:     resp.ID,
		Result: resp.Result,
		Total:  resp.Total,
		Item:   item,
		URI:    d.shareURI(protocol, league.ID, resp.ID),
	}, nil
}

func (d *Dispatcher) shareURI(p Protocol, league, token string) string {
	base := d.searchURL
	if p == ProtocolExchange {
		base = d.exchangeURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(league) + "/" + token
}

package trade

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/zhuliguang/Sidekick/internal/metrics"
	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

// Listing pages requested per query. Together they cap a result at
// PageCount*PageSize listings regardless of the reported total.
const (
	PageSize  = 10
	PageCount = 2
)

// ListingFetcher turns an item into merged listing details by dispatching a
// query and fetching its first pages concurrently.
type ListingFetcher struct {
	api     API
	querier Querier
	log     *slog.Logger
}

// ListingFetcherOption configures the ListingFetcher.
type ListingFetcherOption func(*ListingFetcher)

// WithListingLogger sets the logger.
func WithListingLogger(l *slog.Logger) ListingFetcherOption {
	return func(f *ListingFetcher) {
		f.log = l
	}
}

// NewListingFetcher creates a ListingFetcher.
func NewListingFetcher(api API, q Querier, opts ...ListingFetcherOption) *ListingFetcher {
	f := &ListingFetcher{
		api:     api,
		querier: q,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type fetchResponse struct {
	Result []domain.ListingResult `json:"result"`
}

// GetListings dispatches item and returns the merged listing pages. A
// dispatch error is returned unchanged. Pages that fail are left out of the
// merge, so a result may carry an empty Result with the original Total.
func (f *ListingFetcher) GetListings(
	ctx context.Context,
	item domain.Item,
	league *domain.League,
) (*domain.QueryResult[domain.ListingResult], error) {
	query, err := f.querier.Query(ctx, item, league)
	if err != nil {
		return nil, err
	}

	pages := make([][]domain.ListingResult, PageCount)

	// A failed page is dropped from the merge and never cancels the other.
	var g errgroup.Group
	for page := range PageCount {
		g.Go(func() error {
			res, err := f.fetchPage(ctx, query, page)
			if err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
			pages[page] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		f.log.Warn("listing pages dropped",
			"query_id", query.ID,
			"error", err,
		)
	}

	merged := make([]domain.ListingResult, 0, PageCount*PageSize)
	for _, p := range pages {
		merged = append(merged, p...)
	}

	return domain.WithResult(query, merged), nil
}

// fetchPage fetches one page of listing details. Pages past the end of the
// identifier list are still requested with an empty id set.
func (f *ListingFetcher) fetchPage(
	ctx context.Context,
	query *domain.QueryResult[string],
	page int,
) ([]domain.ListingResult, error) {
	ids := pageIDs(query.Result, page)
	path := "fetch/" + strings.Join(ids, ",")
	params := url.Values{"query": []string{query.ID}}

	var resp fetchResponse
	if err := f.api.Get(ctx, path, params, &resp); err != nil {
		metrics.ListingPagesTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		f.log.Debug("listing page failed",
			"query_id", query.ID,
			"page", page,
			"error", err,
		)
		return nil, err
	}

	metrics.ListingPagesTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	if resp.Result == nil {
		return []domain.ListingResult{}, nil
	}
	return resp.Result, nil
}

// pageIDs slices ids for page at offset page*PageSize.
func pageIDs(ids []string, page int) []string {
	offset := page * PageSize
	if offset >= len(ids) {
		return []string{}
	}
	end := min(offset+PageSize, len(ids))
	return ids[offset:end]
}

// Package engine ties the reference data synchronizer, the query dispatcher
// and the listing fetcher into one explicitly started and stopped service.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zhuliguang/Sidekick/internal/notify"
	"github.com/zhuliguang/Sidekick/internal/refdata"
	"github.com/zhuliguang/Sidekick/internal/trade"
	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

var (
	// ErrNotReady is returned by operations that need reference data before
	// the first successful sync.
	ErrNotReady = errors.New("reference data not ready")

	// ErrUnknownLeague is returned when selecting a league the reference
	// data does not list.
	ErrUnknownLeague = errors.New("unknown league")

	// ErrNotInitialized is returned by Resync before Initialize.
	ErrNotInitialized = errors.New("engine not initialized")

	errAlreadyInitialized = errors.New("engine already initialized")
)

// Engine owns the reference data lifecycle and serves queries against it.
type Engine struct {
	api        trade.API
	store      *refdata.Store
	sync       *refdata.Synchronizer
	dispatcher *trade.Dispatcher
	fetcher    *trade.ListingFetcher
	log        *slog.Logger

	scheduler      refdata.Scheduler
	cron           *refdata.CronScheduler
	notifiers      []notify.Notifier
	retryInterval  time.Duration
	defaultLeague  string
	dispatcherOpts []trade.DispatcherOption

	selected atomic.Pointer[domain.League]

	mu      sync.Mutex
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithScheduler replaces the cron-backed retry scheduler.
func WithScheduler(s refdata.Scheduler) Option {
	return func(e *Engine) {
		e.scheduler = s
	}
}

// WithRetryInterval sets the delay before a failed sync is retried.
func WithRetryInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.retryInterval = d
	}
}

// WithNotifier registers a consumer of the ready signal.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) {
		e.notifiers = append(e.notifiers, n)
	}
}

// WithDefaultLeague names the league selected once reference data is ready,
// when nothing has been selected yet.
func WithDefaultLeague(id string) Option {
	return func(e *Engine) {
		e.defaultLeague = id
	}
}

// WithDispatcherOptions passes options through to the query dispatcher.
func WithDispatcherOptions(opts ...trade.DispatcherOption) Option {
	return func(e *Engine) {
		e.dispatcherOpts = append(e.dispatcherOpts, opts...)
	}
}

// New creates an Engine talking to the remote API through api. Nothing is
// fetched until Initialize.
func New(api trade.API, opts ...Option) *Engine {
	e := &Engine{
		api:           api,
		store:         refdata.NewStore(),
		log:           slog.Default(),
		retryInterval: refdata.DefaultRetryInterval,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.scheduler == nil {
		e.cron = refdata.NewCronScheduler(e.log)
		e.scheduler = e.cron
	}

	syncOpts := []refdata.SynchronizerOption{
		refdata.WithRetryInterval(e.retryInterval),
		refdata.WithSyncLogger(e.log),
		refdata.WithNotifier(notify.Func(e.selectDefault)),
	}
	for _, n := range e.notifiers {
		syncOpts = append(syncOpts, refdata.WithNotifier(n))
	}
	e.sync = refdata.NewSynchronizer(api, e.store, e.scheduler, syncOpts...)

	e.dispatcher = trade.NewDispatcher(api,
		append([]trade.DispatcherOption{trade.WithDispatcherLogger(e.log)}, e.dispatcherOpts...)...,
	)
	e.fetcher = trade.NewListingFetcher(api, e.dispatcher, trade.WithListingLogger(e.log))

	return e
}

// Initialize starts the retry scheduler and the first reference data sync
// in the background. An engine may be initialized again after Dispose. It returns without waiting for the sync; use WaitReady
// or the ready notifiers for that. ctx bounds every sync and retry.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return errAlreadyInitialized
	}
	e.started = true
	e.runCtx, e.cancel = context.WithCancel(ctx)

	if e.cron != nil {
		e.cron.Start()
	}
	e.sync.Start()
	e.startSyncLocked("initial")
	e.log.Info("engine initialized")
	return nil
}

// Dispose stops pending retries, cancels in-flight fetches and waits for
// background work to end. It is safe to call more than once.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	cancel := e.cancel
	e.mu.Unlock()

	e.sync.Stop()
	cancel()
	e.wg.Wait()

	if e.cron != nil {
		<-e.cron.Stop().Done()
	}
	e.log.Info("engine disposed")
}

// Resync discards the current reference data and starts a fresh sync in
// the background.
func (e *Engine) Resync() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return ErrNotInitialized
	}
	e.sync.Reset()
	e.startSyncLocked("manual")
	return nil
}

// startSyncLocked launches a sync on the run context. e.mu must be held.
func (e *Engine) startSyncLocked(trigger string) {
	ctx := e.runCtx
	e.wg.Go(func() {
		if err := e.sync.Sync(ctx); err != nil {
			e.log.Warn("reference data sync did not complete",
				"trigger", trigger,
				"error", err,
			)
		}
	})
}

// Ready reports whether reference data is available.
func (e *Engine) Ready() bool {
	return e.store.Ready()
}

// WaitReady blocks until reference data is available or ctx is done.
func (e *Engine) WaitReady(ctx context.Context) error {
	return e.store.WaitReady(ctx)
}

// Leagues returns the known leagues.
func (e *Engine) Leagues() ([]domain.League, error) {
	if !e.store.Ready() {
		return nil, ErrNotReady
	}
	return e.store.Leagues(), nil
}

// SelectLeague makes id the league every later query is scoped to.
func (e *Engine) SelectLeague(id string) (domain.League, error) {
	if !e.store.Ready() {
		return domain.League{}, ErrNotReady
	}
	l, ok := e.store.League(id)
	if !ok {
		return domain.League{}, fmt.Errorf("%w: %q", ErrUnknownLeague, id)
	}
	e.selected.Store(&l)
	e.log.Info("league selected", "league", l.ID)
	return l, nil
}

// SelectedLeague returns the selected league, or nil.
func (e *Engine) SelectedLeague() *domain.League {
	l := e.selected.Load()
	if l == nil {
		return nil
	}
	cp := *l
	return &cp
}

// Query submits item against the selected league and returns the result
// identifiers without fetching listings.
func (e *Engine) Query(ctx context.Context, item domain.Item) (*domain.QueryResult[string], error) {
	if !e.store.Ready() {
		return nil, ErrNotReady
	}
	return e.dispatcher.Query(ctx, item, e.selected.Load())
}

// Search submits item against the selected league and returns the first
// pages of listings.
func (e *Engine) Search(
	ctx context.Context,
	item domain.Item,
) (*domain.QueryResult[domain.ListingResult], error) {
	if !e.store.Ready() {
		return nil, ErrNotReady
	}
	return e.fetcher.GetListings(ctx, item, e.selected.Load())
}

// Status describes the reference data lifecycle.
type Status struct {
	State          string
	Ready          bool
	Busy           bool
	Leagues        int
	SelectedLeague string
}

// Status returns a snapshot of the lifecycle state.
func (e *Engine) Status() Status {
	st := Status{
		State:   e.sync.State().String(),
		Ready:   e.store.Ready(),
		Busy:    e.sync.Busy(),
		Leagues: len(e.store.Leagues()),
	}
	if l := e.selected.Load(); l != nil {
		st.SelectedLeague = l.ID
	}
	return st
}

func (e *Engine) selectDefault(_ context.Context, leagues []domain.League) error {
	if e.defaultLeague == "" || e.selected.Load() != nil {
		return nil
	}
	for i := range leagues {
		if leagues[i].ID == e.defaultLeague {
			l := leagues[i]
			// Lost races mean a caller selected first; theirs wins.
			if e.selected.CompareAndSwap(nil, &l) {
				e.log.Info("default league selected", "league", l.ID)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: default %q", ErrUnknownLeague, e.defaultLeague)
}

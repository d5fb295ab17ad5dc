package refdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zhuliguang/Sidekick/internal/metrics"
	"github.com/zhuliguang/Sidekick/internal/notify"
	"github.com/zhuliguang/Sidekick/internal/trade"
	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

// DefaultRetryInterval is the delay between a failed batch and the next one.
const DefaultRetryInterval = time.Minute

var errMissingResult = errors.New("response has no result list")

// State is the synchronizer lifecycle state.
type State int32

// Synchronizer states.
const (
	StateIdle State = iota
	StateFetching
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Synchronizer fetches every reference collection and commits them to a
// Store, retrying the whole batch until it succeeds. It is the only writer
// of the Store.
type Synchronizer struct {
	api           trade.API
	store         *Store
	scheduler     Scheduler
	notifiers     []notify.Notifier
	retryInterval time.Duration
	log           *slog.Logger

	busy  atomic.Bool
	state atomic.Int32

	mu          sync.Mutex
	generation  uint64
	retryID     uint64
	cancelRetry func()
	stopped     bool
	requested   bool
}

// SynchronizerOption configures the Synchronizer.
type SynchronizerOption func(*Synchronizer)

// WithRetryInterval overrides DefaultRetryInterval.
func WithRetryInterval(d time.Duration) SynchronizerOption {
	return func(s *Synchronizer) {
		s.retryInterval = d
	}
}

// WithNotifier registers a consumer of the ready signal.
func WithNotifier(n notify.Notifier) SynchronizerOption {
	return func(s *Synchronizer) {
		s.notifiers = append(s.notifiers, n)
	}
}

// WithSyncLogger sets the logger.
func WithSyncLogger(l *slog.Logger) SynchronizerOption {
	return func(s *Synchronizer) {
		s.log = l
	}
}

// NewSynchronizer creates a Synchronizer writing to store. Retries are
// timed by scheduler.
func NewSynchronizer(
	api trade.API,
	store *Store,
	scheduler Scheduler,
	opts ...SynchronizerOption,
) *Synchronizer {
	s := &Synchronizer{
		api:           api,
		store:         store,
		scheduler:     scheduler,
		retryInterval: DefaultRetryInterval,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Synchronizer) State() State {
	return State(s.state.Load())
}

// Busy reports whether a batch is in flight.
func (s *Synchronizer) Busy() bool {
	return s.busy.Load()
}

// Sync runs one batch of the four reference fetches. It returns nil without
// doing anything while another batch is in flight or the data is already
// ready. A call that arrives while a batch is in flight is remembered:
// if that batch is then discarded by Reset, it runs again instead of
// leaving the data unfetched. On failure the store is reset, a retry is
// scheduled and the joined fetch errors are returned. Retries run with ctx.
func (s *Synchronizer) Sync(ctx context.Context) error {
	if s.State() == StateReady {
		return nil
	}
	if !s.acquire() {
		s.log.Debug("reference data sync already in flight")
		return nil
	}

	for {
		again, err := s.runBatch(ctx)
		if !again {
			return err
		}
		s.log.Info("restarting reference data sync requested during a discarded batch")
	}
}

// acquire takes the busy flag. When another batch holds it, the request is
// recorded for that batch. busy is only released with s.mu held, so the
// holder cannot miss the request.
func (s *Synchronizer) acquire() bool {
	if s.busy.CompareAndSwap(false, true) {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy.CompareAndSwap(false, true) {
		return true
	}
	s.requested = true
	return false
}

// releaseLocked clears the busy flag. s.mu must be held.
func (s *Synchronizer) releaseLocked() {
	s.requested = false
	s.busy.Store(false)
}

// runBatch runs one batch with the busy flag held. It reports again when
// the batch was discarded by Reset and a sync was requested meanwhile; the
// flag is then still held. Otherwise the flag is released on return.
func (s *Synchronizer) runBatch(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.State() == StateReady {
		s.releaseLocked()
		s.mu.Unlock()
		return false, nil
	}
	gen := s.generation
	s.requested = false
	s.setState(StateFetching)
	s.mu.Unlock()

	start := time.Now()
	set, err := s.fetchAll(ctx)

	s.mu.Lock()
	if gen != s.generation {
		again := s.requested && !s.stopped
		if again {
			s.requested = false
		} else {
			s.releaseLocked()
		}
		s.mu.Unlock()
		s.log.Info("discarding reference data batch superseded by reset")
		return again, nil
	}

	if err != nil {
		s.store.Reset()
		s.setState(StateFailed)
		metrics.RefdataSyncTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		metrics.RefdataReady.Set(0)
		s.scheduleRetryLocked(ctx)
		s.releaseLocked()
		s.mu.Unlock()

		s.log.Warn("reference data sync failed",
			"retry_in", s.retryInterval,
			"error", err,
		)
		return false, err
	}

	s.store.Commit(set)
	s.setState(StateReady)
	s.cancelPendingLocked()
	s.releaseLocked()
	s.mu.Unlock()

	metrics.RefdataSyncTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.RefdataReady.Set(1)
	s.log.Info("reference data ready",
		"leagues", len(set.Leagues),
		"static", len(set.StaticItemCategories),
		"stats", len(set.AttributeCategories),
		"items", len(set.ItemCategories),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	s.notifyReady(ctx, set.Leagues)
	return false, nil
}

// Reset cancels a pending retry, clears the store and returns to idle. A
// batch in flight when Reset is called is discarded on completion.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.cancelPendingLocked()
	s.store.Reset()
	s.setState(StateIdle)
	metrics.RefdataReady.Set(0)
}

// Start allows retries to be scheduled again after Stop. A new
// Synchronizer is already started.
func (s *Synchronizer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = false
}

// Stop cancels a pending retry and prevents new ones from being scheduled
// until Start.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.cancelPendingLocked()
}

func (s *Synchronizer) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Synchronizer) fetchAll(ctx context.Context) (domain.ReferenceDataSet, error) {
	var (
		set  domain.ReferenceDataSet
		errs [4]error
		g    errgroup.Group
	)

	// The group has no context, so a failed fetch never cancels its
	// siblings. Wait reports the first failure; every one is joined.
	g.Go(func() (err error) {
		set.Leagues, err = fetchCollection[domain.League](ctx, s, KindLeagues)
		errs[0] = err
		return err
	})
	g.Go(func() (err error) {
		set.StaticItemCategories, err = fetchCollection[domain.StaticCategory](ctx, s, KindStatic)
		errs[1] = err
		return err
	})
	g.Go(func() (err error) {
		set.AttributeCategories, err = fetchCollection[domain.AttributeCategory](ctx, s, KindStats)
		errs[2] = err
		return err
	})
	g.Go(func() (err error) {
		set.ItemCategories, err = fetchCollection[domain.ItemCategory](ctx, s, KindItems)
		errs[3] = err
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.ReferenceDataSet{}, errors.Join(errs[:]...)
	}

	return set, nil
}

type envelope[T any] struct {
	Result []T `json:"result"`
}

func fetchCollection[T any](ctx context.Context, s *Synchronizer, kind Kind) ([]T, error) {
	var env envelope[T]
	err := s.api.Get(ctx, kind.Path(), nil, &env)
	if err == nil && env.Result == nil {
		err = errMissingResult
	}
	if err != nil {
		metrics.RefdataFetchTotal.WithLabelValues(string(kind), metrics.OutcomeFailure).Inc()
		s.log.Warn("reference data fetch failed", "collection", kind, "error", err)
		return nil, fmt.Errorf("fetching %s: %w", kind, err)
	}

	metrics.RefdataFetchTotal.WithLabelValues(string(kind), metrics.OutcomeSuccess).Inc()
	s.log.Debug("reference data fetch succeeded", "collection", kind, "count", len(env.Result))
	return env.Result, nil
}

// scheduleRetryLocked replaces any pending retry with a new one. s.mu must
// be held.
func (s *Synchronizer) scheduleRetryLocked(ctx context.Context) {
	if s.stopped || ctx.Err() != nil {
		return
	}
	s.cancelPendingLocked()

	id := s.retryID
	s.cancelRetry = s.scheduler.Schedule(s.retryInterval, func() {
		s.retry(ctx, id)
	})
	metrics.RefdataRetriesScheduled.Inc()
}

// cancelPendingLocked invalidates the pending retry. s.mu must be held.
func (s *Synchronizer) cancelPendingLocked() {
	s.retryID++
	if s.cancelRetry != nil {
		s.cancelRetry()
		s.cancelRetry = nil
	}
}

func (s *Synchronizer) retry(ctx context.Context, id uint64) {
	s.mu.Lock()
	if id != s.retryID || s.stopped {
		s.mu.Unlock()
		return
	}
	s.cancelRetry = nil

	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}

	if s.busy.Load() {
		s.scheduleRetryLocked(ctx)
		s.mu.Unlock()
		s.log.Info("reference data retry deferred, sync in flight", "retry_in", s.retryInterval)
		return
	}
	s.mu.Unlock()

	s.log.Info("retrying reference data sync")
	_ = s.Sync(ctx)
}

func (s *Synchronizer) notifyReady(ctx context.Context, leagues []domain.League) {
	for _, n := range s.notifiers {
		if err := n.NotifyReady(ctx, leagues); err != nil {
			metrics.NotificationFailuresTotal.Inc()
			s.log.Error("ready notification failed", "error", err)
		}
	}
}

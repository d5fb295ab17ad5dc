package refdata_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhuliguang/Sidekick/internal/metrics"
	"github.com/zhuliguang/Sidekick/internal/notify"
	"github.com/zhuliguang/Sidekick/internal/refdata"
	"github.com/zhuliguang/Sidekick/internal/trade"
	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

const (
	leaguesBody = `{"result":[` +
		`{"id":"Standard","realm":"pc","text":"Standard"},` +
		`{"id":"Hardcore","realm":"pc","text":"Hardcore"},` +
		`{"id":"Settlers","realm":"pc","text":"Settlers"}]}`
	staticBody = `{"result":[{"id":"Currency","label":"Currency","entries":[{"id":"chaos","text":"Chaos Orb"}]}]}`
	statsBody  = `{"result":[{"id":"pseudo","label":"Pseudo","entries":[{"id":"pseudo.total_life","text":"+# total maximum Life","type":"pseudo"}]}]}`
	itemsBody  = `{"result":[{"id":"accessory","label":"Accessories","entries":[{"type":"Amber Amulet","text":"Amber Amulet"}]}]}`
)

// refServer serves the four reference collections. Paths in fail answer
// with a 500; a request for a path in gate blocks until the channel closes.
type refServer struct {
	mu      sync.Mutex
	hits    map[string]int
	fail    map[string]bool
	body    map[string]string
	gate    map[string]chan struct{}
	entered chan string
}

func newRefServer(t *testing.T) (*refServer, *trade.Client) {
	t.Helper()

	rs := &refServer{
		hits: map[string]int{},
		fail: map[string]bool{},
		body: map[string]string{
			"/data/leagues": leaguesBody,
			"/data/static":  staticBody,
			"/data/stats":   statsBody,
			"/data/items":   itemsBody,
		},
		gate:    map[string]chan struct{}{},
		entered: make(chan string, 16),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.hits[r.URL.Path]++
		fail := rs.fail[r.URL.Path]
		body, ok := rs.body[r.URL.Path]
		gate := rs.gate[r.URL.Path]
		rs.mu.Unlock()

		if gate != nil {
			rs.entered <- r.URL.Path
			<-gate
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		if fail {
			http.Error(w, "upstream unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return rs, trade.NewClient(trade.WithBaseURL(srv.URL))
}

func (rs *refServer) setFail(path string, fail bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.fail[path] = fail
}

func (rs *refServer) setBody(path, body string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.body[path] = body
}

func (rs *refServer) block(path string) chan struct{} {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	ch := make(chan struct{})
	rs.gate[path] = ch
	return ch
}

func (rs *refServer) unblock(path string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.gate, path)
}

func (rs *refServer) hitCount(path string) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.hits[path]
}

// manualScheduler records scheduled runs and fires them on demand.
type manualScheduler struct {
	mu      sync.Mutex
	entries []*manualEntry
}

type manualEntry struct {
	delay    time.Duration
	fn       func()
	canceled bool
}

func (m *manualScheduler) Schedule(delay time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &manualEntry{delay: delay, fn: fn}
	m.entries = append(m.entries, e)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		e.canceled = true
	}
}

func (m *manualScheduler) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *manualScheduler) entry(i int) *manualEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[i]
}

func (m *manualScheduler) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if !e.canceled {
			n++
		}
	}
	return n
}

// fire runs the entry's func regardless of cancellation, the way a timer
// that already fired races a cancel.
func (m *manualScheduler) fire(i int) {
	m.entry(i).fn()
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]domain.League
	err   error
}

func (n *recordingNotifier) NotifyReady(_ context.Context, leagues []domain.League) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, leagues)
	return n.err
}

func (n *recordingNotifier) callCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func newSync(
	api trade.API,
	sched refdata.Scheduler,
	opts ...refdata.SynchronizerOption,
) (*refdata.Synchronizer, *refdata.Store) {
	store := refdata.NewStore()
	opts = append([]refdata.SynchronizerOption{refdata.WithSyncLogger(quietLogger())}, opts...)
	return refdata.NewSynchronizer(api, store, sched, opts...), store
}

func TestSynchronizer_AllSucceed(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	sched := &manualScheduler{}
	n := &recordingNotifier{}
	s, store := newSync(client, sched, refdata.WithNotifier(n))

	assert.Equal(t, refdata.StateIdle, s.State())

	require.NoError(t, s.Sync(context.Background()))

	assert.Equal(t, refdata.StateReady, s.State())
	assert.True(t, store.Ready())
	assert.False(t, s.Busy())

	snap := store.Snapshot()
	assert.True(t, snap.Complete())
	assert.Len(t, snap.Leagues, 3)
	assert.Equal(t, "chaos", snap.StaticItemCategories[0].Entries[0].ID)
	assert.Equal(t, "pseudo.total_life", snap.AttributeCategories[0].Entries[0].ID)
	assert.Equal(t, "Amber Amulet", snap.ItemCategories[0].Entries[0].Type)

	for _, k := range refdata.Kinds {
		assert.Equal(t, 1, rs.hitCount("/"+k.Path()), "kind %s", k)
	}

	assert.Zero(t, sched.count(), "success schedules no retry")
	require.Equal(t, 1, n.callCount())
	assert.Equal(t, snap.Leagues, n.calls[0])
}

func TestSynchronizer_SyncWhenReadyIsNoop(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	s, _ := newSync(client, &manualScheduler{})

	require.NoError(t, s.Sync(context.Background()))
	require.NoError(t, s.Sync(context.Background()))

	assert.Equal(t, 1, rs.hitCount("/data/leagues"))
}

func TestSynchronizer_FailureResetsAndSchedulesRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		body    string
		wantErr string
	}{
		{
			name:    "static 500",
			path:    "/data/static",
			wantErr: "fetching static",
		},
		{
			name:    "stats missing result",
			path:    "/data/stats",
			body:    `{}`,
			wantErr: "fetching stats",
		},
		{
			name:    "leagues null result",
			path:    "/data/leagues",
			body:    `{"result":null}`,
			wantErr: "fetching leagues",
		},
		{
			name:    "items malformed",
			path:    "/data/items",
			body:    `{"result":"nope"}`,
			wantErr: "fetching items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rs, client := newRefServer(t)
			if tt.body != "" {
				rs.setBody(tt.path, tt.body)
			} else {
				rs.setFail(tt.path, true)
			}
			sched := &manualScheduler{}
			n := &recordingNotifier{}
			s, store := newSync(client, sched, refdata.WithNotifier(n))

			err := s.Sync(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			assert.Equal(t, refdata.StateFailed, s.State())
			assert.False(t, store.Ready())
			for _, k := range refdata.Kinds {
				_, ok := store.Get(k)
				assert.False(t, ok, "partial batch must not leave %s behind", k)
			}

			// the other fetches still ran
			for _, k := range refdata.Kinds {
				assert.Equal(t, 1, rs.hitCount("/"+k.Path()), "kind %s", k)
			}

			require.Equal(t, 1, sched.count())
			assert.Equal(t, refdata.DefaultRetryInterval, sched.entry(0).delay)
			assert.Zero(t, n.callCount())
		})
	}
}

func TestSynchronizer_JoinsEveryFetchError(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	rs.setFail("/data/static", true)
	rs.setFail("/data/items", true)
	s, _ := newSync(client, &manualScheduler{})

	err := s.Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching static")
	assert.Contains(t, err.Error(), "fetching items")
	assert.True(t, trade.IsStatus(err, http.StatusInternalServerError))
}

func TestSynchronizer_RetrySucceeds(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	rs.setFail("/data/static", true)
	sched := &manualScheduler{}
	n := &recordingNotifier{}
	s, store := newSync(client, sched, refdata.WithNotifier(n))

	require.Error(t, s.Sync(context.Background()))
	require.Equal(t, 1, sched.count())

	rs.setFail("/data/static", false)
	sched.fire(0)

	assert.Equal(t, refdata.StateReady, s.State())
	assert.True(t, store.Ready())
	assert.Len(t, store.Leagues(), 3)
	assert.Equal(t, 1, sched.count(), "success schedules nothing further")
	assert.Equal(t, 1, n.callCount())

	// the whole batch was refetched, not just the failed collection
	for _, k := range refdata.Kinds {
		assert.Equal(t, 2, rs.hitCount("/"+k.Path()), "kind %s", k)
	}
}

func TestSynchronizer_RepeatedFailureKeepsRetrying(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	rs.setFail("/data/leagues", true)
	sched := &manualScheduler{}
	s, _ := newSync(client, sched, refdata.WithRetryInterval(5*time.Second))

	require.Error(t, s.Sync(context.Background()))
	sched.fire(0)
	sched.fire(1)

	assert.Equal(t, 3, sched.count())
	assert.Equal(t, 1, sched.pending(), "only the newest retry stays pending")
	assert.Equal(t, 5*time.Second, sched.entry(2).delay)
	assert.Equal(t, refdata.StateFailed, s.State())
	assert.Equal(t, 3, rs.hitCount("/data/leagues"))
}

func TestSynchronizer_ConcurrentSyncIsNoop(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	gate := rs.block("/data/leagues")
	s, store := newSync(client, &manualScheduler{})

	done := make(chan error, 1)
	go func() { done <- s.Sync(context.Background()) }()

	<-rs.entered
	assert.True(t, s.Busy())
	assert.Equal(t, refdata.StateFetching, s.State())

	// a second request while the first is in flight does nothing
	require.NoError(t, s.Sync(context.Background()))
	assert.Equal(t, 1, rs.hitCount("/data/leagues"))

	rs.unblock("/data/leagues")
	close(gate)
	require.NoError(t, <-done)

	assert.True(t, store.Ready())
	assert.Equal(t, 1, rs.hitCount("/data/leagues"))
}

func TestSynchronizer_RetryDeferredWhileBusy(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	rs.setFail("/data/static", true)
	sched := &manualScheduler{}
	s, store := newSync(client, sched)

	require.Error(t, s.Sync(context.Background()))
	require.Equal(t, 1, sched.count())

	rs.setFail("/data/static", false)
	gate := rs.block("/data/leagues")

	done := make(chan error, 1)
	go func() { done <- s.Sync(context.Background()) }()
	<-rs.entered

	// the retry fires while a batch is in flight and is pushed back
	sched.fire(0)
	assert.Equal(t, 2, sched.count())
	assert.Equal(t, refdata.DefaultRetryInterval, sched.entry(1).delay)
	assert.Equal(t, 2, rs.hitCount("/data/leagues"), "deferred retry starts no fetch")

	rs.unblock("/data/leagues")
	close(gate)
	require.NoError(t, <-done)
	assert.True(t, store.Ready())

	// the deferred retry finds the data ready and does nothing
	sched.fire(1)
	assert.Equal(t, 2, rs.hitCount("/data/leagues"))
	assert.Equal(t, refdata.StateReady, s.State())
}

func TestSynchronizer_ResetCancelsRetry(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	rs.setFail("/data/items", true)
	sched := &manualScheduler{}
	s, _ := newSync(client, sched)

	require.Error(t, s.Sync(context.Background()))
	require.Equal(t, 1, sched.pending())

	s.Reset()
	assert.Equal(t, refdata.StateIdle, s.State())
	assert.Zero(t, sched.pending())

	// a stale retry that races the cancel is ignored
	sched.fire(0)
	assert.Equal(t, 1, rs.hitCount("/data/items"))
	assert.Equal(t, refdata.StateIdle, s.State())
}

func TestSynchronizer_ResetAfterReadyRefetches(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	n := &recordingNotifier{}
	s, store := newSync(client, &manualScheduler{}, refdata.WithNotifier(n))

	require.NoError(t, s.Sync(context.Background()))
	s.Reset()

	assert.False(t, store.Ready())
	assert.Nil(t, store.Leagues())

	require.NoError(t, s.Sync(context.Background()))
	assert.True(t, store.Ready())
	assert.Equal(t, 2, rs.hitCount("/data/leagues"))
	assert.Equal(t, 2, n.callCount())
}

func TestSynchronizer_ResetDiscardsInFlightBatch(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	gate := rs.block("/data/stats")
	s, store := newSync(client, &manualScheduler{})

	done := make(chan error, 1)
	go func() { done <- s.Sync(context.Background()) }()
	<-rs.entered

	s.Reset()
	rs.unblock("/data/stats")
	close(gate)
	require.NoError(t, <-done)

	assert.False(t, store.Ready(), "batch started before reset must not commit")
	assert.Equal(t, refdata.StateIdle, s.State())
}

func TestSynchronizer_SyncDuringDiscardedBatchRestarts(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	gate := rs.block("/data/stats")
	sched := &manualScheduler{}
	s, store := newSync(client, sched)

	done := make(chan error, 1)
	go func() { done <- s.Sync(context.Background()) }()
	<-rs.entered

	// reset then sync while the first batch is still in flight
	s.Reset()
	require.NoError(t, s.Sync(context.Background()))
	assert.True(t, s.Busy())

	rs.unblock("/data/stats")
	close(gate)
	require.NoError(t, <-done)

	assert.True(t, store.Ready(), "the requested sync runs after the discarded batch")
	assert.Equal(t, refdata.StateReady, s.State())
	assert.False(t, s.Busy())
	assert.Equal(t, 2, rs.hitCount("/data/leagues"))
	assert.Zero(t, sched.count())
}

func TestSynchronizer_StopPreventsRetry(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	rs.setFail("/data/static", true)
	sched := &manualScheduler{}
	s, _ := newSync(client, sched)

	require.Error(t, s.Sync(context.Background()))
	s.Stop()
	assert.Zero(t, sched.pending())

	sched.fire(0)
	assert.Equal(t, 1, rs.hitCount("/data/static"))

	// failures after Stop schedule nothing
	require.Error(t, s.Sync(context.Background()))
	assert.Equal(t, 1, sched.count())
}

func TestSynchronizer_StartAfterStopSchedulesAgain(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	rs.setFail("/data/static", true)
	sched := &manualScheduler{}
	s, _ := newSync(client, sched)

	s.Stop()
	require.Error(t, s.Sync(context.Background()))
	assert.Zero(t, sched.count())

	s.Start()
	require.Error(t, s.Sync(context.Background()))
	assert.Equal(t, 1, sched.pending())
	assert.Equal(t, refdata.StateFailed, s.State())
}

func TestSynchronizer_CanceledContextSchedulesNothing(t *testing.T) {
	t.Parallel()

	_, client := newRefServer(t)
	sched := &manualScheduler{}
	s, _ := newSync(client, sched)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, s.Sync(ctx))
	assert.Zero(t, sched.count())
}

func TestSynchronizer_NotifierErrorKeepsReady(t *testing.T) {
	t.Parallel()

	_, client := newRefServer(t)
	n := &recordingNotifier{err: assert.AnError}
	second := &recordingNotifier{}
	s, store := newSync(client, &manualScheduler{},
		refdata.WithNotifier(n),
		refdata.WithNotifier(second),
	)

	require.NoError(t, s.Sync(context.Background()))
	assert.True(t, store.Ready())
	assert.Equal(t, 1, n.callCount())
	assert.Equal(t, 1, second.callCount(), "a failing notifier does not stop the rest")
}

// Three leagues arrive but static data fails: nothing is ready until the
// retry a minute later succeeds, after which the leagues are listed.
func TestSynchronizer_StartupScenario(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	rs.setFail("/data/static", true)
	sched := &manualScheduler{}

	var (
		mu    sync.Mutex
		ready []string
	)
	s, store := newSync(client, sched, refdata.WithNotifier(notify.Func(
		func(_ context.Context, leagues []domain.League) error {
			mu.Lock()
			defer mu.Unlock()
			for _, l := range leagues {
				ready = append(ready, l.ID)
			}
			return nil
		},
	)))

	require.Error(t, s.Sync(context.Background()))
	assert.Empty(t, store.Leagues())
	assert.Equal(t, time.Minute, sched.entry(0).delay)

	rs.setFail("/data/static", false)
	sched.fire(0)

	require.True(t, store.Ready())
	mu.Lock()
	assert.Equal(t, []string{"Standard", "Hardcore", "Settlers"}, ready)
	mu.Unlock()
}

func TestSynchronizer_WithCronScheduler(t *testing.T) {
	t.Parallel()

	rs, client := newRefServer(t)
	rs.setFail("/data/items", true)

	cs := refdata.NewCronScheduler(quietLogger())
	cs.Start()
	defer cs.Stop()

	s, store := newSync(client, cs, refdata.WithRetryInterval(50*time.Millisecond))
	defer s.Stop()

	require.Error(t, s.Sync(context.Background()))
	rs.setFail("/data/items", false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, store.WaitReady(ctx))
	assert.Eventually(t, func() bool { return s.State() == refdata.StateReady },
		time.Second, 10*time.Millisecond)
}

// Not parallel: reads package-level metrics.
func TestSynchronizer_Metrics(t *testing.T) {
	rs, client := newRefServer(t)
	rs.setFail("/data/stats", true)
	sched := &manualScheduler{}
	s, _ := newSync(client, sched)

	failures := testutil.ToFloat64(metrics.RefdataSyncTotal.WithLabelValues(metrics.OutcomeFailure))
	successes := testutil.ToFloat64(metrics.RefdataSyncTotal.WithLabelValues(metrics.OutcomeSuccess))
	retries := testutil.ToFloat64(metrics.RefdataRetriesScheduled)
	statsFail := testutil.ToFloat64(metrics.RefdataFetchTotal.WithLabelValues("stats", metrics.OutcomeFailure))

	require.Error(t, s.Sync(context.Background()))
	assert.InDelta(t, failures+1, testutil.ToFloat64(metrics.RefdataSyncTotal.WithLabelValues(metrics.OutcomeFailure)), 0)
	assert.InDelta(t, retries+1, testutil.ToFloat64(metrics.RefdataRetriesScheduled), 0)
	assert.InDelta(t, statsFail+1, testutil.ToFloat64(metrics.RefdataFetchTotal.WithLabelValues("stats", metrics.OutcomeFailure)), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.RefdataReady), 0)

	rs.setFail("/data/stats", false)
	sched.fire(0)
	assert.InDelta(t, successes+1, testutil.ToFloat64(metrics.RefdataSyncTotal.WithLabelValues(metrics.OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RefdataReady), 0)
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", refdata.StateIdle.String())
	assert.Equal(t, "fetching", refdata.StateFetching.String())
	assert.Equal(t, "ready", refdata.StateReady.String())
	assert.Equal(t, "failed", refdata.StateFailed.String())
	assert.True(t, strings.HasPrefix(refdata.State(9).String(), "State("))
}

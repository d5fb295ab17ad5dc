package refdata

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs fn once after delay, on its own goroutine. The returned
// cancel func removes a pending run; calling it after the run is a no-op.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) (cancel func())
}

// CronScheduler implements Scheduler with one-shot cron entries.
type CronScheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// NewCronScheduler creates a CronScheduler. Entries only fire after Start.
func NewCronScheduler(log *slog.Logger) *CronScheduler {
	return &CronScheduler{
		cron: cron.New(),
		log:  log,
	}
}

// Start begins running scheduled entries.
func (s *CronScheduler) Start() {
	s.log.Debug("retry scheduler started")
	s.cron.Start()
}

// Stop halts the scheduler, waiting for running jobs to finish.
func (s *CronScheduler) Stop() context.Context {
	s.log.Debug("retry scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the pending entries for inspection.
func (s *CronScheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// Schedule implements Scheduler.
func (s *CronScheduler) Schedule(delay time.Duration, fn func()) func() {
	e := &onceEntry{cron: s.cron}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.id = s.cron.Schedule(&onceSchedule{delay: delay}, cron.FuncJob(func() {
		if e.remove() {
			fn()
		}
	}))

	return func() { e.remove() }
}

// onceEntry removes its cron entry exactly once, either when it fires or
// when it is canceled, whichever comes first.
type onceEntry struct {
	cron *cron.Cron
	mu   sync.Mutex
	id   cron.EntryID
	done bool
}

func (e *onceEntry) remove() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done {
		return false
	}
	e.done = true
	e.cron.Remove(e.id)
	return true
}

// onceSchedule activates once, delay after the time it is first asked.
type onceSchedule struct {
	delay time.Duration
	fired bool
}

// Next implements cron.Schedule. A zero time tells cron never to run again.
func (o *onceSchedule) Next(t time.Time) time.Time {
	if o.fired {
		return time.Time{}
	}
	o.fired = true
	return t.Add(o.delay)
}

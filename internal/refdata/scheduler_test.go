package refdata_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhuliguang/Sidekick/internal/refdata"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCronScheduler_FiresOnce(t *testing.T) {
	t.Parallel()

	s := refdata.NewCronScheduler(quietLogger())
	s.Start()
	defer s.Stop()

	fired := make(chan struct{}, 2)
	s.Schedule(20*time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled func did not run")
	}

	assert.Eventually(t, func() bool { return len(s.Entries()) == 0 },
		time.Second, 10*time.Millisecond, "entry must be removed after firing")

	select {
	case <-fired:
		t.Fatal("scheduled func ran twice")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCronScheduler_Cancel(t *testing.T) {
	t.Parallel()

	s := refdata.NewCronScheduler(quietLogger())
	s.Start()
	defer s.Stop()

	fired := make(chan struct{}, 1)
	cancel := s.Schedule(50*time.Millisecond, func() { fired <- struct{}{} })
	cancel()
	cancel() // idempotent

	select {
	case <-fired:
		t.Fatal("canceled func ran")
	case <-time.After(200 * time.Millisecond):
	}
	assert.Empty(t, s.Entries())
}

func TestCronScheduler_ScheduleBeforeStart(t *testing.T) {
	t.Parallel()

	s := refdata.NewCronScheduler(quietLogger())

	fired := make(chan struct{}, 1)
	s.Schedule(10*time.Millisecond, func() { fired <- struct{}{} })
	require.Len(t, s.Entries(), 1)

	s.Start()
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled func did not run after Start")
	}
}

func TestCronScheduler_StopWaits(t *testing.T) {
	t.Parallel()

	s := refdata.NewCronScheduler(quietLogger())
	s.Start()
	ctx := s.Stop()
	<-ctx.Done()
}

package scheduler

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStartedLoop(t *testing.T, opts ...Option) *Loop {
	t.Helper()
	l, err := NewLoop(discardLogger(), opts...)
	require.NoError(t, err)
	l.Start()
	t.Cleanup(l.Stop)
	return l
}

func TestLoop_RunTaskPreservesOrder(t *testing.T) {
	l := newStartedLoop(t, Blocking())

	var got []int
	done := make(chan struct{})
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, l.RunTask(func() { got = append(got, i) }))
	}
	require.NoError(t, l.RunTask(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks did not run")
	}

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoop_TasksNeverOverlap(t *testing.T) {
	l := newStartedLoop(t, Blocking())

	var inFlight, maxInFlight atomic.Int32
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				var taskDone sync.WaitGroup
				taskDone.Add(1)
				err := l.RunTask(func() {
					defer taskDone.Done()
					n := inFlight.Add(1)
					for {
						m := maxInFlight.Load()
						if n <= m || maxInFlight.CompareAndSwap(m, n) {
							break
						}
					}
					inFlight.Add(-1)
				})
				if assert.NoError(t, err) {
					taskDone.Wait()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestLoop_NonBlockingQueueFull(t *testing.T) {
	l, err := NewLoop(discardLogger(), QueueSize(1))
	require.NoError(t, err)

	var ran atomic.Int32
	require.NoError(t, l.RunTask(func() { ran.Add(1) }))
	assert.ErrorIs(t, l.RunTask(func() { ran.Add(1) }), ErrQueueFull)

	// not started: Stop drains what was queued
	l.Stop()
	assert.Equal(t, int32(1), ran.Load())
}

func TestLoop_RejectsAfterStop(t *testing.T) {
	l, err := NewLoop(discardLogger())
	require.NoError(t, err)
	l.Start()
	l.Stop()
	l.Stop()

	assert.ErrorIs(t, l.RunTask(func() {}), ErrStopped)
	_, err = l.ScheduleRecurring(func() {}, 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrStopped)
}

func TestLoop_ScheduleRecurringInvalidPeriod(t *testing.T) {
	l := newStartedLoop(t)

	_, err := l.ScheduleRecurring(func() {}, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = l.ScheduleRecurring(func() {}, 0, -time.Second)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestLoop_RecurringRunsUntilCancelled(t *testing.T) {
	l := newStartedLoop(t)

	var runs atomic.Int32
	h, err := l.ScheduleRecurring(func() { runs.Add(1) }, 0, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, l.ActiveJobs())

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 5*time.Second, time.Millisecond)

	h.Cancel()
	h.Cancel()
	select {
	case <-h.Done():
	default:
		t.Fatal("Done not closed after Cancel")
	}

	assert.Eventually(t, func() bool { return l.ActiveJobs() == 0 }, 5*time.Second, time.Millisecond)
	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestLoop_CancelBeforeFirstRun(t *testing.T) {
	l := newStartedLoop(t)

	var runs atomic.Int32
	h, err := l.ScheduleRecurring(func() { runs.Add(1) }, time.Hour, time.Hour)
	require.NoError(t, err)
	h.Cancel()

	assert.Eventually(t, func() bool { return l.ActiveJobs() == 0 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestLoop_StopCancelsRecurringJobs(t *testing.T) {
	l, err := NewLoop(discardLogger())
	require.NoError(t, err)
	l.Start()

	h, err := l.ScheduleRecurring(func() {}, time.Hour, time.Hour)
	require.NoError(t, err)

	l.Stop()
	select {
	case <-h.Done():
	default:
		t.Fatal("job not cancelled by Stop")
	}
	assert.Equal(t, 0, l.ActiveJobs())
}

func TestLoop_RecoversPanics(t *testing.T) {
	l := newStartedLoop(t, Blocking())

	done := make(chan struct{})
	require.NoError(t, l.RunTask(func() { panic("boom") }))
	require.NoError(t, l.RunTask(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop died after panic")
	}
}

func TestLoop_BlockingReentrantRunTaskDoesNotDeadlock(t *testing.T) {
	l, err := NewLoop(discardLogger(), QueueSize(1), Blocking())
	require.NoError(t, err)
	l.Start()

	var ran atomic.Int32
	results := make(chan [2]error, 1)
	require.NoError(t, l.RunTask(func() {
		first := l.RunTask(func() { ran.Add(1) })
		second := l.RunTask(func() { ran.Add(1) })
		results <- [2]error{first, second}
	}))

	select {
	case errs := <-results:
		assert.NoError(t, errs[0])
		assert.ErrorIs(t, errs[1], ErrQueueFull)
	case <-time.After(5 * time.Second):
		t.Fatal("primary context blocked on its own queue")
	}

	stopped := make(chan struct{})
	go func() {
		l.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop hung")
	}
	assert.Equal(t, int32(1), ran.Load())
}

func TestLoop_BlockingWaitsForSpace(t *testing.T) {
	l, err := NewLoop(discardLogger(), QueueSize(1), Blocking())
	require.NoError(t, err)
	l.Start()
	t.Cleanup(l.Stop)

	gate := make(chan struct{})
	running := make(chan struct{})
	require.NoError(t, l.RunTask(func() {
		close(running)
		<-gate
	}))
	<-running
	require.NoError(t, l.RunTask(func() {}))

	queued := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		queued <- l.RunTask(func() { close(done) })
	}()

	select {
	case <-queued:
		t.Fatal("RunTask returned while the queue was full")
	case <-time.After(20 * time.Millisecond):
	}

	close(gate)
	require.NoError(t, <-queued)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("queued task did not run")
	}
}

func TestLoop_StopReleasesBlockedSenders(t *testing.T) {
	l, err := NewLoop(discardLogger(), QueueSize(1), Blocking())
	require.NoError(t, err)

	// not started: the queue stays full
	require.NoError(t, l.RunTask(func() {}))

	queued := make(chan error, 1)
	go func() {
		queued <- l.RunTask(func() {})
	}()
	time.Sleep(20 * time.Millisecond)

	l.Stop()
	select {
	case err := <-queued:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(5 * time.Second):
		t.Fatal("blocked sender not released by Stop")
	}
}

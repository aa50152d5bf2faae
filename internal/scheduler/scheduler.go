// Package scheduler runs one-shot tasks on a single primary context and
// recurring jobs on their own goroutines.
package scheduler

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrInvalidPeriod is returned when a recurring job is scheduled with a non-positive period.
	ErrInvalidPeriod = errors.New("recurring job period must be positive")
	// ErrStopped is returned when scheduling on a stopped scheduler.
	ErrStopped = errors.New("scheduler stopped")
	// ErrQueueFull is reported when a non-blocking primary queue drops a task.
	ErrQueueFull = errors.New("primary task queue full")
)

// Scheduler is the execution substrate the hologram core runs on.
type Scheduler interface {
	// RunTask queues task on the primary context and returns without waiting.
	// Tasks run in the order they were queued. An error means the task was
	// not queued and will never run.
	RunTask(task func()) error

	// ScheduleRecurring runs task after delay and then every period until the
	// returned handle is cancelled.
	ScheduleRecurring(task func(), delay, period time.Duration) (TaskHandle, error)
}

// TaskHandle is a cancellable reference to a scheduled job.
type TaskHandle interface {
	// Cancel stops the job. It is safe to call any number of times, also after
	// the job has already finished.
	Cancel()

	// Done is closed once the job has been cancelled.
	Done() <-chan struct{}
}

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type handle struct {
	once sync.Once
	done chan struct{}
}

func newHandle() *handle {
	return &handle{done: make(chan struct{})}
}

func (h *handle) Cancel() {
	h.once.Do(func() { close(h.done) })
}

func (h *handle) Done() <-chan struct{} {
	return h.done
}

func (h *handle) cancelled() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

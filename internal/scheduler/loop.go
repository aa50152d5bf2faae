package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Option configures a Loop.
type Option func(*config)

type config struct {
	queueSize int
	blocking  bool
}

// QueueSize sets the capacity of the primary task queue.
func QueueSize(size int) Option {
	return func(c *config) {
		c.queueSize = size
	}
}

// Blocking makes RunTask wait for queue space instead of dropping the task.
// Tasks queued from the primary context itself are still dropped when the
// queue is full, since nothing else would ever make room.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Loop is a Scheduler whose primary context is a single goroutine draining a
// task queue. Recurring jobs run on their own goroutines.
type Loop struct {
	tasks    chan func()
	blocking bool
	logger   Logger

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	executed  metric.Int64Counter
	dropped   metric.Int64Counter

	mu      sync.RWMutex
	jobs    map[*handle]struct{}
	stopped bool

	started  atomic.Bool
	primary  atomic.Uint64 // goroutine id of run, 0 when not running
	senders  sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLoop creates a stopped loop. Call Start to begin executing tasks.
// Uses the global OTel meter for metrics (no-op if not configured).
func NewLoop(logger Logger, opts ...Option) (*Loop, error) {
	cfg := &config{queueSize: 1024}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.queueSize < 1 {
		cfg.queueSize = 1
	}

	l := &Loop{
		tasks:    make(chan func(), cfg.queueSize),
		blocking: cfg.blocking,
		logger:   logger,
		jobs:     make(map[*handle]struct{}),
		stop:     make(chan struct{}),
	}

	m := meter()

	var err error

	l.queueSize, err = m.Int64ObservableGauge(
		"scheduler.queue.size",
		metric.WithDescription("Current number of tasks waiting for the primary context"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(l.queueSize, int64(len(l.tasks)))
			return nil
		},
		l.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	l.executed, err = m.Int64Counter(
		"scheduler.tasks.executed",
		metric.WithDescription("Total tasks executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating executed counter: %w", err)
	}

	l.dropped, err = m.Int64Counter(
		"scheduler.tasks.dropped",
		metric.WithDescription("Total tasks dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return l, nil
}

// Start begins draining the primary queue. Calling it twice is a no-op.
func (l *Loop) Start() {
	if l.started.CompareAndSwap(false, true) {
		l.wg.Add(1)
		go l.run()
	}
}

// Stop cancels every recurring job, runs the tasks still queued and waits
// for all goroutines to exit.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.stopped = true
		jobs := make([]*handle, 0, len(l.jobs))
		for h := range l.jobs {
			jobs = append(jobs, h)
		}
		l.mu.Unlock()

		for _, h := range jobs {
			h.Cancel()
		}
		close(l.stop)
		l.senders.Wait()
		l.wg.Wait()
		// tasks that raced the primary goroutine's final drain
		l.drain()
	})
}

// RunTask queues task on the primary context. The loop lock is never held
// while waiting for queue space.
func (l *Loop) RunTask(task func()) error {
	l.mu.RLock()
	if l.stopped {
		l.mu.RUnlock()
		return ErrStopped
	}

	select {
	case l.tasks <- task:
		l.mu.RUnlock()
		return nil
	default:
	}

	if !l.blocking || l.onPrimary() {
		l.mu.RUnlock()
		l.dropped.Add(context.Background(), 1)
		l.logger.Warn("primary queue full, dropping task", "capacity", cap(l.tasks))
		return ErrQueueFull
	}

	l.senders.Add(1)
	l.mu.RUnlock()
	defer l.senders.Done()

	select {
	case l.tasks <- task:
		return nil
	case <-l.stop:
		return ErrStopped
	}
}

// ScheduleRecurring runs task on its own goroutine after delay, then every period.
func (l *Loop) ScheduleRecurring(task func(), delay, period time.Duration) (TaskHandle, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPeriod, period)
	}
	if delay < 0 {
		delay = 0
	}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil, ErrStopped
	}
	h := newHandle()
	l.jobs[h] = struct{}{}
	l.wg.Add(1)
	l.mu.Unlock()

	go l.recur(h, task, delay, period)
	return h, nil
}

// ActiveJobs returns the number of recurring jobs that have not been cancelled.
func (l *Loop) ActiveJobs() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for h := range l.jobs {
		if !h.cancelled() {
			n++
		}
	}
	return n
}

func (l *Loop) run() {
	defer l.wg.Done()
	l.primary.Store(goroutineID())
	defer l.primary.Store(0)

	for {
		select {
		case <-l.stop:
			l.drain()
			return
		case task := <-l.tasks:
			l.exec(task, "primary")
		}
	}
}

// onPrimary reports whether the caller is the goroutine draining the queue.
func (l *Loop) onPrimary() bool {
	id := l.primary.Load()
	return id != 0 && id == goroutineID()
}

// goroutineID parses the id from the "goroutine N [state]:" stack header.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	field := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(field, ' '); i > 0 {
		field = field[:i]
	}
	id, err := strconv.ParseUint(string(field), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (l *Loop) drain() {
	for {
		select {
		case task := <-l.tasks:
			l.exec(task, "primary")
		default:
			return
		}
	}
}

func (l *Loop) recur(h *handle, task func(), delay, period time.Duration) {
	defer l.wg.Done()
	defer func() {
		l.mu.Lock()
		delete(l.jobs, h)
		l.mu.Unlock()
	}()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-h.done:
		return
	case <-timer.C:
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		if h.cancelled() {
			return
		}
		l.exec(task, "recurring")
		select {
		case <-h.done:
			return
		case <-ticker.C:
		}
	}
}

func (l *Loop) exec(task func(), kind string) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", "context", kind, "panic", r)
		}
	}()
	task()
	l.executed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("context", kind)))
}

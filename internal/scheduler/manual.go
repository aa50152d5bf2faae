package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by virtual time. Nothing runs until the owner
// calls Advance or RunPending, which makes tick-by-tick behaviour testable
// without sleeping.
type Manual struct {
	mu       sync.Mutex
	now      time.Duration
	deferred bool
	pending  []func()
	jobs     []*manualJob
	seq      int
}

type manualJob struct {
	h      *handle
	task   func()
	next   time.Duration
	period time.Duration
	seq    int
}

// NewManual creates a manual scheduler that runs primary tasks inline.
func NewManual() *Manual {
	return &Manual{}
}

// Defer switches primary tasks from inline execution to queueing until RunPending.
func (m *Manual) Defer(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deferred = on
}

func (m *Manual) RunTask(task func()) error {
	m.mu.Lock()
	if m.deferred {
		m.pending = append(m.pending, task)
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()
	task()
	return nil
}

// RunPending executes queued primary tasks in order and returns how many ran.
// Tasks queued while running are executed too.
func (m *Manual) RunPending() int {
	ran := 0
	for m.Step() {
		ran++
	}
	return ran
}

// Step executes the oldest queued primary task, if any.
func (m *Manual) Step() bool {
	m.mu.Lock()
	if len(m.pending) == 0 {
		m.mu.Unlock()
		return false
	}
	task := m.pending[0]
	m.pending = m.pending[1:]
	m.mu.Unlock()

	task()
	return true
}

// Pending returns the number of queued primary tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Manual) ScheduleRecurring(task func(), delay, period time.Duration) (TaskHandle, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPeriod, period)
	}
	if delay < 0 {
		delay = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	j := &manualJob{h: newHandle(), task: task, next: m.now + delay, period: period, seq: m.seq}
	m.jobs = append(m.jobs, j)
	return j.h, nil
}

// Advance moves virtual time forward by d, firing every recurring job that
// becomes due, in due-time order. Advance(0) fires jobs due right now.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		m.prune()
		j := m.due(target)
		if j == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = j.next
		j.next += j.period
		m.mu.Unlock()

		if !j.h.cancelled() {
			j.task()
		}
	}
}

// ActiveJobs returns the number of recurring jobs that have not been cancelled.
func (m *Manual) ActiveJobs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune()
	return len(m.jobs)
}

// Now returns the elapsed virtual time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) prune() {
	live := m.jobs[:0]
	for _, j := range m.jobs {
		if !j.h.cancelled() {
			live = append(live, j)
		}
	}
	m.jobs = live
}

func (m *Manual) due(target time.Duration) *manualJob {
	var candidates []*manualJob
	for _, j := range m.jobs {
		if j.next <= target {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].next != candidates[b].next {
			return candidates[a].next < candidates[b].next
		}
		return candidates[a].seq < candidates[b].seq
	})
	return candidates[0]
}

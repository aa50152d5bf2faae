// Package animation drives marquee-style text animations on text holograms.
//
// Each text hologram has at most one running animation. Applying a new one
// cancels the old one first; removing the hologram from the registry cancels
// it too.
package animation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/OCAP2/hologram/internal/hologram"
	"github.com/OCAP2/hologram/internal/scheduler"

	"go.opentelemetry.io/otel/metric"
)

// ErrNilHologram is returned when applying an animation to a nil hologram.
var ErrNilHologram = errors.New("cannot animate nil hologram")

// TextAnimation is a cyclic sequence of text frames.
// Delay is the time before the first frame, Period the time between frames.
type TextAnimation struct {
	Frames []string
	Delay  time.Duration
	Period time.Duration
}

// NewTextAnimation returns an animation that starts immediately.
func NewTextAnimation(period time.Duration, frames ...string) TextAnimation {
	return TextAnimation{Frames: frames, Period: period}
}

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Coordinator owns the hologram -> running animation mapping.
type Coordinator struct {
	sched  scheduler.Scheduler
	logger Logger

	// OTEL metrics
	ticks  metric.Int64Counter
	active metric.Int64ObservableGauge

	mu   sync.Mutex
	runs map[*hologram.TextHologram]*run
}

// run is one scheduled animation. Its frames are a private copy of the
// frames passed to Apply and rotate in place on every tick.
type run struct {
	mu        sync.Mutex
	frames    []string
	cancelled bool
	handle    scheduler.TaskHandle
}

// New creates a coordinator that schedules ticks on sched.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(sched scheduler.Scheduler, logger Logger) (*Coordinator, error) {
	c := &Coordinator{
		sched:  sched,
		logger: logger,
		runs:   make(map[*hologram.TextHologram]*run),
	}

	m := meter()

	var err error

	c.ticks, err = m.Int64Counter(
		"animation.ticks",
		metric.WithDescription("Total animation frames shown"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}

	c.active, err = m.Int64ObservableGauge(
		"animation.active",
		metric.WithDescription("Current number of running animations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating active gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(c.active, int64(c.Count()))
			return nil
		},
		c.active,
	)
	if err != nil {
		return nil, fmt.Errorf("registering active callback: %w", err)
	}

	return c, nil
}

// Apply replaces any running animation on h with a.
// The frames are copied; later changes to a.Frames do not affect the run.
func (c *Coordinator) Apply(h *hologram.TextHologram, a TextAnimation) error {
	if h == nil {
		return ErrNilHologram
	}

	r := &run{frames: slices.Clone(a.Frames)}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.runs[h]; ok {
		delete(c.runs, h)
		old.stop()
	}

	handle, err := c.sched.ScheduleRecurring(func() { c.tick(h, r) }, a.Delay, a.Period)
	if err != nil {
		return fmt.Errorf("schedule animation for %s: %w", h.ID(), err)
	}
	r.handle = handle
	c.runs[h] = r

	c.logger.Debug("animation applied", "hologram", h.ID(), "frames", len(r.frames), "period", a.Period)
	return nil
}

// Cancel stops the animation on h. It is a no-op when none is running.
func (c *Coordinator) Cancel(h *hologram.TextHologram) {
	c.mu.Lock()
	r, ok := c.runs[h]
	delete(c.runs, h)
	c.mu.Unlock()

	if ok {
		r.stop()
		c.logger.Debug("animation cancelled", "hologram", h.ID())
	}
}

// CancelAll stops every running animation.
func (c *Coordinator) CancelAll() {
	c.mu.Lock()
	runs := c.runs
	c.runs = make(map[*hologram.TextHologram]*run)
	c.mu.Unlock()

	for _, r := range runs {
		r.stop()
	}
}

// Active reports whether h has a running animation.
func (c *Coordinator) Active(h *hologram.TextHologram) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.runs[h]
	return ok
}

// Count returns the number of running animations.
func (c *Coordinator) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.runs)
}

// Frames returns the current frame order of the animation on h.
func (c *Coordinator) Frames(h *hologram.TextHologram) ([]string, bool) {
	c.mu.Lock()
	r, ok := c.runs[h]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.frames), true
}

func (c *Coordinator) tick(h *hologram.TextHologram, r *run) {
	r.mu.Lock()
	if r.cancelled || len(r.frames) == 0 {
		r.mu.Unlock()
		return
	}
	frame := r.frames[0]
	h.SetText(frame)
	rotateLeft(r.frames)
	r.mu.Unlock()

	c.ticks.Add(context.Background(), 1)

	err := c.sched.RunTask(func() {
		if err := h.Update(); err != nil {
			if errors.Is(err, hologram.ErrNotSpawned) {
				c.logger.Debug("skipping frame for despawned hologram", "hologram", h.ID())
				return
			}
			c.logger.Error("animation frame update failed", "hologram", h.ID(), "error", err)
		}
	})
	if err != nil {
		c.logger.Warn("animation frame not dispatched", "hologram", h.ID(), "error", err)
	}
}

func (r *run) stop() {
	r.mu.Lock()
	r.cancelled = true
	r.mu.Unlock()
	if r.handle != nil {
		r.handle.Cancel()
	}
}

// rotateLeft moves the first frame to the end.
func rotateLeft(frames []string) {
	if len(frames) < 2 {
		return
	}
	first := frames[0]
	copy(frames, frames[1:])
	frames[len(frames)-1] = first
}

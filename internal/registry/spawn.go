package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/OCAP2/hologram/internal/hologram"
	"github.com/OCAP2/hologram/pkg/core"
)

// ErrNilHologram is returned when spawning a nil hologram.
var ErrNilHologram = errors.New("nil hologram")

// Pending tracks a spawn dispatched to the primary context.
type Pending struct {
	id   string
	done chan struct{}

	mu        sync.Mutex
	finished  bool
	abandoned bool
	err       error
}

func newPending(id string) *Pending {
	return &Pending{id: id, done: make(chan struct{})}
}

// finish records the spawn result. It reports false if the waiter gave up
// first, in which case the result is dropped.
func (p *Pending) finish(err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished || p.abandoned {
		return false
	}
	p.finished = true
	p.err = err
	close(p.done)
	return true
}

// abandon gives up on the spawn unless it has already finished.
func (p *Pending) abandon(cause error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished || p.abandoned {
		return false
	}
	p.abandoned = true
	p.err = fmt.Errorf("waiting for spawn of %s: %w", p.id, cause)
	close(p.done)
	return true
}

func (p *Pending) isAbandoned() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.abandoned
}

// ID returns the id of the hologram being spawned.
func (p *Pending) ID() string {
	return p.id
}

// Done is closed once the spawn has completed, failed or been abandoned.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Err returns the spawn result. It is nil until Done is closed.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the spawn finishes or ctx is done. When ctx wins the
// spawn is abandoned: a task that has not started yet does nothing, and a
// hologram registered after the abandon is removed again, so an error from
// Wait always means the hologram is not left registered.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
	case <-ctx.Done():
		p.abandon(ctx.Err())
	}
	return p.Err()
}

// SpawnAsync dispatches spawning h at loc to the primary context and returns
// immediately. On the primary context the hologram is spawned, updated and
// then registered; it is never registered if the display step fails, and a
// display object whose registration is rejected is killed again.
//
// SpawnAsync is the variant to use from code already running on the primary
// context, where waiting for the result would deadlock. If the primary queue
// is full there, the returned Pending fails with scheduler.ErrQueueFull.
func (m *Manager) SpawnAsync(h hologram.Hologram, loc core.Location) *Pending {
	if hologram.IsNil(h) {
		p := newPending("")
		p.finish(ErrNilHologram)
		return p
	}

	p := newPending(h.ID())
	err := m.sched.RunTask(func() {
		if p.isAbandoned() {
			m.logger.Debug("skipping abandoned spawn", "id", h.ID())
			return
		}
		err := m.spawnNow(h, loc)
		if p.finish(err) || err != nil {
			return
		}
		m.logger.Warn("spawn abandoned while in flight, removing hologram", "id", h.ID())
		if _, rerr := m.RemoveHologram(h); rerr != nil {
			m.logger.Error("failed to remove abandoned hologram", "id", h.ID(), "error", rerr)
		}
	})
	if err != nil {
		p.finish(fmt.Errorf("dispatch spawn of %s: %w", h.ID(), err))
	}
	return p
}

// Spawn is SpawnAsync followed by Wait.
func (m *Manager) Spawn(ctx context.Context, h hologram.Hologram, loc core.Location) error {
	return m.SpawnAsync(h, loc).Wait(ctx)
}

// Spawn spawns and registers h, returning it with its concrete type.
func Spawn[H hologram.Hologram](ctx context.Context, m *Manager, h H, loc core.Location) (H, error) {
	if err := m.Spawn(ctx, h, loc); err != nil {
		return h, err
	}
	return h, nil
}

func (m *Manager) spawnNow(h hologram.Hologram, loc core.Location) error {
	access := h.Internal()

	if err := access.Spawn(loc); err != nil {
		m.logger.Error("hologram spawn failed", "id", h.ID(), "location", loc.String(), "error", err)
		return err
	}

	if err := access.Update(); err != nil {
		m.logger.Error("initial hologram update failed", "id", h.ID(), "error", err)
		if kerr := access.Kill(); kerr != nil {
			m.logger.Error("failed to kill hologram after update failure", "id", h.ID(), "error", kerr)
		}
		return err
	}

	if !m.Register(h) {
		if kerr := access.Kill(); kerr != nil {
			m.logger.Error("failed to kill unregistered hologram", "id", h.ID(), "error", kerr)
		}
		return fmt.Errorf("spawn %s: %w", h.ID(), ErrDuplicateID)
	}

	m.logger.Debug("hologram spawned", "id", h.ID(), "location", loc.String())
	return nil
}

// Package registry owns the id -> hologram mapping and the lifecycle of every
// registered hologram: spawn, registration, lookup, attachment and teardown.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/OCAP2/hologram/internal/hologram"
	"github.com/OCAP2/hologram/internal/scheduler"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrDuplicateID is returned by Spawn when another hologram already holds the id.
var ErrDuplicateID = errors.New("hologram id already registered")

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Canceller stops the animation running on a text hologram.
// The animation coordinator satisfies it.
type Canceller interface {
	Cancel(h *hologram.TextHologram)
}

// Composite is a hologram made of several individually registered parts.
type Composite interface {
	Parts() []hologram.Hologram
}

// Manager is the authoritative registry of live holograms.
type Manager struct {
	sched      scheduler.Scheduler
	animations Canceller
	logger     Logger

	// OTEL metrics
	registered metric.Int64Counter
	removed    metric.Int64Counter
	collisions metric.Int64Counter
	live       metric.Int64ObservableGauge

	mu        sync.RWMutex
	holograms map[string]hologram.Hologram
}

// New creates an empty registry.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(sched scheduler.Scheduler, animations Canceller, logger Logger) (*Manager, error) {
	m := &Manager{
		sched:      sched,
		animations: animations,
		logger:     logger,
		holograms:  make(map[string]hologram.Hologram),
	}

	mt := meter()

	var err error

	m.registered, err = mt.Int64Counter(
		"hologram.registered",
		metric.WithDescription("Total holograms registered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating registered counter: %w", err)
	}

	m.removed, err = mt.Int64Counter(
		"hologram.removed",
		metric.WithDescription("Total holograms removed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating removed counter: %w", err)
	}

	m.collisions, err = mt.Int64Counter(
		"hologram.collisions",
		metric.WithDescription("Total registrations rejected for a duplicate id"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collision counter: %w", err)
	}

	m.live, err = mt.Int64ObservableGauge(
		"hologram.live",
		metric.WithDescription("Current number of registered holograms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating live gauge: %w", err)
	}

	_, err = mt.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(m.live, int64(m.Count()))
			return nil
		},
		m.live,
	)
	if err != nil {
		return nil, fmt.Errorf("registering live callback: %w", err)
	}

	return m, nil
}

// Exists reports whether id is registered.
func (m *Manager) Exists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.holograms[id]
	return ok
}

// Contains reports whether h itself is registered. It scans every entry.
func (m *Manager) Contains(h hologram.Hologram) bool {
	if hologram.IsNil(h) {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.holograms {
		if v == h {
			return true
		}
	}
	return false
}

// List returns a snapshot of all registered holograms ordered by id.
func (m *Manager) List() []hologram.Hologram {
	m.mu.RLock()
	out := make([]hologram.Hologram, 0, len(m.holograms))
	for _, h := range m.holograms {
		out = append(out, h)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// IDs returns a sorted snapshot of all registered ids.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	out := make([]string, 0, len(m.holograms))
	for id := range m.holograms {
		out = append(out, id)
	}
	m.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Count returns the number of registered holograms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.holograms)
}

// Find returns the hologram registered under id.
func (m *Manager) Find(id string) (hologram.Hologram, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.holograms[id]
	return h, ok
}

// Lookup returns the hologram registered under id if it has type H.
func Lookup[H hologram.Hologram](m *Manager, id string) (H, bool) {
	var zero H
	h, ok := m.Find(id)
	if !ok {
		return zero, false
	}
	typed, ok := h.(H)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Register adds h unless its id is taken. Nil holograms and duplicate ids
// are rejected with a warning and leave the registry unchanged.
func (m *Manager) Register(h hologram.Hologram) bool {
	if hologram.IsNil(h) {
		m.logger.Warn("refusing to register nil hologram")
		return false
	}

	id := h.ID()

	m.mu.Lock()
	if _, taken := m.holograms[id]; taken {
		m.mu.Unlock()
		m.collisions.Add(context.Background(), 1)
		m.logger.Warn("hologram id already registered", "id", id)
		return false
	}
	m.holograms[id] = h
	m.mu.Unlock()

	m.registered.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", h.Kind().String())))
	m.logger.Debug("hologram registered", "id", id, "kind", h.Kind())
	return true
}

// Remove unregisters id, stops its animation and kills its display object.
// The bool reports whether id was registered. A teardown failure is returned
// as error; the id is unregistered either way.
func (m *Manager) Remove(id string) (bool, error) {
	m.mu.Lock()
	h, ok := m.holograms[id]
	delete(m.holograms, id)
	m.mu.Unlock()

	if !ok {
		return false, nil
	}

	m.removed.Add(context.Background(), 1)
	if err := m.teardown(h); err != nil {
		m.logger.Error("hologram teardown failed", "id", id, "error", err)
		return true, err
	}
	m.logger.Debug("hologram removed", "id", id)
	return true, nil
}

// RemoveHologram unregisters h by its id.
func (m *Manager) RemoveHologram(h hologram.Hologram) (bool, error) {
	if hologram.IsNil(h) {
		return false, nil
	}
	return m.Remove(h.ID())
}

// RemoveComposite removes every part of c. It reports true only if all parts
// were registered and torn down. Parts removed before a failure stay removed.
func (m *Manager) RemoveComposite(c Composite) (bool, error) {
	all := true
	var errs []error
	for _, part := range c.Parts() {
		ok, err := m.RemoveHologram(part)
		if err != nil {
			errs = append(errs, err)
		}
		all = all && ok && err == nil
	}
	return all, errors.Join(errs...)
}

// RemoveAll empties the registry, then stops every animation and kills every
// display object. Teardown is best effort: failures are joined into the
// returned error and do not stop the remaining teardowns.
func (m *Manager) RemoveAll() error {
	m.mu.Lock()
	holograms := m.holograms
	m.holograms = make(map[string]hologram.Hologram)
	m.mu.Unlock()

	var errs []error
	for _, h := range holograms {
		if err := m.teardown(h); err != nil {
			errs = append(errs, err)
		}
	}
	m.removed.Add(context.Background(), int64(len(holograms)))
	m.logger.Info("all holograms removed", "count", len(holograms), "failures", len(errs))
	return errors.Join(errs...)
}

func (m *Manager) teardown(h hologram.Hologram) error {
	if t, ok := h.(*hologram.TextHologram); ok && m.animations != nil {
		m.animations.Cancel(t)
	}
	return h.Internal().Kill()
}

// IfExists calls action with the hologram registered under id, if any.
func (m *Manager) IfExists(id string, action func(hologram.Hologram)) {
	if h, ok := m.Find(id); ok {
		action(h)
	}
}

// UpdateIfExists calls update with the hologram registered under id and
// reports whether it was found.
func (m *Manager) UpdateIfExists(id string, update func(hologram.Hologram)) bool {
	h, ok := m.Find(id)
	if !ok {
		return false
	}
	update(h)
	return true
}

// Attach makes h follow the entity targetID. Persistent attachments survive
// world reloads on backends that support it.
func (m *Manager) Attach(h hologram.Hologram, targetID int, persistent bool) error {
	if hologram.IsNil(h) {
		return fmt.Errorf("attach: %w", hologram.ErrNotSpawned)
	}
	return h.Attach(targetID, persistent)
}

// Copy clones src under id and spawns the clone at src's current location.
// An empty id gives the clone a fresh random id.
func Copy[H hologram.Copyable[H]](ctx context.Context, m *Manager, src H, id string) (H, error) {
	loc := src.Location()
	return Spawn(ctx, m, src.Copy(id), loc)
}

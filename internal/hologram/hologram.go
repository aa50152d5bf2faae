// Package hologram holds the displayable objects managed by the registry.
//
// Every hologram owns at most one display handle. The handle is created by
// InternalAccess.Spawn and released by InternalAccess.Kill; all state pushes
// in between go through the same backend.
package hologram

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/OCAP2/hologram/internal/display"
	"github.com/OCAP2/hologram/pkg/core"
	"github.com/google/uuid"
)

var (
	// ErrNotSpawned is returned when a display operation targets a hologram without a live handle.
	ErrNotSpawned = errors.New("hologram not spawned")
	// ErrAlreadySpawned is returned when spawning a hologram that already has a live handle.
	ErrAlreadySpawned = errors.New("hologram already spawned")
)

// Kind discriminates plain holograms from leaderboard parts.
type Kind int

const (
	KindPlain Kind = iota
	KindLeaderboard
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindLeaderboard:
		return "leaderboard"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Hologram is one displayable object with a unique, immutable id.
type Hologram interface {
	ID() string
	Kind() Kind
	Location() core.Location
	Internal() InternalAccess
	Attach(targetID int, persistent bool) error
}

// Copyable is satisfied by holograms whose Copy returns their own concrete type.
type Copyable[H any] interface {
	Hologram
	Copy(id string) H
}

// InternalAccess exposes the display lifecycle of a hologram.
type InternalAccess interface {
	Spawn(loc core.Location) error
	Update() error
	Kill() error
	Live() bool
}

// IsNil reports whether h is nil or a typed nil pointer.
func IsNil(h Hologram) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// NewID returns a fresh random hologram id.
func NewID() string {
	return uuid.NewString()
}

// Option configures a hologram at construction.
type Option func(*base)

// WithKind sets the kind discriminator.
func WithKind(k Kind) Option {
	return func(b *base) {
		b.kind = k
	}
}

// WithLocation sets the location reported before the first spawn.
func WithLocation(loc core.Location) Option {
	return func(b *base) {
		b.location = loc
	}
}

type base struct {
	id      string
	kind    Kind
	backend display.Backend
	push    func(display.Handle) error

	mu         sync.RWMutex
	location   core.Location
	handle     display.Handle
	live       bool
	attachedTo int
	persistent bool
}

func (b *base) setup(id string, backend display.Backend, push func(display.Handle) error, opts []Option) {
	if id == "" {
		id = NewID()
	}
	b.id = id
	b.backend = backend
	b.push = push
	for _, opt := range opts {
		opt(b)
	}
}

func (b *base) ID() string {
	return b.id
}

func (b *base) Kind() Kind {
	return b.kind
}

func (b *base) Location() core.Location {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.location
}

// Internal returns the display lifecycle accessor.
func (b *base) Internal() InternalAccess {
	return access{b}
}

// Update pushes the current state to the display.
func (b *base) Update() error {
	return access{b}.Update()
}

// Attach binds the hologram's position to the entity targetID.
func (b *base) Attach(targetID int, persistent bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.live {
		return fmt.Errorf("attach %s: %w", b.id, ErrNotSpawned)
	}
	if err := b.backend.Attach(b.handle, targetID, persistent); err != nil {
		return fmt.Errorf("attach %s to %d: %w", b.id, targetID, err)
	}
	b.attachedTo = targetID
	b.persistent = persistent
	return nil
}

// AttachedTo returns the entity the hologram follows, if any.
func (b *base) AttachedTo() (targetID int, persistent bool, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.attachedTo, b.persistent, b.attachedTo != 0
}

// Handle returns the display handle while the hologram is live.
func (b *base) Handle() (display.Handle, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handle, b.live
}

// cloneInto copies identity-free state into dst, which must not be live.
func (b *base) cloneInto(dst *base, id string, push func(display.Handle) error) {
	loc := b.Location()
	dst.setup(id, b.backend, push, []Option{WithKind(b.kind), WithLocation(loc)})
}

type access struct {
	b *base
}

func (a access) Spawn(loc core.Location) error {
	b := a.b
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.live {
		return fmt.Errorf("spawn %s: %w", b.id, ErrAlreadySpawned)
	}
	h, err := b.backend.Spawn(loc)
	if err != nil {
		return fmt.Errorf("spawn %s: %w", b.id, err)
	}
	b.handle = h
	b.live = true
	b.location = loc
	return nil
}

func (a access) Update() error {
	b := a.b
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.live {
		return fmt.Errorf("update %s: %w", b.id, ErrNotSpawned)
	}
	if b.push != nil {
		if err := b.push(b.handle); err != nil {
			return fmt.Errorf("update %s: %w", b.id, err)
		}
	}
	if err := b.backend.Update(b.handle); err != nil {
		return fmt.Errorf("update %s: %w", b.id, err)
	}
	return nil
}

// Kill is a no-op for holograms that are not live.
func (a access) Kill() error {
	b := a.b
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.live {
		return nil
	}
	if err := b.backend.Kill(b.handle); err != nil {
		return fmt.Errorf("kill %s: %w", b.id, err)
	}
	b.live = false
	b.handle = 0
	b.attachedTo = 0
	b.persistent = false
	return nil
}

func (a access) Live() bool {
	a.b.mu.RLock()
	defer a.b.mu.RUnlock()
	return a.b.live
}

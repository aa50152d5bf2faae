// Package leaderboard builds composite holograms showing ranked players: a
// text panel plus a decorative head for first place. Both parts are ordinary
// registry entries; the composite only keeps them together.
package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/OCAP2/hologram/internal/display"
	"github.com/OCAP2/hologram/internal/hologram"
	"github.com/OCAP2/hologram/internal/registry"
	"github.com/OCAP2/hologram/pkg/core"
)

// Hologram is a leaderboard composite.
type Hologram struct {
	id   string
	text *hologram.TextHologram
	head *hologram.ItemHologram
}

// ID returns the composite id; the parts use it with _text and _head suffixes.
func (l *Hologram) ID() string {
	return l.id
}

// Text returns the panel part.
func (l *Hologram) Text() *hologram.TextHologram {
	return l.text
}

// Head returns the first-place head part, or nil for HeadNone boards.
func (l *Hologram) Head() *hologram.ItemHologram {
	return l.head
}

// Parts returns the parts, panel first.
func (l *Hologram) Parts() []hologram.Hologram {
	if l.head == nil {
		return []hologram.Hologram{l.text}
	}
	return []hologram.Hologram{l.text, l.head}
}

// Builder creates leaderboards through a registry.
type Builder struct {
	reg     *registry.Manager
	backend display.Backend
}

// NewBuilder returns a builder spawning parts on backend through reg.
func NewBuilder(reg *registry.Manager, backend display.Backend) *Builder {
	return &Builder{reg: reg, backend: backend}
}

// Build creates both parts from data and spawns them at loc. If the head
// cannot be spawned the already spawned panel is removed again, so a failed
// Build leaves nothing behind.
func (b *Builder) Build(ctx context.Context, loc core.Location, data map[int]string, opts Options) (*Hologram, error) {
	opts = opts.Normalize()

	id := opts.ID
	if id == "" {
		id = "leaderboard_" + hologram.NewID()
	}

	l := &Hologram{
		id:   id,
		text: hologram.NewText(id+"_text", b.backend, Render(data, opts), hologram.WithKind(hologram.KindLeaderboard)),
	}

	if err := b.reg.Spawn(ctx, l.text, loc); err != nil {
		return nil, fmt.Errorf("spawn leaderboard %s panel: %w", id, err)
	}
	if opts.HeadMode == HeadNone {
		return l, nil
	}

	l.head = hologram.NewItem(id+"_head", b.backend, HeadItem(data, opts), hologram.WithKind(hologram.KindLeaderboard))

	if err := b.reg.Spawn(ctx, l.head, loc.Add(0, opts.HeadOffset, 0)); err != nil {
		err = fmt.Errorf("spawn leaderboard %s head: %w", id, err)
		if _, rerr := b.reg.RemoveHologram(l.text); rerr != nil {
			err = errors.Join(err, fmt.Errorf("roll back leaderboard %s panel: %w", id, rerr))
		}
		return nil, err
	}

	return l, nil
}

// Refresh re-renders l from data in place. The parts keep their ids and
// display handles, and a running animation on the panel keeps running.
//
// Refresh pushes the display updates on the calling goroutine, so it must be
// called from the primary context (for example inside Scheduler.RunTask),
// where animation ticks also apply their updates.
func (b *Builder) Refresh(l *Hologram, data map[int]string, opts Options) error {
	opts = opts.Normalize()

	l.text.SetText(Render(data, opts))
	if l.head == nil {
		return l.text.Update()
	}
	l.head.SetItem(HeadItem(data, opts))

	return errors.Join(l.text.Update(), l.head.Update())
}

// Remove removes every part. It reports true only if all were removed; a
// part removed before another failed is not restored.
func (b *Builder) Remove(l *Hologram) (bool, error) {
	return b.reg.RemoveComposite(l)
}

// internal/display/memory/memory.go
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/OCAP2/hologram/internal/display"
	"github.com/OCAP2/hologram/pkg/core"
)

// Object is the recorded state of one spawned display object.
type Object struct {
	Handle     display.Handle
	Location   core.Location
	Text       string
	Item       display.Item
	AttachedTo int // 0 when not attached
	Persistent bool
	Updates    int
}

// Backend keeps display objects in memory instead of a game world.
// It is used by the daemon when no real renderer is connected and by tests.
type Backend struct {
	mu      sync.RWMutex
	objects map[display.Handle]*Object
	next    display.Handle
	killed  int
}

// New creates an empty memory backend
func New() *Backend {
	return &Backend{
		objects: make(map[display.Handle]*Object),
	}
}

func (b *Backend) Spawn(loc core.Location) (display.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	h := b.next
	b.objects[h] = &Object{Handle: h, Location: loc}
	return h, nil
}

func (b *Backend) Update(h display.Handle) error {
	return b.with(h, func(o *Object) { o.Updates++ })
}

func (b *Backend) Kill(h display.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[h]; !ok {
		return fmt.Errorf("kill %d: %w", h, display.ErrUnknownHandle)
	}
	delete(b.objects, h)
	b.killed++
	return nil
}

func (b *Backend) SetText(h display.Handle, text string) error {
	return b.with(h, func(o *Object) { o.Text = text })
}

func (b *Backend) SetItem(h display.Handle, item display.Item) error {
	return b.with(h, func(o *Object) { o.Item = item })
}

func (b *Backend) Attach(h display.Handle, targetID int, persistent bool) error {
	return b.with(h, func(o *Object) {
		o.AttachedTo = targetID
		o.Persistent = persistent
	})
}

func (b *Backend) with(h display.Handle, fn func(*Object)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.objects[h]
	if !ok {
		return fmt.Errorf("handle %d: %w", h, display.ErrUnknownHandle)
	}
	fn(o)
	return nil
}

// Get returns a copy of the object behind h.
func (b *Backend) Get(h display.Handle) (Object, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if o, ok := b.objects[h]; ok {
		return *o, true
	}
	return Object{}, false
}

// Live returns the number of spawned objects that have not been killed.
func (b *Backend) Live() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

// Killed returns how many objects have been torn down.
func (b *Backend) Killed() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.killed
}

// Objects returns copies of all live objects ordered by handle.
func (b *Backend) Objects() []Object {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Object, 0, len(b.objects))
	for _, o := range b.objects {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

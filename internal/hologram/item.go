package hologram

import (
	"sync"

	"github.com/OCAP2/hologram/internal/display"
)

// ItemHologram displays a single item, typically a player head.
type ItemHologram struct {
	base

	itemMu sync.RWMutex
	item   display.Item
}

// NewItem creates an unspawned item hologram. An empty id gets a fresh one.
func NewItem(id string, backend display.Backend, item display.Item, opts ...Option) *ItemHologram {
	i := &ItemHologram{item: item}
	i.setup(id, backend, i.pushItem, opts)
	return i
}

// Item returns the current item.
func (i *ItemHologram) Item() display.Item {
	i.itemMu.RLock()
	defer i.itemMu.RUnlock()
	return i.item
}

// SetItem replaces the displayed item. The display changes on the next Update.
func (i *ItemHologram) SetItem(item display.Item) {
	i.itemMu.Lock()
	i.item = item
	i.itemMu.Unlock()
}

// Copy returns an unspawned hologram with the same item, kind and location.
func (i *ItemHologram) Copy(id string) *ItemHologram {
	c := &ItemHologram{item: i.Item()}
	i.cloneInto(&c.base, id, c.pushItem)
	return c
}

func (i *ItemHologram) pushItem(h display.Handle) error {
	return i.backend.SetItem(h, i.Item())
}

package hologram

import (
	"sync"

	"github.com/OCAP2/hologram/internal/display"
)

// TextHologram displays mutable text. It is the only kind that can be animated.
type TextHologram struct {
	base

	textMu sync.RWMutex
	text   string
}

// NewText creates an unspawned text hologram. An empty id gets a fresh one.
func NewText(id string, backend display.Backend, text string, opts ...Option) *TextHologram {
	t := &TextHologram{text: text}
	t.setup(id, backend, t.pushText, opts)
	return t
}

// Text returns the current text.
func (t *TextHologram) Text() string {
	t.textMu.RLock()
	defer t.textMu.RUnlock()
	return t.text
}

// SetText replaces the text. The display changes on the next Update.
func (t *TextHologram) SetText(text string) {
	t.textMu.Lock()
	t.text = text
	t.textMu.Unlock()
}

// Copy returns an unspawned hologram with the same text, kind and location.
func (t *TextHologram) Copy(id string) *TextHologram {
	c := &TextHologram{text: t.Text()}
	t.cloneInto(&c.base, id, c.pushText)
	return c
}

func (t *TextHologram) pushText(h display.Handle) error {
	return t.backend.SetText(h, t.Text())
}

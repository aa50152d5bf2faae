// Package display defines the rendering backend the hologram core drives.
//
// The core never renders anything itself. It materializes, refreshes and tears
// down visual objects through a Backend, addressing each one by the opaque
// Handle returned from Spawn.
package display

import (
	"errors"

	"github.com/OCAP2/hologram/pkg/core"
)

// ErrUnknownHandle is returned when a backend is asked to act on a handle it
// never issued or has already killed.
var ErrUnknownHandle = errors.New("unknown display handle")

// Handle identifies one visual object inside a backend.
type Handle uint64

// Item describes the content of an item display, such as a player head.
type Item struct {
	Material string `json:"material"`
	Owner    string `json:"owner,omitempty"`   // player whose skin is shown
	Texture  string `json:"texture,omitempty"` // explicit skin texture, wins over Owner
}

// Backend places and updates visual objects in a 3D world.
// Implementations must be safe for concurrent use.
type Backend interface {
	Spawn(loc core.Location) (Handle, error)
	Update(h Handle) error
	Kill(h Handle) error
	SetText(h Handle, text string) error
	SetItem(h Handle, item Item) error
	Attach(h Handle, targetID int, persistent bool) error
}

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Package displaytest provides display backends for tests.
package displaytest

import (
	"sync"

	"github.com/OCAP2/hologram/internal/display"
	"github.com/OCAP2/hologram/pkg/core"
)

// Faulty wraps a backend and fails selected calls. Configure it before
// handing it to concurrent code.
type Faulty struct {
	display.Backend

	// SpawnErr is consulted on every spawn with its 1-based sequence number.
	SpawnErr  func(n int, loc core.Location) error
	UpdateErr error
	KillErr   error
	AttachErr error

	mu     sync.Mutex
	spawns int
}

// NewFaulty wraps next without injecting any failure.
func NewFaulty(next display.Backend) *Faulty {
	return &Faulty{Backend: next}
}

func (f *Faulty) Spawn(loc core.Location) (display.Handle, error) {
	f.mu.Lock()
	f.spawns++
	n := f.spawns
	f.mu.Unlock()

	if f.SpawnErr != nil {
		if err := f.SpawnErr(n, loc); err != nil {
			return 0, err
		}
	}
	return f.Backend.Spawn(loc)
}

func (f *Faulty) Update(h display.Handle) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	return f.Backend.Update(h)
}

func (f *Faulty) Kill(h display.Handle) error {
	if f.KillErr != nil {
		return f.KillErr
	}
	return f.Backend.Kill(h)
}

func (f *Faulty) Attach(h display.Handle, targetID int, persistent bool) error {
	if f.AttachErr != nil {
		return f.AttachErr
	}
	return f.Backend.Attach(h, targetID, persistent)
}

// Spawns returns how many spawns were attempted.
func (f *Faulty) Spawns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spawns
}

// FailNth returns a SpawnErr that fails only the nth spawn.
func FailNth(n int, err error) func(int, core.Location) error {
	return func(i int, _ core.Location) error {
		if i == n {
			return err
		}
		return nil
	}
}

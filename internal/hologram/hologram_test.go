package hologram

import (
	"errors"
	"testing"

	"github.com/OCAP2/hologram/internal/display"
	"github.com/OCAP2/hologram/internal/display/displaytest"
	"github.com/OCAP2/hologram/internal/display/memory"
	"github.com/OCAP2/hologram/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var spawnLoc = core.Location{World: "world", X: 1, Y: 65, Z: -4}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "plain", KindPlain.String())
	assert.Equal(t, "leaderboard", KindLeaderboard.String())
	assert.Equal(t, "kind(7)", Kind(7).String())
}

func TestNewText_Defaults(t *testing.T) {
	h := NewText("", memory.New(), "hello")

	assert.NotEmpty(t, h.ID())
	assert.Equal(t, KindPlain, h.Kind())
	assert.Equal(t, "hello", h.Text())
	assert.False(t, h.Internal().Live())

	other := NewText("", memory.New(), "hello")
	assert.NotEqual(t, h.ID(), other.ID())
}

func TestNewText_Options(t *testing.T) {
	h := NewText("board", memory.New(), "x", WithKind(KindLeaderboard), WithLocation(spawnLoc))

	assert.Equal(t, "board", h.ID())
	assert.Equal(t, KindLeaderboard, h.Kind())
	assert.Equal(t, spawnLoc, h.Location())
}

func TestTextHologram_Lifecycle(t *testing.T) {
	mem := memory.New()
	h := NewText("t1", mem, "first")

	assert.ErrorIs(t, h.Update(), ErrNotSpawned)
	require.NoError(t, h.Internal().Kill(), "kill before spawn is a no-op")

	require.NoError(t, h.Internal().Spawn(spawnLoc))
	assert.True(t, h.Internal().Live())
	assert.Equal(t, spawnLoc, h.Location())
	assert.ErrorIs(t, h.Internal().Spawn(spawnLoc), ErrAlreadySpawned)

	handle, ok := h.Handle()
	require.True(t, ok)

	require.NoError(t, h.Update())
	obj, ok := mem.Get(handle)
	require.True(t, ok)
	assert.Equal(t, "first", obj.Text)

	h.SetText("second")
	obj, _ = mem.Get(handle)
	assert.Equal(t, "first", obj.Text, "text reaches the display only on Update")

	require.NoError(t, h.Internal().Update())
	obj, _ = mem.Get(handle)
	assert.Equal(t, "second", obj.Text)
	assert.Equal(t, 2, obj.Updates)

	require.NoError(t, h.Internal().Kill())
	assert.False(t, h.Internal().Live())
	assert.Equal(t, 0, mem.Live())
	_, ok = h.Handle()
	assert.False(t, ok)
}

func TestItemHologram_Update(t *testing.T) {
	mem := memory.New()
	head := display.Item{Material: "player_head", Owner: "Alice"}
	h := NewItem("head", mem, head)

	require.NoError(t, h.Internal().Spawn(spawnLoc))
	require.NoError(t, h.Update())

	handle, _ := h.Handle()
	obj, _ := mem.Get(handle)
	assert.Equal(t, head, obj.Item)

	h.SetItem(display.Item{Material: "player_head", Texture: "abc"})
	require.NoError(t, h.Update())
	obj, _ = mem.Get(handle)
	assert.Equal(t, "abc", obj.Item.Texture)
	assert.Empty(t, obj.Item.Owner)
}

func TestSpawnFailureLeavesHologramDead(t *testing.T) {
	boom := errors.New("boom")
	backend := displaytest.NewFaulty(memory.New())
	backend.SpawnErr = displaytest.FailNth(1, boom)

	h := NewText("t", backend, "x")
	err := h.Internal().Spawn(spawnLoc)
	assert.ErrorIs(t, err, boom)
	assert.False(t, h.Internal().Live())

	require.NoError(t, h.Internal().Spawn(spawnLoc))
	assert.True(t, h.Internal().Live())
}

func TestKillFailureKeepsHandle(t *testing.T) {
	boom := errors.New("boom")
	backend := displaytest.NewFaulty(memory.New())
	h := NewText("t", backend, "x")
	require.NoError(t, h.Internal().Spawn(spawnLoc))

	backend.KillErr = boom
	assert.ErrorIs(t, h.Internal().Kill(), boom)
	assert.True(t, h.Internal().Live())

	backend.KillErr = nil
	require.NoError(t, h.Internal().Kill())
	assert.False(t, h.Internal().Live())
}

func TestAttach(t *testing.T) {
	mem := memory.New()
	h := NewText("t", mem, "x")

	assert.ErrorIs(t, h.Attach(5, true), ErrNotSpawned)

	require.NoError(t, h.Internal().Spawn(spawnLoc))
	require.NoError(t, h.Attach(5, true))

	target, persistent, ok := h.AttachedTo()
	assert.True(t, ok)
	assert.Equal(t, 5, target)
	assert.True(t, persistent)

	handle, _ := h.Handle()
	obj, _ := mem.Get(handle)
	assert.Equal(t, 5, obj.AttachedTo)

	require.NoError(t, h.Internal().Kill())
	_, _, ok = h.AttachedTo()
	assert.False(t, ok)
}

func TestCopy(t *testing.T) {
	mem := memory.New()
	src := NewText("src", mem, "hello", WithKind(KindLeaderboard))
	require.NoError(t, src.Internal().Spawn(spawnLoc))

	c := src.Copy("new-id")
	assert.Equal(t, "new-id", c.ID())
	assert.Equal(t, "hello", c.Text())
	assert.Equal(t, KindLeaderboard, c.Kind())
	assert.Equal(t, spawnLoc, c.Location())
	assert.False(t, c.Internal().Live())

	c.SetText("changed")
	assert.Equal(t, "hello", src.Text())

	fresh := src.Copy("")
	assert.NotEmpty(t, fresh.ID())
	assert.NotEqual(t, "src", fresh.ID())

	item := NewItem("i", mem, display.Item{Material: "stone"})
	ic := item.Copy("i2")
	assert.Equal(t, "i2", ic.ID())
	assert.Equal(t, "stone", ic.Item().Material)
}

func TestIsNil(t *testing.T) {
	var typed *TextHologram

	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(typed))
	assert.False(t, IsNil(NewText("x", memory.New(), "")))
}

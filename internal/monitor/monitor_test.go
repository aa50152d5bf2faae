package monitor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/OCAP2/hologram/internal/display"
	"github.com/OCAP2/hologram/internal/display/memory"
	"github.com/OCAP2/hologram/internal/hologram"
	"github.com/OCAP2/hologram/internal/scheduler"
	"github.com/OCAP2/hologram/pkg/core"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry []hologram.Hologram

func (f fakeRegistry) List() []hologram.Hologram { return f }

type fixedCount int

func (c fixedCount) Count() int { return int(c) }

type recordingWriter struct {
	mu     sync.Mutex
	points []*influxdb2_write.Point
	err    error
}

func (w *recordingWriter) WritePoint(p *influxdb2_write.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
	return w.err
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.points)
}

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newHolograms(t *testing.T, backend display.Backend) fakeRegistry {
	t.Helper()
	live := hologram.NewText("a", backend, "alpha")
	require.NoError(t, live.Internal().Spawn(core.Location{World: "world"}))
	idle := hologram.NewText("b", backend, "beta")
	board := hologram.NewText("c", backend, "board", hologram.WithKind(hologram.KindLeaderboard))
	require.NoError(t, board.Internal().Spawn(core.Location{World: "world"}))
	return fakeRegistry{live, idle, board}
}

func TestCollect(t *testing.T) {
	s := NewService(Dependencies{
		Registry:   newHolograms(t, memory.New()),
		Animations: fixedCount(2),
		Now:        func() time.Time { return epoch },
	})

	st := s.Collect()
	assert.Equal(t, epoch, st.Time)
	assert.Equal(t, 3, st.Registered)
	assert.Equal(t, 2, st.Live)
	assert.Equal(t, 2, st.Animations)
	assert.Equal(t, map[string]int{"plain": 2, "leaderboard": 1}, st.ByKind)
}

func TestToPoint(t *testing.T) {
	p := ToPoint(Status{
		Time:       time.Unix(0, 7),
		Registered: 3,
		Live:       2,
		Animations: 1,
		ByKind:     map[string]int{"plain": 2, "leaderboard": 1},
	})

	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	assert.Contains(t, line, Measurement+" ")
	assert.Contains(t, line, "registered=3i")
	assert.Contains(t, line, "live=2i")
	assert.Contains(t, line, "animations=1i")
	assert.Contains(t, line, "kind_leaderboard=1i")
	assert.Contains(t, line, "kind_plain=2i")
}

func TestStart_SamplesOnInterval(t *testing.T) {
	sched := scheduler.NewManual()
	w := &recordingWriter{}
	s := NewService(Dependencies{
		Registry:  newHolograms(t, memory.New()),
		Scheduler: sched,
		Writer:    w,
		Logger:    zerolog.Nop(),
		Interval:  30 * time.Second,
		Now:       func() time.Time { return epoch },
	})

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(), ErrRunning)

	_, ok := s.Last()
	assert.False(t, ok)

	sched.Advance(29 * time.Second)
	assert.Equal(t, 0, w.count())

	sched.Advance(time.Second)
	assert.Equal(t, 1, w.count())

	sched.Advance(60 * time.Second)
	assert.Equal(t, 3, w.count())

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 3, last.Registered)

	s.Stop()
	assert.False(t, s.IsRunning())
	sched.Advance(time.Minute)
	assert.Equal(t, 3, w.count())

	s.Stop()
}

func TestSample_WriterErrorIsLogged(t *testing.T) {
	w := &recordingWriter{err: errors.New("boom")}
	s := NewService(Dependencies{
		Registry: fakeRegistry{},
		Writer:   w,
		Logger:   zerolog.Nop(),
	})

	s.Sample()
	assert.Equal(t, 1, w.count())
	_, ok := s.Last()
	assert.True(t, ok)
}

func TestSample_WithoutWriter(t *testing.T) {
	s := NewService(Dependencies{Registry: fakeRegistry{}, Logger: zerolog.Nop()})
	s.Sample()

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 0, last.Registered)
}

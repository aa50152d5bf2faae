// Package monitor periodically samples the hologram registry and animation
// coordinator and reports their state as status points.
package monitor

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/OCAP2/hologram/internal/hologram"
	"github.com/OCAP2/hologram/internal/scheduler"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
)

const Measurement = "hologram_status"

var ErrRunning = errors.New("monitor already running")

// Registry is the part of the hologram registry the monitor reads.
type Registry interface {
	List() []hologram.Hologram
}

// Animations reports the number of running animations.
type Animations interface {
	Count() int
}

// PointWriter receives status points, typically an influx.Manager.
type PointWriter interface {
	WritePoint(point *influxdb2_write.Point) error
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Registry   Registry
	Animations Animations
	Scheduler  scheduler.Scheduler
	Writer     PointWriter // optional
	Logger     zerolog.Logger
	Interval   time.Duration
	Now        func() time.Time // defaults to time.Now
}

// Status is one sample of the service state.
type Status struct {
	Time       time.Time      `json:"time"`
	Registered int            `json:"registered"`
	Live       int            `json:"live"`
	ByKind     map[string]int `json:"byKind"`
	Animations int            `json:"animations"`
}

// Service manages status monitoring
type Service struct {
	deps Dependencies

	mu      sync.RWMutex
	job     scheduler.TaskHandle
	last    Status
	samples int
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.job != nil
}

// Start schedules sampling every Interval on the scheduler.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job != nil {
		return ErrRunning
	}

	job, err := s.deps.Scheduler.ScheduleRecurring(s.Sample, s.deps.Interval, s.deps.Interval)
	if err != nil {
		return err
	}
	s.job = job
	s.deps.Logger.Info().Dur("interval", s.deps.Interval).Msg("Status monitor started")
	return nil
}

// Stop cancels sampling. It is safe to call when not running.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return
	}
	s.job.Cancel()
	s.job = nil
	s.deps.Logger.Info().Int("samples", s.samples).Msg("Status monitor stopped")
}

// Collect reads the current state without reporting it.
func (s *Service) Collect() Status {
	st := Status{
		Time:   s.deps.Now(),
		ByKind: make(map[string]int),
	}
	for _, h := range s.deps.Registry.List() {
		st.Registered++
		st.ByKind[h.Kind().String()]++
		if h.Internal().Live() {
			st.Live++
		}
	}
	if s.deps.Animations != nil {
		st.Animations = s.deps.Animations.Count()
	}
	return st
}

// Sample collects a status and reports it to the writer and the log.
func (s *Service) Sample() {
	st := s.Collect()

	s.mu.Lock()
	s.last = st
	s.samples++
	s.mu.Unlock()

	s.deps.Logger.Debug().
		Int("registered", st.Registered).
		Int("live", st.Live).
		Int("animations", st.Animations).
		Msg("Status sample")

	if s.deps.Writer == nil {
		return
	}
	if err := s.deps.Writer.WritePoint(ToPoint(st)); err != nil {
		s.deps.Logger.Error().Err(err).Msg("Failed to write status point")
	}
}

// Last returns the most recent sample and whether one was taken.
func (s *Service) Last() (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.samples > 0
}

// ToPoint converts a status to an influx point. Per-kind counts become
// fields named kind_<kind>.
func ToPoint(st Status) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(Measurement).
		AddField("registered", st.Registered).
		AddField("live", st.Live).
		AddField("animations", st.Animations).
		SetTime(st.Time)

	kinds := make([]string, 0, len(st.ByKind))
	for k := range st.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		p.AddField("kind_"+k, st.ByKind[k])
	}
	return p
}

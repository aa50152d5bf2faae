// Package daemon wires the hologram services together for hologramd: logging,
// telemetry, the primary-context scheduler, the registry, animations, the
// score-backed leaderboard and the status monitor.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/OCAP2/hologram/internal/animation"
	"github.com/OCAP2/hologram/internal/config"
	"github.com/OCAP2/hologram/internal/display"
	"github.com/OCAP2/hologram/internal/display/memory"
	"github.com/OCAP2/hologram/internal/hologram"
	"github.com/OCAP2/hologram/internal/influx"
	"github.com/OCAP2/hologram/internal/leaderboard"
	"github.com/OCAP2/hologram/internal/logging"
	"github.com/OCAP2/hologram/internal/monitor"
	intOtel "github.com/OCAP2/hologram/internal/otel"
	"github.com/OCAP2/hologram/internal/registry"
	"github.com/OCAP2/hologram/internal/scheduler"
	"github.com/OCAP2/hologram/internal/scores"
	"github.com/OCAP2/hologram/pkg/core"
	"github.com/rs/zerolog"
)

// BannerID is the registry id of the animated banner.
const BannerID = "banner"

// Settings is everything the daemon reads from configuration.
type Settings struct {
	LogLevel string
	// LogsDir receives the session log file and the influx backup. Empty
	// means no files are written.
	LogsDir string
	Console bool

	Origin      core.Location
	Scheduler   config.SchedulerConfig
	Leaderboard config.LeaderboardConfig
	Banner      config.BannerConfig
	Scores      config.ScoresConfig
	Monitor     config.MonitorConfig
	Influx      config.InfluxConfig
	OTel        config.OTelConfig
	Graylog     config.GraylogConfig
}

// SettingsFromConfig reads Settings from the loaded viper configuration.
func SettingsFromConfig() Settings {
	return Settings{
		LogLevel:    config.GetString("logLevel"),
		LogsDir:     config.GetString("logsDir"),
		Console:     true,
		Origin:      config.GetOrigin(),
		Scheduler:   config.GetSchedulerConfig(),
		Leaderboard: config.GetLeaderboardConfig(),
		Banner:      config.GetBannerConfig(),
		Scores:      config.GetScoresConfig(),
		Monitor:     config.GetMonitorConfig(),
		Influx:      config.GetInfluxConfig(),
		OTel:        config.GetOTelConfig(),
		Graylog:     config.GetGraylogConfig(),
	}
}

// LeaderboardOptions converts the configured leaderboard settings.
func LeaderboardOptions(cfg config.LeaderboardConfig) (leaderboard.Options, error) {
	mode, err := leaderboard.ParseHeadMode(cfg.HeadMode)
	if err != nil {
		return leaderboard.Options{}, err
	}
	opts := leaderboard.DefaultOptions()
	opts.ID = "leaderboard_" + cfg.Board
	opts.Title = cfg.Title
	opts.Template = cfg.Template
	opts.VisibleRanks = cfg.VisibleRanks
	opts.Placeholder = cfg.Placeholder
	opts.Footer = cfg.Footer
	opts.HeadMode = mode
	opts.HeadTexture = cfg.HeadTexture
	opts.HeadOffset = cfg.HeadOffset
	return opts.Normalize(), nil
}

// Daemon owns every long-lived service of hologramd.
type Daemon struct {
	settings  Settings
	startedAt time.Time

	Log  zerolog.Logger
	Slog *slog.Logger

	slogManager *logging.SlogManager
	otel        *intOtel.Provider
	closers     []io.Closer

	Loop       *scheduler.Loop
	Backend    *memory.Backend
	Display    display.Backend
	Animations *animation.Coordinator
	Registry   *registry.Manager
	Scores     *scores.Store
	Influx     *influx.Manager
	Monitor    *monitor.Service

	builder   *leaderboard.Builder
	boardOpts leaderboard.Options

	mu      sync.Mutex
	board   *leaderboard.Hologram
	banner  *hologram.TextHologram
	refresh scheduler.TaskHandle
}

// New creates every service without starting any of them. On error the
// services created so far are closed again.
func New(ctx context.Context, s Settings) (*Daemon, error) {
	d := &Daemon{settings: s, startedAt: time.Now()}
	if err := d.setup(ctx); err != nil {
		_ = d.close()
		return nil, err
	}
	return d, nil
}

func (d *Daemon) setup(ctx context.Context) error {
	s := d.settings

	var err error
	d.boardOpts, err = LeaderboardOptions(s.Leaderboard)
	if err != nil {
		return fmt.Errorf("leaderboard options: %w", err)
	}

	var logFile *os.File
	if s.LogsDir != "" {
		if err = os.MkdirAll(s.LogsDir, 0755); err != nil {
			return fmt.Errorf("creating logs dir: %w", err)
		}
		logFile, err = os.Create(logging.LogFilePath(s.LogsDir, logging.ServiceName, d.startedAt))
		if err != nil {
			return fmt.Errorf("creating log file: %w", err)
		}
		d.closers = append(d.closers, logFile)
	}

	otelCfg := intOtel.Config{
		Enabled:      s.OTel.Enabled,
		ServiceName:  s.OTel.ServiceName,
		BatchTimeout: s.OTel.BatchTimeout,
		Endpoint:     s.OTel.Endpoint,
		Insecure:     s.OTel.Insecure,
	}
	if logFile != nil {
		otelCfg.LogWriter = logFile
	}
	d.otel, err = intOtel.New(otelCfg)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}

	var sinks []io.Writer
	if s.Graylog.Enabled {
		gelf, gerr := logging.NewGraylogWriter(s.Graylog.Address, logging.ServiceName)
		if gerr != nil {
			return gerr
		}
		d.closers = append(d.closers, gelf)
		sinks = append(sinks, gelf)
	}

	d.slogManager = logging.NewSlogManager()
	if logFile != nil {
		d.slogManager.Setup(logFile, s.LogLevel, d.otel.LoggerProvider(), sinks...)
	} else {
		d.slogManager.Setup(nil, s.LogLevel, d.otel.LoggerProvider(), sinks...)
	}
	d.Slog = d.slogManager.Logger()

	if logFile != nil {
		d.Log = logging.NewZerolog(logFile, s.LogLevel, s.Console)
	} else {
		d.Log = logging.NewZerolog(nil, s.LogLevel, s.Console)
	}
	adapter := logging.NewAdapter(d.Log)

	loopOpts := []scheduler.Option{scheduler.QueueSize(s.Scheduler.QueueSize)}
	if s.Scheduler.Blocking {
		loopOpts = append(loopOpts, scheduler.Blocking())
	}
	if d.Loop, err = scheduler.NewLoop(adapter, loopOpts...); err != nil {
		return err
	}

	d.Backend = memory.New()
	d.Display = display.WithLogging(d.Backend, adapter)

	if d.Animations, err = animation.New(d.Loop, adapter); err != nil {
		return err
	}
	if d.Registry, err = registry.New(d.Loop, d.Animations, adapter); err != nil {
		return err
	}
	d.builder = leaderboard.NewBuilder(d.Registry, d.Display)

	d.Scores, err = scores.Open(s.Scores, d.Log.With().Str("component", "scores").Logger())
	if err != nil {
		return err
	}

	if s.Influx.Enabled {
		backup := ""
		if s.LogsDir != "" {
			backup = filepath.Join(s.LogsDir, "hologram_status.lp.gz")
		}
		d.Influx = influx.NewManager(d.Log.With().Str("component", "influx").Logger(), s.Influx, backup)
		if cerr := d.Influx.Connect(ctx); cerr != nil {
			d.Log.Warn().Err(cerr).Msg("InfluxDB unavailable, status points are only logged")
			_ = d.Influx.Close()
			d.Influx = nil
		}
	}

	if s.Monitor.Enabled {
		deps := monitor.Dependencies{
			Registry:   d.Registry,
			Animations: d.Animations,
			Scheduler:  d.Loop,
			Logger:     d.Log.With().Str("component", "monitor").Logger(),
			Interval:   s.Monitor.Interval,
		}
		if d.Influx != nil {
			deps.Writer = d.Influx
		}
		d.Monitor = monitor.NewService(deps)
	}

	return nil
}

// Start runs the primary context, builds the leaderboard and banner, and
// starts the periodic jobs.
func (d *Daemon) Start(ctx context.Context) error {
	d.Loop.Start()

	data, err := d.Scores.Ranked(ctx, d.settings.Leaderboard.Board, d.boardOpts.VisibleRanks)
	if err != nil {
		return err
	}
	board, err := d.builder.Build(ctx, d.settings.Origin, data, d.boardOpts)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.board = board
	d.mu.Unlock()

	if err := d.startBanner(ctx); err != nil {
		return err
	}

	if every := d.settings.Leaderboard.Refresh; every > 0 {
		job, err := d.Loop.ScheduleRecurring(func() {
			if err := d.RefreshBoard(context.Background()); err != nil {
				d.Log.Error().Err(err).Msg("Leaderboard refresh failed")
			}
		}, every, every)
		if err != nil {
			return fmt.Errorf("scheduling leaderboard refresh: %w", err)
		}
		d.mu.Lock()
		d.refresh = job
		d.mu.Unlock()
	}

	if d.Monitor != nil {
		if err := d.Monitor.Start(); err != nil {
			return err
		}
	}

	d.Slog.Info("hologramd started",
		"board", d.settings.Leaderboard.Board,
		"origin", d.settings.Origin.String(),
		"holograms", d.Registry.Count(),
	)
	return nil
}

func (d *Daemon) startBanner(ctx context.Context) error {
	b := d.settings.Banner
	if !b.Enabled || len(b.Frames) == 0 {
		return nil
	}

	banner := hologram.NewText(BannerID, d.Display, b.Frames[0])
	if err := d.Registry.Spawn(ctx, banner, d.settings.Origin.Add(0, b.Offset, 0)); err != nil {
		return fmt.Errorf("spawn banner: %w", err)
	}
	if err := d.Animations.Apply(banner, animation.NewTextAnimation(b.Period, b.Frames...)); err != nil {
		return fmt.Errorf("animate banner: %w", err)
	}

	d.mu.Lock()
	d.banner = banner
	d.mu.Unlock()
	return nil
}

// Board returns the leaderboard built by Start, or nil.
func (d *Daemon) Board() *leaderboard.Hologram {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.board
}

// Submit records a score on the configured board. The leaderboard picks it
// up on the next refresh.
func (d *Daemon) Submit(ctx context.Context, player string, value float64) error {
	return d.Scores.Submit(ctx, d.settings.Leaderboard.Board, player, value)
}

// RefreshBoard re-reads the board from the score store and pushes the new
// text and head on the primary context. It waits for the update to finish.
func (d *Daemon) RefreshBoard(ctx context.Context) error {
	board := d.Board()
	if board == nil {
		return nil
	}

	data, err := d.Scores.Ranked(ctx, d.settings.Leaderboard.Board, d.boardOpts.VisibleRanks)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	if err := d.Loop.RunTask(func() {
		done <- d.builder.Refresh(board, data, d.boardOpts)
	}); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops the periodic jobs, removes every hologram and closes all
// services. Teardown is best-effort; all failures are returned joined.
func (d *Daemon) Shutdown(ctx context.Context) error {
	if d.Monitor != nil {
		d.Monitor.Stop()
	}

	d.mu.Lock()
	if d.refresh != nil {
		d.refresh.Cancel()
		d.refresh = nil
	}
	d.board = nil
	d.banner = nil
	d.mu.Unlock()

	var errs []error
	if err := d.Registry.RemoveAll(); err != nil {
		errs = append(errs, fmt.Errorf("removing holograms: %w", err))
	}
	d.Animations.CancelAll()
	d.Loop.Stop()

	d.Slog.Info("hologramd stopped", "uptime", time.Since(d.startedAt).Round(time.Second).String())

	if err := d.slogManager.Flush(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := d.otel.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, d.close())
	return errors.Join(errs...)
}

// close releases stores and files. Services that were never created are skipped.
func (d *Daemon) close() error {
	var errs []error
	if d.Influx != nil {
		errs = append(errs, d.Influx.Close())
		d.Influx = nil
	}
	if d.Scores != nil {
		errs = append(errs, d.Scores.Close())
		d.Scores = nil
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i].Close())
	}
	d.closers = nil
	return errors.Join(errs...)
}

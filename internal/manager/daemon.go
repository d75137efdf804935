package manager

import (
	"context"
	"errors"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hoppxi/brightsync/internal/brightness"
	"github.com/hoppxi/brightsync/internal/bus"
	"github.com/hoppxi/brightsync/internal/logging"
	"github.com/hoppxi/brightsync/internal/metrics"
	"github.com/hoppxi/brightsync/internal/watchers"
	"github.com/hoppxi/brightsync/pkg/displayinfo"
	"github.com/hoppxi/brightsync/pkg/operation"
)

var ErrAlreadyRunning = errors.New("daemon already running")

// NewTool builds the brightness tool selected by settings.
func NewTool(s Settings) brightness.Tool {
	if s.Source == SourceBacklight {
		return &displayinfo.Backlight{Root: s.Backlight.Root, Device: s.Backlight.Device}
	}
	return operation.NewDisplay(s.Command.Get, s.Command.Set, s.Command.Timeout)
}

// Run wires the configured surfaces to a brightness sync and serves IPC until
// ctx is cancelled or a STOP command arrives.
func (m *AppManager) Run(ctx context.Context, cfg *ConfigManager) error {
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.running = true
	m.cancel = cancel
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.cancel = nil
		m.ctrl = nil
		m.mu.Unlock()
	}()

	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	controls := brightness.Controls{}
	if settings.Surfaces.Eww {
		controls = append(controls, watchers.NewEwwControl(settings.Surfaces.EwwPrefix, settings.Surfaces.EwwOSD))
	}

	var svc *bus.Service
	if settings.Surfaces.DBus {
		svc = bus.NewService()
		if err := svc.Connect(); err != nil {
			slog.Warn("dbus surface disabled", "error", err)
			svc = nil
		} else {
			controls = append(controls, svc)
			defer svc.Close()
		}
	}

	syncer := brightness.New(NewTool(settings), controls, brightness.Options{
		Interval:   settings.Interval,
		SetTimeout: settings.Command.Timeout,
		Recorder:   rec,
	})
	if svc != nil {
		svc.Bind(syncer)
	}

	listener, err := m.listen()
	if err != nil {
		return err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.serve(listener)
	}()

	if err := syncer.Start(ctx); err != nil {
		m.StopAll()
		return err
	}
	m.setController(syncer)

	if settings.WatchUevents {
		m.StartWatcher(watchers.StartDisplayWatcher(syncer))
	}
	if settings.Metrics.Listen != "" {
		addr := settings.Metrics.Listen
		m.StartWatcher(func(stop <-chan struct{}) {
			metrics.Serve(addr, reg, stop)
		})
	}

	cfg.Watch(func(s Settings) {
		logging.Level.Set(logging.ParseLevel(s.Log.Level))
		if err := syncer.SetInterval(s.Interval); err != nil {
			slog.Warn("failed to apply new poll interval", "error", err)
		}
	})

	slog.Info("brightsync running", "source", settings.Source, "interval", settings.Interval)
	<-ctx.Done()

	m.setController(nil)
	m.StopAll()
	return syncer.Stop()
}

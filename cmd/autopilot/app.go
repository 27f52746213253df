package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/dronepath/autopilot/internal/api"
	"github.com/dronepath/autopilot/internal/config"
	"github.com/dronepath/autopilot/internal/dispatcher"
	"github.com/dronepath/autopilot/internal/flight"
	"github.com/dronepath/autopilot/internal/geo"
	"github.com/dronepath/autopilot/internal/handlers"
	"github.com/dronepath/autopilot/internal/influx"
	"github.com/dronepath/autopilot/internal/logging"
	"github.com/dronepath/autopilot/internal/mission"
	"github.com/dronepath/autopilot/internal/monitor"
	intOtel "github.com/dronepath/autopilot/internal/otel"
	"github.com/dronepath/autopilot/internal/parser"
	"github.com/dronepath/autopilot/internal/playback"
	"github.com/dronepath/autopilot/internal/storage"
	"github.com/dronepath/autopilot/internal/storage/memory"
	"github.com/dronepath/autopilot/internal/transport"
	"github.com/dronepath/autopilot/internal/worker"
)

type runOptions struct {
	Follow     bool
	Frame      time.Duration
	StatusFile string
	Offline    bool
}

// app owns every long-lived component of the process.
type app struct {
	opts runOptions

	logs    *logging.SlogManager
	log     *slog.Logger
	closers []io.Closer
	otel    *intOtel.Provider

	session *flight.Session
	sched   *playback.Scheduler
	engine  *playback.Engine
	backend storage.Backend
	influx  *influx.Manager
	link    transport.Link

	dispatcher *dispatcher.Dispatcher
	service    *handlers.Service
	monitor    *monitor.Service
}

func newApp(ctx context.Context, opts runOptions, start time.Time) (*app, error) {
	a := &app{opts: opts, logs: logging.NewSlogManager()}

	logCfg := config.GetLogConfig()
	logFile, err := a.setupLogging(ctx, logCfg, start)
	if err != nil {
		return nil, err
	}

	fc := config.GetFlightConfig()
	pc := config.GetPlaybackConfig()
	tc := config.GetTransportConfig()

	a.session = flight.NewSession(flight.Config{
		DistanceUnit: fc.DistanceUnit,
		Speed:        fc.Speed,
		Scale:        fc.Scale,
	}, a.log)

	if err := a.setupStorage(fc, logging.NewZerolog(logFile, logCfg.Level, "storage")); err != nil {
		a.Close()
		return nil, err
	}
	a.setupInflux(ctx, logCfg, logging.NewZerolog(logFile, logCfg.Level, "influx"))

	sinks := []playback.Sink{a.backend}
	if metrics, err := intOtel.NewPlaybackMetrics(a.otel.Meter("autopilot/playback")); err != nil {
		a.log.Warn("Playback metrics unavailable", "error", err)
	} else {
		sinks = append(sinks, metrics)
	}
	if a.influx != nil {
		sinks = append(sinks, influx.NewFlightSink(a.influx))
	}

	pbCfg := playback.ConfigFrom(pc, fc)
	a.sched = playback.NewScheduler()
	a.engine = playback.NewEngine(pbCfg, a.sched, playback.NewCursor(pbCfg.Home), a.log, sinks...)

	uploader := api.New(config.GetString("api.serverUrl"), config.GetString("api.apiKey"))
	go checkServerStatus(ctx, uploader, a.log)

	a.service = handlers.NewService(handlers.Dependencies{
		Session:  a.session,
		Engine:   a.engine,
		Backend:  a.backend,
		Uploader: uploader,
		Logger:   a.log,
		Tag:      config.GetString("defaultTag"),
	}, mission.NewContext(""))

	if !opts.Offline {
		link, err := transport.DialUDP(tc.Address, tc.LocalAddress)
		if err != nil {
			a.log.Warn("Drone link unavailable, sending disabled", "address", tc.Address, "error", err)
		} else {
			a.link = link
			a.service.SetSender(transport.NewSender(link, transport.OptionsFrom(tc, pc.HoldDelay), a.log))
			a.log.Info("Drone link ready", "address", tc.Address)
		}
	}

	a.dispatcher, err = dispatcher.New(a.log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	wm := worker.NewManager(worker.Dependencies{
		Service:       a.service,
		ParserService: parser.NewParser(a.log, ""),
		LogManager:    a.logs,
		SendTimeout:   config.GetDuration("transport.deliveryTimeout"),
	}, a.backend)
	wm.RegisterHandlers(a.dispatcher)
	a.registerLifecycleHandlers(a.dispatcher, uploader)
	a.log.Debug("Handlers registered", "commands", a.dispatcher.Commands())

	monDeps := monitor.Dependencies{
		Service:       a.service,
		WorkerManager: wm,
		LogManager:    a.logs,
		StatusFile:    opts.StatusFile,
		Interval:      config.GetDuration("monitor.interval"),
	}
	if a.influx != nil {
		monDeps.Influx = a.influx
	}
	a.monitor = monitor.NewService(monDeps)
	if err := a.monitor.Start(); err != nil {
		a.log.Warn("Status monitor not started", "error", err)
	}

	return a, nil
}

func (a *app) setupLogging(ctx context.Context, cfg config.LogConfig, start time.Time) (io.Writer, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}
	path := logging.LogFilePath(cfg.Dir, AppName, start)
	file := logging.NewRotatingFile(path, cfg)
	a.closers = append(a.closers, file)

	logOpts := logging.Options{
		Level: cfg.Level,
		File:  file,
		Context: func() []slog.Attr {
			if a.session == nil {
				return nil
			}
			return a.session.LogAttrs()
		},
	}

	if cfg.GraylogEnabled {
		w, err := logging.NewGraylogWriter(cfg.GraylogAddress)
		if err != nil {
			fmt.Fprintf(os.Stderr, "graylog disabled: %v\n", err)
		} else {
			logOpts.Graylog = w
			if c, ok := any(w).(io.Closer); ok {
				a.closers = append(a.closers, c)
			}
		}
	}

	provider, err := intOtel.New(ctx, intOtel.ConfigFrom(config.GetOTelConfig(), file))
	if err != nil {
		fmt.Fprintf(os.Stderr, "otel disabled: %v\n", err)
		provider, _ = intOtel.New(ctx, intOtel.Config{})
	}
	a.otel = provider
	logOpts.Provider = provider.LoggerProvider()

	a.logs.Setup(logOpts)
	a.log = a.logs.Logger()
	a.log.Info("Logging to file", "path", path, "version", CurrentVersion)
	return file, nil
}

func (a *app) setupStorage(fc config.FlightConfig, dbLog zerolog.Logger) error {
	storageCfg := config.GetStorageConfig()
	opts := storage.Options{Logger: a.log, DBLogger: dbLog, MetersPerUnit: fc.DistanceUnit}
	if g := config.GetGeoConfig(); g.HomeLat != 0 || g.HomeLon != 0 {
		opts.Home = &geo.LatLon{Lat: g.HomeLat, Lon: g.HomeLon}
	}

	backend, err := storage.NewBackend(storageCfg, opts)
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		if storageCfg.Type == "memory" || storageCfg.Type == "" {
			return fmt.Errorf("failed to initialize storage backend: %w", err)
		}
		a.log.Error("Failed to initialize storage backend, falling back to memory", "type", storageCfg.Type, "error", err)
		backend = memory.New(storageCfg.Memory, memory.WithLogger(a.log))
		if err := backend.Init(); err != nil {
			return fmt.Errorf("failed to initialize memory storage: %w", err)
		}
		storageCfg.Type = "memory"
	}
	a.backend = backend
	a.log.Info("Storage backend initialized", "type", storageCfg.Type)
	return nil
}

func (a *app) setupInflux(ctx context.Context, cfg config.LogConfig, log zerolog.Logger) {
	m := influx.NewManager(config.GetInfluxConfig(), log, filepath.Join(cfg.Dir, "influx_backup.log.gz"))
	err := m.Connect(ctx)
	switch {
	case errors.Is(err, influx.ErrDisabled):
		return
	case err != nil:
		a.log.Error("Failed to set up InfluxDB", "error", err)
		return
	}
	a.influx = m
}

func checkServerStatus(ctx context.Context, c *api.Client, log *slog.Logger) {
	if err := c.Healthcheck(ctx); err != nil {
		log.Info("Web frontend is offline", "error", err)
		return
	}
	log.Info("Web frontend is online")
}

// Close stops every component in reverse start order.
func (a *app) Close() {
	if a.monitor != nil {
		a.monitor.Stop()
	}
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.service != nil {
		a.service.Stop()
	}
	if a.sched != nil {
		a.sched.Close()
	}
	if a.link != nil {
		if err := a.link.Close(); err != nil {
			a.log.Warn("Failed to close drone link", "error", err)
		}
	}
	if a.influx != nil {
		if err := a.influx.Close(); err != nil {
			a.log.Warn("Failed to close InfluxDB", "error", err)
		}
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.log.Warn("Failed to close storage backend", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

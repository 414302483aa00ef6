package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/routecue/waypointd/internal/cache"
	"github.com/routecue/waypointd/internal/config"
	"github.com/routecue/waypointd/internal/dispatcher"
	"github.com/routecue/waypointd/internal/influx"
	"github.com/routecue/waypointd/internal/logging"
	"github.com/routecue/waypointd/internal/monitor"
	"github.com/routecue/waypointd/internal/poi"
	"github.com/routecue/waypointd/internal/session"
	"github.com/routecue/waypointd/internal/storage"
	"github.com/routecue/waypointd/internal/voice"
	"github.com/routecue/waypointd/internal/waypoint"
	"github.com/routecue/waypointd/internal/worker"
	"github.com/routecue/waypointd/pkg/core"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	ServiceName string = "waypointd"
)

// options are the command line flags
type options struct {
	configDir string
	input     string
	logLevel  string
}

func parseOptions(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet(ServiceName, pflag.ContinueOnError)
	fs.StringVarP(&opts.configDir, "config", "c", ".", "directory containing "+config.FileName)
	fs.StringVarP(&opts.input, "input", "i", "-", "NDJSON command file, - for stdin")
	fs.StringVar(&opts.logLevel, "log-level", "", "overrides logLevel from the config file")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", ServiceName, err)
		os.Exit(1)
	}
}

// app holds the wired services
type app struct {
	logManager *logging.SlogManager
	logger     *slog.Logger
	zlog       zerolog.Logger

	session    *session.Context
	backend    storage.Backend
	influx     *influx.Manager
	helper     *waypoint.Helper
	router     *voice.Router
	dispatcher *dispatcher.Dispatcher
	worker     *worker.Manager
	monitor    *monitor.Service

	out     *syncWriter
	closers []io.Closer
}

func run(ctx context.Context, opts options) error {
	start := time.Now()

	configErr := config.Load(opts.configDir)
	level := config.GetString("logLevel")
	if opts.logLevel != "" {
		level = opts.logLevel
	}

	a := &app{out: newSyncWriter(os.Stdout)}
	defer a.shutdown()

	if err := a.setupLogging(level, start); err != nil {
		return err
	}
	if configErr != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		a.logger.Info("Loaded config", "dir", opts.configDir)
	}
	a.logger.Info("Starting up", "version", CurrentVersion, "buildDate", BuildDate)

	if err := a.setup(ctx, level); err != nil {
		return err
	}

	in, err := openInput(opts.input)
	if err != nil {
		return err
	}
	defer in.Close()

	err = readCommands(ctx, in, a.dispatcher, a.out, a.logger)
	if errors.Is(err, context.Canceled) {
		a.logger.Info("Interrupted, shutting down")
		return nil
	}
	return err
}

func (a *app) setupLogging(level string, start time.Time) error {
	a.logManager = logging.NewSlogManager()

	var file io.Writer
	if dir := config.GetString("logsDir"); dir != "" {
		f, err := logging.OpenLogFile(dir, ServiceName, start)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, f)
		file = f
	}

	var remote io.Writer
	if config.GetBool("graylog.enabled") {
		w, err := logging.NewGraylogWriter(config.GetString("graylog.address"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "graylog disabled: %v\n", err)
		} else {
			remote = w
		}
	}

	a.logManager.Setup(logging.Options{
		File:        file,
		Level:       level,
		Remote:      remote,
		RemoteLevel: config.GetString("graylog.level"),
	})
	a.session = session.NewContext()
	a.logger = slog.New(logging.NewSessionHandler(a.logManager.Logger().Handler(), a.session.ID))
	slog.SetDefault(a.logger)

	zw := io.Writer(os.Stderr)
	if file != nil {
		zw = file
	}
	a.zlog = logging.NewZerolog(zw, level, ServiceName)

	if dir := config.GetString("logsDir"); dir != "" {
		removed, err := logging.PruneLogFiles(dir, ServiceName, config.GetInt("logsKeep"))
		if err != nil {
			a.logger.Warn("Failed to prune old log files", "error", err)
		} else if len(removed) > 0 {
			a.logger.Info("Pruned old log files", "count", len(removed))
		}
	}
	return nil
}

func (a *app) setup(ctx context.Context, level string) error {
	var err error

	// storage
	a.backend, err = initStorage(config.GetStorageConfig(), a.logger)
	if err != nil {
		return err
	}

	// influx
	a.influx = influx.NewManager(a.zlog.With().Str("component", "influx").Logger(), config.GetInfluxConfig())
	if err := a.influx.Connect(ctx); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			a.logger.Warn("InfluxDB unavailable", "error", err)
		}
		a.influx = nil
	}

	// user points and amenities
	favorites, err := loadStore(config.GetString("favorites.file"), core.KindFavorite)
	if err != nil {
		return err
	}
	waypoints, err := loadStore(config.GetString("waypoints.file"), core.KindWaypoint)
	if err != nil {
		return err
	}
	var poiCache *cache.SearchCache
	if path := config.GetString("poi.file"); path != "" {
		index, err := poi.LoadIndex(path)
		if err != nil {
			return err
		}
		poiCache = cache.NewSearchCache(index, config.GetInt("poi.cacheSize"))
		a.logger.Info("Loaded amenities", "path", path, "count", index.Len())
	}

	// voice output
	settings := config.GetNavigationSettings()
	a.router = voice.NewRouter(voice.Config{
		DefaultSpeed: config.GetFloat64("voice.defaultSpeed"),
		Units:        settings.Units,
		Session:      a.session.ID,
		Logger:       a.logger,
	})
	if path := config.GetString("voice.output"); path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open voice output: %w", err)
		}
		a.closers = append(a.closers, f)
		a.router.AddRecorder(voice.NewJSONWriter(f))
	} else {
		a.router.AddRecorder(voice.NewJSONWriter(a.out))
	}
	a.router.AddRecorder(a.backend)
	if a.influx != nil {
		a.router.AddRecorder(a.influx)
	}

	// engine
	deps := waypoint.Dependencies{
		Favorites:     favorites,
		Waypoints:     waypoints,
		Targets:       a.session,
		TargetRemover: a.session,
		Sink:          a.router,
		Logger:        a.logger,
	}
	if poiCache != nil {
		deps.POI = poiCache
	}
	a.helper, err = waypoint.New(deps, settings)
	if err != nil {
		return fmt.Errorf("failed to create waypoint helper: %w", err)
	}

	// commands
	a.dispatcher, err = dispatcher.New(logging.NewCommandLogger(a.zlog))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	workerDeps := worker.Dependencies{
		Helper:         a.helper,
		Session:        a.session,
		Voice:          a.router,
		Favorites:      favorites,
		Waypoints:      waypoints,
		Logger:         a.logger,
		LocationBuffer: config.GetInt("dispatcher.bufferSize"),
	}
	if poiCache != nil {
		workerDeps.POICache = poiCache
	}
	a.worker = worker.NewManager(workerDeps, a.backend)
	a.worker.RegisterHandlers(a.dispatcher)
	a.logger.Info("Command handlers registered", "commands", len(a.dispatcher.Commands()))

	// monitor
	recorders := []storage.StatusRecorder{}
	if rec, ok := a.backend.(storage.StatusRecorder); ok {
		recorders = append(recorders, rec)
	}
	if a.influx != nil {
		recorders = append(recorders, a.influx)
	}
	a.monitor = monitor.NewService(monitor.Dependencies{
		Engine:     a.helper,
		Queues:     a.dispatcher,
		SessionID:  a.session.ID,
		Recorders:  recorders,
		Logger:     a.logger,
		StatusFile: config.GetString("monitor.statusFile"),
		Interval:   config.GetDuration("monitor.interval"),
	})
	if err := a.monitor.Start(); err != nil {
		return err
	}

	// live settings
	config.Watch(func(s waypoint.Settings) {
		a.logger.Info("Config changed, applying navigation settings")
		a.router.SetUnits(s.Units)
		a.helper.ApplySettings(s)
	})

	return nil
}

func loadStore(path string, kind core.PointKind) (*poi.Store, error) {
	if path == "" {
		return poi.NewStore(), nil
	}
	points, err := poi.LoadFile(path, kind)
	if err != nil {
		return nil, err
	}
	return poi.NewStore(points...), nil
}

// shutdown drains queued commands, closes the session and releases outputs
// in dependency order.
func (a *app) shutdown() {
	if a.monitor != nil {
		a.monitor.Stop()
	}
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.worker != nil {
		if err := a.worker.EndSession(); err != nil {
			a.logger.Error("Failed to end session", "error", err)
		}
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Error("Failed to close storage", "error", err)
		}
		if exp, ok := a.backend.(storage.Exportable); ok && exp.ExportedFilePath() != "" {
			a.logger.Info("Session exported", "path", exp.ExportedFilePath())
		}
	}
	if a.influx != nil {
		if err := a.influx.Close(); err != nil {
			a.logger.Error("Failed to close influx", "error", err)
		}
	}
	if a.logManager != nil {
		a.logManager.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

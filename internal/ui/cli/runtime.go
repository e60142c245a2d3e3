package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"brokenpkg/internal/core/config"
	"brokenpkg/internal/core/pipeline"
	"brokenpkg/internal/core/ports"
	"brokenpkg/internal/engine/linker"
	"brokenpkg/internal/engine/pacman"
	"brokenpkg/internal/engine/scanner"
	"brokenpkg/internal/shared/observability"
	"brokenpkg/internal/ui/report"
)

// Run executes the command line and returns the process exit status. Only
// fatal conditions produce a failing status; broken packages are output.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stdout, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if opts.version {
		fmt.Fprintf(stdout, "brokenpkg v%s\n", versionString)
		return 0
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose, stderr)
	defer cleanupLogs()

	cfg, cfgPath, err := loadConfig(opts)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	runner := pipeline.New(pipeline.WithSpawnLimit(cfg.Scan.SpawnRate, cfg.Scan.SpawnBurst))
	paths, err := resolvePaths(ctx, cfg, runner)
	if err != nil {
		slog.Error("failed to determine pacman paths", "error", err)
		return 1
	}
	report.PrintPaths(stderr, paths.Root.String(), paths.DBPath.String())

	a := &app{
		cfg:    cfg,
		paths:  paths,
		runner: runner,
		sink:   report.NewRenderer(stdout, stderr, cfg.ColorsEnabled()),
	}

	switch {
	case opts.ui:
		err = runUI(ctx, a, opts.watch)
	case opts.watch:
		err = runWatch(ctx, a, cfgPath)
	default:
		_, err = a.scan(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("scan failed", "error", err)
		return 1
	}
	return 0
}

// loadConfig layers the config file, environment and command line flags.
// Values from pacman itself are filled in later by resolvePaths.
func loadConfig(opts cliOptions) (*config.Config, string, error) {
	path := opts.configPath
	required := path != ""
	if !required {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadOptional(path, required)
	if err != nil {
		return nil, "", err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		path = ""
	}

	config.ApplyEnvOverrides(cfg)
	if opts.root != "" {
		cfg.Pacman.Root = opts.root
	}
	if opts.dbPath != "" {
		cfg.Pacman.DBPath = opts.dbPath
	}
	if opts.colors != nil {
		cfg.SetColors(*opts.colors)
	}
	if opts.metricsTextfile != "" {
		cfg.Observability.MetricsTextfile = opts.metricsTextfile
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// resolvePaths asks pacman for whatever the configuration leaves unset.
func resolvePaths(ctx context.Context, cfg *config.Config, runner ports.Runner) (pacman.PathPair, error) {
	paths := pacman.NewPathPair()
	if cfg.Pacman.Root == "" || cfg.Pacman.DBPath == "" {
		client := pacman.NewClient(cfg.Pacman.Binary, runner, cfg.Scan.ChunkSize)
		detected, err := client.ConfigPaths(ctx)
		if err != nil {
			return paths, err
		}
		paths = detected
	}
	if cfg.Pacman.Root != "" {
		paths.Root.Set(cfg.Pacman.Root)
	}
	if cfg.Pacman.DBPath != "" {
		paths.DBPath.Set(cfg.Pacman.DBPath)
	}
	return paths, nil
}

// app holds what a scan needs. cfg may be swapped by a config reload.
type app struct {
	mu     sync.RWMutex
	cfg    *config.Config
	paths  pacman.PathPair
	runner ports.Runner
	sink   ports.ReportSink

	lastScan time.Time
	lastErr  error
}

func (a *app) config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// reload swaps in scan settings from a reloaded config file. Paths, colors
// and the spawn limiter keep their startup values.
func (a *app) reload(cfg *config.Config) {
	if err := config.Validate(cfg); err != nil {
		slog.Warn("ignoring reloaded config", "error", err)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	next := *a.cfg
	next.Scan = cfg.Scan
	next.Linker = cfg.Linker
	next.Watch = cfg.Watch
	a.cfg = &next
	slog.Info("scan settings reloaded")
}

func (a *app) scan(ctx context.Context) (scanner.Summary, error) {
	return a.scanTo(ctx, a.sink)
}

// scanTo lists foreign packages and checks each of them, reporting to sink.
func (a *app) scanTo(ctx context.Context, sink ports.ReportSink) (scanner.Summary, error) {
	cfg := a.config()
	client := pacman.NewClient(cfg.Pacman.Binary, a.runner, cfg.Scan.ChunkSize)
	names, err := client.ForeignPackages(ctx, &a.paths)
	if err != nil {
		a.record(err)
		return scanner.Summary{}, err
	}
	db, err := pacman.OpenLocalDB(a.paths.DBPath.String(), client.StreamOptions()...)
	if err != nil {
		a.record(err)
		return scanner.Summary{}, err
	}

	include, exclude, ignore, err := cfg.Patterns()
	if err != nil {
		return scanner.Summary{}, err
	}
	s := scanner.New(db,
		linker.New(cfg.Linker.LibDir, cfg.Linker.Prefix, a.runner),
		a.runner,
		sink,
		scanner.Options{
			Root:            a.paths.Root.String(),
			ChunkSize:       cfg.Scan.ChunkSize,
			IgnoreFiles:     ignore,
			IncludePackages: include,
			ExcludePackages: exclude,
		})

	summary, err := s.ScanAll(ctx, names)
	writeMetrics(cfg.Observability.MetricsTextfile)
	a.record(err)
	return summary, err
}

func (a *app) record(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastScan = time.Now()
	a.lastErr = err
}

func (a *app) health() healthStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	status := healthStatus{Status: "up", LastScan: a.lastScan}
	if a.lastErr != nil {
		status.Status = "degraded"
		status.Error = a.lastErr.Error()
	}
	return status
}

func writeMetrics(path string) {
	if path == "" {
		return
	}
	if err := observability.WriteTextfile(path); err != nil {
		slog.Warn("failed to write metrics textfile", "path", path, "error", err)
	}
}

func configureLogging(uiMode, verbose bool, stderr io.Writer) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := stderr
	var closeFn func() = func() {}
	if uiMode {
		logPath := config.LogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

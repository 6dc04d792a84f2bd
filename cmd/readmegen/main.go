package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/readmegen/internal/config"
	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
	"git.home.luguber.info/inful/readmegen/internal/format"
	"git.home.luguber.info/inful/readmegen/internal/history"
	"git.home.luguber.info/inful/readmegen/internal/metrics"
	"git.home.luguber.info/inful/readmegen/internal/notify"
	"git.home.luguber.info/inful/readmegen/internal/pipeline"
	"git.home.luguber.info/inful/readmegen/internal/version"
	"git.home.luguber.info/inful/readmegen/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"readmegen.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Root   string `short:"r" help:"Project root directory" default:"."`
		Output string `short:"o" help:"Override the configured output directory"`
	} `cmd:"" help:"Generate readme files once and exit"`

	Watch struct {
		Root string `short:"r" help:"Project root directory" default:"."`
	} `cmd:"" help:"Rebuild readme files whenever watched sources change"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Write an example configuration file"`

	History struct {
		Limit   int    `short:"n" help:"Number of recent builds to show" default:"10"`
		BuildID string `help:"Show the full event log for one build"`
		Prune   string `help:"Remove events older than this duration (e.g. 720h)"`
	} `cmd:"" help:"Inspect recorded build history"`

	Formats struct{} `cmd:"" help:"List supported readme formats"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	kctx := kong.Parse(&CLI)

	slog.SetDefault(newLogger(CLI.Verbose, nil))

	var err error
	switch kctx.Command() {
	case "build":
		err = runBuild(CLI.Build.Root, CLI.Build.Output)
	case "watch":
		err = runWatch(CLI.Watch.Root)
	case "init":
		err = runInit(CLI.Config, CLI.Init.Force)
	case "history":
		err = runHistory(CLI.History.Limit, CLI.History.BuildID, CLI.History.Prune)
	case "formats":
		err = runFormats()
	case "version":
		err = runVersion()
	}

	if err != nil {
		adapter := rgerrors.NewCLIErrorAdapter(CLI.Verbose, slog.Default())
		adapter.HandleError(err)
	}
}

// newLogger builds the process logger. Before the configuration is loaded it
// runs with defaults; loadConfig swaps in one honoring the logging section.
func newLogger(verbose bool, logging *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	jsonFormat := false
	if logging != nil {
		switch logging.Level {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
		jsonFormat = logging.Format == "json"
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if jsonFormat {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// loadConfig loads the configuration, reconfigures logging per its logging
// section, and surfaces any normalization warnings.
func loadConfig() (*config.Config, error) {
	cfg, warnings, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(newLogger(CLI.Verbose, &cfg.Logging))
	for _, w := range warnings {
		slog.Warn("configuration normalized", "detail", w)
	}
	return cfg, nil
}

// newRunner wires the pipeline runner with the optional history store and
// notifier. The returned cleanup closes whatever was opened.
func newRunner(cfg *config.Config, root string) (*pipeline.Runner, func(), error) {
	registry, err := pipeline.DefaultRegistry()
	if err != nil {
		return nil, nil, err
	}

	runner := pipeline.NewRunner(cfg, root, registry, slog.Default())

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close history store", "error", err)
			}
		})
		runner.WithStore(store)
	}

	if cfg.Notify.Enabled {
		notifier, err := notify.NewNATSNotifier(cfg.Notify.URL, cfg.Notify.Subject, slog.Default())
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() {
			if err := notifier.Close(); err != nil {
				slog.Warn("Failed to close notifier", "error", err)
			}
		})
		runner.WithNotifier(notifier)
	}

	return runner, cleanup, nil
}

func runBuild(root, output string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if output != "" {
		cfg.Output.Dir = output
	}

	runner, cleanup, err := newRunner(cfg, root)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("Readme build finished",
		"outcome", string(report.Outcome),
		"files", report.Files,
		"generated", report.Generated,
		"regenerated", report.Regenerated,
		"output", cfg.Output.Dir)
	return nil
}

func runWatch(root string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runner, cleanup, err := newRunner(cfg, root)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		runner.WithRecorder(metrics.NewPrometheusRecorder(registry))
		srv := startMetricsServer(cfg.Metrics, registry)
		defer stopMetricsServer(srv)
	}

	w, err := watch.New(cfg, root, runner, slog.Default())
	if err != nil {
		return err
	}

	slog.Info("Entering watch mode, press ctrl-c to stop")
	return w.Run(ctx)
}

func startMetricsServer(cfg config.MetricsConfig, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.HTTPHandler(registry))
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		slog.Info("Serving metrics", "addr", cfg.Addr, "path", cfg.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
	return srv
}

func stopMetricsServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("Failed to stop metrics server", "error", err)
	}
}

func runInit(configPath string, force bool) error {
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", configPath)
	return nil
}

func runHistory(limit int, buildID, pruneAge string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return rgerrors.ValidationFailed("history", "history is disabled in the configuration")
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	if pruneAge != "" {
		age, err := time.ParseDuration(pruneAge)
		if err != nil {
			return rgerrors.ValidationFailed("prune", fmt.Sprintf("invalid duration %q", pruneAge))
		}
		removed, err := store.PruneOlderThan(ctx, time.Now().Add(-age))
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d events\n", removed)
		return nil
	}

	if buildID != "" {
		events, err := store.GetByBuildID(ctx, buildID)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Printf("no events recorded for build %s\n", buildID)
			return nil
		}
		for _, e := range events {
			fmt.Printf("%s  %-20s %s\n", e.Timestamp().Format(time.RFC3339), e.Type(), string(e.Payload()))
		}
		return nil
	}

	ids, err := store.RecentBuildIDs(ctx, limit)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no builds recorded")
		return nil
	}
	for _, id := range ids {
		events, err := store.GetByBuildID(ctx, id)
		if err != nil {
			return err
		}
		s := history.Summarize(events)
		fmt.Printf("%s  %-8s %-10s generated=%d regenerated=%d\n",
			s.StartedAt.Format(time.RFC3339), shortID(s.BuildID), s.Outcome, s.Generated, s.Regenerated)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runFormats() error {
	for _, f := range format.All() {
		fmt.Printf("%-10s default filename %s\n", f.String(), f.DefaultFilename())
	}
	return nil
}

func runVersion() error {
	fmt.Printf("readmegen %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	return nil
}

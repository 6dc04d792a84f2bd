// Package watch reruns the build pipeline whenever a watched markup source
// changes on disk, with an optional fixed-interval rerun schedule on top.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/readmegen/internal/config"
	"git.home.luguber.info/inful/readmegen/internal/logfields"
	"git.home.luguber.info/inful/readmegen/internal/pipeline"
	"git.home.luguber.info/inful/readmegen/internal/plugin"
	"git.home.luguber.info/inful/readmegen/internal/util/sets"
)

// Watcher drives repeated pipeline runs. File events are debounced so a
// burst of writes (editor save, git checkout) produces one build, and runs
// are serialized so a slow build never overlaps the next one.
type Watcher struct {
	rootDir  string
	runner   *pipeline.Runner
	logger   *slog.Logger
	debounce time.Duration
	interval time.Duration

	// targets holds absolute paths of the files whose changes rebuild.
	targets sets.Set[string]

	watcher   *fsnotify.Watcher
	scheduler gocron.Scheduler

	buildMu   sync.Mutex
	buildChan chan string
	stopChan  chan struct{}
	stopOnce  sync.Once

	builds atomic.Int64
}

// New creates a watcher for the project rooted at rootDir. The watched file
// set and the debounce/interval windows come from cfg.
func New(cfg *config.Config, rootDir string, runner *pipeline.Runner, logger *slog.Logger) (*Watcher, error) {
	if runner == nil {
		return nil, fmt.Errorf("watch: runner is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	targets, err := watchTargets(cfg, absRoot)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		rootDir:   absRoot,
		runner:    runner,
		logger:    logger,
		debounce:  cfg.Watch.DebounceDuration(),
		interval:  cfg.Watch.IntervalDuration(),
		targets:   targets,
		watcher:   fsw,
		buildChan: make(chan string, 1),
		stopChan:  make(chan struct{}),
	}, nil
}

// watchTargets resolves the absolute paths whose changes should trigger a
// rebuild: the project main source, per-plugin source overrides, and the
// files currently matched by the gather patterns. Patterns are resolved once
// at startup; files created afterwards are only picked up by interval runs.
func watchTargets(cfg *config.Config, rootDir string) (sets.Set[string], error) {
	targets := sets.New[string]()
	add := func(rel string) {
		targets.Add(filepath.Join(rootDir, filepath.FromSlash(rel)))
	}

	main := cfg.Project.MainSource
	if main == "" {
		main = plugin.DefaultSourceFilename
	}
	add(main)

	for _, pc := range cfg.Plugins {
		if src := pc.Options["source_filename"]; src != "" {
			add(src)
		}
	}

	for _, pattern := range cfg.Project.Gather {
		matches, err := filepath.Glob(filepath.Join(rootDir, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("invalid gather pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			targets.Add(m)
		}
	}

	return targets, nil
}

// watchDirs returns the sorted set of directories containing watched files.
// Watching directories rather than the files themselves survives the
// remove-and-recreate write strategy most editors use.
func (w *Watcher) watchDirs() []string {
	seen := sets.New[string]()
	dirs := make([]string, 0, 1)
	for target := range w.targets {
		dir := filepath.Dir(target)
		if seen.Has(dir) {
			continue
		}
		seen.Add(dir)
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// Start registers the filesystem watches and launches the event and build
// loops. When a rerun interval is configured it also starts the scheduler.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.watchDirs() {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	w.logger.Info("watching for source changes",
		slog.Int("files", len(w.targets)),
		slog.String("debounce", w.debounce.String()))

	go w.watchLoop(ctx)
	go w.buildLoop(ctx)

	if w.interval > 0 {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		if _, err := scheduler.NewJob(
			gocron.DurationJob(w.interval),
			gocron.NewTask(w.requestBuild, "interval"),
			gocron.WithName("readmegen-rebuild"),
		); err != nil {
			return fmt.Errorf("failed to schedule periodic rebuild: %w", err)
		}
		scheduler.Start()
		w.scheduler = scheduler
		w.logger.Info("scheduled periodic rebuilds", slog.String("interval", w.interval.String()))
	}

	return nil
}

// Stop shuts down the scheduler and the filesystem watcher. It is safe to
// call more than once; later calls return nil.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		if w.scheduler != nil {
			if serr := w.scheduler.Shutdown(); serr != nil {
				err = fmt.Errorf("failed to stop scheduler: %w", serr)
			}
		}
		if cerr := w.watcher.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file watcher: %w", cerr)
		}
	})
	return err
}

// Run starts the watcher, performs an initial build, and blocks until the
// context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return err
	}
	w.runBuild(ctx, "startup")
	<-ctx.Done()
	return w.Stop()
}

// Builds reports how many builds have finished since the watcher started.
func (w *Watcher) Builds() int64 { return w.builds.Load() }

// watchLoop filters filesystem events down to watched files and turns them
// into build requests.
func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.targets.Has(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.logger.Debug("source change detected",
					logfields.Filename(filepath.Base(event.Name)),
					slog.String("op", event.Op.String()))
				w.requestBuild("change")
			} else if event.Op&fsnotify.Remove != 0 {
				w.logger.Warn("watched source removed",
					logfields.Filename(filepath.Base(event.Name)))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", logfields.Error(err))
		}
	}
}

// buildLoop debounces build requests. Each request resets the timer, so the
// build runs once the filesystem has been quiet for the debounce window.
func (w *Watcher) buildLoop(ctx context.Context) {
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return
		case reason := <-w.buildChan:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				w.runBuild(ctx, reason)
			})
		}
	}
}

// requestBuild coalesces triggers; a pending request absorbs later ones.
func (w *Watcher) requestBuild(reason string) {
	select {
	case w.buildChan <- reason:
	default:
	}
}

// runBuild executes one pipeline run. A build failure is logged, not fatal;
// the watcher stays up and the next change gets a fresh attempt.
func (w *Watcher) runBuild(ctx context.Context, reason string) {
	w.buildMu.Lock()
	defer w.buildMu.Unlock()

	if ctx.Err() != nil {
		return
	}

	w.logger.Info("starting build", slog.String("reason", reason))
	report, err := w.runner.Run(ctx)
	w.builds.Add(1)
	if err != nil {
		w.logger.Error("build failed", logfields.Error(err))
		return
	}
	w.logger.Info("build finished",
		slog.String("outcome", string(report.Outcome)),
		slog.Int("files", report.Files),
		slog.Int("regenerated", report.Regenerated))
}

// Package pipeline executes readme builds. A build runs fixed phases over
// one shared fileset: gather sources, prune, munge, write the output
// directory, finalize. Plugin instances participate in the phases whose
// hook interfaces they implement.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/readmegen/internal/buildfile"
	"git.home.luguber.info/inful/readmegen/internal/config"
	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
	"git.home.luguber.info/inful/readmegen/internal/history"
	"git.home.luguber.info/inful/readmegen/internal/infer"
	"git.home.luguber.info/inful/readmegen/internal/logfields"
	"git.home.luguber.info/inful/readmegen/internal/metrics"
	"git.home.luguber.info/inful/readmegen/internal/notify"
	"git.home.luguber.info/inful/readmegen/internal/plugin"
	"git.home.luguber.info/inful/readmegen/internal/project"
)

// Phase names, used for metrics labels and log fields.
const (
	PhaseGather   = "gather"
	PhasePrune    = "prune"
	PhaseMunge    = "munge"
	PhaseWrite    = "write"
	PhaseFinalize = "finalize"
)

// Outcome classifies a finished build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report summarizes one build execution.
type Report struct {
	BuildID     string
	Project     string
	Outcome     Outcome
	OutputDir   string
	Files       int // files written to the build output
	Generated   int // readmes generated
	Regenerated int // readmes regenerated after source mutations
	Canceled    bool
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}

// DefaultRegistry returns a registry holding the built-in plugin families.
// Each call creates a fresh inference memo, so separate runners never share
// cache state.
func DefaultRegistry() (*plugin.Registry, error) {
	inf, err := infer.New(0)
	if err != nil {
		return nil, err
	}
	reg := plugin.NewRegistry()
	if err := reg.Register(plugin.FamilyReadme, plugin.NewReadmeFactory(inf)); err != nil {
		return nil, err
	}
	if err := reg.Register(plugin.FamilyStamp, plugin.NewStampFactory()); err != nil {
		return nil, err
	}
	return reg, nil
}

// Runner executes builds for one configuration. Optional collaborators are
// injected through the With methods; a bare Runner still builds.
type Runner struct {
	cfg      *config.Config
	rootDir  string
	logger   *slog.Logger
	registry *plugin.Registry
	recorder metrics.Recorder
	store    history.Store
	notifier notify.Notifier
}

// NewRunner creates a Runner rooted at the project directory. The registry
// must hold every family the configuration names.
func NewRunner(cfg *config.Config, rootDir string, registry *plugin.Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:      cfg,
		rootDir:  rootDir,
		logger:   logger,
		registry: registry,
		recorder: metrics.NoopRecorder{},
	}
}

// WithRecorder injects a metrics recorder.
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// WithStore injects a history store for build events.
func (r *Runner) WithStore(st history.Store) *Runner {
	r.store = st
	return r
}

// WithNotifier injects a notifier for build events.
func (r *Runner) WithNotifier(n notify.Notifier) *Runner {
	r.notifier = n
	return r
}

// Run executes one build. The returned Report is non-nil even on failure.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	buildID := uuid.NewString()
	logger := r.logger.With(logfields.BuildID(buildID))

	report := &Report{
		BuildID:   buildID,
		StartTime: started,
		OutputDir: r.cfg.Output.Dir,
	}

	proj := project.Describe(r.rootDir)
	if r.cfg.Project.Name != "" {
		proj.Name = r.cfg.Project.Name
	}
	if r.cfg.Project.Version != "" {
		proj.Version = r.cfg.Project.Version
	}
	report.Project = proj.Name

	sink := newEventSink(ctx, logger, r.store, r.notifier)
	pc := plugin.NewContext(ctx, logger, buildfile.NewSet(), proj, r.rootDir, r.cfg.Project.MainSource, buildID)
	pc.Metrics = r.recorder
	pc.Events = sink

	logger.Info("build started",
		logfields.Project(proj.Name), slog.Int("plugins", len(r.cfg.Plugins)))
	if ev, err := history.NewBuildStarted(buildID, proj.Name, len(r.cfg.Plugins)); err == nil {
		sink.Record(ev)
	}

	instances, err := r.createInstances()
	if err != nil {
		return r.finish(report, sink, logger, err)
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{PhaseGather, func() error {
			if err := gatherSources(pc, r.cfg.Project, r.rootDir); err != nil {
				return err
			}
			for _, p := range instances {
				if g, ok := p.(plugin.FileGatherer); ok {
					if err := g.GatherFiles(pc); err != nil {
						return err
					}
				}
			}
			return nil
		}},
		{PhasePrune, func() error {
			for _, p := range instances {
				if pr, ok := p.(plugin.FilePruner); ok {
					if err := pr.PruneFiles(pc); err != nil {
						return err
					}
				}
			}
			return nil
		}},
		{PhaseMunge, func() error {
			for _, p := range instances {
				if m, ok := p.(plugin.FileMunger); ok {
					if err := m.MungeFiles(pc); err != nil {
						return err
					}
				}
			}
			return nil
		}},
		{PhaseWrite, func() error { return r.writeOutput(pc) }},
		{PhaseFinalize, func() error {
			for _, p := range instances {
				if a, ok := p.(plugin.AfterBuilder); ok {
					if err := a.AfterBuild(pc); err != nil {
						return err
					}
				}
			}
			return nil
		}},
	}

	for _, step := range steps {
		select {
		case <-ctx.Done():
			report.Canceled = true
			return r.finish(report, sink, logger, ctx.Err())
		default:
		}

		start := time.Now()
		err := step.run()
		elapsed := time.Since(start)
		r.recorder.ObservePhaseDuration(step.name, elapsed)
		if err != nil {
			r.recorder.IncPhaseResult(step.name, metrics.ResultFatal)
			logger.Error("build phase failed", logfields.Phase(step.name), logfields.Error(err))
			return r.finish(report, sink, logger, err)
		}
		r.recorder.IncPhaseResult(step.name, metrics.ResultSuccess)
		logger.Debug("build phase completed",
			logfields.Phase(step.name), logfields.DurationMS(float64(elapsed.Milliseconds())))
	}

	report.Files = pc.Files.Len()
	return r.finish(report, sink, logger, nil)
}

// createInstances builds every configured plugin instance. Configuration
// errors surface here, before any phase touches the fileset.
func (r *Runner) createInstances() ([]plugin.Plugin, error) {
	instances := make([]plugin.Plugin, 0, len(r.cfg.Plugins))
	for _, pcfg := range r.cfg.Plugins {
		p, err := r.registry.Create(pcfg.Family, pcfg.Name, pcfg.Options)
		if err != nil {
			return nil, err
		}
		instances = append(instances, p)
	}
	return instances, nil
}

func (r *Runner) writeOutput(pc *plugin.Context) error {
	dir := r.cfg.Output.Dir
	if r.cfg.Output.Clean {
		if err := os.RemoveAll(dir); err != nil {
			return rgerrors.WriteFailed(dir, err)
		}
	}
	return pc.Files.WriteOut(dir, pc.Logger)
}

func (r *Runner) finish(report *Report, sink *eventSink, logger *slog.Logger, err error) (*Report, error) {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	report.Generated, report.Regenerated = sink.counts()

	switch {
	case report.Canceled:
		report.Outcome = OutcomeCanceled
	case err != nil:
		report.Outcome = OutcomeFailed
	default:
		report.Outcome = OutcomeSuccess
	}

	r.recorder.IncBuildOutcome(string(report.Outcome))
	r.recorder.ObserveBuildDuration(report.Duration)

	if ev, everr := history.NewBuildCompleted(report.BuildID, string(report.Outcome),
		report.Duration, report.Generated); everr == nil {
		sink.Record(ev)
	}

	logger.Info("build completed",
		slog.String("outcome", string(report.Outcome)),
		slog.Int("files", report.Files),
		slog.Int("generated", report.Generated),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report, err
}

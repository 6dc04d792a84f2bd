package plugin

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/readmegen/internal/buildfile"
	"git.home.luguber.info/inful/readmegen/internal/history"
	"git.home.luguber.info/inful/readmegen/internal/metrics"
	"git.home.luguber.info/inful/readmegen/internal/project"
)

// EventSink receives history events emitted by plugins during a build. The
// pipeline implements it; recording failures are the sink's concern and
// never fail the emitting plugin.
type EventSink interface {
	Record(e history.Event)
}

// Context provides plugins with access to build services and state. One
// Context is shared by all plugin instances for the duration of a build.
type Context struct {
	// Context is the standard Go context for the surrounding build.
	Context context.Context

	// Logger provides structured logging for plugin operations.
	Logger *slog.Logger

	// Files is the build fileset, the single source of truth for
	// build-output existence.
	Files *buildfile.Set

	// Project is the resolved project metadata.
	Project project.Metadata

	// RootDir is the project root, where root-placed artifacts are written.
	RootDir string

	// MainSource is the project's designated main source file name.
	MainSource string

	// BuildID uniquely identifies this build.
	BuildID string

	// Metrics records build observations; nil means no recording.
	Metrics metrics.Recorder

	// Events receives history events; nil means no recording.
	Events EventSink

	// Data lets plugins share values during execution without direct
	// dependencies on each other.
	Data map[string]any
}

// NewContext creates a build context for plugin execution. Metrics and
// Events start unset; the accessors below tolerate that.
func NewContext(
	ctx context.Context,
	logger *slog.Logger,
	files *buildfile.Set,
	proj project.Metadata,
	rootDir, mainSource, buildID string,
) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		Context:    ctx,
		Logger:     logger,
		Files:      files,
		Project:    proj,
		RootDir:    rootDir,
		MainSource: mainSource,
		BuildID:    buildID,
		Data:       make(map[string]any),
	}
}

// Meter returns the metrics recorder, substituting a no-op one when none is
// wired.
func (pc *Context) Meter() metrics.Recorder {
	if pc.Metrics == nil {
		return metrics.NoopRecorder{}
	}
	return pc.Metrics
}

// RecordEvent hands an event to the sink when one is wired.
func (pc *Context) RecordEvent(e history.Event) {
	if pc.Events != nil {
		pc.Events.Record(e)
	}
}

// GetString retrieves a string value from the shared data map. Returns the
// empty string if the key is absent or not a string.
func (pc *Context) GetString(key string) string {
	if v, ok := pc.Data[key].(string); ok {
		return v
	}
	return ""
}

// GetBool retrieves a boolean value from the shared data map. Returns false
// if the key is absent or not a boolean.
func (pc *Context) GetBool(key string) bool {
	if v, ok := pc.Data[key].(bool); ok {
		return v
	}
	return false
}

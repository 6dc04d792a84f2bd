// Package plugin defines the lifecycle contract build plugins implement and
// ships the two built-in plugins: readme (markup extraction and conversion)
// and stamp (release-metadata token expansion).
//
// A plugin participates in the build by implementing any subset of the four
// hook interfaces. The pipeline runs each phase over the configured plugin
// instances in order, skipping instances that do not implement the phase.
package plugin

import (
	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
)

// Metadata describes one plugin instance.
type Metadata struct {
	// Name is the configured instance name, unique within a build
	// (e.g. "ReadmeMarkdownInBuild").
	Name string

	// Family is the factory that produced the instance (e.g. "readme").
	Family string

	// Version is the plugin implementation version.
	Version string

	// Description is a human-readable summary.
	Description string
}

// String returns "name@version (family)".
func (m Metadata) String() string {
	return m.Name + "@" + m.Version + " (" + m.Family + ")"
}

// Validate checks that the metadata identifies the instance.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return rgerrors.ValidationFailed("plugin.name", "instance name is required")
	}
	if m.Family == "" {
		return rgerrors.ValidationFailed("plugin.family", "plugin family is required")
	}
	if m.Version == "" {
		return rgerrors.ValidationFailed("plugin.version", "plugin version is required")
	}
	return nil
}

// Plugin is the part of the contract every plugin implements. Phase behavior
// comes from the optional hook interfaces below.
type Plugin interface {
	Metadata() Metadata
}

// FileGatherer pre-registers files in the build set before pruning and
// munging, so downstream steps can see placeholders for generated output.
type FileGatherer interface {
	Plugin
	GatherFiles(pc *Context) error
}

// FilePruner removes files that must not ride along in the build output.
type FilePruner interface {
	Plugin
	PruneFiles(pc *Context) error
}

// FileMunger transforms file content once the set is assembled. Mutations go
// through Set.SetContent so change subscribers observe them inline.
type FileMunger interface {
	Plugin
	MungeFiles(pc *Context) error
}

// AfterBuilder runs after the fileset has been written out; this is where
// side effects outside the build output happen (project-root writes).
type AfterBuilder interface {
	Plugin
	AfterBuild(pc *Context) error
}

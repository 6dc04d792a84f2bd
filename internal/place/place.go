// Package place defines where a generated readme lands: inside the build
// fileset or next to it in the project root.
package place

import (
	"strings"

	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
)

// Placement identifies the destination of a generated readme.
type Placement int

const (
	Unknown Placement = iota
	// Build places the readme into the build fileset, where it ships with
	// the built artifact.
	Build
	// Root writes the readme into the project source tree and keeps it out
	// of the build fileset.
	Root
)

// Parse resolves a case-insensitive placement name. The value set is closed;
// anything outside it is a fatal configuration error.
func Parse(value string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "build":
		return Build, nil
	case "root":
		return Root, nil
	default:
		return Unknown, rgerrors.InvalidPlacement(value)
	}
}

// String returns the canonical lower-case name.
func (p Placement) String() string {
	switch p {
	case Build:
		return "build"
	case Root:
		return "root"
	default:
		return "unknown"
	}
}

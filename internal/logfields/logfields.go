package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPlugin     = "plugin"
	KeyFormat     = "format"
	KeyPlacement  = "placement"
	KeyFilename   = "filename"
	KeyPath       = "path"
	KeySource     = "source"
	KeyPhase      = "phase"
	KeyProject    = "project"
	KeyEncoding   = "encoding"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Plugin(name string) slog.Attr    { return slog.String(KeyPlugin, name) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func Placement(p string) slog.Attr    { return slog.String(KeyPlacement, p) }
func Filename(name string) slog.Attr  { return slog.String(KeyFilename, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Phase(name string) slog.Attr     { return slog.String(KeyPhase, name) }
func Project(name string) slog.Attr   { return slog.String(KeyProject, name) }
func Encoding(name string) slog.Attr  { return slog.String(KeyEncoding, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

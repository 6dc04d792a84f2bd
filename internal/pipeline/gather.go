package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/readmegen/internal/buildfile"
	"git.home.luguber.info/inful/readmegen/internal/config"
	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
	"git.home.luguber.info/inful/readmegen/internal/logfields"
	"git.home.luguber.info/inful/readmegen/internal/plugin"
)

// Files above this size are refused; readme sources are text, anything this
// large is a mistake.
const maxGatherSize = 8 << 20

// gatherSources loads the main source and the configured gather patterns
// from disk into the build fileset. A missing main source is not fatal here;
// a readme whose source never arrives fails in the munge phase with a source
// error that names the file.
func gatherSources(pc *plugin.Context, proj config.ProjectConfig, rootDir string) error {
	main := proj.MainSource
	if main == "" {
		main = plugin.DefaultSourceFilename
	}
	names := []string{filepath.ToSlash(main)}

	for _, pattern := range proj.Gather {
		matches, err := filepath.Glob(filepath.Join(rootDir, pattern))
		if err != nil {
			return rgerrors.ValidationFailed("project.gather", fmt.Sprintf("bad pattern %q", pattern))
		}
		for _, m := range matches {
			rel, rerr := filepath.Rel(rootDir, m)
			if rerr != nil {
				continue
			}
			names = append(names, filepath.ToSlash(rel))
		}
	}

	for _, name := range names {
		if _, ok := pc.Files.Get(name); ok {
			continue
		}

		full := filepath.Join(rootDir, filepath.FromSlash(name))
		info, err := os.Stat(full)
		if err != nil {
			pc.Logger.Debug("gather candidate not on disk", logfields.Filename(name))
			continue
		}
		if info.IsDir() {
			continue
		}
		if info.Size() > maxGatherSize {
			pc.Logger.Warn("refusing oversized gather file",
				logfields.Filename(name), slog.Int64("bytes", info.Size()))
			continue
		}

		data, err := os.ReadFile(full)
		if err != nil {
			return rgerrors.Wrap(err, rgerrors.CategoryFileSystem, rgerrors.SeverityFatal,
				"failed to read gather file").WithContext("filename", name)
		}
		if err := pc.Files.Add(&buildfile.File{Name: name, Content: string(data)}); err != nil {
			return err
		}
		pc.Logger.Debug("gathered file",
			logfields.Filename(name), slog.Int64("bytes", info.Size()))
	}
	return nil
}

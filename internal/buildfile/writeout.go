package buildfile

import (
	"log/slog"
	"os"
	"path/filepath"

	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
	"git.home.luguber.info/inful/readmegen/internal/logfields"
)

// WriteOut materializes the fileset under dir, creating directories as
// needed. Files are written in set order.
func (s *Set) WriteOut(dir string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for _, f := range s.files {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return rgerrors.WriteFailed(path, err)
		}
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return rgerrors.WriteFailed(path, err)
		}
		logger.Debug("wrote build file", logfields.Filename(f.Name), logfields.Path(path))
	}
	return nil
}

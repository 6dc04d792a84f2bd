package place

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
	"git.home.luguber.info/inful/readmegen/internal/logfields"
)

// RootWriter writes generated readmes into the project source tree. Content
// is transcoded when the declared encoding is not UTF-8; every write logs
// whether it created or overwrote the target.
type RootWriter struct {
	root   string
	logger *slog.Logger
}

// NewRootWriter creates a writer rooted at the project directory.
func NewRootWriter(root string, logger *slog.Logger) *RootWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RootWriter{root: root, logger: logger}
}

// Write places content under the project root and returns the absolute path
// written. The name must be a bare filename; it is joined onto the root.
func (w *RootWriter) Write(name, content, encodingName string) (string, error) {
	path := filepath.Join(w.root, name)

	payload, err := encodePayload(content, encodingName)
	if err != nil {
		return "", err
	}

	if _, statErr := os.Stat(path); statErr == nil {
		w.logger.Info("overwriting readme in project root",
			logfields.Path(path), logfields.Encoding(normalizeEncodingName(encodingName)))
	} else {
		w.logger.Info("creating readme in project root",
			logfields.Path(path), logfields.Encoding(normalizeEncodingName(encodingName)))
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", rgerrors.WriteFailed(path, err)
	}
	return path, nil
}

// encodePayload transcodes UTF-8 content into the declared encoding. UTF-8
// and the empty name pass through untouched.
func encodePayload(content, encodingName string) ([]byte, error) {
	name := normalizeEncodingName(encodingName)
	if name == "utf-8" {
		return []byte(content), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, rgerrors.Wrap(err, rgerrors.CategoryValidation, rgerrors.SeverityFatal,
			"unsupported content encoding").WithContext("encoding", encodingName)
	}

	out, err := enc.NewEncoder().Bytes([]byte(content))
	if err != nil {
		return nil, rgerrors.Wrap(err, rgerrors.CategoryValidation, rgerrors.SeverityFatal,
			"content not representable in declared encoding").WithContext("encoding", encodingName)
	}
	return out, nil
}

func normalizeEncodingName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "utf8" {
		return "utf-8"
	}
	return name
}

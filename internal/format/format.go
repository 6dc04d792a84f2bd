// Package format defines the fixed set of readme output formats and the
// conversion from extracted Markdown into each format's representation.
//
// Markdown is the canonical intermediate form. The other formats are derived
// from it: plain text and POD through an AST walk, HTML through the regular
// Goldmark renderer wrapped in a standalone page.
package format

import (
	"strings"

	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
)

// Format identifies one of the supported readme output formats.
type Format int

const (
	Unknown Format = iota
	Text
	Markdown
	Pod
	HTML
)

// All returns the supported formats in declaration order.
func All() []Format {
	return []Format{Text, Markdown, Pod, HTML}
}

// Parse resolves a case-insensitive format name to a Format. The name set is
// closed; anything outside it is a fatal configuration error.
func Parse(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "text":
		return Text, nil
	case "markdown":
		return Markdown, nil
	case "pod":
		return Pod, nil
	case "html":
		return HTML, nil
	default:
		return Unknown, rgerrors.UnknownFormat(name)
	}
}

// String returns the canonical lower-case name.
func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case Markdown:
		return "markdown"
	case Pod:
		return "pod"
	case HTML:
		return "html"
	default:
		return "unknown"
	}
}

// DefaultFilename returns the conventional readme filename for the format.
func (f Format) DefaultFilename() string {
	switch f {
	case Text:
		return "README"
	case Markdown:
		return "README.md"
	case Pod:
		return "README.pod"
	case HTML:
		return "README.html"
	default:
		return ""
	}
}

// ConvertOptions carries per-conversion parameters. Only the HTML format
// consumes them today.
type ConvertOptions struct {
	// Title overrides the page title for standalone HTML output. When empty
	// the first level-one heading of the rendered body is used.
	Title string

	// Encoding is the charset label stamped into the HTML meta tag. Empty
	// means utf-8. It does not transcode the payload; placement handles that.
	Encoding string
}

// Convert renders extracted Markdown into the receiver format.
func (f Format) Convert(markup string, opts ConvertOptions) (string, error) {
	switch f {
	case Markdown:
		return ensureTrailingNewline(markup), nil
	case Text:
		out, err := renderText([]byte(markup))
		if err != nil {
			return "", err
		}
		return ensureTrailingNewline(out), nil
	case Pod:
		out, err := renderPod([]byte(markup))
		if err != nil {
			return "", err
		}
		return ensureTrailingNewline(out), nil
	case HTML:
		out, err := renderHTML([]byte(markup), opts)
		if err != nil {
			return "", err
		}
		return ensureTrailingNewline(out), nil
	default:
		return "", rgerrors.InternalError("convert called on unknown format", nil)
	}
}

func ensureTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

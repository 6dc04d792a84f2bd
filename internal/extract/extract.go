// Package extract pulls readme markup out of a source artifact in the build
// fileset. Markdown sources pass through unchanged; Go sources contribute
// their comment blocks in document order. An encoding pragma opening the
// markup declares the charset for root-placed output.
package extract

import (
	"go/parser"
	"go/token"
	"path"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/readmegen/internal/buildfile"
)

// Result is the extracted markup plus the encoding declared by the source.
// Encoding is empty when the source declares none.
type Result struct {
	Markup   string
	Encoding string
}

// The pragma must open the markup; anywhere else it is ordinary content.
var encodingPragma = regexp.MustCompile(`^<!--\s*encoding:\s*([A-Za-z0-9._:-]+)\s*-->[ \t]*\r?\n?`)

// FromFile extracts markup from a build file, dispatching on its extension.
// Go sources contribute their comment blocks, concatenated in document order
// with the code discarded; everything else is taken verbatim as Markdown.
// Extraction never fails: a Go file that does not parse is treated as
// pre-formatted markup instead.
func FromFile(f *buildfile.File) Result {
	markup := f.Content
	if path.Ext(f.Name) == ".go" {
		if doc, ok := commentBlocks(f.Name, f.Content); ok {
			markup = doc
		}
	}

	body, enc := splitPragma(markup)
	return Result{Markup: body, Encoding: enc}
}

// commentBlocks returns the text of every comment group in a Go source file,
// blank-line separated, in document order. Directive-only groups contribute
// nothing. A source with no comments yields an empty string, which in turn
// produces an empty readme.
func commentBlocks(name, src string) (string, bool) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, name, src, parser.ParseComments)
	if err != nil {
		return "", false
	}

	var blocks []string
	for _, group := range file.Comments {
		if text := group.Text(); text != "" {
			blocks = append(blocks, text)
		}
	}
	return strings.Join(blocks, "\n"), true
}

func splitPragma(markup string) (body, enc string) {
	m := encodingPragma.FindStringSubmatch(markup)
	if m == nil {
		return markup, ""
	}
	return markup[len(m[0]):], m[1]
}

package format

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// renderText flattens Markdown into plain text. Headings keep their
// prominence through underlines, lists keep their markers, code blocks keep a
// four-space indent. Inline markup is dropped.
func renderText(source []byte) (string, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	var out strings.Builder
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		renderTextBlock(&out, n, source, "")
	}
	return strings.TrimRight(out.String(), "\n"), nil
}

func renderTextBlock(out *strings.Builder, n gmast.Node, source []byte, indent string) {
	switch node := n.(type) {
	case *gmast.Heading:
		title := inlinePlainText(node, source)
		out.WriteString(indent + title + "\n")
		switch node.Level {
		case 1:
			out.WriteString(indent + strings.Repeat("=", utf8.RuneCountInString(title)) + "\n")
		case 2:
			out.WriteString(indent + strings.Repeat("-", utf8.RuneCountInString(title)) + "\n")
		}
		out.WriteString("\n")
	case *gmast.TextBlock:
		out.WriteString(indent + inlinePlainText(node, source) + "\n")
	case *gmast.Paragraph:
		out.WriteString(indent + inlinePlainText(node, source) + "\n\n")
	case *gmast.FencedCodeBlock:
		writeCodeLines(out, node.Lines(), source, indent+"    ")
		out.WriteString("\n")
	case *gmast.CodeBlock:
		writeCodeLines(out, node.Lines(), source, indent+"    ")
		out.WriteString("\n")
	case *gmast.List:
		renderTextList(out, node, source, indent)
		out.WriteString("\n")
	case *gmast.Blockquote:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			renderTextBlock(out, c, source, indent+"  ")
		}
	case *gmast.ThematicBreak:
		out.WriteString(indent + "---\n\n")
	case *gmast.HTMLBlock:
		// raw HTML has no plain-text meaning
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			renderTextBlock(out, c, source, indent)
		}
	}
}

func renderTextList(out *strings.Builder, list *gmast.List, source []byte, indent string) {
	num := list.Start
	if num == 0 {
		num = 1
	}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "- "
		if list.IsOrdered() {
			marker = strconv.Itoa(num) + ". "
			num++
		}
		cont := indent + strings.Repeat(" ", len(marker))
		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if first {
				first = false
				switch c.(type) {
				case *gmast.TextBlock, *gmast.Paragraph:
					out.WriteString(indent + marker + inlinePlainText(c, source) + "\n")
					continue
				}
				out.WriteString(indent + marker + "\n")
			}
			renderTextBlock(out, c, source, cont)
		}
	}
}

func writeCodeLines(out *strings.Builder, lines *text.Segments, source []byte, indent string) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(source)), "\n")
		out.WriteString(indent + line + "\n")
	}
}

func inlinePlainText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	writeInlinePlain(&sb, n, source)
	return strings.TrimSpace(sb.String())
}

func writeInlinePlain(sb *strings.Builder, n gmast.Node, source []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *gmast.Text:
			sb.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.Write(node.Value)
		case *gmast.AutoLink:
			sb.Write(node.URL(source))
		case *gmast.Link:
			var label strings.Builder
			writeInlinePlain(&label, node, source)
			sb.WriteString(label.String())
			if dest := string(node.Destination); dest != "" && dest != label.String() {
				sb.WriteString(" (" + dest + ")")
			}
		case *gmast.Image:
			var alt strings.Builder
			writeInlinePlain(&alt, node, source)
			sb.WriteString(alt.String())
			if len(node.Destination) > 0 {
				sb.WriteString(" (" + string(node.Destination) + ")")
			}
		case *gmast.RawHTML:
			// inline tags carry no text content
		default:
			writeInlinePlain(sb, c, source)
		}
	}
}

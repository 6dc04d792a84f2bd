package format

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// renderPod emits Markdown as Plain Old Documentation. Headings map to
// =head1..=head4, lists to =over/=item/=back, code blocks to verbatim
// paragraphs. The document is bracketed by =pod and =cut.
func renderPod(source []byte) (string, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	var out strings.Builder
	out.WriteString("=pod\n\n")
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		renderPodBlock(&out, n, source)
	}
	out.WriteString("=cut")
	return out.String(), nil
}

func renderPodBlock(out *strings.Builder, n gmast.Node, source []byte) {
	switch node := n.(type) {
	case *gmast.Heading:
		level := node.Level
		if level > 4 {
			level = 4
		}
		var title strings.Builder
		writeInlinePod(&title, node, source)
		out.WriteString("=head" + strconv.Itoa(level) + " " + strings.TrimSpace(title.String()) + "\n\n")
	case *gmast.TextBlock, *gmast.Paragraph:
		var para strings.Builder
		writeInlinePod(&para, n, source)
		out.WriteString(strings.TrimSpace(para.String()) + "\n\n")
	case *gmast.FencedCodeBlock:
		writePodVerbatim(out, node.Lines(), source)
	case *gmast.CodeBlock:
		writePodVerbatim(out, node.Lines(), source)
	case *gmast.List:
		out.WriteString("=over 4\n\n")
		num := node.Start
		if num == 0 {
			num = 1
		}
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			if node.IsOrdered() {
				out.WriteString("=item " + strconv.Itoa(num) + ".\n\n")
				num++
			} else {
				out.WriteString("=item *\n\n")
			}
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				renderPodBlock(out, c, source)
			}
		}
		out.WriteString("=back\n\n")
	case *gmast.Blockquote:
		out.WriteString("=over 4\n\n")
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			renderPodBlock(out, c, source)
		}
		out.WriteString("=back\n\n")
	case *gmast.HTMLBlock:
		out.WriteString("=begin html\n\n")
		for i := 0; i < node.Lines().Len(); i++ {
			seg := node.Lines().At(i)
			out.WriteString(strings.TrimRight(string(seg.Value(source)), "\n") + "\n")
		}
		if node.HasClosure() {
			out.WriteString(strings.TrimRight(string(node.ClosureLine.Value(source)), "\n") + "\n")
		}
		out.WriteString("\n=end html\n\n")
	case *gmast.ThematicBreak:
		// POD has no horizontal rule
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			renderPodBlock(out, c, source)
		}
	}
}

func writePodVerbatim(out *strings.Builder, lines *text.Segments, source []byte) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(source)), "\n")
		out.WriteString("    " + line + "\n")
	}
	out.WriteString("\n")
}

func writeInlinePod(sb *strings.Builder, n gmast.Node, source []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *gmast.Text:
			sb.WriteString(escapePod(string(node.Segment.Value(source))))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.WriteString(escapePod(string(node.Value)))
		case *gmast.CodeSpan:
			var inner strings.Builder
			writeInlineRaw(&inner, node, source)
			sb.WriteString(podCode("C", inner.String()))
		case *gmast.Emphasis:
			var inner strings.Builder
			writeInlinePod(&inner, node, source)
			code := "I"
			if node.Level >= 2 {
				code = "B"
			}
			sb.WriteString(podCode(code, inner.String()))
		case *gmast.AutoLink:
			sb.WriteString(podCode("L", string(node.URL(source))))
		case *gmast.Link:
			var label strings.Builder
			writeInlinePod(&label, node, source)
			dest := string(node.Destination)
			if label.Len() == 0 || label.String() == dest {
				sb.WriteString(podCode("L", dest))
			} else {
				sb.WriteString(podCode("L", label.String()+"|"+dest))
			}
		case *gmast.Image:
			if len(node.Destination) > 0 {
				sb.WriteString(podCode("L", string(node.Destination)))
			}
		case *gmast.RawHTML:
			// inline tags carry no POD meaning
		default:
			writeInlinePod(sb, c, source)
		}
	}
}

func writeInlineRaw(sb *strings.Builder, n gmast.Node, source []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *gmast.Text:
			sb.Write(node.Segment.Value(source))
		case *gmast.String:
			sb.Write(node.Value)
		default:
			writeInlineRaw(sb, c, source)
		}
	}
}

var podEscaper = strings.NewReplacer("<", "E<lt>", ">", "E<gt>")

func escapePod(s string) string {
	return podEscaper.Replace(s)
}

// podCode wraps content in a POD formatting code, widening the angle-bracket
// delimiters until they cannot collide with the content.
func podCode(code, content string) string {
	if !strings.ContainsAny(content, "<>") {
		return code + "<" + content + ">"
	}
	delim := 2
	for strings.Contains(content, strings.Repeat(">", delim)) {
		delim++
	}
	return code + strings.Repeat("<", delim) + " " + content + " " + strings.Repeat(">", delim)
}

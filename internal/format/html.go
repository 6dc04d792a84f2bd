package format

import (
	"bytes"
	stdhtml "html"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// renderHTML converts Markdown to a standalone HTML page. The body comes from
// the regular Goldmark renderer; the page title falls back to the text of the
// first level-one heading in the rendered body.
func renderHTML(source []byte, opts ConvertOptions) (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert(source, &body); err != nil {
		return "", err
	}

	title := opts.Title
	if title == "" {
		title = firstHeadingText(body.Bytes())
	}
	if title == "" {
		title = "README"
	}

	charset := opts.Encoding
	if charset == "" {
		charset = "utf-8"
	}

	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	page.WriteString("<meta charset=\"" + stdhtml.EscapeString(charset) + "\">\n")
	page.WriteString("<title>" + stdhtml.EscapeString(title) + "</title>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>")
	return page.String(), nil
}

// firstHeadingText finds the text of the first h1 element in an HTML fragment.
func firstHeadingText(fragment []byte) string {
	doc, err := html.Parse(bytes.NewReader(fragment))
	if err != nil {
		return ""
	}

	var title string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "h1" {
			title = nodeText(n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return title
}

// nodeText collects the text content of a node and its children.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(nodeText(c))
	}
	return strings.TrimSpace(text.String())
}

package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockElements = map[atom.Atom]struct{}{
	atom.Address:    {},
	atom.Article:    {},
	atom.Aside:      {},
	atom.Blockquote: {},
	atom.Br:         {},
	atom.Dd:         {},
	atom.Div:        {},
	atom.Dl:         {},
	atom.Dt:         {},
	atom.Figcaption: {},
	atom.Figure:     {},
	atom.Footer:     {},
	atom.H1:         {},
	atom.H2:         {},
	atom.H3:         {},
	atom.H4:         {},
	atom.H5:         {},
	atom.H6:         {},
	atom.Header:     {},
	atom.Hr:         {},
	atom.Li:         {},
	atom.Main:       {},
	atom.Ol:         {},
	atom.P:          {},
	atom.Pre:        {},
	atom.Section:    {},
	atom.Table:      {},
	atom.Td:         {},
	atom.Th:         {},
	atom.Tr:         {},
	atom.Ul:         {},
}

var skippedElements = map[atom.Atom]struct{}{
	atom.Script:   {},
	atom.Style:    {},
	atom.Noscript: {},
	atom.Template: {},
}

// HTMLToText strips markup and returns the text of every block-level segment,
// whitespace-collapsed and separated by a blank line.
func HTMLToText(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return strings.TrimSpace(markup)
	}

	var c textCollector
	for _, n := range doc.Nodes {
		c.walk(n)
	}
	c.flush()

	return strings.Join(c.segments, "\n\n")
}

type textCollector struct {
	segments []string
	current  strings.Builder
}

func (c *textCollector) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		c.current.WriteString(n.Data)

		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if _, ok := skippedElements[n.DataAtom]; ok {
			return
		}
	}

	_, block := blockElements[n.DataAtom]
	if block {
		c.flush()
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child)
	}

	if block {
		c.flush()
	}
}

func (c *textCollector) flush() {
	text := strings.Join(strings.Fields(c.current.String()), " ")
	c.current.Reset()

	if text != "" {
		c.segments = append(c.segments, text)
	}
}

package snapshot

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Elements that start and end on their own line when rendered.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "details": true, "dialog": true, "div": true, "dl": true,
	"dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hgroup": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "summary": true, "table": true,
	"tbody": true, "thead": true, "tfoot": true, "tr": true, "ul": true,
	"caption": true,
}

// Elements whose content never renders as text.
var skipElements = map[string]bool{
	"head": true, "title": true, "script": true, "style": true,
	"noscript": true, "template": true, "svg": true,
}

// VisibleText approximates the rendered text (innerText) of every node in sel,
// trimmed. Whitespace collapses the way the browser collapses it, except
// inside <pre> and <textarea>. Subtrees marked AttrHidden contribute nothing.
func VisibleText(sel *goquery.Selection) string {
	var b textBuilder
	for _, n := range sel.Nodes {
		b.node(n, false)
	}
	return b.String()
}

// NodeText is VisibleText for a single node.
func NodeText(n *html.Node) string {
	var b textBuilder
	b.node(n, false)
	return b.String()
}

type textBuilder struct {
	buf []byte
}

func (b *textBuilder) node(n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre {
			b.buf = append(b.buf, n.Data...)
		} else {
			b.collapsed(n.Data)
		}
	case html.ElementNode:
		if skipElements[n.Data] || isHidden(n) {
			return
		}
		switch n.Data {
		case "br":
			b.lineBreak()
			return
		case "td", "th":
			b.children(n, pre)
			b.buf = append(b.buf, '\t')
			return
		}
		block := blockElements[n.Data]
		if block {
			b.lineBreak()
		}
		if n.Data == "p" {
			b.blankLine()
		}
		b.children(n, pre || n.Data == "pre" || n.Data == "textarea")
		if n.Data == "p" {
			b.blankLine()
		}
		if block {
			b.lineBreak()
		}
	case html.DocumentNode:
		b.children(n, pre)
	}
}

func isHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == AttrHidden {
			return true
		}
	}
	return false
}

func (b *textBuilder) children(n *html.Node, pre bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.node(c, pre)
	}
}

func (b *textBuilder) collapsed(s string) {
	for _, r := range s {
		if r != '\u00a0' && unicode.IsSpace(r) {
			if len(b.buf) == 0 {
				continue
			}
			if last := b.buf[len(b.buf)-1]; last == ' ' || last == '\n' {
				continue
			}
			b.buf = append(b.buf, ' ')
			continue
		}
		b.buf = utf8.AppendRune(b.buf, r)
	}
}

func (b *textBuilder) trimTrailingSpace() {
	for len(b.buf) > 0 && (b.buf[len(b.buf)-1] == ' ' || b.buf[len(b.buf)-1] == '\t') {
		b.buf = b.buf[:len(b.buf)-1]
	}
}

// lineBreak ends the current line unless it is already empty.
func (b *textBuilder) lineBreak() {
	b.trimTrailingSpace()
	if len(b.buf) > 0 && b.buf[len(b.buf)-1] != '\n' {
		b.buf = append(b.buf, '\n')
	}
}

// blankLine makes sure the next content is separated by an empty line.
func (b *textBuilder) blankLine() {
	b.lineBreak()
	if len(b.buf) == 0 {
		return
	}
	if len(b.buf) < 2 || b.buf[len(b.buf)-2] != '\n' {
		b.buf = append(b.buf, '\n')
	}
}

func (b *textBuilder) String() string {
	return strings.TrimSpace(string(b.buf))
}

// Package snapshot holds an annotated copy of a live page's DOM.
//
// The capture script clones the document and stamps every element with its
// document-order index and layout metrics. Elements that are not rendered
// stay in the copy, marked with AttrHidden, so child counts match the live
// page; their text is left out of VisibleText. The heuristics in locator, classifier and
// transcript run over that copy, so they never touch the live page and can
// be exercised against hand-written HTML.
package snapshot

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// CaptureScript evaluates to the annotated HTML of the current document.
//
//go:embed capture.js
var CaptureScript string

// Attributes stamped on every element by CaptureScript.
const (
	AttrIndex        = "data-ccs-idx" // position in document.querySelectorAll('*')
	AttrOverflowY    = "data-ccs-oy"  // computed overflow-y
	AttrScrollHeight = "data-ccs-sh"
	AttrClientHeight = "data-ccs-ch"
	AttrHidden       = "data-ccs-hidden" // set on display:none elements
)

// Snapshot is a parsed annotated document.
type Snapshot struct {
	doc  *goquery.Document
	html string
}

// Parse parses annotated HTML produced by CaptureScript (or written by hand in tests).
func Parse(content string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &Snapshot{doc: doc, html: content}, nil
}

// Document returns the underlying goquery document.
func (s *Snapshot) Document() *goquery.Document {
	return s.doc
}

// HTML returns the raw annotated markup.
func (s *Snapshot) HTML() string {
	return s.html
}

// Root returns the <html> element, or nil for a document without one.
func (s *Snapshot) Root() *html.Node {
	for _, n := range s.doc.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "html" {
				return c
			}
		}
	}
	return nil
}

// Title returns the trimmed text of the document's <title>.
func (s *Snapshot) Title() string {
	return strings.TrimSpace(s.doc.Find("title").First().Text())
}

// ElementChildren returns the element children of n in document order.
func ElementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Metrics are the layout values recorded for one element at capture time.
type Metrics struct {
	Index        int // -1 when the element carries no index
	OverflowY    string
	ScrollHeight int64
	ClientHeight int64
}

// MetricsOf reads the capture attributes of n. Missing or malformed values read as zero.
func MetricsOf(n *html.Node) Metrics {
	m := Metrics{Index: -1}
	for _, a := range n.Attr {
		switch a.Key {
		case AttrIndex:
			if v, err := strconv.Atoi(a.Val); err == nil {
				m.Index = v
			}
		case AttrOverflowY:
			m.OverflowY = strings.ToLower(strings.TrimSpace(a.Val))
		case AttrScrollHeight:
			m.ScrollHeight = parseLength(a.Val)
		case AttrClientHeight:
			m.ClientHeight = parseLength(a.Val)
		}
	}
	return m
}

// Scrollable reports whether the element scrolls vertically and has content
// taller than its box.
func (m Metrics) Scrollable() bool {
	return (m.OverflowY == "auto" || m.OverflowY == "scroll") && m.ScrollHeight > m.ClientHeight
}

func parseLength(v string) int64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return int64(n)
}

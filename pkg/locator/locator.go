// Package locator finds the chat history container and its message list in a snapshot.
package locator

import (
	"errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/chat-context-saver/pkg/snapshot"
	"github.com/dtnitsch/chat-context-saver/pkg/treesearch"
	"golang.org/x/net/html"
)

// ErrContainerNotFound is returned when neither a scrollable element nor the
// document root is available.
var ErrContainerNotFound = errors.New("could not find chat scroll container")

// Container is the element chosen as the scrollable chat history.
type Container struct {
	Node         *html.Node
	Index        int  // document-order index on the live page
	Fallback     bool // true when no scrollable element qualified and the root scroller is used
	ScrollHeight int64
	ClientHeight int64
}

// Selection wraps the container node for goquery traversal.
func (c *Container) Selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(c.Node).Selection
}

// FindScrollContainer picks the scrollable element with the greatest scroll
// height, first in document order on ties. Without candidates it falls back
// to the document root.
func FindScrollContainer(s *snapshot.Snapshot) (*Container, error) {
	root := s.Root()
	if root == nil {
		return nil, ErrContainerNotFound
	}

	best, ok := treesearch.Best(
		[]*html.Node{root},
		snapshot.ElementChildren,
		func(n *html.Node) bool { return snapshot.MetricsOf(n).Scrollable() },
		func(n *html.Node) int64 { return snapshot.MetricsOf(n).ScrollHeight },
	)
	if !ok {
		return newContainer(root, true), nil
	}
	return newContainer(best, false), nil
}

// Candidates returns every scrollable element in document order.
// extract logs their count to explain a container choice.
func Candidates(s *snapshot.Snapshot) []*Container {
	root := s.Root()
	if root == nil {
		return nil
	}
	nodes := treesearch.Filter(
		[]*html.Node{root},
		snapshot.ElementChildren,
		func(n *html.Node) bool { return snapshot.MetricsOf(n).Scrollable() },
	)
	out := make([]*Container, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, newContainer(n, false))
	}
	return out
}

func newContainer(n *html.Node, fallback bool) *Container {
	m := snapshot.MetricsOf(n)
	return &Container{
		Node:         n,
		Index:        m.Index,
		Fallback:     fallback,
		ScrollHeight: m.ScrollHeight,
		ClientHeight: m.ClientHeight,
	}
}

// MessageList returns the elements that hold one chat turn each.
//
// Messages are usually the container's children. A single wrapper child with
// children of its own is descended into. With two children (a header and a
// wrapper) the tallest child is used when it has more children than the
// container itself.
func MessageList(c *Container) []*html.Node {
	children := snapshot.ElementChildren(c.Node)

	if len(children) == 1 {
		if inner := snapshot.ElementChildren(children[0]); len(inner) > 0 {
			return inner
		}
	}

	if len(children) > 0 && len(children) < 3 {
		tallest, _ := treesearch.MaxBy(children, func(n *html.Node) int64 {
			return snapshot.MetricsOf(n).ScrollHeight
		})
		if inner := snapshot.ElementChildren(tallest); len(inner) > len(children) {
			return inner
		}
	}

	return children
}

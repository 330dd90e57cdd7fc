package classifier

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/chat-context-saver/models"
	"github.com/dtnitsch/chat-context-saver/pkg/snapshot"
	"github.com/dtnitsch/chat-context-saver/pkg/treesearch"
	"golang.org/x/net/html"
)

// Signals records what the rules found in one block.
type Signals struct {
	Explicit models.SpeakerRole // RoleUnknown when no author attribute decided
	User     bool
	Model    bool
	Matched  []string // names of the rules that fired
}

// Role resolves the signals: explicit first, then user, then model.
func (s Signals) Role() models.SpeakerRole {
	switch {
	case s.Explicit != models.RoleUnknown:
		return s.Explicit
	case s.User:
		return models.RoleUser
	case s.Model:
		return models.RoleModel
	}
	return models.RoleUnknown
}

// Classify returns the speaker role of block. text is the block's visible text.
func (t *Table) Classify(block *html.Node, text string) models.SpeakerRole {
	return t.Signals(block, text).Role()
}

// Signals evaluates every rule against block in table order.
func (t *Table) Signals(block *html.Node, text string) Signals {
	var sig Signals
	sel := goquery.NewDocumentFromNode(block).Selection

	for i := range t.Rules {
		r := &t.Rules[i]

		if r.Kind == KindAuthorAttr {
			if sig.Explicit != models.RoleUnknown {
				continue
			}
			if role, ok := authorRole(block, r); ok {
				sig.Explicit = role
				sig.Matched = append(sig.Matched, r.Name)
			}
			continue
		}

		if !r.matches(sel, block, text) {
			continue
		}
		sig.Matched = append(sig.Matched, r.Name)
		if r.Role == models.RoleUser {
			sig.User = true
		} else {
			sig.Model = true
		}
	}
	return sig
}

func (r *Rule) matches(sel *goquery.Selection, block *html.Node, text string) bool {
	switch r.Kind {
	case KindSelector:
		return sel.FindMatcher(r.matcher).Length() > 0
	case KindTextLine:
		for _, line := range strings.Split(text, "\n") {
			if r.lineMatches(strings.TrimSpace(line)) {
				return true
			}
		}
	case KindClassContains:
		class, _ := sel.Attr("class")
		return strings.Contains(class, r.Text)
	}
	return false
}

func (r *Rule) lineMatches(line string) bool {
	if line == r.Text {
		return true
	}
	if !r.Prefix || !strings.HasPrefix(line, r.Text) {
		return false
	}
	next, _ := utf8.DecodeRuneInString(line[len(r.Text):])
	return !unicode.IsLetter(next) && !unicode.IsDigit(next)
}

// authorRole finds the first descendant carrying the rule's attribute and maps its value.
func authorRole(block *html.Node, r *Rule) (models.SpeakerRole, bool) {
	var value string
	found := false
	treesearch.Walk(snapshot.ElementChildren(block), snapshot.ElementChildren, func(n *html.Node) bool {
		for _, a := range n.Attr {
			if a.Key == r.Attr {
				value, found = a.Val, true
				return false
			}
		}
		return true
	})
	if !found {
		return models.RoleUnknown, false
	}
	role, ok := r.Values[value]
	if !ok || role == models.RoleUnknown {
		return models.RoleUnknown, false
	}
	return role, true
}

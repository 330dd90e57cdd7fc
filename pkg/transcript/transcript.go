// Package transcript turns a settled page snapshot into a labelled transcript.
package transcript

import (
	"log/slog"

	"github.com/dtnitsch/chat-context-saver/models"
	"github.com/dtnitsch/chat-context-saver/pkg/classifier"
	"github.com/dtnitsch/chat-context-saver/pkg/locator"
	"github.com/dtnitsch/chat-context-saver/pkg/snapshot"
	"golang.org/x/net/html"
)

// Extractor segments the message list of a snapshot and labels each block.
type Extractor struct {
	rules  *classifier.Table
	logger *slog.Logger
}

// New returns an Extractor using rules, or the default table when rules is nil.
func New(rules *classifier.Table, logger *slog.Logger) *Extractor {
	if rules == nil {
		rules = classifier.Default()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{rules: rules, logger: logger}
}

// Extract locates the chat container in s and returns its transcript.
// The only error is locator.ErrContainerNotFound; an empty message list
// yields an empty transcript.
func (e *Extractor) Extract(s *snapshot.Snapshot) (models.Transcript, error) {
	c, err := locator.FindScrollContainer(s)
	if err != nil {
		return models.Transcript{}, err
	}
	e.logger.Debug("container resolved", "index", c.Index, "fallback", c.Fallback, "scroll_height", c.ScrollHeight)
	return e.FromContainer(c), nil
}

// FromContainer builds the transcript from an already resolved container.
func (e *Extractor) FromContainer(c *locator.Container) models.Transcript {
	return models.Transcript{Entries: e.Blocks(locator.MessageList(c))}
}

// Blocks labels every non-empty block, keeping document order.
func (e *Extractor) Blocks(nodes []*html.Node) []models.Entry {
	entries := make([]models.Entry, 0, len(nodes))
	for i, n := range nodes {
		text := snapshot.NodeText(n)
		if text == "" {
			continue
		}

		sig := e.rules.Signals(n, text)
		role := sig.Role()
		e.logger.Debug("block classified", "position", i, "role", role.String(), "rules", sig.Matched)

		entries = append(entries, models.Entry{Role: role, Text: text})
	}
	return entries
}

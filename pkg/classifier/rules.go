// Package classifier labels message blocks with a speaker role using an
// ordered, data-driven rule table.
package classifier

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/andybalholm/cascadia"
	"github.com/dtnitsch/chat-context-saver/models"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

// Kind selects how a rule inspects a block.
type Kind string

const (
	// KindAuthorAttr reads an attribute on the first descendant that has it
	// and maps its value to a role. A match is explicit and wins outright.
	KindAuthorAttr Kind = "author-attr"
	// KindSelector matches when any descendant matches a CSS selector.
	KindSelector Kind = "selector"
	// KindTextLine matches when a line of the block's visible text equals Text,
	// or with Prefix set, starts with Text as a whole word.
	KindTextLine Kind = "text-line"
	// KindClassContains matches when the block's own class attribute contains Text.
	KindClassContains Kind = "class-contains"
)

var ErrInvalidRule = errors.New("invalid rule")

// Rule is one entry of a Table.
type Rule struct {
	Name     string                        `yaml:"name"`
	Kind     Kind                          `yaml:"kind"`
	Role     models.SpeakerRole            `yaml:"role,omitempty"`
	Attr     string                        `yaml:"attr,omitempty"`
	Values   map[string]models.SpeakerRole `yaml:"values,omitempty"`
	Selector string                        `yaml:"selector,omitempty"`
	Text     string                        `yaml:"text,omitempty"`
	Prefix   bool                          `yaml:"prefix,omitempty"`

	matcher cascadia.Selector
}

// Table is an ordered list of rules.
type Table struct {
	Rules []Rule `yaml:"rules"`
}

// Default returns the built-in table for Gemini and ChatGPT.
func Default() *Table {
	t, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("classifier: default rules: %v", err))
	}
	return t
}

// Load reads a rule table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML rule table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if len(t.Rules) == 0 {
		return nil, fmt.Errorf("%w: table has no rules", ErrInvalidRule)
	}
	for i := range t.Rules {
		if err := t.Rules[i].compile(); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, t.Rules[i].Name, err)
		}
	}
	return &t, nil
}

func (r *Rule) compile() error {
	switch r.Kind {
	case KindAuthorAttr:
		if r.Attr == "" || len(r.Values) == 0 {
			return fmt.Errorf("%w: %s needs attr and values", ErrInvalidRule, r.Kind)
		}
		return nil
	case KindSelector:
		if r.Selector == "" {
			return fmt.Errorf("%w: %s needs a selector", ErrInvalidRule, r.Kind)
		}
		m, err := cascadia.Compile(r.Selector)
		if err != nil {
			return fmt.Errorf("%w: bad selector %q: %v", ErrInvalidRule, r.Selector, err)
		}
		r.matcher = m
	case KindTextLine, KindClassContains:
		if r.Text == "" {
			return fmt.Errorf("%w: %s needs text", ErrInvalidRule, r.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRule, r.Kind)
	}

	if r.Role != models.RoleUser && r.Role != models.RoleModel {
		return fmt.Errorf("%w: %s needs role user or model", ErrInvalidRule, r.Kind)
	}
	return nil
}

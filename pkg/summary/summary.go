// Package summary describes a finished run: how many blocks each speaker
// contributed, what page they came from and what language they are in.
package summary

import (
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dtnitsch/chat-context-saver/models"
	"github.com/dtnitsch/chat-context-saver/pkg/snapshot"
	"github.com/go-shiori/go-readability"
	"github.com/pemistahl/lingua-go"
)

// Summary is written next to the transcript when --summary is set.
type Summary struct {
	RunID      string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
	SiteName   string `json:"site_name,omitempty" yaml:"site_name,omitempty"`
	Language   string `json:"language,omitempty" yaml:"language,omitempty"`
	Entries    int    `json:"entries" yaml:"entries"`
	User       int    `json:"user" yaml:"user"`
	Model      int    `json:"model" yaml:"model"`
	Unknown    int    `json:"unknown" yaml:"unknown"`
	Characters int    `json:"characters" yaml:"characters"`
	Iterations int    `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	Converged  bool   `json:"converged" yaml:"converged"`
}

// LanguageDetector returns an ISO 639-1 code for text, or "" when unsure.
type LanguageDetector interface {
	Detect(text string) string
}

// LanguageDetectorFunc adapts a function to LanguageDetector.
type LanguageDetectorFunc func(string) string

func (f LanguageDetectorFunc) Detect(text string) string { return f(text) }

// Languages the default detector chooses between. Keeping the set small
// keeps the lingua models that get loaded small.
var detectable = []lingua.Language{
	lingua.English, lingua.German, lingua.French, lingua.Spanish,
	lingua.Portuguese, lingua.Italian, lingua.Dutch, lingua.Russian,
	lingua.Japanese, lingua.Chinese, lingua.Korean,
}

type linguaDetector struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

func (d *linguaDetector) Detect(text string) string {
	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectable...).
			WithLowAccuracyMode().
			Build()
	})
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

var defaultDetector = &linguaDetector{}

// DefaultDetector returns the shared lingua-backed detector. Models load on
// first use.
func DefaultDetector() LanguageDetector { return defaultDetector }

// Builder assembles summaries.
type Builder struct {
	Detector LanguageDetector
}

// NewBuilder returns a Builder. A nil detector uses DefaultDetector.
func NewBuilder(detector LanguageDetector) *Builder {
	if detector == nil {
		detector = DefaultDetector()
	}
	return &Builder{Detector: detector}
}

// Build summarizes t. snapshotHTML and pageURL feed title detection and may be
// empty.
func (b *Builder) Build(t models.Transcript, snapshotHTML, pageURL string) *Summary {
	s := &Summary{
		URL:     pageURL,
		Entries: len(t.Entries),
		User:    t.Count(models.RoleUser),
		Model:   t.Count(models.RoleModel),
		Unknown: t.Count(models.RoleUnknown),
	}

	var text strings.Builder
	for i, e := range t.Entries {
		s.Characters += utf8.RuneCountInString(e.Text)
		if i > 0 {
			text.WriteByte('\n')
		}
		text.WriteString(e.Text)
	}

	if snapshotHTML != "" {
		s.Title, s.SiteName = pageTitle(snapshotHTML, pageURL)
	}
	if text.Len() > 0 && b.Detector != nil {
		s.Language = b.Detector.Detect(text.String())
	}
	return s
}

// Build summarizes t with the default language detector.
func Build(t models.Transcript, snapshotHTML, pageURL string) *Summary {
	return NewBuilder(nil).Build(t, snapshotHTML, pageURL)
}

func pageTitle(rawHTML, pageURL string) (title, siteName string) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = &url.URL{}
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(rawHTML), parsedURL)
	if err == nil {
		title = strings.TrimSpace(article.Title)
		siteName = strings.TrimSpace(article.SiteName)
	}
	if title == "" {
		title = fallbackTitle(rawHTML)
	}
	if siteName == "" && parsedURL.Hostname() != "" {
		siteName = parsedURL.Hostname()
	}
	return title, siteName
}

func fallbackTitle(rawHTML string) string {
	snap, err := snapshot.Parse(rawHTML)
	if err != nil {
		return ""
	}
	return snap.Title()
}

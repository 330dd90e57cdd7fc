package common

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrUnsupportedSite is returned for pages that are not a supported chat UI.
	ErrUnsupportedSite = errors.New("not a Gemini or ChatGPT tab")
	ErrInvalidURL      = errors.New("invalid url")
)

// Site identifies a supported chat UI.
type Site string

const (
	SiteGemini  Site = "gemini"
	SiteChatGPT Site = "chatgpt"
)

var siteHosts = map[string]Site{
	"gemini.google.com": SiteGemini,
	"chatgpt.com":       SiteChatGPT,
	"chat.openai.com":   SiteChatGPT,
}

// NewLogger returns the JSON logger on w used by every command.
// quiet wins over verbose.
func NewLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	if quiet {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// DetectSite reports which chat UI rawURL belongs to.
func DetectSite(rawURL string) (Site, bool) {
	parsed, err := url.Parse(SanitizeURL(rawURL))
	if err != nil {
		return "", false
	}
	site, ok := siteHosts[strings.ToLower(parsed.Hostname())]
	return site, ok
}

// IsChatURL reports whether rawURL is a supported chat page.
func IsChatURL(rawURL string) bool {
	_, ok := DetectSite(rawURL)
	return ok
}

// CheckChatURL sanitizes rawURL and rejects unsupported sites unless anySite is set.
func CheckChatURL(rawURL string, anySite bool) (string, error) {
	cleaned := SanitizeURL(rawURL)
	if cleaned == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	parsed, err := url.Parse(cleaned)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	if !anySite && !IsChatURL(cleaned) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSite, parsed.Hostname())
	}
	return cleaned, nil
}

var markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)

// SanitizeURL performs basic cleanup on URLs to handle common copy-paste issues.
// Removes whitespace, trailing punctuation and markdown artifacts.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// [text](url) -> url
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	trailingChars := []string{",", ".", ")", "}", "]", "\"", "'", ">", ";"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}

	leadingChars := []string{"(", "[", "<", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.TrimSpace(cleaned)
}

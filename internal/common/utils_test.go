package common

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  https://gemini.google.com/app/1 ", "https://gemini.google.com/app/1"},
		{"[chat](https://chatgpt.com/c/abc)", "https://chatgpt.com/c/abc"},
		{"<https://chatgpt.com/c/abc>,", "https://chatgpt.com/c/abc"},
		{"\"https://chat.openai.com/\"", "https://chat.openai.com/"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeURL(tt.in); got != tt.want {
			t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectSite(t *testing.T) {
	tests := []struct {
		url    string
		want   Site
		wantOK bool
	}{
		{"https://gemini.google.com/app/3f2a", SiteGemini, true},
		{"https://chatgpt.com/c/67aa", SiteChatGPT, true},
		{"https://chat.openai.com/c/67aa", SiteChatGPT, true},
		{"https://CHATGPT.com/", SiteChatGPT, true},
		{"https://example.com/?next=chatgpt.com", "", false},
		{"https://notgemini.google.com.evil.io/", "", false},
		{"not a url", "", false},
	}

	for _, tt := range tests {
		got, ok := DetectSite(tt.url)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("DetectSite(%q) = (%q, %v), want (%q, %v)", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCheckChatURL(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		anySite     bool
		want        string
		wantErr     bool
		unsupported bool
	}{
		{name: "gemini", url: " https://gemini.google.com/app/1 ", want: "https://gemini.google.com/app/1"},
		{name: "other site rejected", url: "https://example.com/", wantErr: true, unsupported: true},
		{name: "other site allowed", url: "https://example.com/", anySite: true, want: "https://example.com/"},
		{name: "empty", url: "  ", wantErr: true},
		{name: "no scheme", url: "chatgpt.com/c/1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckChatURL(tt.url, tt.anySite)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckChatURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.unsupported && !errors.Is(err, ErrUnsupportedSite) {
				t.Errorf("CheckChatURL() error = %v, want ErrUnsupportedSite", err)
			}
			if got != tt.want {
				t.Errorf("CheckChatURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name           string
		quiet, verbose bool
		wantDebug      bool
		wantInfo       bool
	}{
		{name: "default", wantInfo: true},
		{name: "verbose", verbose: true, wantDebug: true, wantInfo: true},
		{name: "quiet", quiet: true},
		{name: "quiet wins", quiet: true, verbose: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.quiet, tt.verbose)
			logger.Debug("debug line")
			logger.Info("info line")
			logger.Error("error line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "info line"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
			if !strings.Contains(out, `"msg":"error line"`) {
				t.Errorf("error line missing from JSON output %q", out)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	if _, err := CheckChatURL("https://example.com/", false); ExitCode(err) != 1 {
		t.Errorf("ExitCode(unsupported site) = %d, want 1", ExitCode(err))
	}
	if _, err := CheckChatURL("", false); ExitCode(err) != 1 {
		t.Errorf("ExitCode(empty url) = %d, want 1", ExitCode(err))
	}
	if got := ExitCode(ErrMissingURL); got != 1 {
		t.Errorf("ExitCode(ErrMissingURL) = %d, want 1", got)
	}
	if got := ExitCode(errors.New("browser crashed")); got != 2 {
		t.Errorf("ExitCode(runtime) = %d, want 2", got)
	}
}

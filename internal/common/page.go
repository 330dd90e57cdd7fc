package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dtnitsch/chat-context-saver/models"
	"github.com/dtnitsch/chat-context-saver/pkg/browser"
)

// ErrMissingURL is returned when neither --url nor --remote is given.
var ErrMissingURL = errors.New("--url is required unless attaching with --remote")

// OpenPage launches or attaches to a browser and makes sure the tab shows a
// supported chat page.
func OpenPage(ctx context.Context, cfg models.Config, logger *slog.Logger) (*browser.Page, error) {
	if cfg.URL == "" && cfg.RemoteURL == "" {
		return nil, ErrMissingURL
	}

	target := ""
	if cfg.URL != "" {
		cleaned, err := CheckChatURL(cfg.URL, cfg.AnySite)
		if err != nil {
			return nil, err
		}
		target = cleaned
		cfg.URL = cleaned
	}

	page, err := browser.Open(ctx, BrowserOptions(cfg, logger))
	if err != nil {
		return nil, err
	}

	if cfg.RemoteURL == "" {
		logger.Info("navigating", "url", target)
		if err := page.Navigate(target); err != nil {
			page.Close()
			return nil, err
		}
	}

	location, err := page.Location()
	if err != nil {
		page.Close()
		return nil, err
	}
	if !cfg.AnySite && !IsChatURL(location) {
		page.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSite, location)
	}

	logger.Info("page ready", "url", location)
	return page, nil
}

// IsUsageError reports whether err came from bad input rather than a runtime
// failure. Commands exit 1 for usage errors and 2 otherwise.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrMissingURL) || errors.Is(err, ErrUnsupportedSite) || errors.Is(err, ErrInvalidURL)
}

// ExitCode maps err onto the process exit code.
func ExitCode(err error) int {
	if IsUsageError(err) {
		return 1
	}
	return 2
}

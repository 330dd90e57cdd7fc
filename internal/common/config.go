package common

import (
	"fmt"
	"log/slog"

	"github.com/dtnitsch/chat-context-saver/models"
	"github.com/dtnitsch/chat-context-saver/pkg/browser"
	"github.com/dtnitsch/chat-context-saver/pkg/classifier"
	"github.com/dtnitsch/chat-context-saver/pkg/scroller"
	"github.com/urfave/cli/v2"
)

// GlobalFlags are accepted by every command.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "YAML config file", EnvVars: []string{"CCS_CONFIG"}},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log classification decisions"},
	}
}

// BrowserFlags select and drive the browser.
func BrowserFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "url", Usage: "chat page to open", EnvVars: []string{"CCS_URL"}},
		&cli.StringFlag{Name: "remote", Usage: "DevTools websocket of a running browser (ws://...)", EnvVars: []string{"CCS_REMOTE"}},
		&cli.BoolFlag{Name: "headless", Usage: "run the launched browser headless", EnvVars: []string{"CCS_HEADLESS"}},
		&cli.StringFlag{Name: "user-data-dir", Usage: "browser profile directory (keeps you logged in)", EnvVars: []string{"CCS_USER_DATA_DIR"}},
		&cli.BoolFlag{Name: "any-site", Usage: "skip the Gemini/ChatGPT URL check"},
		&cli.DurationFlag{Name: "load-timeout", Usage: "page load timeout", EnvVars: []string{"CCS_LOAD_TIMEOUT"}},
	}
}

// ScrollFlags tune history loading and extraction.
func ScrollFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{Name: "settle", Usage: "wait after each scroll to the top", EnvVars: []string{"CCS_SETTLE"}},
		&cli.IntFlag{Name: "no-growth", Usage: "consecutive non-growing iterations before stopping", EnvVars: []string{"CCS_NO_GROWTH"}},
		&cli.IntFlag{Name: "max-iterations", Usage: "stop with an error after this many iterations (0 = unbounded)", EnvVars: []string{"CCS_MAX_ITERATIONS"}},
		&cli.DurationFlag{Name: "max-duration", Usage: "stop with an error after this long (0 = unbounded)", EnvVars: []string{"CCS_MAX_DURATION"}},
		RulesFlag(),
	}
}

// RulesFlag points at a YAML speaker rule table.
func RulesFlag() cli.Flag {
	return &cli.StringFlag{Name: "rules", Usage: "YAML speaker rule table (default: built-in)", EnvVars: []string{"CCS_RULES"}}
}

// LoadConfig reads --config and applies every flag the user set on top.
func LoadConfig(c *cli.Context) (models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return cfg, err
	}

	if c.IsSet("url") {
		cfg.URL = c.String("url")
	}
	if c.IsSet("remote") {
		cfg.RemoteURL = c.String("remote")
	}
	if c.IsSet("headless") {
		cfg.Headless = c.Bool("headless")
	}
	if c.IsSet("user-data-dir") {
		cfg.UserDataDir = c.String("user-data-dir")
	}
	if c.IsSet("any-site") {
		cfg.AnySite = c.Bool("any-site")
	}
	if c.IsSet("load-timeout") {
		cfg.LoadTimeout = c.Duration("load-timeout")
	}
	if c.IsSet("settle") {
		cfg.Settle = c.Duration("settle")
	}
	if c.IsSet("no-growth") {
		cfg.NoGrowthLimit = c.Int("no-growth")
	}
	if c.IsSet("max-iterations") {
		cfg.MaxIterations = c.Int("max-iterations")
	}
	if c.IsSet("max-duration") {
		cfg.MaxDuration = c.Duration("max-duration")
	}
	if c.IsSet("rules") {
		cfg.RulesFile = c.String("rules")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// ScrollOptions maps cfg onto the scroll loop.
func ScrollOptions(cfg models.Config) scroller.Options {
	opts := scroller.DefaultOptions()
	opts.Settle = cfg.Settle
	opts.NoGrowthLimit = cfg.NoGrowthLimit
	opts.MaxIterations = cfg.MaxIterations
	opts.MaxDuration = cfg.MaxDuration
	return opts
}

// BrowserOptions maps cfg onto the browser driver. When attaching to a
// running browser, an existing tab at cfg.URL (or any chat tab) is reused.
func BrowserOptions(cfg models.Config, logger *slog.Logger) browser.Options {
	opts := browser.Options{
		RemoteURL:   cfg.RemoteURL,
		Headless:    cfg.Headless,
		UserDataDir: cfg.UserDataDir,
		LoadTimeout: cfg.LoadTimeout,
		Logf: func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...), "source", "chromedp")
		},
	}
	if cfg.RemoteURL != "" {
		want := SanitizeURL(cfg.URL)
		opts.AttachMatch = func(u string) bool {
			if want != "" {
				return u == want
			}
			return IsChatURL(u)
		}
	}
	return opts
}

// LoadRules returns the rule table named by cfg, or the built-in one.
func LoadRules(cfg models.Config) (*classifier.Table, error) {
	if cfg.RulesFile == "" {
		return classifier.Default(), nil
	}
	rules, err := classifier.Load(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return rules, nil
}

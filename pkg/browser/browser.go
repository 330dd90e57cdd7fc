// Package browser drives a Chrome tab over the DevTools protocol.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/dtnitsch/chat-context-saver/pkg/locator"
	"github.com/dtnitsch/chat-context-saver/pkg/snapshot"
)

var (
	// ErrTargetDetached is returned when the marked scroll target is no longer in the page.
	ErrTargetDetached = errors.New("scroll target is no longer attached to the page")
	// ErrNoMatchingTab is returned when attaching to a running browser finds no suitable tab.
	ErrNoMatchingTab = errors.New("no open tab matches")
)

// Options configure how the browser is started or attached.
type Options struct {
	// RemoteURL attaches to a running browser (ws://host:9222/devtools/browser/...)
	// instead of launching one.
	RemoteURL   string
	Headless    bool
	UserDataDir string

	// AttachMatch, with RemoteURL, selects an existing tab by URL instead of opening a new one.
	AttachMatch func(url string) bool

	LoadTimeout time.Duration // navigation; default 30s
	OpTimeout   time.Duration // each script evaluation; default 10s
	Logf        func(format string, args ...any)
}

// Page is one browser tab. Its methods are bound to the tab's own lifetime,
// not to any run context.
type Page struct {
	ctx         context.Context
	cancel      context.CancelFunc
	loadTimeout time.Duration
	opTimeout   time.Duration
}

// Open launches (or attaches to) a browser and returns a ready tab.
func Open(parent context.Context, opts Options) (*Page, error) {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 30 * time.Second
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 10 * time.Second
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(parent, opts.RemoteURL)
	} else {
		flags := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
		)
		if opts.UserDataDir != "" {
			flags = append(flags, chromedp.UserDataDir(opts.UserDataDir))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(parent, flags...)
	}

	var ctxOpts []chromedp.ContextOption
	if opts.Logf != nil {
		ctxOpts = append(ctxOpts, chromedp.WithLogf(opts.Logf))
	}
	ctx, cancel := chromedp.NewContext(allocCtx, ctxOpts...)
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	if opts.RemoteURL != "" && opts.AttachMatch != nil {
		tabCtx, tabCancel, err := attach(ctx, opts.AttachMatch)
		if err != nil {
			cancel()
			allocCancel()
			return nil, err
		}
		ctx = tabCtx
		prev := cancel
		cancel = func() {
			tabCancel()
			prev()
		}
	}

	return &Page{
		ctx: ctx,
		cancel: func() {
			cancel()
			allocCancel()
		},
		loadTimeout: opts.LoadTimeout,
		opTimeout:   opts.OpTimeout,
	}, nil
}

func attach(ctx context.Context, match func(string) bool) (context.Context, context.CancelFunc, error) {
	targets, err := chromedp.Targets(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tabs: %w", err)
	}

	var found *target.Info
	for _, t := range targets {
		if t.Type == "page" && match(t.URL) {
			found = t
			break
		}
	}
	if found == nil {
		return nil, nil, ErrNoMatchingTab
	}

	tabCtx, tabCancel := chromedp.NewContext(ctx, chromedp.WithTargetID(found.TargetID))
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, nil, fmt.Errorf("failed to attach to tab %s: %w", found.URL, err)
	}
	return tabCtx, tabCancel, nil
}

// Close closes the tab and, when launched by Open, the browser.
func (p *Page) Close() {
	p.cancel()
}

// Navigate loads url and waits for the body to be ready.
func (p *Page) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.loadTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	return nil
}

// Location returns the tab's current URL.
func (p *Page) Location() (string, error) {
	var url string
	if err := p.run(chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// Snapshot captures the annotated DOM of the tab.
func (p *Page) Snapshot() (*snapshot.Snapshot, error) {
	var content string
	if err := p.run(chromedp.Evaluate(snapshot.CaptureScript, &content)); err != nil {
		return nil, fmt.Errorf("failed to capture snapshot: %w", err)
	}
	return snapshot.Parse(content)
}

// MarkTarget tags the live element matching c so later scroll calls act on it.
func (p *Page) MarkTarget(c *locator.Container) error {
	index := c.Index
	if c.Fallback {
		index = -1
	}
	var ok bool
	if err := p.run(chromedp.Evaluate(markTargetJS(index), &ok)); err != nil {
		return fmt.Errorf("failed to mark scroll target: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: element %d", ErrTargetDetached, index)
	}
	return nil
}

// ScrollToTop sets the marked element's scroll offset to zero.
func (p *Page) ScrollToTop() error {
	var ok bool
	if err := p.run(chromedp.Evaluate(scrollTopJS(), &ok)); err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	if !ok {
		return ErrTargetDetached
	}
	return nil
}

// ScrollHeight returns the marked element's content height.
func (p *Page) ScrollHeight() (int64, error) {
	var h float64
	if err := p.run(chromedp.Evaluate(scrollHeightJS(), &h)); err != nil {
		return 0, fmt.Errorf("failed to read scroll height: %w", err)
	}
	if h < 0 {
		return 0, ErrTargetDetached
	}
	return int64(h), nil
}

func (p *Page) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.opTimeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Package worker runs scrapes on a page in response to start and stop commands.
//
// At most one run is active at a time. A run scrolls the chat container to
// the top, extracts the transcript and emits exactly one terminal event
// (Complete or Error). A stopped run emits no terminal event.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dtnitsch/chat-context-saver/models"
	"github.com/dtnitsch/chat-context-saver/pkg/classifier"
	"github.com/dtnitsch/chat-context-saver/pkg/locator"
	"github.com/dtnitsch/chat-context-saver/pkg/scroller"
	"github.com/dtnitsch/chat-context-saver/pkg/snapshot"
	"github.com/dtnitsch/chat-context-saver/pkg/transcript"
	"github.com/google/uuid"
)

// Status texts sent with StatusUpdate events.
const (
	StatusScrolling = "Scrolling to top..."
	StatusLoading   = "Loading older messages..."
	StatusScraping  = "Scraping text..."
	StatusStopped   = "Stopped."
)

// Page is the live chat page a run works on.
type Page interface {
	scroller.Target
	Snapshot() (*snapshot.Snapshot, error)
	MarkTarget(c *locator.Container) error
}

// Emitter receives worker events.
type Emitter interface {
	Emit(models.Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(models.Event)

func (f EmitterFunc) Emit(e models.Event) { f(e) }

// Options configure a Worker.
type Options struct {
	Scroll scroller.Options
	Rules  *classifier.Table
	Logger *slog.Logger
	// NewID generates run IDs; defaults to random UUIDs.
	NewID func() string
}

// Result is what a finished run produced. Transcript is only set when the
// run completed.
type Result struct {
	RunID      string
	Scroll     scroller.Result
	Transcript models.Transcript
	Snapshot   *snapshot.Snapshot
	Err        error
}

type run struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// Worker owns the run state for one page.
type Worker struct {
	page      Page
	emitter   Emitter
	opts      Options
	extractor *transcript.Extractor
	logger    *slog.Logger

	mu      sync.Mutex
	active  *run
	last    *Result
	onDone  []func(Result)
	history int
}

// New returns an idle Worker.
func New(page Page, emitter Emitter, opts Options) *Worker {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	return &Worker{
		page:      page,
		emitter:   emitter,
		opts:      opts,
		extractor: transcript.New(opts.Rules, opts.Logger),
		logger:    opts.Logger,
	}
}

// OnDone registers f to be called with the result of every run that ends.
// The run stays active until its hooks return.
func (w *Worker) OnDone(f func(Result)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onDone = append(w.onDone, f)
}

// Handle dispatches a command received from the channel.
func (w *Worker) Handle(cmd models.Command) {
	switch cmd.Action {
	case models.ActionStartScrape:
		w.Start()
	case models.ActionStopScrape:
		w.Stop()
	default:
		w.logger.Warn("ignoring unknown command", "action", cmd.Action)
	}
}

// Start begins a run unless one is active. It reports whether a run started.
func (w *Worker) Start() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active != nil {
		w.logger.Debug("start ignored, run in progress", "run_id", w.active.id)
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{id: w.opts.NewID(), cancel: cancel, done: make(chan struct{})}
	w.active = r
	w.history++

	go w.execute(ctx, r)
	return true
}

// Stop cancels the active run, which exits at its next loop check.
// The run stays active until it has actually exited.
func (w *Worker) Stop() {
	w.mu.Lock()
	r := w.active
	w.mu.Unlock()

	runID := ""
	if r != nil {
		r.cancel()
		runID = r.id
	}
	w.emitter.Emit(models.StatusEvent(runID, StatusStopped))
}

// Active reports whether a run is in progress.
func (w *Worker) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active != nil
}

// Runs returns how many runs have been started.
func (w *Worker) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history
}

// Wait blocks until the active run, if any, has finished.
func (w *Worker) Wait() {
	w.mu.Lock()
	r := w.active
	w.mu.Unlock()
	if r != nil {
		<-r.done
	}
}

// Last returns the result of the most recent finished run.
func (w *Worker) Last() (Result, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last == nil {
		return Result{}, false
	}
	return *w.last, true
}

func (w *Worker) execute(ctx context.Context, r *run) {
	res := w.scrape(ctx, r.id)

	w.mu.Lock()
	w.last = &res
	hooks := append([]func(Result){}, w.onDone...)
	w.mu.Unlock()

	r.cancel()
	for _, f := range hooks {
		f(res)
	}

	w.mu.Lock()
	w.active = nil
	w.mu.Unlock()
	close(r.done)
}

func (w *Worker) scrape(ctx context.Context, runID string) Result {
	res := Result{RunID: runID}
	logger := w.logger.With("run_id", runID)

	fail := func(err error) Result {
		logger.Error("scrape failed", "error", err)
		res.Err = err
		w.emitter.Emit(models.ErrorEvent(runID, err.Error()))
		return res
	}

	snap, err := w.page.Snapshot()
	if err != nil {
		return fail(err)
	}
	container, err := locator.FindScrollContainer(snap)
	if err != nil {
		return fail(err)
	}
	if err := w.page.MarkTarget(container); err != nil {
		return fail(err)
	}
	logger.Info("scroll container resolved", "index", container.Index, "fallback", container.Fallback,
		"scroll_height", container.ScrollHeight, "client_height", container.ClientHeight)

	w.emitter.Emit(models.StatusEvent(runID, StatusScrolling))
	res.Scroll, err = scroller.Converge(ctx, w.page, w.opts.Scroll, func(p scroller.Progress) {
		logger.Debug("scroll progress", "stage", p.Stage.String(), "iteration", p.Iteration, "height", p.Height)
		if p.Stage == scroller.StageGrowing {
			w.emitter.Emit(models.StatusEvent(runID, StatusLoading))
		}
	})
	if errors.Is(err, scroller.ErrStopped) {
		logger.Info("scrape stopped", "iterations", res.Scroll.Iterations)
		res.Err = err
		return res
	}
	if err != nil {
		return fail(err)
	}
	// A stop during the last settle wait lands after the loop's final check.
	if ctx.Err() != nil {
		logger.Info("scrape stopped", "iterations", res.Scroll.Iterations)
		res.Scroll.Stopped = true
		res.Err = scroller.ErrStopped
		return res
	}
	logger.Info("reached top", "iterations", res.Scroll.Iterations, "height", res.Scroll.FinalHeight)

	w.emitter.Emit(models.StatusEvent(runID, StatusScraping))

	// The page may have re-rendered while scrolling; look everything up again.
	snap, err = w.page.Snapshot()
	if err != nil {
		return fail(err)
	}
	tr, err := w.extractor.Extract(snap)
	if err != nil {
		return fail(err)
	}
	res.Transcript = tr
	res.Snapshot = snap

	logger.Info("transcript extracted", "entries", len(tr.Entries),
		"user", tr.Count(models.RoleUser), "model", tr.Count(models.RoleModel), "unknown", tr.Count(models.RoleUnknown))
	w.emitter.Emit(models.CompleteEvent(runID, tr.String()))
	return res
}

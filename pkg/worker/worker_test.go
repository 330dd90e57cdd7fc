package worker

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dtnitsch/chat-context-saver/models"
	"github.com/dtnitsch/chat-context-saver/pkg/locator"
	"github.com/dtnitsch/chat-context-saver/pkg/scroller"
	"github.com/dtnitsch/chat-context-saver/pkg/snapshot"
)

const chatHTML = `<html data-ccs-idx="0"><body data-ccs-idx="1">
<div data-ccs-idx="2" data-ccs-oy="auto" data-ccs-sh="3000" data-ccs-ch="800">
  <div><div data-message-author-role="user">Hello</div></div>
  <div><div data-message-author-role="assistant">Hi there</div></div>
  <div></div>
</div></body></html>`

const wantPayload = "[START OF PREVIOUS CONTEXT]\n(Auto-scrolled to beginning)\n\n\n### USER:\nHello\n\n\n### MODEL:\nHi there\n\n\n[END OF CONTEXT]"

type fakePage struct {
	mu          sync.Mutex
	html        string
	snapErr     error
	stripRoot   bool
	heights     []int64
	scrolls     int
	snapshots   int
	markedIndex int
}

func (p *fakePage) Snapshot() (*snapshot.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots++
	if p.snapErr != nil {
		return nil, p.snapErr
	}
	s, err := snapshot.Parse(p.html)
	if err != nil {
		return nil, err
	}
	if p.stripRoot {
		doc := s.Document().Nodes[0]
		for doc.FirstChild != nil {
			doc.RemoveChild(doc.FirstChild)
		}
	}
	return s, nil
}

func (p *fakePage) MarkTarget(c *locator.Container) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markedIndex = c.Index
	return nil
}

func (p *fakePage) ScrollToTop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolls++
	return nil
}

func (p *fakePage) ScrollHeight() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.scrolls
	if i >= len(p.heights) {
		i = len(p.heights) - 1
	}
	return p.heights[i], nil
}

func (p *fakePage) scrollCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrolls
}

type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Emit(e models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Event(nil), r.events...)
}

func (r *recorder) terminal() []models.Event {
	var out []models.Event
	for _, e := range r.all() {
		if e.Terminal() {
			out = append(out, e)
		}
	}
	return out
}

func newTestWorker(page *fakePage, rec *recorder, sleep func(time.Duration)) *Worker {
	opts := Options{Scroll: scroller.DefaultOptions()}
	if sleep == nil {
		sleep = func(time.Duration) {}
	}
	opts.Scroll.Sleep = sleep
	n := 0
	opts.NewID = func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
	return New(page, rec, opts)
}

func TestWorker_Complete(t *testing.T) {
	page := &fakePage{html: chatHTML, heights: []int64{1000, 2000, 3000, 3000, 3000}}
	rec := &recorder{}
	w := newTestWorker(page, rec, nil)

	if !w.Start() {
		t.Fatal("Start() = false, want true")
	}
	w.Wait()

	if w.Active() {
		t.Error("Active() = true after run finished")
	}
	if page.markedIndex != 2 {
		t.Errorf("marked index = %d, want 2", page.markedIndex)
	}
	if page.snapshots != 2 {
		t.Errorf("snapshots = %d, want 2 (discovery and extraction)", page.snapshots)
	}

	want := []models.Event{
		models.StatusEvent("run-1", StatusScrolling),
		models.StatusEvent("run-1", StatusLoading),
		models.StatusEvent("run-1", StatusLoading),
		models.StatusEvent("run-1", StatusScraping),
		models.CompleteEvent("run-1", wantPayload),
	}
	got := rec.all()
	if len(got) != len(want) {
		t.Fatalf("events = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	res, ok := w.Last()
	if !ok {
		t.Fatal("Last() ok = false")
	}
	if res.Err != nil || res.Scroll.Iterations != 4 || len(res.Transcript.Entries) != 2 {
		t.Errorf("Last() = err %v, iterations %d, entries %d", res.Err, res.Scroll.Iterations, len(res.Transcript.Entries))
	}
}

func TestWorker_SnapshotError(t *testing.T) {
	page := &fakePage{snapErr: errors.New("tab crashed"), heights: []int64{0}}
	rec := &recorder{}
	w := newTestWorker(page, rec, nil)

	w.Start()
	w.Wait()

	events := rec.all()
	if len(events) != 1 || events[0].Type != models.EventError || events[0].Text != "tab crashed" {
		t.Errorf("events = %+v, want one Error(tab crashed)", events)
	}
	if page.scrollCount() != 0 {
		t.Errorf("scrolled %d times after a failed snapshot", page.scrollCount())
	}
}

func TestWorker_ContainerNotFound(t *testing.T) {
	page := &fakePage{html: chatHTML, stripRoot: true, heights: []int64{0}}
	rec := &recorder{}
	w := newTestWorker(page, rec, nil)

	w.Start()
	w.Wait()

	term := rec.terminal()
	if len(term) != 1 || term[0].Type != models.EventError {
		t.Fatalf("terminal events = %+v, want one Error", term)
	}
	if term[0].Text != locator.ErrContainerNotFound.Error() {
		t.Errorf("error text = %q, want %q", term[0].Text, locator.ErrContainerNotFound.Error())
	}

	res, _ := w.Last()
	if !errors.Is(res.Err, locator.ErrContainerNotFound) {
		t.Errorf("Last().Err = %v, want ErrContainerNotFound", res.Err)
	}
	if w.Active() {
		t.Error("run state not cleared after failure")
	}
}

func TestWorker_StopBetweenIterations(t *testing.T) {
	page := &fakePage{html: chatHTML, heights: []int64{1000, 2000, 3000, 3000, 3000}}
	rec := &recorder{}

	var w *Worker
	w = newTestWorker(page, rec, func(time.Duration) {
		if page.scrollCount() == 2 {
			w.Stop()
		}
	})

	w.Start()
	w.Wait()

	if n := page.scrollCount(); n != 2 {
		t.Errorf("scrolls = %d, want 2", n)
	}
	if term := rec.terminal(); len(term) != 0 {
		t.Errorf("terminal events = %+v, want none for a stopped run", term)
	}

	stopped := false
	for _, e := range rec.all() {
		if e.Type == models.EventStatusUpdate && e.Text == StatusStopped {
			stopped = true
		}
		if e.Text == StatusScraping {
			t.Error("stopped run went on to scrape")
		}
	}
	if !stopped {
		t.Error("no Stopped status event emitted")
	}

	res, _ := w.Last()
	if !errors.Is(res.Err, scroller.ErrStopped) || !res.Scroll.Stopped {
		t.Errorf("Last() = err %v, stopped %v, want ErrStopped", res.Err, res.Scroll.Stopped)
	}
	if !res.Transcript.IsEmpty() {
		t.Error("stopped run kept a partial transcript")
	}
}

func TestWorker_StopDuringFinalSettle(t *testing.T) {
	page := &fakePage{html: chatHTML, heights: []int64{1000, 1000, 1000}}
	rec := &recorder{}

	var w *Worker
	w = newTestWorker(page, rec, func(time.Duration) {
		// Second flat iteration: the loop converges right after this wait.
		if page.scrollCount() == 2 {
			w.Stop()
		}
	})

	w.Start()
	w.Wait()

	if term := rec.terminal(); len(term) != 0 {
		t.Errorf("terminal events = %+v, want none after Stop", term)
	}
	var texts []string
	for _, e := range rec.all() {
		texts = append(texts, e.Text)
	}
	want := []string{StatusScrolling, StatusStopped}
	if fmt.Sprint(texts) != fmt.Sprint(want) {
		t.Errorf("status events = %q, want %q", texts, want)
	}

	res, _ := w.Last()
	if !errors.Is(res.Err, scroller.ErrStopped) || !res.Scroll.Stopped {
		t.Errorf("Last() = err %v, stopped %v, want ErrStopped", res.Err, res.Scroll.Stopped)
	}
	if !res.Transcript.IsEmpty() || res.Snapshot != nil {
		t.Error("stopped run extracted a transcript")
	}
	page.mu.Lock()
	snapshots := page.snapshots
	page.mu.Unlock()
	if snapshots != 1 {
		t.Errorf("snapshots = %d, want 1 (no re-capture after stop)", snapshots)
	}
}

func TestWorker_StartWhileActiveIsIgnored(t *testing.T) {
	page := &fakePage{html: chatHTML, heights: []int64{1000, 2000, 2000, 2000}}
	rec := &recorder{}

	entered := make(chan struct{}, 10)
	release := make(chan struct{})
	w := newTestWorker(page, rec, func(time.Duration) {
		entered <- struct{}{}
		<-release
	})

	if !w.Start() {
		t.Fatal("first Start() = false")
	}
	<-entered // the run is now settling inside its first iteration

	if w.Start() {
		t.Error("second Start() = true, want false while a run is active")
	}
	w.Handle(models.Command{Action: models.ActionStartScrape})

	close(release)
	w.Wait()

	if got := w.Runs(); got != 1 {
		t.Errorf("Runs() = %d, want 1", got)
	}
	term := rec.terminal()
	if len(term) != 1 || term[0].Type != models.EventComplete {
		t.Fatalf("terminal events = %+v, want exactly one Complete", term)
	}
	for _, e := range rec.all() {
		if e.RunID != "run-1" {
			t.Errorf("event from unexpected run: %+v", e)
		}
	}
}

func TestWorker_RestartAfterFinish(t *testing.T) {
	page := &fakePage{html: chatHTML, heights: []int64{1000}}
	rec := &recorder{}
	w := newTestWorker(page, rec, nil)

	var done []string
	w.OnDone(func(r Result) { done = append(done, r.RunID) })

	w.Start()
	w.Wait()
	if !w.Start() {
		t.Fatal("Start() after a finished run = false")
	}
	w.Wait()

	if len(done) != 2 || done[0] != "run-1" || done[1] != "run-2" {
		t.Errorf("finished runs = %v, want [run-1 run-2]", done)
	}
	if term := rec.terminal(); len(term) != 2 {
		t.Errorf("terminal events = %d, want 2", len(term))
	}
}

func TestWorker_HandleStopWhenIdle(t *testing.T) {
	rec := &recorder{}
	w := newTestWorker(&fakePage{heights: []int64{0}}, rec, nil)

	w.Handle(models.Command{Action: models.ActionStopScrape})
	w.Handle(models.Command{Action: "DANCE"})

	events := rec.all()
	if len(events) != 1 || events[0].Text != StatusStopped || events[0].RunID != "" {
		t.Errorf("events = %+v, want a single Stopped status", events)
	}
	if w.Runs() != 0 {
		t.Errorf("Runs() = %d, want 0", w.Runs())
	}
}

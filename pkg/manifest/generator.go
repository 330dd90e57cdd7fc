package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dtnitsch/chat-context-saver/pkg/scroller"
	"github.com/dtnitsch/chat-context-saver/pkg/storage"
	"github.com/dtnitsch/chat-context-saver/pkg/worker"
)

const FileName = "manifest.json"

// Recorder collects finished runs and rewrites the manifest after each one.
type Recorder struct {
	dir   string
	store *storage.Storage
	now   func() time.Time

	mu       sync.Mutex
	manifest RunManifest
}

// NewRecorder returns a Recorder writing dir/manifest.json.
func NewRecorder(dir string, s *storage.Storage) *Recorder {
	return &Recorder{dir: dir, store: s, now: time.Now}
}

// Path returns where the manifest is written.
func (r *Recorder) Path() string {
	return filepath.Join(r.dir, FileName)
}

// Record adds res, whose transcript was saved at filePath ("" if not saved),
// and writes the manifest.
func (r *Recorder) Record(res worker.Result, filePath string) error {
	summary := RunSummary{
		RunID:      res.RunID,
		FinishedAt: r.now().Format(time.RFC3339),
		Iterations: res.Scroll.Iterations,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case errors.Is(res.Err, scroller.ErrStopped):
		r.manifest.Stopped++
		summary.Status = "stopped"
	case res.Err != nil:
		r.manifest.Failed++
		summary.Status = "error"
		summary.ErrorMessage = res.Err.Error()
	default:
		r.manifest.Completed++
		summary.Status = "complete"
		summary.Entries = len(res.Transcript.Entries)
		for _, e := range res.Transcript.Entries {
			summary.WordCount += len(strings.Fields(e.Text))
		}
		summary.EstimatedTokens = int(float64(summary.WordCount) / 2.5)

		if filePath != "" {
			summary.FilePath = filePath
			if stats, err := r.store.GetFileStats(filePath); err == nil {
				summary.SizeBytes = stats.SizeBytes
			}
		}
	}

	r.manifest.TotalRuns++
	r.manifest.GeneratedAt = r.now().Format(time.RFC3339)
	r.manifest.Runs = append(r.manifest.Runs, summary)

	data, err := json.MarshalIndent(r.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling manifest: %w", err)
	}
	if err := r.store.SaveFile(r.Path(), data); err != nil {
		return fmt.Errorf("error saving manifest: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the manifest as recorded so far.
func (r *Recorder) Snapshot() RunManifest {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.manifest
	m.Runs = append([]RunSummary(nil), r.manifest.Runs...)
	return m
}

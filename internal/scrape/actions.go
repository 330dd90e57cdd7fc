package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/chat-context-saver/internal/common"
	"github.com/dtnitsch/chat-context-saver/models"
	"github.com/dtnitsch/chat-context-saver/pkg/clipboard"
	"github.com/dtnitsch/chat-context-saver/pkg/scroller"
	"github.com/dtnitsch/chat-context-saver/pkg/storage"
	"github.com/dtnitsch/chat-context-saver/pkg/summary"
	"github.com/dtnitsch/chat-context-saver/pkg/worker"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Swapped in tests.
var (
	newCopier  = func(out io.Writer) copier { return clipboard.New(out) }
	newSummary = func() *summary.Builder { return summary.NewBuilder(nil) }
)

type copier interface {
	Copy(text string) (clipboard.Method, error)
}

// Flags returns the scrape command's own flags.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the transcript to this file instead of stdout"},
		&cli.BoolFlag{Name: "copy", Aliases: []string{"c"}, Usage: "copy the transcript to the clipboard"},
		&cli.BoolFlag{Name: "summary", Usage: "print a run summary"},
		&cli.StringFlag{Name: "format", Value: "yaml", Usage: "summary format: yaml or json"},
	}
}

func ScrapeAction(c *cli.Context) error {
	logger := common.NewLogger(c.App.ErrWriter, c.Bool("quiet"), c.Bool("verbose"))

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	format := c.String("format")
	if format != "yaml" && format != "json" {
		return cli.Exit(fmt.Sprintf("invalid --format %q: use yaml or json", format), 1)
	}
	rules, err := common.LoadRules(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	page, err := common.OpenPage(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to open page", "error", err)
		return cli.Exit(err.Error(), common.ExitCode(err))
	}
	defer page.Close()

	location := pageLocation(page, logger)

	// Ctrl-C stops the run; the settle wait in progress still finishes.
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := Run(ctx, page, worker.Options{
		Scroll: common.ScrollOptions(cfg),
		Rules:  rules,
		Logger: logger,
	}, logEmitter(logger))

	return Deliver(c, res, location, logger)
}

// Run performs a single scrape on page. Cancelling ctx stops the run.
func Run(ctx context.Context, page worker.Page, opts worker.Options, emitter worker.Emitter) worker.Result {
	w := worker.New(page, emitter, opts)
	w.Start()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-done:
		}
	}()

	w.Wait()
	close(done)

	res, _ := w.Last()
	return res
}

// Deliver writes the transcript of a finished run and, on request, copies it
// and prints a summary.
func Deliver(c *cli.Context, res worker.Result, pageURL string, logger *slog.Logger) error {
	if errors.Is(res.Err, scroller.ErrStopped) {
		return cli.Exit(worker.StatusStopped, 1)
	}
	if res.Err != nil {
		return cli.Exit(res.Err.Error(), 2)
	}

	text := res.Transcript.String()
	out := c.String("out")
	if out != "" {
		store := &storage.Storage{}
		if err := store.SaveFile(out, []byte(text)); err != nil {
			logger.Error("failed to save transcript", "error", err, "path", out)
			return cli.Exit(err.Error(), 2)
		}
		logger.Info("transcript saved", "path", out, "entries", len(res.Transcript.Entries))
	} else {
		fmt.Fprintln(c.App.Writer, text)
	}

	var copyErr error
	if c.Bool("copy") {
		method, err := newCopier(c.App.ErrWriter).Copy(text)
		if err != nil {
			logger.Error("copy failed", "error", err)
			copyErr = err
		} else {
			logger.Info("transcript copied", "method", string(method))
		}
	}

	if c.Bool("summary") {
		html := ""
		if res.Snapshot != nil {
			html = res.Snapshot.HTML()
		}
		s := newSummary().Build(res.Transcript, html, pageURL)
		s.RunID = res.RunID
		s.Iterations = res.Scroll.Iterations
		s.Converged = res.Scroll.Converged

		// Keep stdout pure transcript when the transcript went there.
		w := c.App.Writer
		if out == "" {
			w = c.App.ErrWriter
		}
		if err := writeSummary(w, s, c.String("format")); err != nil {
			return cli.Exit(err.Error(), 2)
		}
	}

	if copyErr != nil {
		return cli.Exit(copyErr.Error(), 1)
	}
	return nil
}

func writeSummary(w io.Writer, s *summary.Summary, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
	}
	return nil
}

type locationReader interface {
	Location() (string, error)
}

// pageLocation returns the tab's URL for the summary, or "" when it cannot be read.
func pageLocation(page locationReader, logger *slog.Logger) string {
	location, err := page.Location()
	if err != nil {
		logger.Debug("page location unavailable, summary will have no url", "error", err)
		return ""
	}
	return location
}

// logEmitter reports worker events on the log.
func logEmitter(logger *slog.Logger) worker.Emitter {
	return worker.EmitterFunc(func(e models.Event) {
		switch e.Type {
		case models.EventError:
			logger.Error("run failed", "run_id", e.RunID, "error", e.Text)
		case models.EventComplete:
			logger.Info("run complete", "run_id", e.RunID, "bytes", len(e.Payload))
		default:
			logger.Info(e.Text, "run_id", e.RunID)
		}
	})
}

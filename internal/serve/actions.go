package serve

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dtnitsch/chat-context-saver/internal/common"
	"github.com/dtnitsch/chat-context-saver/pkg/bus"
	"github.com/dtnitsch/chat-context-saver/pkg/manifest"
	"github.com/dtnitsch/chat-context-saver/pkg/storage"
	"github.com/dtnitsch/chat-context-saver/pkg/worker"
	"github.com/urfave/cli/v2"
)

//go:embed popup.html
var popupHTML []byte

const shutdownTimeout = 5 * time.Second

// Flags returns the serve command's own flags.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "addr", Value: "127.0.0.1:8765", Usage: "listen address", EnvVars: []string{"CCS_ADDR"}},
		&cli.StringFlag{Name: "out-dir", Usage: "save each completed transcript as <run_id>.txt in this directory"},
	}
}

// Service wires a worker to a websocket bus and serves the control page.
type Service struct {
	Worker *worker.Worker
	Bus    *bus.Server
	mux    *http.ServeMux
}

// NewService builds the handler tree: "/" serves the control page and "/ws"
// the command channel. When outDir is set, completed transcripts are saved
// there and every finished run is indexed in its manifest.
func NewService(page worker.Page, opts worker.Options, outDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := bus.NewServer(logger, bus.Options{})
	w := worker.New(page, srv, opts)
	srv.Attach(w)

	if outDir != "" {
		store := &storage.Storage{}
		rec := manifest.NewRecorder(outDir, store)
		w.OnDone(func(res worker.Result) {
			path := ""
			if res.Err == nil {
				path = filepath.Join(outDir, res.RunID+".txt")
				if err := store.SaveFile(path, []byte(res.Transcript.String())); err != nil {
					logger.Error("failed to save transcript", "error", err, "path", path)
					path = ""
				} else {
					logger.Info("transcript saved", "run_id", res.RunID, "path", path)
				}
			}
			if err := rec.Record(res, path); err != nil {
				logger.Error("failed to update manifest", "error", err, "path", rec.Path())
			}
		})
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", srv)
	mux.HandleFunc("/", func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(rw, r)
			return
		}
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = rw.Write(popupHTML)
	})

	return &Service{Worker: w, Bus: srv, mux: mux}
}

func (s *Service) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(rw, r)
}

// Close stops any active run, waits for it and disconnects every client.
func (s *Service) Close() {
	if s.Worker.Active() {
		s.Worker.Stop()
	}
	s.Worker.Wait()
	s.Bus.Close()
}

func ServeAction(c *cli.Context) error {
	logger := common.NewLogger(c.App.ErrWriter, c.Bool("quiet"), c.Bool("verbose"))

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
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

	svc := NewService(page, worker.Options{
		Scroll: common.ScrollOptions(cfg),
		Rules:  rules,
		Logger: logger,
	}, c.String("out-dir"), logger)

	httpServer := &http.Server{
		Addr:              c.String("addr"),
		Handler:           svc,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			svc.Close()
			return cli.Exit(err.Error(), 2)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	svc.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		return cli.Exit(err.Error(), 2)
	}
	return nil
}

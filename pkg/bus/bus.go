// Package bus carries worker commands and events over websockets.
//
// Clients send {"action":"START_SCRAPE"} or {"action":"STOP_SCRAPE"} and
// receive every event the worker emits, as JSON.
package bus

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dtnitsch/chat-context-saver/models"
	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Handler consumes decoded commands.
type Handler interface {
	Handle(models.Command)
}

// Options configure a Server.
type Options struct {
	// CheckOrigin decides which browser origins may connect. Nil allows same-origin only.
	CheckOrigin func(r *http.Request) bool
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

func (c *client) send(e models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(e)
}

// Server is an http.Handler that upgrades to websockets, forwards commands
// to its Handler and broadcasts events to every connection.
type Server struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	handler Handler
	clients map[*client]struct{}
}

// NewServer returns a Server with no handler attached.
func NewServer(logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		logger:   logger,
		upgrader: websocket.Upgrader{CheckOrigin: opts.CheckOrigin},
		clients:  make(map[*client]struct{}),
	}
}

// Attach sets the command handler. Commands received before Attach are dropped.
func (s *Server) Attach(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Clients returns the number of open connections.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{conn: conn}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("client connected", "remote", r.RemoteAddr)

	defer func() {
		s.remove(c)
		s.logger.Info("client disconnected", "remote", r.RemoteAddr)
	}()

	for {
		var cmd models.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read failed", "remote", r.RemoteAddr, "error", err)
			}
			return
		}

		s.mu.Lock()
		h := s.handler
		s.mu.Unlock()
		if h == nil {
			s.logger.Warn("dropping command, no handler attached", "action", cmd.Action)
			continue
		}
		s.logger.Debug("command received", "action", cmd.Action, "remote", r.RemoteAddr)
		h.Handle(cmd)
	}
}

// Emit broadcasts e to every client. Clients that cannot be written to are dropped.
func (s *Server) Emit(e models.Event) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.send(e); err != nil {
			s.logger.Warn("dropping client", "error", err)
			s.remove(c)
		}
	}
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()

	for c := range clients {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeTimeout))
		c.mu.Unlock()
		_ = c.conn.Close()
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok {
		_ = c.conn.Close()
	}
}

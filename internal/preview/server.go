// Package preview serves a bound page over HTTP and reloads connected
// browsers when the template or data file changes.
package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"

	"github.com/livefir/databind"
	"github.com/livefir/databind/internal/page"
)

// SocketPath is where browsers subscribe to reload notifications
const SocketPath = "/_databind/ws"

// reloadScript is appended to every served page
const reloadScript = `<script>(function(){` +
	`var ws=new WebSocket((location.protocol==="https:"?"wss://":"ws://")+location.host+"` + SocketPath + `");` +
	`ws.onmessage=function(e){var m=JSON.parse(e.data);` +
	`if(m.type==="reload"){location.reload();}` +
	`else if(m.type==="error"){console.error("databind: "+m.message);}};` +
	`})();</script>`

// Message is a notification pushed to browsers
type Message struct {
	Type    string `json:"type"` // "reload" or "error"
	Hash    string `json:"hash,omitempty"`
	Message string `json:"message,omitempty"`
}

// Server renders a page and keeps connected browsers in sync with it
type Server struct {
	page     *page.Page
	binder   *databind.Binder
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *log.Logger
	debounce time.Duration

	mu      sync.RWMutex
	current *page.Result
	lastErr error
}

// Option is a functional option for configuring a Server
type Option func(*Server)

// WithLogger sets the server's logger
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithDebounce sets how long file events are collected before re-rendering
func WithDebounce(d time.Duration) Option {
	return func(s *Server) {
		s.debounce = d
	}
}

// NewServer creates a preview server for p
func NewServer(p *page.Page, b *databind.Binder, opts ...Option) *Server {
	s := &Server{
		page:   p,
		binder: b,
		hub:    NewHub(),
		upgrader: websocket.Upgrader{
			// Allow all origins in preview mode
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:   log.Default(),
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hub returns the server's connection hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Refresh re-renders the page and notifies browsers when the output changed.
// It reports whether a reload was broadcast.
func (s *Server) Refresh() (bool, error) {
	result, err := s.page.Render(s.binder)

	s.mu.Lock()
	previous := s.current
	if err != nil {
		s.lastErr = err
	} else {
		s.current, s.lastErr = result, nil
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Printf("Warning: render failed: %v", err)
		s.notify(Message{Type: "error", Message: err.Error()})
		return false, err
	}
	if previous != nil && previous.Hash == result.Hash {
		return false, nil
	}
	s.notify(Message{Type: "reload", Hash: result.Hash})
	return true, nil
}

func (s *Server) notify(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Printf("Failed to marshal %s message: %v", msg.Type, err)
		return
	}
	s.hub.Broadcast(data)
}

// ServeHTTP serves the rendered page and the reload socket
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == SocketPath {
		s.serveSocket(w, r)
		return
	}
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.mu.RLock()
	current, lastErr := s.current, s.lastErr
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if lastErr != nil || current == nil {
		msg := "page has not been rendered"
		if lastErr != nil {
			msg = lastErr.Error()
		}
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "<!DOCTYPE html><html><body><pre>%s</pre>%s</body></html>", html.EscapeString(msg), reloadScript)
		return
	}

	_, _ = w.Write(withReloadScript(current.HTML))
}

func (s *Server) serveSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	conn := &Connection{Conn: ws}
	s.hub.Register(conn)
	defer func() {
		s.hub.Unregister(conn)
		_ = ws.Close()
	}()

	// browsers never send anything; reading detects the close
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// Watch re-renders the page whenever one of its files changes until ctx is done
func (s *Server) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, so the directories are watched
	watched := make(map[string]bool)
	relevant := make(map[string]bool)
	for _, file := range s.page.Files() {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", file, err)
		}
		relevant[abs] = true
		dir := filepath.Dir(abs)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched[dir] = true
	}

	debounce := time.NewTimer(s.debounce)
	debounce.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !relevant[abs] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending = true
			debounce.Reset(s.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Printf("Watcher error: %v", err)

		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			if reloaded, err := s.Refresh(); err == nil && reloaded {
				s.logger.Printf("Reloaded %d browser(s)", s.hub.Count())
			}
		}
	}
}

var bodyClose = []byte("</body>")

// withReloadScript inserts the reload script before the last </body>, or
// appends it to fragments
func withReloadScript(page []byte) []byte {
	out := make([]byte, 0, len(page)+len(reloadScript))
	if i := bytes.LastIndex(page, bodyClose); i >= 0 {
		out = append(out, page[:i]...)
		out = append(out, reloadScript...)
		return append(out, page[i:]...)
	}
	out = append(out, page...)
	return append(out, reloadScript...)
}

package server

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const heartbeatInterval = 30 * time.Second

// LiveReloadHub pushes build ids to connected browsers over server-sent events.
type LiveReloadHub struct {
	mu        sync.RWMutex
	nextID    int
	clients   map[int]*lrClient
	closed    bool
	lastBuild string
}

type lrClient struct {
	ch   chan string
	done chan struct{}
}

// NewLiveReloadHub returns an empty hub.
func NewLiveReloadHub() *LiveReloadHub {
	return &LiveReloadHub{clients: map[int]*lrClient{}}
}

type reloadMessage struct {
	Build string `json:"build"`
}

func writeEvent(bw *bufio.Writer, buildID string) error {
	payload, err := json.Marshal(reloadMessage{Build: buildID})
	if err != nil {
		return err
	}
	_, err = bw.WriteString("data: " + string(payload) + "\n\n")
	return err
}

// ServeHTTP implements the event stream endpoint.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	id := h.nextID
	h.nextID++
	client := &lrClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.clients[id] = client
	current := h.lastBuild
	h.mu.Unlock()
	defer h.removeClient(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		return
	}
	if current != "" {
		if err := writeEvent(bw, current); err != nil {
			return
		}
	}
	if err := bw.Flush(); err != nil {
		return
	}
	flusher.Flush()

	hb := time.NewTicker(heartbeatInterval)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err != nil {
				return
			}
		case buildID := <-client.ch:
			if err := writeEvent(bw, buildID); err != nil {
				slog.Debug("livereload write", "error", err)
				return
			}
		}
		if err := bw.Flush(); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Clients returns the number of connected browsers.
func (h *LiveReloadHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast notifies clients of a finished build. Clients that cannot keep up
// are dropped.
func (h *LiveReloadHub) Broadcast(buildID string) {
	h.mu.Lock()
	if h.closed || buildID == "" || buildID == h.lastBuild {
		h.mu.Unlock()
		return
	}
	h.lastBuild = buildID
	snapshot := make(map[int]*lrClient, len(h.clients))
	for id, c := range h.clients {
		snapshot[id] = c
	}
	h.mu.Unlock()

	dropped := 0
	for id, c := range snapshot {
		select {
		case c.ch <- buildID:
		default:
			dropped++
			h.removeClient(id)
		}
	}
	slog.Debug("livereload broadcast", "build_id", buildID, "clients", len(snapshot), "dropped", dropped)
}

// Shutdown disconnects all clients and rejects new ones.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.done)
	}
}

// liveReloadScript reloads the page when a build other than the first one seen
// is announced.
const liveReloadScript = `(() => {
  if (window.__docportalReload) return;
  window.__docportalReload = true;
  function connect() {
    const es = new EventSource('/livereload');
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (current === null) { current = p.build; return; }
        if (p.build && p.build !== current) { location.reload(); }
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();
`

const maxInjectSize = 512 * 1024

// injectLiveReload adds the client script to HTML pages before </body>.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if p != "" && !strings.HasSuffix(p, "/") && !strings.HasSuffix(p, ".html") {
			next.ServeHTTP(w, r)
			return
		}
		inj := &liveReloadInjector{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

// liveReloadInjector buffers HTML responses up to maxInjectSize and passes
// everything else through untouched.
type liveReloadInjector struct {
	http.ResponseWriter
	status        int
	buffer        []byte
	decided       bool
	passthrough   bool
	headerWritten bool
}

func (l *liveReloadInjector) WriteHeader(code int) {
	l.status = code
}

func (l *liveReloadInjector) Write(data []byte) (int, error) {
	if !l.decided {
		l.decided = true
		ct := l.Header().Get("Content-Type")
		l.passthrough = l.status != http.StatusOK || (ct != "" && !strings.Contains(ct, "text/html"))
	}
	if !l.passthrough && len(l.buffer)+len(data) > maxInjectSize {
		l.passthrough = true
		l.Header().Del("Content-Length")
		l.flushHeader()
		if _, err := l.ResponseWriter.Write(l.buffer); err != nil {
			return 0, err
		}
		l.buffer = nil
	}
	if l.passthrough {
		l.flushHeader()
		return l.ResponseWriter.Write(data)
	}
	l.buffer = append(l.buffer, data...)
	return len(data), nil
}

func (l *liveReloadInjector) flushHeader() {
	if !l.headerWritten {
		l.headerWritten = true
		l.ResponseWriter.WriteHeader(l.status)
	}
}

func (l *liveReloadInjector) finalize() {
	if l.passthrough || len(l.buffer) == 0 {
		l.flushHeader()
		return
	}
	body := strings.Replace(string(l.buffer), "</body>", `<script src="/livereload.js"></script></body>`, 1)
	l.Header().Del("Content-Length")
	l.flushHeader()
	_, _ = l.ResponseWriter.Write([]byte(body))
}

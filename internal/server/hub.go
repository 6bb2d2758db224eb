package server

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/antonioabatte/spotizip/internal/tasks"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// writeWait bounds how long a slow client can stall a broadcast.
const writeWait = 10 * time.Second

// Terminal phases published by the server once a run settles. They follow
// the pipeline's own phases on the stream, after the session has stored the
// outcome, so a client acting on them can download immediately.
const (
	PhaseArchiveReady = "archive_ready"
	PhaseRunFailed    = "run_failed"
)

// Event is one message of the progress stream: a phase tag, the step
// counters, and the human-readable line shown in the activity log.
type Event struct {
	Phase    string  `json:"phase"`
	Step     int     `json:"step"`
	Total    int     `json:"total"`
	Fraction float64 `json:"fraction"`
	Message  string  `json:"message"`
	Data     any     `json:"data,omitempty"`
}

// eventFromUpdate maps a pipeline progress update onto the wire shape.
func eventFromUpdate(u tasks.ProgressUpdate) Event {
	return Event{
		Phase:    u.Phase.String(),
		Step:     u.Step,
		Total:    u.Total,
		Fraction: u.Fraction(),
		Message:  u.Message,
		Data:     u.Data,
	}
}

var upgrader = websocket.Upgrader{
	// The app serves browsers on its own host only.
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	},
}

// stream is the event history and subscriber set of one session.
type stream struct {
	mu     sync.Mutex
	events []Event
	conns  map[*websocket.Conn]struct{}
}

// Hub fans progress events out to the WebSocket connections of each session.
// Events are buffered per run, so a client connecting after the run started
// receives the backlog before live updates.
type Hub struct {
	logger *log.Logger

	mu      sync.Mutex
	streams map[string]*stream
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		logger:  logger,
		streams: make(map[string]*stream),
	}
}

func (h *Hub) streamFor(sessionID string) *stream {
	h.mu.Lock()
	defer h.mu.Unlock()

	st, ok := h.streams[sessionID]
	if !ok {
		st = &stream{conns: make(map[*websocket.Conn]struct{})}
		h.streams[sessionID] = st
	}
	return st
}

// Reset clears the buffered events of a session at the start of a new run.
// Open connections stay subscribed.
func (h *Hub) Reset(sessionID string) {
	st := h.streamFor(sessionID)

	st.mu.Lock()
	st.events = nil
	st.mu.Unlock()
}

// Publish buffers an event and broadcasts it to the session's subscribers.
// Connections that fail to take the write are dropped.
func (h *Hub) Publish(sessionID string, ev Event) {
	st := h.streamFor(sessionID)

	st.mu.Lock()
	defer st.mu.Unlock()

	st.events = append(st.events, ev)
	for conn := range st.conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			conn.Close()
			delete(st.conns, conn)
		}
	}
}

// Forward drains a pipeline progress channel into the session's stream. The
// returned channel closes once the progress channel does, so callers can
// publish terminal events after every pipeline event has been delivered.
func (h *Hub) Forward(sessionID string, updates <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		for u := range updates {
			h.Publish(sessionID, eventFromUpdate(u))
		}
	}()

	return done
}

// Remove drops a session's stream, closing any connections still attached.
// Wired to session eviction.
func (h *Hub) Remove(sessionID string) {
	h.mu.Lock()
	st, ok := h.streams[sessionID]
	if ok {
		delete(h.streams, sessionID)
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	st.mu.Lock()
	for conn := range st.conns {
		conn.Close()
	}
	st.conns = make(map[*websocket.Conn]struct{})
	st.mu.Unlock()
}

// ServeWS upgrades the request, replays the session's buffered events, and
// subscribes the connection to live updates until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	st := h.streamFor(sessionID)

	st.mu.Lock()
	for _, ev := range st.events {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			st.mu.Unlock()
			conn.Close()
			return
		}
	}
	st.conns[conn] = struct{}{}
	st.mu.Unlock()

	// Reads only serve to notice the client going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				st.mu.Lock()
				delete(st.conns, conn)
				st.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

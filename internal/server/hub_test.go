package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/antonioabatte/spotizip/internal/shared"
	"github.com/antonioabatte/spotizip/internal/tasks"
	"github.com/gorilla/websocket"
)

// dialHub stands up an HTTP server around ServeWS and dials it.
func dialHub(t *testing.T, hub *Hub, sessionID string) *websocket.Conn {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/progress", func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, sessionID)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/progress"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

// waitForSubscribers blocks until the session's stream has n connections.
func waitForSubscribers(t *testing.T, hub *Hub, sessionID string, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st := hub.streamFor(sessionID)
		st.mu.Lock()
		count := len(st.conns)
		st.mu.Unlock()
		if count == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("session %s never reached %d subscribers", sessionID, n)
}

func TestHub(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("Replays The Backlog To Late Subscribers", func(t *testing.T) {
		hub := NewHub(logger)
		hub.Publish("sess-1", Event{Phase: "list_tracks", Total: 1, Message: "Fetching playlist tracks from Spotify..."})
		hub.Publish("sess-1", Event{Phase: "acquire_tracks", Step: 1, Total: 4, Fraction: 0.25, Message: "[1/4] ✓ Artist One - Song One"})

		conn := dialHub(t, hub, "sess-1")

		var first, second Event
		if err := conn.ReadJSON(&first); err != nil {
			t.Fatalf("reading first replayed event: %v", err)
		}
		if err := conn.ReadJSON(&second); err != nil {
			t.Fatalf("reading second replayed event: %v", err)
		}
		if first.Phase != "list_tracks" || second.Phase != "acquire_tracks" {
			t.Errorf("backlog out of order: %q then %q", first.Phase, second.Phase)
		}
		if second.Fraction != 0.25 {
			t.Errorf("unexpected fraction: %v", second.Fraction)
		}

		// Live events keep flowing after the replay.
		waitForSubscribers(t, hub, "sess-1", 1)
		hub.Publish("sess-1", Event{Phase: PhaseArchiveReady, Fraction: 1, Message: "Archive 'Road Trip.zip' is ready!", Data: "Road Trip.zip"})

		var live Event
		if err := conn.ReadJSON(&live); err != nil {
			t.Fatalf("reading live event: %v", err)
		}
		if live.Phase != PhaseArchiveReady || live.Data != "Road Trip.zip" {
			t.Errorf("unexpected live event: %+v", live)
		}
	})

	t.Run("Reset Clears The Backlog", func(t *testing.T) {
		hub := NewHub(logger)
		hub.Publish("sess-1", Event{Phase: "acquire_tracks", Message: "stale"})
		hub.Reset("sess-1")

		conn := dialHub(t, hub, "sess-1")
		waitForSubscribers(t, hub, "sess-1", 1)
		hub.Publish("sess-1", Event{Phase: "list_tracks", Message: "fresh"})

		var got Event
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("reading event: %v", err)
		}
		if got.Message != "fresh" {
			t.Errorf("expected only the post-reset event, got %q", got.Message)
		}
	})

	t.Run("Remove Closes Connections", func(t *testing.T) {
		hub := NewHub(logger)
		conn := dialHub(t, hub, "sess-1")
		waitForSubscribers(t, hub, "sess-1", 1)

		hub.Remove("sess-1")

		var got Event
		if err := conn.ReadJSON(&got); err == nil {
			t.Error("expected the read to fail after removal")
		}
	})

	t.Run("Forward Signals After The Channel Drains", func(t *testing.T) {
		hub := NewHub(logger)

		updates := make(chan tasks.ProgressUpdate, 2)
		updates <- tasks.ProgressUpdate{Phase: tasks.ListTracks, Step: 1, Total: 1, Message: "Playlist found with 4 tracks"}
		updates <- tasks.ProgressUpdate{Phase: tasks.Done, Step: 1, Total: 1, Message: "Done!"}
		close(updates)

		done := hub.Forward("sess-1", updates)
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("forward never finished")
		}

		st := hub.streamFor("sess-1")
		st.mu.Lock()
		defer st.mu.Unlock()
		if len(st.events) != 2 {
			t.Fatalf("expected 2 buffered events, got %d", len(st.events))
		}
		if st.events[0].Phase != "list_tracks" || st.events[1].Phase != "done" {
			t.Errorf("unexpected phases: %q, %q", st.events[0].Phase, st.events[1].Phase)
		}
		if st.events[0].Fraction != 1 {
			t.Errorf("expected a completed fraction, got %v", st.events[0].Fraction)
		}
	})
}

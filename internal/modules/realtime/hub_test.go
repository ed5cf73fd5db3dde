package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"qrdrop/internal/modules/session"
)

func newJoined(h *Hub, sessionIDs ...string) *connection {
	c := &connection{
		send:     make(chan []byte, 4),
		sessions: make(map[string]bool),
	}
	for _, id := range sessionIDs {
		c.sessions[id] = true
	}
	h.register(c)
	return c
}

func TestPublishDeliversToJoinedClients(t *testing.T) {
	h := NewHub()
	a := newJoined(h, "s1")
	b := newJoined(h, "s1")
	other := newJoined(h, "s2")

	h.Publish("s1", NewFileUploadedEvent("s1", []session.FileRecord{{OriginalName: "a.png"}}))

	for _, c := range []*connection{a, b} {
		select {
		case data := <-c.send:
			var event Event
			if err := json.Unmarshal(data, &event); err != nil {
				t.Fatalf("failed to decode event: %v", err)
			}
			if event.Type != EventFileUploaded || event.SessionID != "s1" {
				t.Fatalf("unexpected event: %+v", event)
			}
		default:
			t.Fatal("joined client did not receive the event")
		}
	}

	select {
	case <-other.send:
		t.Fatal("client joined to another session received the event")
	default:
	}
}

func TestLateJoinerGetsNoReplay(t *testing.T) {
	h := NewHub()
	h.Publish("s1", NewFileUploadedEvent("s1", nil))

	late := newJoined(h, "s1")
	select {
	case <-late.send:
		t.Fatal("late joiner received a past event")
	default:
	}
}

func TestSlowClientIsSkippedNotBlocked(t *testing.T) {
	h := NewHub()
	slow := &connection{send: make(chan []byte, 1), sessions: map[string]bool{"s1": true}}
	h.register(slow)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Publish("s1", NewFileUploadedEvent("s1", nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow client")
	}
}

func TestUnregisterReleasesMembership(t *testing.T) {
	h := NewHub()
	c := newJoined(h, "s1")
	if h.Joined("s1") != 1 {
		t.Fatalf("expected 1 member, got %d", h.Joined("s1"))
	}

	h.unregister(c)
	h.unregister(c) // double disconnect must not panic

	if h.Joined("s1") != 0 {
		t.Fatalf("expected 0 members, got %d", h.Joined("s1"))
	}
	h.Publish("s1", NewFileUploadedEvent("s1", nil)) // must not panic on closed send
}

func TestJoinOverWebSocket(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		h.ServeWS(conn)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	err = conn.WriteJSON(map[string]string{"type": "join-session", "session_id": "s1"})
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}

	waitForMembers(t, h, "s1", 1)
	h.Publish("s1", NewFileUploadedEvent("s1", []session.FileRecord{{OriginalName: "a.png"}}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if event.Type != EventFileUploaded || event.SessionID != "s1" {
		t.Fatalf("unexpected event: %+v", event)
	}

	// Leaving stops delivery.
	if err := conn.WriteJSON(map[string]string{"type": "leave-session", "session_id": "s1"}); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	waitForMembers(t, h, "s1", 0)
}

func waitForMembers(t *testing.T, h *Hub, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Joined(sessionID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d members of %s, got %d", want, sessionID, h.Joined(sessionID))
}

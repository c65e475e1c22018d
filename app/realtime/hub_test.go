package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestPublish_NoClients(t *testing.T) {
	hub := NewHub()

	// Publishing with nobody connected must be a no-op, not a panic.
	hub.Publish(EventNewReport, map[string]string{"id": "abc"})

	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestPublish_Broadcast(t *testing.T) {
	hub := NewHub()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	// Wait for the hub to register the connection.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("Expected 1 client, got %d", hub.ClientCount())
	}

	hub.Publish(EventNewNotification, map[string]string{"user_id": "u1"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}

	var received struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	if err := json.Unmarshal(message, &received); err != nil {
		t.Fatalf("unmarshaling broadcast: %v", err)
	}

	if received.Event != EventNewNotification {
		t.Errorf("Expected event '%s', got '%s'", EventNewNotification, received.Event)
	}
	if received.Data["user_id"] != "u1" {
		t.Errorf("Expected user_id 'u1', got '%s'", received.Data["user_id"])
	}
}

package notify

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

func TestHubRegisterPublishUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{Send: make(chan []byte, 10)}
	hub.register <- client

	hub.Publish(State{Items: []Notification{note("a", "", false)}, UnreadCount: 1})

	select {
	case got := <-client.Send:
		var ev hubEvent
		if err := json.Unmarshal(got, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.Type != "notifications" || ev.UnreadCount != 1 || len(ev.Items) != 1 {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	hub.unregister <- client
	select {
	case _, ok := <-client.Send:
		if ok {
			t.Fatal("send channel should be closed after unregister")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for close")
	}
}

func TestHubPublishAfterStop(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(State{})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("publish blocked on a stopped hub")
	}
}

func TestWebSocketHandlerStreamsState(t *testing.T) {
	store := NewStore()
	store.AddNotification(note("a", "", false))

	hub := NewHub()
	go hub.Run()
	defer hub.Stop()
	store.OnChange(hub.Publish)

	router := httprouter.New()
	router.GET("/ws", WebSocketHandler(hub, store))
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ev hubEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if ev.UnreadCount != 1 {
		t.Fatalf("initial state = %+v", ev)
	}

	// the initial state is written only after the client joined the hub
	store.AddNotification(note("b", "", false))
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if len(ev.Items) != 2 || ev.UnreadCount != 2 || ev.Items[0].ID != "b" {
		t.Errorf("update = %+v", ev)
	}
}

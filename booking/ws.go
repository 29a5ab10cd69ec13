package booking

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// UI origins are enforced by CORS on the HTTP side
		return true
	},
}

type wsMessage struct {
	Type  string `json:"type"`
	Month int    `json:"month"`
	Year  int    `json:"year"`
}

// watchers tracks UI sockets interested in one month's availability.
type watchers struct {
	mu   sync.Mutex
	subs map[string][]*websocket.Conn
}

func newWatchers() *watchers {
	return &watchers{subs: make(map[string][]*websocket.Conn)}
}

func periodKey(month, year int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

func (w *watchers) add(key string, conn *websocket.Conn) {
	w.mu.Lock()
	w.subs[key] = append(w.subs[key], conn)
	w.mu.Unlock()
}

func (w *watchers) remove(key string, conn *websocket.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()

	conns := w.subs[key]
	kept := make([]*websocket.Conn, 0, len(conns))
	for _, c := range conns {
		if c != conn {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(w.subs, key)
		return
	}
	w.subs[key] = kept
}

// notify tells every watcher of month/year that the index changed.
func (w *watchers) notify(month, year int) {
	data, _ := json.Marshal(wsMessage{Type: "update", Month: month, Year: year})
	key := periodKey(month, year)

	w.mu.Lock()
	defer w.mu.Unlock()

	conns := w.subs[key]
	kept := conns[:0]
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err == nil {
			kept = append(kept, conn)
		} else {
			conn.Close()
		}
	}
	w.subs[key] = kept
}

func (w *watchers) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for key, conns := range w.subs {
		for _, c := range conns {
			c.Close()
		}
		delete(w.subs, key)
	}
}

// serve keeps conn registered until the client goes away.
func (w *watchers) serve(key string, conn *websocket.Conn) {
	w.add(key, conn)
	defer func() {
		w.remove(key, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("availability watcher %s: %v", key, err)
			}
			return
		}
	}
}

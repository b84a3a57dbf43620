package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Event is one frame of the change feed.
type Event struct {
	Event string    `json:"event"`
	At    time.Time `json:"at"`
}

const (
	EventConnected = "connected"
	EventChanged   = "changed"
)

// handleWebSocket streams one "changed" frame per store notification. The
// feed is push-only; anything the client sends is discarded.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	s.mutex.Lock()
	s.clients[conn] = true
	s.metrics.FeedClients.Set(float64(len(s.clients)))
	err = s.send(conn, EventConnected)
	s.mutex.Unlock()
	if err != nil {
		s.drop(conn)
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.drop(conn)
			return
		}
	}
}

// broadcastChange runs on the store's bus.
func (s *Server) broadcastChange() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for client := range s.clients {
		if err := s.send(client, EventChanged); err != nil {
			s.log.WithError(err).Debug("dropping feed client")
			delete(s.clients, client)
			client.Close()
		}
	}
	s.metrics.FeedClients.Set(float64(len(s.clients)))
}

// send writes one frame. Callers hold s.mutex.
func (s *Server) send(conn *websocket.Conn, event string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(Event{Event: event, At: s.store.Now().UTC()})
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mutex.Lock()
	delete(s.clients, conn)
	s.metrics.FeedClients.Set(float64(len(s.clients)))
	s.mutex.Unlock()
}

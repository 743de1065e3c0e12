package utility

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Simple hub for the live status stream: Map[ConnID] -> Connection
var (
	Clients   = make(map[string]*websocket.Conn)
	ClientsMu sync.Mutex // Mutex to prevent race conditions
	Upgrader  = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Dashboards are served from a different origin
		CheckOrigin: func(r *http.Request) bool { return true },
	}
)

// RegisterClient adds a new stream subscriber.
func RegisterClient(connID string, conn *websocket.Conn) {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	Clients[connID] = conn
	log.Info().Str("conn_id", connID).Msg("WebSocket client connected")
}

// UnregisterClient removes a subscriber (when they close the tab).
func UnregisterClient(connID string) {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	if _, ok := Clients[connID]; ok {
		delete(Clients, connID)
		log.Info().Str("conn_id", connID).Msg("WebSocket client disconnected")
	}
}

// BroadcastJSON pushes one frame to every subscriber, dropping connections
// that fail to write.
func BroadcastJSON(payload interface{}) {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()

	for id, conn := range Clients {
		if err := conn.WriteJSON(payload); err != nil {
			log.Error().Err(err).Str("conn_id", id).Msg("Failed to push WS frame, removing client")
			conn.Close()
			delete(Clients, id)
		}
	}
}

// HasClients reports whether anyone is listening, so the broadcaster can
// skip upstream reads on an idle hub.
func HasClients() bool {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	return len(Clients) > 0
}

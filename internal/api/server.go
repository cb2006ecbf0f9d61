// Package api exposes the HTTP surface: the WebSocket sync endpoint
// and the room-existence lookup used by the pre-join page.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/openboard/openboard/internal/room"
)

// Server handles HTTP requests for the collaboration API.
type Server struct {
	registry      *room.Registry
	upgrader      websocket.Upgrader
	sendQueueSize int
	readLimit     int64
}

// ServerConfig holds configuration for creating a server.
type ServerConfig struct {
	Registry      *room.Registry
	SendQueueSize int
	ReadLimit     int64
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig) *Server {
	return &Server{
		registry:      cfg.Registry,
		sendQueueSize: cfg.SendQueueSize,
		readLimit:     cfg.ReadLimit,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool {
				return true // Clients connect from arbitrary origins
			},
		},
	}
}

// Handler returns an http.Handler with all routes configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/room-exists/", s.handleRoomExists)

	return mux
}

// handleRoomExists handles GET /room-exists/{id}.
func (s *Server) handleRoomExists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	roomID := strings.TrimPrefix(r.URL.Path, "/room-exists/")
	if roomID == "" {
		http.Error(w, "room id is required", http.StatusBadRequest)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	_ = json.NewEncoder(w).Encode(map[string]bool{
		"exists": s.registry.Exists(roomID),
	})
}

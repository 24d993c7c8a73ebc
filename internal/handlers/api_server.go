// internal/handlers/api_server.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jason-s-yu/uno/internal/game"
	log "github.com/sirupsen/logrus"
)

// RoomsResponse is the body of GET /rooms.
type RoomsResponse struct {
	Rooms       []game.RoomSnapshot `json:"rooms"`
	Connections int                 `json:"connections"`
}

// ListRoomsHandler lists every room with its occupancy and state.
func ListRoomsHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		resp := RoomsResponse{
			Rooms:       gs.Registry.Rooms(),
			Connections: gs.ConnectionCount(),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Warnf("encoding rooms response: %v", err)
		}
	}
}

// PingHandler answers health checks.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("pong"))
}

// internal/handlers/game_server.go
package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/lobby"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// outBufferSize is how many events a slow client may fall behind before events are dropped.
const outBufferSize = 64

// Connection is one client's WebSocket session and the player it plays as.
type Connection struct {
	Player  *models.Player
	OutChan chan game.GameEvent
	Cancel  context.CancelFunc
}

func newConnection(p *models.Player, cancel context.CancelFunc) *Connection {
	return &Connection{
		Player:  p,
		OutChan: make(chan game.GameEvent, outBufferSize),
		Cancel:  cancel,
	}
}

// Write queues ev for the write pump without blocking. Events that do not fit are dropped.
func (conn *Connection) Write(ev game.GameEvent) bool {
	select {
	case conn.OutChan <- ev:
		return true
	default:
		logrus.Warnf("OutChan for player %s full. Dropped event '%s'.", conn.Player.ID, ev.Type)
		return false
	}
}

// WriteError sends a private error event.
func (conn *Connection) WriteError(msg string) {
	conn.Write(game.ErrorEvent(msg))
}

// GameServer holds the room registry and the live connections that rooms deliver events to.
type GameServer struct {
	Registry       *lobby.Registry
	AllowedOrigins []string

	logger *logrus.Logger
	mu     sync.Mutex
	conns  map[uuid.UUID]*Connection
}

// NewGameServer builds the room pool described by cfg.
func NewGameServer(logger *logrus.Logger, cfg lobby.Config, allowedOrigins []string) *GameServer {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	gs := &GameServer{
		AllowedOrigins: allowedOrigins,
		logger:         logger,
		conns:          make(map[uuid.UUID]*Connection),
	}
	gs.Registry = lobby.NewRegistry(cfg, gs.Send)
	return gs
}

// Send routes ev to the player's connection. Rooms call it with their lock held,
// so it never blocks.
func (gs *GameServer) Send(playerID uuid.UUID, ev game.GameEvent) {
	gs.mu.Lock()
	conn, ok := gs.conns[playerID]
	gs.mu.Unlock()
	if !ok {
		gs.logger.Debugf("No connection for player %s, dropping %s", playerID, ev.Type)
		return
	}
	conn.Write(ev)
}

func (gs *GameServer) register(conn *Connection) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.conns[conn.Player.ID] = conn
}

func (gs *GameServer) unregister(conn *Connection) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if cur, ok := gs.conns[conn.Player.ID]; ok && cur == conn {
		delete(gs.conns, conn.Player.ID)
	}
}

// ConnectionCount is the number of open sessions.
func (gs *GameServer) ConnectionCount() int {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return len(gs.conns)
}

// Close stops the registry and cancels every open session.
func (gs *GameServer) Close() {
	gs.Registry.Close()
	gs.mu.Lock()
	defer gs.mu.Unlock()
	for _, conn := range gs.conns {
		if conn.Cancel != nil {
			conn.Cancel()
		}
	}
}

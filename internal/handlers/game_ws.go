// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/lobby"
	"github.com/jason-s-yu/uno/internal/metrics"
	"github.com/jason-s-yu/uno/internal/middleware"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the WebSocket subprotocol clients must request.
const Subprotocol = "uno"

// GameWSHandler upgrades the request to a WebSocket, gives the connection a
// fresh player identity and pumps messages until either side closes. The
// player's seat, if any, is released when the connection ends.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: gs.AllowedOrigins,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the uno subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := newConnection(models.NewPlayer(""), cancel)
		gs.register(conn)
		metrics.Connections.Inc()
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		conn.Write(game.GameEvent{
			Type:   game.EventWelcome,
			Player: &game.EventUser{ID: conn.Player.ID},
		})

		go writePump(ctx, c, conn, logger)
		readErr := readPump(ctx, c, gs, conn, logger)

		// ---- Cleanup after readPump exits ----
		if err := gs.Registry.Leave(conn.Player.ID, false); err != nil && !errors.Is(err, lobby.ErrNotSeated) {
			logger.Warnf("Releasing seat of player %s: %v", conn.Player.ID, err)
		}
		gs.unregister(conn)
		metrics.Connections.Dec()
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)

		if ctx.Err() != nil && r.Context().Err() == nil {
			c.Close(ServerShuttingDown, "server shutting down")
			return
		}
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readPump reads frames until the connection fails or ctx ends. A normal
// closure returns nil.
func readPump(ctx context.Context, c *websocket.Conn, gs *GameServer, conn *Connection, logger *logrus.Logger) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Warnf("Read error for player %s: %v (CloseStatus: %d)", conn.Player.ID, err, status)
			return err
		}

		if typ != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from player %s. Ignoring.", typ, conn.Player.ID)
			continue
		}
		gs.HandleMessage(conn, data)
	}
}

// writePump drains OutChan onto the socket and pings the client periodically.
func writePump(ctx context.Context, c *websocket.Conn, conn *Connection, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-conn.OutChan:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("Failed to marshal outgoing %s for player %s: %v", ev.Type, conn.Player.ID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write to websocket for player %s: %v", conn.Player.ID, err)
				conn.Cancel()
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Debugf("Ping failed for player %s: %v", conn.Player.ID, err)
				conn.Cancel()
				return
			}
		}
	}
}

// internal/handlers/messages.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/lobby"
	"github.com/jason-s-yu/uno/internal/metrics"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// Client message types.
const (
	MsgRequestRoom = "requestRoom"
	MsgPlayCard    = "playCard"
	MsgDrawCard    = "drawCard"
	MsgLeaveRoom   = "leaveRoom"
	MsgPing        = "ping"
)

// maxNameLength caps display names taken from requestRoom.
const maxNameLength = 32

// ClientMessage is the structure of every frame a client sends.
type ClientMessage struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Room string `json:"room,omitempty"`
	Card *int   `json:"card,omitempty"` // pointer, card 0 is valid
}

// HandleMessage decodes one text frame from conn and applies it.
func (gs *GameServer) HandleMessage(conn *Connection, data []byte) {
	start := time.Now()
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		gs.logger.Warnf("Invalid JSON from player %s: %v", conn.Player.ID, err)
		conn.WriteError("Invalid JSON format.")
		metrics.Commands.WithLabelValues("invalid", "rejected").Inc()
		return
	}

	outcome := gs.dispatch(conn, msg)
	metrics.Commands.WithLabelValues(commandLabel(msg.Type), outcome).Inc()
	metrics.CommandLatency.Observe(time.Since(start).Seconds())
}

// commandLabel keeps metric cardinality bounded.
func commandLabel(t string) string {
	switch t {
	case MsgRequestRoom, MsgPlayCard, MsgDrawCard, MsgLeaveRoom, MsgPing:
		return t
	}
	return "unknown"
}

// dispatch returns the outcome label: ok, rejected or ignored.
func (gs *GameServer) dispatch(conn *Connection, msg ClientMessage) string {
	fields := logrus.Fields{"player": conn.Player.ID, "type": msg.Type}

	switch msg.Type {
	case MsgRequestRoom:
		return gs.handleRequestRoom(conn, msg)

	case MsgPlayCard, MsgDrawCard:
		room := gs.roomFor(conn, msg.Room)
		if room == nil {
			return "ignored"
		}
		action := models.GameAction{ActionType: msg.Type, Room: room.Name}
		if msg.Type == MsgPlayCard {
			if msg.Card == nil {
				conn.WriteError("playCard needs a card.")
				return "rejected"
			}
			action.Card = *msg.Card
		}
		if err := room.HandlePlayerAction(conn.Player.ID, action); err != nil {
			gs.logger.WithFields(fields).WithField("room", room.Name).Debugf("Command rejected: %v", err)
			return "rejected"
		}
		return "ok"

	case MsgLeaveRoom:
		if room := gs.roomFor(conn, msg.Room); room == nil {
			return "ignored"
		}
		if err := gs.Registry.Leave(conn.Player.ID, true); err != nil {
			gs.logger.WithFields(fields).Warnf("Leave failed: %v", err)
			return "ignored"
		}
		return "ok"

	case MsgPing:
		conn.Write(game.GameEvent{Type: game.EventPong})
		return "ok"
	}

	gs.logger.WithFields(fields).Warn("Unknown message type")
	conn.WriteError(fmt.Sprintf("Unknown message type: %s", msg.Type))
	return "rejected"
}

func (gs *GameServer) handleRequestRoom(conn *Connection, msg ClientMessage) string {
	if gs.Registry.RoomOf(conn.Player.ID) == nil {
		conn.Player.Name = truncateName(msg.Name)
	}

	if _, err := gs.Registry.RequestSeat(conn.Player); err != nil {
		if !errors.Is(err, lobby.ErrRoomsFull) && !errors.Is(err, lobby.ErrClosed) {
			gs.logger.WithField("player", conn.Player.ID).Errorf("RequestSeat: %v", err)
		}
		conn.Write(game.ResponseRoomEvent(game.RoomErrorName, 0, 0))
		return "rejected"
	}
	return "ok"
}

// roomFor resolves the room a command targets. A command naming a room other
// than the player's seat is a protocol fault and is ignored.
func (gs *GameServer) roomFor(conn *Connection, claimed string) *game.Room {
	room := gs.Registry.RoomOf(conn.Player.ID)
	if room == nil {
		gs.logger.WithFields(logrus.Fields{"player": conn.Player.ID, "room": claimed}).Warn("Command from a player without a seat")
		return nil
	}
	if claimed != "" && claimed != room.Name {
		gs.logger.WithFields(logrus.Fields{"player": conn.Player.ID, "room": claimed, "seat": room.Name}).Warn("Command names a room the player is not seated in")
		return nil
	}
	return room
}

// truncateName cuts name to at most maxNameLength bytes without splitting a rune.
func truncateName(name string) string {
	if len(name) <= maxNameLength {
		return name
	}
	cut := maxNameLength
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

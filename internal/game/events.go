// internal/game/events.go
package game

import (
	"encoding/json"

	"github.com/google/uuid"
)

// GameEventType names a server-to-client event.
type GameEventType string

const (
	EventWelcome          GameEventType = "welcome"          // Private: the connection's player id
	EventResponseRoom     GameEventType = "responseRoom"     // Room-wide on admission, private "error" on rejection
	EventCountDown        GameEventType = "countDown"        // Room-wide pre-game timer tick
	EventHaveCard         GameEventType = "haveCard"         // Private full hand refresh
	EventSendCard         GameEventType = "sendCard"         // Room-wide board card
	EventTurnPlayer       GameEventType = "turnPlayer"       // Room-wide turn owner
	EventPlayerDisconnect GameEventType = "playerDisconnect" // Room-wide, a seat left
	EventConfirmLeave     GameEventType = "confirmLeave"     // Private ack of leaveRoom
	EventGameOver         GameEventType = "gameOver"         // Room-wide, a player emptied their hand
	EventGameAbort        GameEventType = "gameAbort"        // Room-wide, the hand could not continue
	EventError            GameEventType = "error"            // Private protocol error
	EventPong             GameEventType = "pong"
)

// RoomErrorName is the room name sent in responseRoom when no room has capacity.
const RoomErrorName = "error"

// EventUser identifies a player inside an event.
type EventUser struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

// GameEvent is the single wire format for everything the server pushes.
type GameEvent struct {
	Type     GameEventType `json:"type"`
	Room     string        `json:"room,omitempty"`
	Seated   int           `json:"seated,omitempty"`
	Capacity int           `json:"capacity,omitempty"`
	Seconds  int           `json:"seconds,omitempty"`
	Card     *int          `json:"card,omitempty"` // pointer, card 0 is valid
	Cards    []int         `json:"cards,omitempty"`
	Player   *EventUser    `json:"player,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// MarshalJSON keeps the payload of haveCard and responseRoom even when it
// is empty or zero.
func (e GameEvent) MarshalJSON() ([]byte, error) {
	type wire GameEvent
	switch e.Type {
	case EventHaveCard:
		cards := e.Cards
		if cards == nil {
			cards = []int{}
		}
		return json.Marshal(struct {
			wire
			Cards []int `json:"cards"`
		}{wire(e), cards})
	case EventResponseRoom:
		return json.Marshal(struct {
			wire
			Seated   int `json:"seated"`
			Capacity int `json:"capacity"`
		}{wire(e), e.Seated, e.Capacity})
	}
	return json.Marshal(wire(e))
}

// ResponseRoomEvent builds an admission result.
func ResponseRoomEvent(room string, seated, capacity int) GameEvent {
	return GameEvent{Type: EventResponseRoom, Room: room, Seated: seated, Capacity: capacity}
}

// CountDownEvent builds a countdown tick.
func CountDownEvent(seconds int) GameEvent {
	return GameEvent{Type: EventCountDown, Seconds: seconds}
}

// PlayerDisconnectEvent tells a room that one of its seats left.
func PlayerDisconnectEvent(room string) GameEvent {
	return GameEvent{Type: EventPlayerDisconnect, Room: room}
}

// ConfirmLeaveEvent acknowledges a voluntary leave.
func ConfirmLeaveEvent(room string) GameEvent {
	return GameEvent{Type: EventConfirmLeave, Room: room}
}

// ErrorEvent is a private protocol error.
func ErrorEvent(msg string) GameEvent {
	return GameEvent{Type: EventError, Message: msg}
}

func sendCardEvent(card int) GameEvent {
	return GameEvent{Type: EventSendCard, Card: &card}
}

func haveCardEvent(hand []int) GameEvent {
	return GameEvent{Type: EventHaveCard, Cards: hand}
}

func turnPlayerEvent(id uuid.UUID) GameEvent {
	return GameEvent{Type: EventTurnPlayer, Player: &EventUser{ID: id}}
}

// internal/lobby/registry.go

package lobby

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/metrics"
	"github.com/jason-s-yu/uno/internal/models"
	log "github.com/sirupsen/logrus"
)

var (
	ErrRoomsFull = errors.New("all rooms are full")
	ErrNotSeated = errors.New("player is not seated")
	ErrClosed    = errors.New("registry is closed")
)

// Config sizes the room pool. Zero values fall back to the defaults below.
type Config struct {
	Rooms            int
	Capacity         int
	HandSize         int
	CountdownSeconds int
	Tick             time.Duration

	// NewDeck overrides the deck source of every room.
	NewDeck func() *game.Deck
}

const (
	DefaultRooms            = 3
	DefaultCapacity         = 10
	DefaultCountdownSeconds = 3
	DefaultTick             = time.Second
)

func (c Config) withDefaults() Config {
	if c.Rooms <= 0 {
		c.Rooms = DefaultRooms
	}
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	if c.HandSize <= 0 {
		c.HandSize = game.DefaultHandSize
	}
	if c.CountdownSeconds <= 0 {
		c.CountdownSeconds = DefaultCountdownSeconds
	}
	if c.Tick <= 0 {
		c.Tick = DefaultTick
	}
	return c
}

// RoomName is the name of the i-th room, counting from 1.
func RoomName(i int) string {
	return fmt.Sprintf("Room_%d", i)
}

// Registry owns the fixed pool of rooms and the player to room index.
// Lock order is Registry.mu, then Room.Mu.
type Registry struct {
	cfg Config

	mu     sync.Mutex
	slots  []*roomSlot
	byName map[string]*roomSlot
	seats  map[uuid.UUID]*roomSlot
	closed bool
}

// NewRegistry builds cfg.Rooms open rooms that deliver events through send.
func NewRegistry(cfg Config, send func(playerID uuid.UUID, ev game.GameEvent)) *Registry {
	cfg = cfg.withDefaults()
	reg := &Registry{
		cfg:    cfg,
		slots:  make([]*roomSlot, 0, cfg.Rooms),
		byName: make(map[string]*roomSlot, cfg.Rooms),
		seats:  make(map[uuid.UUID]*roomSlot),
	}
	for i := 1; i <= cfg.Rooms; i++ {
		room := game.NewRoom(RoomName(i), cfg.Capacity, cfg.HandSize)
		room.SendFn = send
		if cfg.NewDeck != nil {
			room.NewDeck = cfg.NewDeck
		}
		slot := &roomSlot{room: room, seconds: cfg.CountdownSeconds, tick: cfg.Tick}
		room.OnHandEnd = func(*game.Room) { slot.afterSeatChangeUnsafe() }
		reg.slots = append(reg.slots, slot)
		reg.byName[room.Name] = slot
	}
	log.Infof("Room registry ready: %d rooms of %d seats", cfg.Rooms, cfg.Capacity)
	return reg
}

// RequestSeat admits p into the first room that is not in play and has a free
// seat, and tells the whole room the new occupancy. A player that is already
// seated just gets its room resent.
func (reg *Registry) RequestSeat(p *models.Player) (*game.Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.closed {
		return nil, ErrClosed
	}

	if slot, ok := reg.seats[p.ID]; ok {
		room := slot.room
		room.Mu.Lock()
		room.SendToPlayerUnsafe(p.ID, game.ResponseRoomEvent(room.Name, room.SeatedUnsafe(), room.Capacity))
		room.Mu.Unlock()
		return room, nil
	}

	for _, slot := range reg.slots {
		room := slot.room
		room.Mu.Lock()
		if err := room.AddPlayerUnsafe(p); err != nil {
			room.Mu.Unlock()
			continue
		}
		reg.seats[p.ID] = slot
		metrics.SeatedPlayers.Inc()

		seated := room.SeatedUnsafe()
		log.WithFields(log.Fields{"room": room.Name, "player": p.ID, "seated": seated}).Info("Player seated")
		room.BroadcastUnsafe(game.ResponseRoomEvent(room.Name, seated, room.Capacity))
		if seated >= 2 {
			slot.startCountdownUnsafe()
		}
		room.Mu.Unlock()
		return room, nil
	}

	log.WithField("player", p.ID).Warn("No room has a free seat")
	return nil, ErrRoomsFull
}

// Leave frees the player's seat. Remaining seats are told about it and the
// hand in play, if any, is aborted. voluntary marks a leaveRoom request, which
// is acknowledged with confirmLeave.
func (reg *Registry) Leave(playerID uuid.UUID, voluntary bool) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	slot, ok := reg.seats[playerID]
	if !ok {
		return ErrNotSeated
	}
	delete(reg.seats, playerID)
	metrics.SeatedPlayers.Dec()

	room := slot.room
	room.Mu.Lock()
	defer room.Mu.Unlock()

	wasInPlay := room.State == game.StateInPlay
	slot.cancelCountdownUnsafe()
	room.RemovePlayerUnsafe(playerID)
	log.WithFields(log.Fields{"room": room.Name, "player": playerID, "voluntary": voluntary}).Info("Player left")

	if voluntary {
		room.SendToPlayerUnsafe(playerID, game.ConfirmLeaveEvent(room.Name))
	}
	room.BroadcastUnsafe(game.PlayerDisconnectEvent(room.Name))

	if wasInPlay {
		// OnHandEnd picks the countdown back up.
		room.AbortUnsafe("a player left the room")
		return nil
	}
	slot.afterSeatChangeUnsafe()
	return nil
}

// RoomOf returns the room playerID is seated in, or nil.
func (reg *Registry) RoomOf(playerID uuid.UUID) *game.Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if slot, ok := reg.seats[playerID]; ok {
		return slot.room
	}
	return nil
}

// RoomByName looks a room up by name.
func (reg *Registry) RoomByName(name string) *game.Room {
	if slot, ok := reg.byName[name]; ok {
		return slot.room
	}
	return nil
}

// Rooms lists every room in pool order.
func (reg *Registry) Rooms() []game.RoomSnapshot {
	out := make([]game.RoomSnapshot, 0, len(reg.slots))
	for _, slot := range reg.slots {
		out = append(out, slot.room.Snapshot())
	}
	return out
}

// Close stops every countdown and refuses further admissions.
func (reg *Registry) Close() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.closed = true
	for _, slot := range reg.slots {
		slot.room.Mu.Lock()
		slot.cancelCountdownUnsafe()
		slot.room.Mu.Unlock()
	}
}

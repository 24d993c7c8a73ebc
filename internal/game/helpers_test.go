package game

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/require"
)

// mockSender collects events per player instead of sending them over WS.
type mockSender struct {
	mu     sync.Mutex
	events map[uuid.UUID][]GameEvent
}

func newMockSender() *mockSender {
	return &mockSender{events: make(map[uuid.UUID][]GameEvent)}
}

func (ms *mockSender) send(playerID uuid.UUID, ev GameEvent) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.events[playerID] = append(ms.events[playerID], ev)
}

func (ms *mockSender) clear() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.events = make(map[uuid.UUID][]GameEvent)
}

func (ms *mockSender) forPlayer(playerID uuid.UUID) []GameEvent {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]GameEvent(nil), ms.events[playerID]...)
}

func (ms *mockSender) total() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	n := 0
	for _, evs := range ms.events {
		n += len(evs)
	}
	return n
}

func (ms *mockSender) lastOfType(playerID uuid.UUID, typ GameEventType) *GameEvent {
	evs := ms.forPlayer(playerID)
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == typ {
			return &evs[i]
		}
	}
	return nil
}

// riggedDeck lays out a deck so that one dealer round sees draws, the seats
// receive hands (hands[seat] in deal order) and flip is the start card.
// Every other card follows in ascending order.
func riggedDeck(draws []int, dealer int, hands [][]int, flip int) func() *Deck {
	people := len(hands)
	order := append([]int{}, draws...)
	for round := 0; round < len(hands[0]); round++ {
		for k := 1; k <= people; k++ {
			order = append(order, hands[(dealer+k)%people][round])
		}
	}
	order = append(order, flip)

	used := make(map[int]bool, len(order))
	for _, c := range order {
		used[c] = true
	}
	for _, c := range BuildDeck() {
		if !used[c] {
			order = append(order, c)
		}
	}
	return func() *Deck { return NewDeck(order) }
}

// setupRoom seats numPlayers players in a fresh room wired to a mockSender.
func setupRoom(t *testing.T, numPlayers, handSize int) (*Room, []*models.Player, *mockSender) {
	t.Helper()
	r := NewRoom("Room_1", 10, handSize)
	ms := newMockSender()
	r.SendFn = ms.send

	players := make([]*models.Player, numPlayers)
	for i := range players {
		players[i] = models.NewPlayer("")
		require.NoError(t, r.AddPlayerUnsafe(players[i]))
	}
	return r, players, ms
}

package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startThreeSeatRoom deals dealer 0 (peeks 9, 3, 5) two cards per seat and flips flip.
func startThreeSeatRoom(t *testing.T, flip int) (*Room, []*models.Player, *mockSender) {
	t.Helper()
	r, players, ms := setupRoom(t, 3, 2)
	r.NewDeck = riggedDeck([]int{9, 3, 5}, 0, [][]int{{30, 31}, {32, 33}, {44, 45}}, flip)
	r.StartGameUnsafe()
	require.Equal(t, StateInPlay, r.State)
	require.Equal(t, 0, r.Dealer)
	return r, players, ms
}

// startPlayRoom deals dealer 2 (peeks 3, 5, 9) on a red 1 so seat 0 moves first.
func startPlayRoom(t *testing.T) (*Room, []*models.Player, *mockSender) {
	t.Helper()
	r, players, ms := setupRoom(t, 3, 4)
	r.NewDeck = riggedDeck([]int{3, 5, 9}, 2, [][]int{
		{10, 11, 12, 33},
		{19, 2, 13, 46},
		{20, 4, 6, 47},
	}, 1)
	r.StartGameUnsafe()
	require.Equal(t, StateInPlay, r.State)
	require.Equal(t, 2, r.Dealer)
	require.Equal(t, 0, r.Turn)
	ms.clear()
	return r, players, ms
}

func TestStartGameReverseStartCard(t *testing.T) {
	r, players, ms := startThreeSeatRoom(t, 25)

	assert.Equal(t, 25, r.CardOnBoard)
	assert.Equal(t, 1, r.Reverse)
	assert.Equal(t, 2, r.Turn)
	assert.Equal(t, 3, r.People)
	assert.Equal(t, []int{30, 31}, players[0].Hand)
	assert.Equal(t, []int{32, 33}, players[1].Hand)
	assert.Equal(t, []int{44, 45}, players[2].Hand)
	assert.Equal(t, 108-6-1, r.Deck.Len(), "start card leaves the deck")

	for _, p := range players {
		evs := ms.forPlayer(p.ID)
		require.Len(t, evs, 3)
		assert.Equal(t, EventHaveCard, evs[0].Type)
		assert.Equal(t, p.Hand, evs[0].Cards)
		assert.Equal(t, EventTurnPlayer, evs[1].Type)
		assert.Equal(t, players[2].ID, evs[1].Player.ID)
		assert.Equal(t, EventSendCard, evs[2].Type)
		assert.Equal(t, 25, *evs[2].Card)
	}
}

func TestStartGameNumberStartCard(t *testing.T) {
	r, _, _ := startThreeSeatRoom(t, 1)
	assert.Equal(t, 0, r.Reverse)
	assert.Equal(t, 1, r.Turn)
}

func TestStartGameSkipStartCard(t *testing.T) {
	r, _, _ := startThreeSeatRoom(t, 10)
	assert.Equal(t, 0, r.Reverse)
	assert.Equal(t, 2, r.Turn)
}

func TestStartGameDrawTwoStartCard(t *testing.T) {
	r, players, ms := startThreeSeatRoom(t, 40)

	// The two lowest unused ids follow the start card in the rigged deck.
	assert.Equal(t, []int{32, 33, 0, 1}, players[1].Hand)
	assert.Equal(t, 2, r.Turn)
	assert.Equal(t, 108-6-1-2, r.Deck.Len())
	assert.Equal(t, []int{32, 33, 0, 1}, ms.lastOfType(players[1].ID, EventHaveCard).Cards)
}

func TestStartGameRecyclesBlackStartCard(t *testing.T) {
	r, _, _ := startThreeSeatRoom(t, 13)
	assert.Equal(t, 0, r.CardOnBoard)
	assert.Equal(t, 1, r.Turn)
	cards := r.Deck.Cards()
	assert.Equal(t, 13, cards[len(cards)-1])
}

func TestStartGameNeedsTwoSeats(t *testing.T) {
	r, _, ms := setupRoom(t, 1, 7)
	r.StartGameUnsafe()
	assert.Equal(t, StateOpen, r.State)
	assert.Zero(t, ms.total())
}

func TestStartGameAbortsOnShortDeck(t *testing.T) {
	r, players, ms := setupRoom(t, 2, 7)
	ended := 0
	r.OnHandEnd = func(*Room) { ended++ }
	r.NewDeck = func() *Deck { return NewDeck([]int{9, 3, 5}) }

	r.StartGameUnsafe()

	assert.Equal(t, StateOpen, r.State)
	assert.Equal(t, 1, ended)
	for _, p := range players {
		ev := ms.lastOfType(p.ID, EventGameAbort)
		require.NotNil(t, ev)
		assert.Equal(t, "Room_1", ev.Room)
		assert.Empty(t, p.Hand)
	}
}

func TestPlayCardNotInHandIsRejected(t *testing.T) {
	r, players, ms := startPlayRoom(t)

	err := r.HandlePlay(players[0].ID, 19)
	assert.ErrorIs(t, err, ErrCardNotInHand)
	assert.Zero(t, ms.total())
	assert.Equal(t, 0, r.Turn)
	assert.Equal(t, 1, r.CardOnBoard)
	assert.Equal(t, []int{10, 11, 12, 33}, players[0].Hand)
}

func TestPlayOutOfTurnIsRejected(t *testing.T) {
	r, players, ms := startPlayRoom(t)

	assert.ErrorIs(t, r.HandlePlay(players[1].ID, 2), ErrNotYourTurn)
	assert.ErrorIs(t, r.HandleDraw(players[2].ID), ErrNotYourTurn)
	assert.ErrorIs(t, r.HandleDraw(uuid.New()), ErrUnknownPlayer)
	assert.Zero(t, ms.total())
	assert.Equal(t, 0, r.Turn)
}

func TestIllegalCardIsRejected(t *testing.T) {
	r, players, ms := startPlayRoom(t)

	err := r.HandlePlay(players[0].ID, 33)
	assert.ErrorIs(t, err, ErrIllegalCard)
	assert.Zero(t, ms.total())
	assert.Equal(t, 1, r.CardOnBoard)
	assert.Len(t, players[0].Hand, 4)
}

func TestCommandsOutsideHandAreRejected(t *testing.T) {
	r, players, ms := setupRoom(t, 2, 7)
	assert.ErrorIs(t, r.HandleDraw(players[0].ID), ErrNotInPlay)
	assert.ErrorIs(t, r.HandlePlay(players[0].ID, 3), ErrNotInPlay)
	assert.Zero(t, ms.total())
}

func TestPlaySkip(t *testing.T) {
	r, players, ms := startPlayRoom(t)

	require.NoError(t, r.HandlePlay(players[0].ID, 10))

	assert.Equal(t, 10, r.CardOnBoard)
	assert.Equal(t, 2, r.Turn)
	assert.Equal(t, []int{11, 12, 33}, players[0].Hand)
	for _, p := range players {
		sc := ms.lastOfType(p.ID, EventSendCard)
		require.NotNil(t, sc)
		assert.Equal(t, 10, *sc.Card)
		tp := ms.lastOfType(p.ID, EventTurnPlayer)
		require.NotNil(t, tp)
		assert.Equal(t, players[2].ID, tp.Player.ID)
	}
	assert.Equal(t, []int{11, 12, 33}, ms.lastOfType(players[0].ID, EventHaveCard).Cards)
	assert.Nil(t, ms.lastOfType(players[1].ID, EventHaveCard))
}

func TestPlayReverse(t *testing.T) {
	r, players, _ := startPlayRoom(t)

	require.NoError(t, r.HandlePlay(players[0].ID, 11))
	assert.Equal(t, 1, r.Reverse)
	assert.Equal(t, 2, r.Turn)

	// Red 4 on red reverse, still moving backwards.
	require.NoError(t, r.HandlePlay(players[2].ID, 4))
	assert.Equal(t, 1, r.Turn)
}

func TestPlayDrawTwoOnlySkips(t *testing.T) {
	r, players, _ := startPlayRoom(t)

	require.NoError(t, r.HandlePlay(players[0].ID, 12))
	assert.Equal(t, 2, r.Turn)
	assert.Len(t, players[1].Hand, 4, "the skipped player does not draw")
}

func TestDrawCard(t *testing.T) {
	r, players, ms := startPlayRoom(t)
	before := r.Deck.Len()

	require.NoError(t, r.HandlePlayerAction(players[0].ID, models.GameAction{ActionType: ActionDrawCard, Room: r.Name}))

	assert.Equal(t, []int{10, 11, 12, 33, 0}, players[0].Hand)
	assert.Equal(t, before, r.Deck.Len(), "drawn card is recycled to the tail")
	cards := r.Deck.Cards()
	assert.Equal(t, 0, cards[len(cards)-1])
	assert.Equal(t, 1, r.Turn)
	assert.Equal(t, 1, r.CardOnBoard)

	assert.Equal(t, players[0].Hand, ms.lastOfType(players[0].ID, EventHaveCard).Cards)
	for _, p := range players {
		assert.Nil(t, ms.lastOfType(p.ID, EventSendCard))
		assert.Equal(t, players[1].ID, ms.lastOfType(p.ID, EventTurnPlayer).Player.ID)
	}
}

func TestWildOnAnythingAndAnythingOnWild(t *testing.T) {
	r, players, _ := startPlayRoom(t)

	require.NoError(t, r.HandleDraw(players[0].ID))
	require.NoError(t, r.HandlePlayerAction(players[1].ID, models.GameAction{ActionType: ActionPlayCard, Card: 13}))
	assert.Equal(t, 13, r.CardOnBoard)
	assert.Equal(t, 2, r.Turn)

	require.NoError(t, r.HandlePlay(players[2].ID, 47))
	assert.Equal(t, 47, r.CardOnBoard)
	assert.Equal(t, 0, r.Turn)
}

func TestUnknownAction(t *testing.T) {
	r, players, _ := startPlayRoom(t)
	err := r.HandlePlayerAction(players[0].ID, models.GameAction{ActionType: "shuffle"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestEmptyHandWins(t *testing.T) {
	r, players, ms := setupRoom(t, 2, 1)
	ended := 0
	r.OnHandEnd = func(*Room) { ended++ }
	r.NewDeck = riggedDeck([]int{9, 3}, 0, [][]int{{20}, {2}}, 1)
	r.StartGameUnsafe()
	require.Equal(t, 1, r.Turn)

	require.NoError(t, r.HandlePlay(players[1].ID, 2))

	assert.Equal(t, StateOpen, r.State)
	assert.Equal(t, 1, ended)
	assert.Nil(t, r.Deck)
	for _, p := range players {
		ev := ms.lastOfType(p.ID, EventGameOver)
		require.NotNil(t, ev)
		assert.Equal(t, players[1].ID, ev.Player.ID)
		assert.Empty(t, p.Hand)
	}
	assert.Len(t, r.Players, 2, "seats survive the end of a hand")
}

func TestAbortAfterLeave(t *testing.T) {
	r, players, ms := startPlayRoom(t)
	ended := 0
	r.OnHandEnd = func(*Room) { ended++ }

	require.True(t, r.RemovePlayerUnsafe(players[1].ID))
	r.AbortUnsafe("a player left the room")

	assert.Equal(t, StateOpen, r.State)
	assert.Equal(t, 1, ended)
	assert.Len(t, r.Players, 2)
	assert.NotNil(t, ms.lastOfType(players[0].ID, EventGameAbort))
	assert.NotNil(t, ms.lastOfType(players[2].ID, EventGameAbort))
	assert.Nil(t, ms.lastOfType(players[1].ID, EventGameAbort))

	r.AbortUnsafe("again")
	assert.Equal(t, 1, ended, "abort outside a hand is a no-op")
}

func TestBrokenStateAbortsRoom(t *testing.T) {
	r, players, ms := startPlayRoom(t)
	r.People = 99

	err := r.HandleDraw(players[0].ID)
	assert.ErrorIs(t, err, ErrInvariantState)
	assert.Equal(t, StateOpen, r.State)
	assert.NotNil(t, ms.lastOfType(players[0].ID, EventGameAbort))
}

func TestAdmission(t *testing.T) {
	r := NewRoom("Room_2", 2, 0)
	assert.Equal(t, DefaultHandSize, r.HandSize)

	a, b, c := models.NewPlayer(""), models.NewPlayer(""), models.NewPlayer("")
	require.NoError(t, r.AddPlayerUnsafe(a))
	require.NoError(t, r.AddPlayerUnsafe(a), "re-adding is a no-op")
	require.NoError(t, r.AddPlayerUnsafe(b))
	assert.ErrorIs(t, r.AddPlayerUnsafe(c), ErrRoomFull)
	assert.Equal(t, 2, r.SeatedUnsafe())

	r.State = StateInPlay
	require.True(t, r.RemovePlayerUnsafe(b.ID))
	assert.ErrorIs(t, r.AddPlayerUnsafe(c), ErrRoomInPlay)
	assert.False(t, r.RemovePlayerUnsafe(c.ID))

	snap := r.Snapshot()
	assert.Equal(t, RoomSnapshot{Name: "Room_2", State: "in_play", Seated: 1, Capacity: 2}, snap)
}

func TestFullRoomStartsOnShuffledDeck(t *testing.T) {
	for i := 0; i < 20; i++ {
		r, players, _ := setupRoom(t, 10, DefaultHandSize)
		r.StartGameUnsafe()
		require.Equal(t, StateInPlay, r.State, "hand %d", i)
		dealt := 0
		for _, p := range players {
			assert.GreaterOrEqual(t, len(p.Hand), DefaultHandSize)
			dealt += len(p.Hand)
		}
		assert.Equal(t, 108, dealt+r.Deck.Len()+1)
	}
}

func TestSeatChangesOutsideHandAreNotLogged(t *testing.T) {
	r, players, _ := setupRoom(t, 3, 2)
	require.True(t, r.RemovePlayerUnsafe(players[2].ID))
	assert.Zero(t, r.actionIndex, "an open room has no hand to log under")

	r.NewDeck = riggedDeck([]int{9, 3}, 0, [][]int{{30, 31}, {32, 33}}, 1)
	r.StartGameUnsafe()
	require.Equal(t, StateInPlay, r.State)
	started := r.actionIndex
	assert.Positive(t, started)

	require.True(t, r.RemovePlayerUnsafe(players[1].ID))
	assert.Equal(t, started+1, r.actionIndex, "a leave mid-hand belongs to the hand")
	r.AbortUnsafe("a player left the room")
	assert.Equal(t, started+2, r.actionIndex, "hand_aborted")
	require.NoError(t, r.AddPlayerUnsafe(players[1]))
	assert.Equal(t, started+2, r.actionIndex)
}

// internal/game/room.go
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/metrics"
	"github.com/jason-s-yu/uno/internal/models"
	log "github.com/sirupsen/logrus"
)

// RoomState is the lifecycle stage of a room.
type RoomState int

const (
	StateOpen      RoomState = iota // accepting joins, no timer
	StateCountdown                  // two or more seated, timer running, still accepting joins
	StateInPlay                     // hand dealt, no admissions
)

func (s RoomState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateCountdown:
		return "countdown"
	case StateInPlay:
		return "in_play"
	}
	return fmt.Sprintf("RoomState(%d)", int(s))
}

var (
	ErrNotInPlay      = errors.New("room is not in play")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrCardNotInHand  = errors.New("card not in hand")
	ErrIllegalCard    = errors.New("card does not match the board card")
	ErrUnknownPlayer  = errors.New("player is not seated in this room")
	ErrUnknownAction  = errors.New("unknown action type")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomInPlay     = errors.New("room already started")
	ErrInvariantState = errors.New("room state invariant violated")
)

// Action types accepted by HandlePlayerAction.
const (
	ActionPlayCard = "playCard"
	ActionDrawCard = "drawCard"
)

// Room is one table of the fixed room pool. Every field is guarded by Mu;
// methods with the Unsafe suffix assume the caller holds it.
type Room struct {
	Name     string
	Capacity int
	HandSize int

	State   RoomState
	Players []*models.Player

	// Hand state, valid while State == StateInPlay.
	HandID      uuid.UUID
	Deck        *Deck
	CardOnBoard int
	Turn        int
	Reverse     int
	People      int
	Dealer      int

	// SendFn delivers an event to one player. It must not block.
	SendFn func(playerID uuid.UUID, ev GameEvent)

	// NewDeck supplies the deck for each hand. Defaults to NewShuffledDeck.
	NewDeck func() *Deck

	// OnHandEnd runs after a hand finishes or aborts and the room is back to
	// StateOpen. It is called with Mu held.
	OnHandEnd func(r *Room)

	actionIndex int

	Mu sync.Mutex
}

// NewRoom builds an empty open room.
func NewRoom(name string, capacity, handSize int) *Room {
	if handSize <= 0 {
		handSize = DefaultHandSize
	}
	return &Room{
		Name:     name,
		Capacity: capacity,
		HandSize: handSize,
		State:    StateOpen,
		Players:  []*models.Player{},
		NewDeck:  NewShuffledDeck,
	}
}

// RoomSnapshot is a read-only view of a room for listings.
type RoomSnapshot struct {
	Name     string `json:"name"`
	State    string `json:"state"`
	Seated   int    `json:"seated"`
	Capacity int    `json:"capacity"`
}

// Snapshot returns the room's listing view.
func (r *Room) Snapshot() RoomSnapshot {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return RoomSnapshot{Name: r.Name, State: r.State.String(), Seated: len(r.Players), Capacity: r.Capacity}
}

// SeatedUnsafe is the number of seated players.
func (r *Room) SeatedUnsafe() int {
	return len(r.Players)
}

// AddPlayerUnsafe seats p at the end of the seat list.
func (r *Room) AddPlayerUnsafe(p *models.Player) error {
	if r.State == StateInPlay {
		return ErrRoomInPlay
	}
	if len(r.Players) >= r.Capacity {
		return ErrRoomFull
	}
	if r.playerIndexUnsafe(p.ID) != -1 {
		return nil
	}
	p.Hand = []int{}
	r.Players = append(r.Players, p)
	r.logAction(p.ID, "player_join", map[string]interface{}{"seated": len(r.Players)})
	return nil
}

// RemovePlayerUnsafe frees the player's seat, shifting later seats down by one.
// A hand in play can not continue afterwards; the caller must AbortUnsafe it.
func (r *Room) RemovePlayerUnsafe(playerID uuid.UUID) bool {
	idx := r.playerIndexUnsafe(playerID)
	if idx == -1 {
		return false
	}
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	r.logAction(playerID, "player_leave", map[string]interface{}{"seated": len(r.Players)})
	return true
}

// HasPlayerUnsafe reports whether playerID is seated here.
func (r *Room) HasPlayerUnsafe(playerID uuid.UUID) bool {
	return r.playerIndexUnsafe(playerID) != -1
}

// PlayerIDsUnsafe lists seated players in seat order.
func (r *Room) PlayerIDsUnsafe() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ID
	}
	return ids
}

// BroadcastUnsafe sends ev to every seated player.
func (r *Room) BroadcastUnsafe(ev GameEvent) {
	for _, p := range r.Players {
		r.SendToPlayerUnsafe(p.ID, ev)
	}
}

// SendToPlayerUnsafe sends ev to a single player.
func (r *Room) SendToPlayerUnsafe(playerID uuid.UUID, ev GameEvent) {
	if r.SendFn == nil {
		log.WithField("room", r.Name).Warnf("SendFn is nil, dropping %s", ev.Type)
		return
	}
	r.SendFn(playerID, ev)
}

// StartGameUnsafe deals a new hand: dealer selection, 7-card deal, start
// card and its effect. With fewer than two seats it only returns the room to open.
func (r *Room) StartGameUnsafe() {
	defer func() {
		if rec := recover(); rec != nil {
			r.handlePanicUnsafe(rec)
		}
	}()

	if r.State == StateInPlay {
		log.WithField("room", r.Name).Warn("StartGame called while a hand is in play")
		return
	}
	people := len(r.Players)
	if people < 2 {
		log.WithField("room", r.Name).Infof("StartGame with %d player(s), staying open", people)
		r.State = StateOpen
		return
	}

	r.HandID = uuid.New()
	r.State = StateInPlay
	r.People = people
	r.Reverse = 0
	r.actionIndex = 0
	r.Deck = r.NewDeck()
	for _, p := range r.Players {
		p.Hand = []int{}
	}
	metrics.RoomsInPlay.Inc()
	metrics.Hands.WithLabelValues("started").Inc()

	dealer, rounds, err := selectDealer(r.Deck, people, Shuffle)
	if err != nil {
		r.AbortUnsafe(fmt.Sprintf("dealer selection failed: %v", err))
		return
	}
	r.Dealer = dealer
	r.logAction(r.Players[dealer].ID, "dealer_selected", map[string]interface{}{"rounds": rounds})

	// Dealt cards leave the deck for good; only drawCard recycles.
	for round := 0; round < r.HandSize; round++ {
		for k := 1; k <= people; k++ {
			seat := (dealer + k) % people
			c, err := r.Deck.Draw()
			if err != nil {
				r.AbortUnsafe(fmt.Sprintf("dealing hands: %v", err))
				return
			}
			r.Players[seat].Hand = append(r.Players[seat].Hand, c)
		}
	}

	board, err := flipStartCard(r.Deck)
	if err != nil {
		r.AbortUnsafe(fmt.Sprintf("flipping start card: %v", err))
		return
	}
	r.CardOnBoard = board

	first := NextTurn(dealer, people, 0, 0)
	switch models.MustClassify(board).Type {
	case models.TypeDrawTwo:
		cards, err := r.Deck.Deal(2)
		if err != nil {
			r.AbortUnsafe(fmt.Sprintf("start card draw two: %v", err))
			return
		}
		r.Players[first].Hand = append(r.Players[first].Hand, cards...)
		r.Turn = NextTurn(dealer, people, 0, 1)
	case models.TypeReverse:
		r.Reverse = 1
		r.Turn = NextTurn(dealer, people, 1, 0)
	case models.TypeSkip:
		r.Turn = NextTurn(dealer, people, 0, 1)
	default:
		r.Turn = first
	}

	log.WithFields(log.Fields{
		"room":   r.Name,
		"hand":   r.HandID,
		"people": people,
		"dealer": dealer,
		"board":  board,
		"turn":   r.Turn,
	}).Info("Hand started")
	r.persistInitialHandState()

	for _, p := range r.Players {
		r.SendToPlayerUnsafe(p.ID, haveCardEvent(p.HandCopy()))
	}
	r.BroadcastUnsafe(turnPlayerEvent(r.Players[r.Turn].ID))
	r.BroadcastUnsafe(sendCardEvent(board))
}

// HandlePlayerAction routes a client command to the turn state machine.
func (r *Room) HandlePlayerAction(playerID uuid.UUID, action models.GameAction) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	switch action.ActionType {
	case ActionPlayCard:
		return r.handlePlayUnsafe(playerID, action.Card)
	case ActionDrawCard:
		return r.handleDrawUnsafe(playerID)
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, action.ActionType)
}

// HandleDraw gives the current player one card and passes the turn.
func (r *Room) HandleDraw(playerID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.handleDrawUnsafe(playerID)
}

// HandlePlay plays cardID from the current player's hand.
func (r *Room) HandlePlay(playerID uuid.UUID, cardID int) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.handlePlayUnsafe(playerID, cardID)
}

func (r *Room) handleDrawUnsafe(playerID uuid.UUID) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.handlePanicUnsafe(rec)
			err = ErrInvariantState
		}
	}()

	player, err := r.currentPlayerUnsafe(playerID)
	if err != nil {
		return err
	}

	c, err := r.Deck.Draw()
	if err != nil {
		r.AbortUnsafe(fmt.Sprintf("drawing: %v", err))
		return err
	}
	player.Hand = append(player.Hand, c)
	// The deck is endless for draws: the card goes straight back to the tail.
	r.Deck.Recycle(c)
	r.logAction(playerID, "draw_card", map[string]interface{}{"card": c})

	r.SendToPlayerUnsafe(playerID, haveCardEvent(player.HandCopy()))
	r.advanceTurnUnsafe(0)
	return nil
}

func (r *Room) handlePlayUnsafe(playerID uuid.UUID, cardID int) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.handlePanicUnsafe(rec)
			err = ErrInvariantState
		}
	}()

	player, err := r.currentPlayerUnsafe(playerID)
	if err != nil {
		return err
	}
	if !player.HasCard(cardID) {
		return fmt.Errorf("%w: %d", ErrCardNotInHand, cardID)
	}
	card, err := models.Classify(cardID)
	if err != nil {
		return err
	}
	if !IsPlayable(card, models.MustClassify(r.CardOnBoard)) {
		return fmt.Errorf("%w: %d on %d", ErrIllegalCard, cardID, r.CardOnBoard)
	}

	r.CardOnBoard = cardID
	player.RemoveCard(cardID)
	r.logAction(playerID, "play_card", map[string]interface{}{"card": cardID})

	r.BroadcastUnsafe(sendCardEvent(cardID))
	r.SendToPlayerUnsafe(playerID, haveCardEvent(player.HandCopy()))

	if len(player.Hand) == 0 {
		r.finishHandUnsafe(player)
		return nil
	}

	// Draw-Two and Wild-Draw-Four only skip; the next player is not made to draw.
	if card.Type == models.TypeReverse {
		r.Reverse ^= 1
	}
	r.advanceTurnUnsafe(card.SkipCount())
	return nil
}

// currentPlayerUnsafe validates that the room is in play and that playerID
// owns the current turn.
func (r *Room) currentPlayerUnsafe(playerID uuid.UUID) (*models.Player, error) {
	if r.State != StateInPlay {
		return nil, ErrNotInPlay
	}
	if r.Turn < 0 || r.Turn >= len(r.Players) || r.People != len(r.Players) {
		panic(fmt.Errorf("%w: turn %d, people %d, seated %d", ErrInvariantState, r.Turn, r.People, len(r.Players)))
	}
	if r.playerIndexUnsafe(playerID) == -1 {
		return nil, ErrUnknownPlayer
	}
	current := r.Players[r.Turn]
	if current.ID != playerID {
		return nil, ErrNotYourTurn
	}
	return current, nil
}

func (r *Room) advanceTurnUnsafe(skip int) {
	r.Turn = NextTurn(r.Turn, r.People, r.Reverse, skip)
	r.BroadcastUnsafe(turnPlayerEvent(r.Players[r.Turn].ID))
}

// finishHandUnsafe ends the hand in favor of winner.
func (r *Room) finishHandUnsafe(winner *models.Player) {
	log.WithFields(log.Fields{"room": r.Name, "hand": r.HandID, "winner": winner.ID}).Info("Hand won")
	r.logAction(winner.ID, "hand_won", nil)
	metrics.Hands.WithLabelValues("won").Inc()
	r.persistHandResult(winner.ID, database.HandWon)

	r.BroadcastUnsafe(GameEvent{
		Type:   EventGameOver,
		Room:   r.Name,
		Player: &EventUser{ID: winner.ID, Name: winner.Name},
	})
	r.resetUnsafe()
}

// AbortUnsafe drops the hand in play, tells the seated players why and
// returns the room to open. It is a no-op outside StateInPlay.
func (r *Room) AbortUnsafe(reason string) {
	if r.State != StateInPlay {
		return
	}
	log.WithFields(log.Fields{"room": r.Name, "hand": r.HandID}).Warnf("Aborting hand: %s", reason)
	r.logAction(uuid.Nil, "hand_aborted", map[string]interface{}{"reason": reason})
	metrics.Hands.WithLabelValues("aborted").Inc()
	r.persistHandResult(uuid.Nil, database.HandAborted)

	r.BroadcastUnsafe(GameEvent{Type: EventGameAbort, Room: r.Name, Message: reason})
	r.resetUnsafe()
}

// resetUnsafe clears hand state, keeps the seats and hands control back to the registry.
func (r *Room) resetUnsafe() {
	if r.State == StateInPlay {
		metrics.RoomsInPlay.Dec()
	}
	r.State = StateOpen
	r.Deck = nil
	r.Turn = 0
	r.Reverse = 0
	r.People = 0
	r.Dealer = 0
	for _, p := range r.Players {
		p.Hand = []int{}
	}
	if r.OnHandEnd != nil {
		r.OnHandEnd(r)
	}
}

// handlePanicUnsafe turns a recovered panic into a room abort.
func (r *Room) handlePanicUnsafe(rec interface{}) {
	log.WithField("room", r.Name).Errorf("Recovered from panic: %v", rec)
	if r.State == StateInPlay {
		r.AbortUnsafe(fmt.Sprintf("internal error: %v", rec))
		return
	}
	r.State = StateOpen
}

func (r *Room) playerIndexUnsafe(playerID uuid.UUID) int {
	for i, p := range r.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// persistInitialHandState stores deck order and dealt hands for replay.
func (r *Room) persistInitialHandState() {
	if database.DB == nil {
		return
	}
	hands := make(map[string][]int, len(r.Players))
	for _, p := range r.Players {
		hands[p.ID.String()] = p.HandCopy()
	}
	snap := map[string]interface{}{
		"deck":    r.Deck.Cards(),
		"hands":   hands,
		"dealer":  r.Dealer,
		"board":   r.CardOnBoard,
		"turn":    r.Turn,
		"reverse": r.Reverse,
	}
	go database.UpsertInitialHandState(r.HandID, r.Name, snap)
}

func (r *Room) persistHandResult(winner uuid.UUID, outcome string) {
	if database.DB == nil {
		return
	}
	handID, room := r.HandID, r.Name
	players := r.PlayerIDsUnsafe()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.RecordHandResult(ctx, handID, room, outcome, winner, players); err != nil {
			log.WithField("room", room).Errorf("Recording hand result: %v", err)
		}
	}()
}

// logAction pushes the action to the historian queue in Redis.
// Only actions of a hand in play are logged; seat changes of an open room
// have no hand to belong to.
func (r *Room) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	if r.State != StateInPlay {
		return
	}
	r.actionIndex++
	if cache.Rdb == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.RoomActionRecord{
		HandID:        r.HandID,
		Room:          r.Name,
		ActionIndex:   r.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec cache.RoomActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishRoomAction(ctx, rec); err != nil {
			log.WithField("room", rec.Room).Warnf("Publishing action %d: %v", rec.ActionIndex, err)
		}
	}(record)
}

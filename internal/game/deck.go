// internal/game/deck.go
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/jason-s-yu/uno/internal/models"
)

// ErrEmptyDeck is returned when more cards are requested than the deck holds.
var ErrEmptyDeck = errors.New("deck exhausted")

// canonicalDeck is the read-only template every room copies from.
var canonicalDeck = BuildDeck()

// BuildDeck returns the 108 playable card ids in ascending order.
func BuildDeck() []int {
	ids := make([]int, 0, models.MaxCardID-4)
	for id := 0; id < models.MaxCardID; id++ {
		if models.IsExcluded(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Shuffle permutes ids in place (Fisher-Yates) using the process-wide random source.
func Shuffle(ids []int) {
	for i := len(ids) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// Deck is an ordered pile of card ids. The front is the next card dealt.
// It is owned by a single room and must only be touched under that room's lock.
type Deck struct {
	cards []int
}

// NewDeck copies ids into a new deck, preserving order.
func NewDeck(ids []int) *Deck {
	cards := make([]int, len(ids))
	copy(cards, ids)
	return &Deck{cards: cards}
}

// NewShuffledDeck returns a private shuffled copy of the canonical deck.
func NewShuffledDeck() *Deck {
	d := NewDeck(canonicalDeck)
	Shuffle(d.cards)
	return d
}

// Len is the number of cards left in the deck.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Deal removes and returns the first n cards.
func (d *Deck) Deal(n int) ([]int, error) {
	if n > len(d.cards) {
		return nil, fmt.Errorf("%w: wanted %d, %d left", ErrEmptyDeck, n, len(d.cards))
	}
	out := make([]int, n)
	copy(out, d.cards[:n])
	d.cards = d.cards[n:]
	return out, nil
}

// Draw removes and returns the front card.
func (d *Deck) Draw() (int, error) {
	cards, err := d.Deal(1)
	if err != nil {
		return 0, err
	}
	return cards[0], nil
}

// Recycle pushes cards back onto the tail of the deck.
func (d *Deck) Recycle(ids ...int) {
	d.cards = append(d.cards, ids...)
}

// Cards returns a copy of the deck in order.
func (d *Deck) Cards() []int {
	out := make([]int, len(d.cards))
	copy(out, d.cards)
	return out
}

// internal/game/rules.go
package game

import (
	"errors"

	"github.com/jason-s-yu/uno/internal/models"
)

const (
	// DefaultHandSize is how many cards each player is dealt.
	DefaultHandSize = 7

	// maxDealerRounds bounds the tie-break loop of dealer selection. A full
	// room of 10 finds distinct scores in roughly one round out of 350.
	maxDealerRounds = 20000
)

var errDealerSelection = errors.New("dealer selection did not converge")

// NextTurn returns the seat that plays after current, moving 1+skip seats
// forward (reverse == 0) or backward (reverse == 1). The result is always in [0, people).
func NextTurn(current, people, reverse, skip int) int {
	dir := 1
	if reverse != 0 {
		dir = -1
	}
	return ((current+dir*(1+skip))%people + people) % people
}

// IsPlayable reports whether card may be played on top of board.
// Black cards are always playable, and a black board card accepts anything
// since no color is ever declared for it.
func IsPlayable(card, board models.CardInfo) bool {
	if card.Color == models.Black || board.Color == models.Black {
		return true
	}
	return card.Color == board.Color || card.Rank == board.Rank
}

// selectDealer has every seat peek one card (returned to the deck tail) and
// repeats whole rounds until no two scores tie. The highest score deals.
// The deck is passed through reshuffle before every repeated round.
func selectDealer(deck *Deck, people int, reshuffle func([]int)) (dealer, rounds int, err error) {
	for rounds < maxDealerRounds {
		if rounds > 0 && reshuffle != nil {
			reshuffle(deck.cards)
		}
		rounds++
		seen := make(map[int]bool, people)
		tie := false
		best, bestScore := 0, -1
		for seat := 0; seat < people; seat++ {
			c, err := deck.Draw()
			if err != nil {
				return 0, rounds, err
			}
			deck.Recycle(c)
			score := models.MustClassify(c).Score
			if seen[score] {
				tie = true
			}
			seen[score] = true
			if score > bestScore {
				best, bestScore = seat, score
			}
		}
		if !tie {
			return best, rounds, nil
		}
	}
	return 0, rounds, errDealerSelection
}

// flipStartCard draws until a non-black card comes up, sending black cards
// to the tail. It gives up once every remaining card has been looked at.
func flipStartCard(deck *Deck) (int, error) {
	for attempts := deck.Len(); attempts > 0; attempts-- {
		c, err := deck.Draw()
		if err != nil {
			return 0, err
		}
		if models.MustClassify(c).Color != models.Black {
			return c, nil
		}
		deck.Recycle(c)
	}
	return 0, ErrEmptyDeck
}

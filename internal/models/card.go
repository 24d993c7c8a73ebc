// internal/models/card.go
package models

import (
	"errors"
	"fmt"
)

const (
	RanksPerSuit = 14
	SuitCount    = 8

	// MaxCardID is one past the largest raw card id.
	MaxCardID = RanksPerSuit * SuitCount
)

// Card ranks with special meaning. Ranks 0-9 are numbered cards.
const (
	RankSkip    = 10
	RankReverse = 11
	RankDrawTwo = 12
	RankWild    = 13
)

// ErrInvalidCard is returned for ids outside the id space or excluded from the deck.
var ErrInvalidCard = errors.New("invalid card id")

// CardColor is the color of a card. Wild cards are Black.
type CardColor string

const (
	Red    CardColor = "red"
	Yellow CardColor = "yellow"
	Green  CardColor = "green"
	Blue   CardColor = "blue"
	Black  CardColor = "black"
)

var suitColors = [4]CardColor{Red, Yellow, Green, Blue}

// CardType identifies what a card does when played.
type CardType string

const (
	TypeNumber       CardType = "number"
	TypeSkip         CardType = "skip"
	TypeReverse      CardType = "reverse"
	TypeDrawTwo      CardType = "draw_two"
	TypeWild         CardType = "wild"
	TypeWildDrawFour CardType = "wild_draw_four"
)

// CardInfo is the decoded identity of a raw card id.
type CardInfo struct {
	ID    int       `json:"id"`
	Rank  int       `json:"rank"`
	Suit  int       `json:"suit"`
	Color CardColor `json:"color"`
	Type  CardType  `json:"type"`
	Score int       `json:"score"`
}

// IsExcluded reports whether id is one of the rank-0 cards of suits 4..7,
// which are not part of the physical deck.
func IsExcluded(id int) bool {
	return id%RanksPerSuit == 0 && id/RanksPerSuit >= 4
}

// Classify decodes a raw card id.
func Classify(id int) (CardInfo, error) {
	if id < 0 || id >= MaxCardID || IsExcluded(id) {
		return CardInfo{}, fmt.Errorf("%w: %d", ErrInvalidCard, id)
	}
	rank := id % RanksPerSuit
	suit := id / RanksPerSuit
	info := CardInfo{ID: id, Rank: rank, Suit: suit}

	switch {
	case rank <= 9:
		info.Type = TypeNumber
		info.Score = rank
	case rank == RankSkip:
		info.Type = TypeSkip
		info.Score = 20
	case rank == RankReverse:
		info.Type = TypeReverse
		info.Score = 20
	case rank == RankDrawTwo:
		info.Type = TypeDrawTwo
		info.Score = 20
	case suit < 4:
		info.Type = TypeWild
		info.Score = 50
	default:
		info.Type = TypeWildDrawFour
		info.Score = 50
	}

	if rank == RankWild {
		info.Color = Black
	} else {
		info.Color = suitColors[suit%4]
	}
	return info, nil
}

// MustClassify is Classify for ids that come from the canonical deck.
// An invalid id here is a programming error.
func MustClassify(id int) CardInfo {
	info, err := Classify(id)
	if err != nil {
		panic(err)
	}
	return info
}

// SkipCount is the number of extra seats skipped after this card is played.
func (c CardInfo) SkipCount() int {
	switch c.Type {
	case TypeSkip, TypeDrawTwo, TypeWildDrawFour:
		return 1
	}
	return 0
}

package models

import "github.com/google/uuid"

// Player is a seat in a room: one connection with a display name and a hand.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Hand []int     `json:"hand"`
}

// NewPlayer builds a player with a random id and an empty hand.
func NewPlayer(name string) *Player {
	id, _ := uuid.NewRandom()
	return &Player{ID: id, Name: name, Hand: []int{}}
}

// HasCard reports whether the hand holds the given card id.
func (p *Player) HasCard(id int) bool {
	return p.cardIndex(id) != -1
}

// RemoveCard removes one copy of id from the hand, preserving order.
func (p *Player) RemoveCard(id int) bool {
	idx := p.cardIndex(id)
	if idx == -1 {
		return false
	}
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	return true
}

// HandCopy returns a copy of the hand safe to hand out of the room lock.
func (p *Player) HandCopy() []int {
	out := make([]int, len(p.Hand))
	copy(out, p.Hand)
	return out
}

func (p *Player) cardIndex(id int) int {
	for i, c := range p.Hand {
		if c == id {
			return i
		}
	}
	return -1
}

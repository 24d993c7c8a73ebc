package game

import (
	"testing"

	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextTurn(t *testing.T) {
	assert.Equal(t, 1, NextTurn(0, 3, 0, 0))
	assert.Equal(t, 2, NextTurn(0, 3, 0, 1))
	assert.Equal(t, 2, NextTurn(0, 3, 1, 0))
	assert.Equal(t, 1, NextTurn(0, 3, 1, 1))
	assert.Equal(t, 0, NextTurn(2, 3, 0, 0))
	assert.Equal(t, 0, NextTurn(0, 2, 0, 1), "skip in a two seat room comes back around")
}

func TestNextTurnAlwaysInRange(t *testing.T) {
	for people := 1; people <= 10; people++ {
		for cur := 0; cur < people; cur++ {
			for rev := 0; rev <= 1; rev++ {
				for skip := 0; skip <= 1; skip++ {
					n := NextTurn(cur, people, rev, skip)
					assert.GreaterOrEqual(t, n, 0)
					assert.Less(t, n, people)
				}
			}
		}
	}
}

func TestIsPlayable(t *testing.T) {
	c := models.MustClassify
	assert.True(t, IsPlayable(c(3), c(7)), "same color")
	assert.True(t, IsPlayable(c(17), c(3)), "same rank, yellow 3 on red 3")
	assert.False(t, IsPlayable(c(19), c(1)), "yellow 5 on red 1")
	assert.True(t, IsPlayable(c(13), c(1)), "wild on anything")
	assert.True(t, IsPlayable(c(69), c(30)), "wild draw four on anything")
	assert.True(t, IsPlayable(c(19), c(13)), "anything on a black board")
	assert.True(t, IsPlayable(c(24), c(10)), "yellow skip on red skip")
}

func TestSelectDealerBreaksTies(t *testing.T) {
	// Scores 5 and 5 tie, the reshuffle brings 3 and 7 up front and seat 1 deals.
	d := NewDeck([]int{5, 19, 20, 21, 3, 7, 22})
	shuffles := 0
	bringToFront := func(ids []int) {
		shuffles++
		front := []int{3, 7}
		rest := []int{}
		for _, id := range ids {
			if id != 3 && id != 7 {
				rest = append(rest, id)
			}
		}
		copy(ids, append(front, rest...))
	}

	dealer, rounds, err := selectDealer(d, 2, bringToFront)
	require.NoError(t, err)
	assert.Equal(t, 1, dealer)
	assert.Equal(t, 2, rounds)
	assert.Equal(t, 1, shuffles, "only the repeated round reshuffles")
	assert.Equal(t, 7, d.Len(), "peeked cards go back to the deck")
	cards := d.Cards()
	assert.Equal(t, []int{3, 7}, cards[len(cards)-2:])
}

func TestSelectDealerGivesUpOnEndlessTies(t *testing.T) {
	// Red 1 and yellow 1 tie no matter the order.
	d := NewDeck([]int{1, 15})
	_, rounds, err := selectDealer(d, 2, Shuffle)
	assert.ErrorIs(t, err, errDealerSelection)
	assert.Equal(t, maxDealerRounds, rounds)
}

func TestSelectDealerConvergesForFullRoom(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := NewShuffledDeck()
		dealer, _, err := selectDealer(d, 10, Shuffle)
		require.NoError(t, err)
		assert.True(t, dealer >= 0 && dealer < 10)
		assert.Equal(t, 108, d.Len())
	}
}

func TestFlipStartCardRecyclesBlack(t *testing.T) {
	d := NewDeck([]int{13, 69, 5, 6})
	c, err := flipStartCard(d)
	require.NoError(t, err)
	assert.Equal(t, 5, c)
	assert.Equal(t, []int{6, 13, 69}, d.Cards())
}

func TestFlipStartCardAllBlack(t *testing.T) {
	d := NewDeck([]int{13, 27})
	_, err := flipStartCard(d)
	assert.ErrorIs(t, err, ErrEmptyDeck)
}

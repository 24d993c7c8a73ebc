// internal/lobby/countdown.go

package lobby

import (
	"time"

	"github.com/jason-s-yu/uno/internal/game"
	log "github.com/sirupsen/logrus"
)

// roomSlot pairs a room with its pre-game countdown. The countdown fields are
// guarded by room.Mu.
type roomSlot struct {
	room    *game.Room
	seconds int
	tick    time.Duration

	remaining int
	gen       uint64
	timer     *time.Timer
}

// afterSeatChangeUnsafe restarts the countdown when at least two players are
// seated and otherwise returns the room to open. Assumes room.Mu is held.
func (s *roomSlot) afterSeatChangeUnsafe() {
	if s.room.State == game.StateInPlay {
		return
	}
	if s.room.SeatedUnsafe() >= 2 {
		s.startCountdownUnsafe()
		return
	}
	s.cancelCountdownUnsafe()
	s.room.State = game.StateOpen
}

// startCountdownUnsafe cancels any running countdown and starts a fresh one.
// Assumes room.Mu is held.
func (s *roomSlot) startCountdownUnsafe() {
	s.cancelCountdownUnsafe()
	s.room.State = game.StateCountdown
	s.remaining = s.seconds
	log.WithFields(log.Fields{"room": s.room.Name, "seconds": s.remaining}).Info("Starting countdown")
	s.room.BroadcastUnsafe(game.CountDownEvent(s.remaining))
	s.scheduleTickUnsafe()
}

func (s *roomSlot) scheduleTickUnsafe() {
	gen := s.gen
	s.timer = time.AfterFunc(s.tick, func() { s.onTick(gen) })
}

// onTick runs on the timer goroutine.
func (s *roomSlot) onTick(gen uint64) {
	s.room.Mu.Lock()
	defer s.room.Mu.Unlock()

	if gen != s.gen || s.room.State != game.StateCountdown {
		log.WithField("room", s.room.Name).Debug("Stale countdown tick ignored")
		return
	}

	s.remaining--
	if s.remaining <= 0 {
		s.cancelCountdownUnsafe()
		log.WithField("room", s.room.Name).Info("Countdown finished, starting hand")
		s.room.StartGameUnsafe()
		return
	}
	s.room.BroadcastUnsafe(game.CountDownEvent(s.remaining))
	s.scheduleTickUnsafe()
}

// cancelCountdownUnsafe stops the timer. Calling it with no countdown running
// is a no-op. Assumes room.Mu is held.
func (s *roomSlot) cancelCountdownUnsafe() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	// A tick that already fired is waiting on the lock; bumping gen makes it stale.
	s.gen++
	s.remaining = 0
	if s.room.State == game.StateCountdown {
		s.room.State = game.StateOpen
	}
}

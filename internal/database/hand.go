// internal/database/hand.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// Hand statuses.
const (
	HandInProgress = "in_progress"
	HandWon        = "won"
	HandAborted    = "aborted"
	HandAbandoned  = "abandoned"
)

// UpsertInitialHandState stores the deck order and dealt hands of a new hand.
// It is meant to run in its own goroutine and only logs failures.
func UpsertInitialHandState(handID uuid.UUID, room string, initialData interface{}) {
	if DB == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dataBytes, err := json.Marshal(initialData)
	if err != nil {
		log.Errorf("failed to marshal initial hand state for hand %v: %v", handID, err)
		return
	}
	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO hands (id, room, status, initial_hand_state, start_time)
			VALUES ($1, $2, 'in_progress', $3, NOW())
			ON CONFLICT (id)
			DO UPDATE SET initial_hand_state = EXCLUDED.initial_hand_state, status = 'in_progress'
		`
		_, e := tx.Exec(ctx, q, handID, room, dataBytes)
		return e
	})
	if err != nil {
		log.Errorf("failed to store initial hand state for hand %v: %v", handID, err)
	}
}

// RecordHandResult closes a hand with the given status and stores the seat list.
// winner is uuid.Nil for hands that did not end in a win.
func RecordHandResult(ctx context.Context, handID uuid.UUID, room, status string, winner uuid.UUID, players []uuid.UUID) error {
	if DB == nil {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var winnerArg interface{}
		if winner != uuid.Nil {
			winnerArg = winner
		}
		upsertHand := `
			INSERT INTO hands (id, room, status, winner_id, end_time)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (id)
			DO UPDATE SET status = $3, winner_id = $4, end_time = NOW()
		`
		if _, e := tx.Exec(ctx, upsertHand, handID, room, status, winnerArg); e != nil {
			return e
		}

		q := `
			INSERT INTO hand_players (hand_id, player_id, seat, did_win)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (hand_id, player_id)
			DO UPDATE SET seat = $3, did_win = $4
		`
		for seat, id := range players {
			if _, e := tx.Exec(ctx, q, handID, id, seat, id == winner); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert hand or players: %w", err)
	}
	return nil
}

// MarkHandAbandoned flags a hand that is still in progress as abandoned.
func MarkHandAbandoned(ctx context.Context, handID uuid.UUID) error {
	if DB == nil {
		return nil
	}
	q := `
		UPDATE hands
		SET status = 'abandoned', end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	if _, err := DB.Exec(ctx, q, handID); err != nil {
		return fmt.Errorf("mark hand %v abandoned: %w", handID, err)
	}
	return nil
}

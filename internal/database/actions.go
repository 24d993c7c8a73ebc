package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/uno/internal/cache"
)

const insertActionQ = `
	INSERT INTO hand_actions (
		hand_id, room, action_index, actor_id, action_type, action_payload, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (hand_id, room, action_index) DO NOTHING
`

// InsertRoomActions writes a batch of queued actions in one transaction.
func InsertRoomActions(ctx context.Context, records []cache.RoomActionRecord) error {
	if DB == nil {
		return fmt.Errorf("insert room actions: database not connected")
	}
	if len(records) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range records {
			payload, err := json.Marshal(rec.ActionPayload)
			if err != nil {
				return fmt.Errorf("marshal payload of action %d: %w", rec.ActionIndex, err)
			}
			batch.Queue(insertActionQ,
				rec.HandID, rec.Room, rec.ActionIndex, rec.ActorID, rec.ActionType, payload,
				time.UnixMilli(rec.Timestamp),
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup.
// A nil Rdb disables action publishing.
var Rdb *redis.Client

// DefaultQueueName is the Redis list the room action log is pushed to.
const DefaultQueueName = "uno_actions"

// QueueName is the list PublishRoomAction pushes to.
var QueueName = DefaultQueueName

// RoomActionRecord is one entry of a room's action log as consumed by the historian.
type RoomActionRecord struct {
	HandID        uuid.UUID              `json:"hand_id"`
	Room          string                 `json:"room"`
	ActionIndex   int                    `json:"action_index"`
	ActorID       uuid.UUID              `json:"actor_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// NewClient builds a client for addr/db and pings it.
func NewClient(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// ConnectRedis initializes the global client and the queue name.
func ConnectRedis(ctx context.Context, addr string, db int, queue string) error {
	rdb, err := NewClient(ctx, addr, db)
	if err != nil {
		return err
	}
	Rdb = rdb
	if queue != "" {
		QueueName = queue
	}
	return nil
}

// EncodeRoomAction serializes a record the way it is stored on the queue.
func EncodeRoomAction(record RoomActionRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal RoomActionRecord: %w", err)
	}
	return data, nil
}

// DecodeRoomAction parses one queue entry.
func DecodeRoomAction(raw string) (RoomActionRecord, error) {
	var rec RoomActionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return rec, fmt.Errorf("failed to unmarshal RoomActionRecord: %w", err)
	}
	return rec, nil
}

// PublishRoomAction pushes the record onto the Redis queue.
func PublishRoomAction(ctx context.Context, record RoomActionRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := EncodeRoomAction(record)
	if err != nil {
		return err
	}
	if err := Rdb.RPush(ctx, QueueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", QueueName, err)
	}
	return nil
}

// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mkleist/uno/internal/uno"
)

// Rdb is the global Redis client. Connect it once at application startup.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for game action logs.
var DefaultQueueName = "uno_actions"

// snapshotTTL bounds how long a crashed game stays restorable.
const snapshotTTL = 24 * time.Hour

// GameActionRecord holds the minimal info needed by the historian service.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorUserID   uuid.UUID              `json:"actor_user_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishGameAction serializes the given record to JSON, then pushes it to the Redis queue.
// This does not block the calling logic (other than a quick network send).
func PublishGameAction(ctx context.Context, record GameActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal GameActionRecord: %w", err)
	}

	queueName := getEnv("HISTORIAN_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// StoreGameSnapshot caches the engine memento so a live game can be restored
// without a database round trip.
func StoreGameSnapshot(ctx context.Context, gameID uuid.UUID, memento uno.GameMemento) error {
	data, err := json.Marshal(memento)
	if err != nil {
		return fmt.Errorf("failed to marshal game memento: %w", err)
	}
	key := snapshotKey(gameID)
	if err := Rdb.Set(ctx, key, data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("failed to SET snapshot '%s': %w", key, err)
	}
	return nil
}

// LoadGameSnapshot fetches a cached memento. Returns redis.Nil wrapped when
// no snapshot exists.
func LoadGameSnapshot(ctx context.Context, gameID uuid.UUID) (uno.GameMemento, error) {
	var memento uno.GameMemento
	key := snapshotKey(gameID)
	data, err := Rdb.Get(ctx, key).Bytes()
	if err != nil {
		return memento, fmt.Errorf("failed to GET snapshot '%s': %w", key, err)
	}
	if err := json.Unmarshal(data, &memento); err != nil {
		return memento, fmt.Errorf("failed to unmarshal snapshot '%s': %w", key, err)
	}
	return memento, nil
}

// DeleteGameSnapshot drops the cached memento once a game finishes.
func DeleteGameSnapshot(ctx context.Context, gameID uuid.UUID) error {
	return Rdb.Del(ctx, snapshotKey(gameID)).Err()
}

func snapshotKey(gameID uuid.UUID) string {
	return "uno:game:" + gameID.String() + ":snapshot"
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// internal/feed/redis.go
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/fourcard/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list that receives dealt rounds.
const DefaultQueueName = "fourcard_rounds"

// Publisher receives every dealt round.
type Publisher interface {
	Publish(ctx context.Context, round models.Round) error
}

// RoundRecord is the minimal info pushed to the feed for downstream consumers.
type RoundRecord struct {
	RoundID   uuid.UUID `json:"round_id"`
	TableID   uuid.UUID `json:"table_id"`
	Seq       int       `json:"seq"`
	Theme     string    `json:"theme"`
	Codes     []string  `json:"codes"`
	Timestamp int64     `json:"timestamp"`
}

// NewRoundRecord flattens a round into its feed record.
func NewRoundRecord(r models.Round) RoundRecord {
	codes := make([]string, len(r.Cards))
	for i, c := range r.Cards {
		codes[i] = c.Code()
	}
	return RoundRecord{
		RoundID:   r.ID,
		TableID:   r.TableID,
		Seq:       r.Seq,
		Theme:     r.Theme,
		Codes:     codes,
		Timestamp: r.DealtAt.UnixMilli(),
	}
}

// RedisPublisher pushes round records onto a Redis list.
type RedisPublisher struct {
	Rdb   *redis.Client
	Queue string
}

// ConnectRedis creates a client for addr/db and pings it before returning.
func ConnectRedis(addr string, db int, queue string) (*RedisPublisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	if queue == "" {
		queue = DefaultQueueName
	}
	return &RedisPublisher{Rdb: rdb, Queue: queue}, nil
}

// Publish serializes the round to JSON and RPUSHes it to the queue.
func (p *RedisPublisher) Publish(ctx context.Context, round models.Round) error {
	data, err := json.Marshal(NewRoundRecord(round))
	if err != nil {
		return fmt.Errorf("failed to marshal RoundRecord: %w", err)
	}
	if err := p.Rdb.RPush(ctx, p.Queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.Queue, err)
	}
	return nil
}

// Close releases the Redis client.
func (p *RedisPublisher) Close() error {
	return p.Rdb.Close()
}

// Nop discards rounds. Used when no Redis address is configured.
type Nop struct{}

func (Nop) Publish(context.Context, models.Round) error { return nil }

// internal/results/publisher.go
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list final match results are pushed onto.
var DefaultQueueName = "cyberskills_results"

// MatchResult is the only thing that outlives a session: its final
// scores. In-progress state is deliberately ephemeral.
type MatchResult struct {
	MatchID   uuid.UUID `json:"match_id"`
	Winner    string    `json:"winner"`
	Attackers int       `json:"attackers"`
	Defenders int       `json:"defenders"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// Publisher pushes final match results onto a Redis list for whatever
// reporting consumer sits behind it.
type Publisher struct {
	rdb   *redis.Client
	queue string
}

// NewPublisher wraps an existing Redis client.
func NewPublisher(rdb *redis.Client, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{rdb: rdb, queue: queue}
}

// Connect builds a publisher from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
//   - RESULTS_QUEUE_NAME (optional)
func Connect() (*Publisher, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return NewPublisher(rdb, os.Getenv("RESULTS_QUEUE_NAME")), nil
}

// PublishMatchResult serializes the result to JSON and pushes it onto the
// queue. Quick network send, nothing more.
func (p *Publisher) PublishMatchResult(ctx context.Context, res MatchResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal MatchResult: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list %q: %w", p.queue, err)
	}
	return nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as integer, else a default value.
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

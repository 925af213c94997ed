package results

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishMatchResult(t *testing.T) {
	mini := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	p := NewPublisher(rdb, "test_results")

	res := MatchResult{
		MatchID:   uuid.New(),
		Winner:    "attackers",
		Attackers: 150,
		Defenders: 90,
		StartedAt: time.Now().Add(-10 * time.Minute),
		EndedAt:   time.Now(),
	}
	require.NoError(t, p.PublishMatchResult(context.Background(), res))

	raw, err := rdb.LPop(context.Background(), "test_results").Result()
	require.NoError(t, err)

	var got MatchResult
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, res.MatchID, got.MatchID)
	assert.Equal(t, "attackers", got.Winner)
	assert.Equal(t, 150, got.Attackers)
	assert.Equal(t, 90, got.Defenders)
}

func TestPublisherDefaultQueue(t *testing.T) {
	mini := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	p := NewPublisher(rdb, "")

	require.NoError(t, p.PublishMatchResult(context.Background(), MatchResult{MatchID: uuid.New()}))

	n, err := rdb.LLen(context.Background(), DefaultQueueName).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/coordinator"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/game"
)

func TestExtractCookieToken(t *testing.T) {
	assert.Equal(t, "abc123", extractCookieToken("auth_token=abc123", "auth_token"))
	assert.Equal(t, "abc123", extractCookieToken("other=x; auth_token=abc123; y=z", "auth_token"))
	assert.Equal(t, "", extractCookieToken("other=x", "auth_token"))
	assert.Equal(t, "", extractCookieToken("", "auth_token"))
}

func TestBuildActionValidatesIDs(t *testing.T) {
	playerID := uuid.New()
	matchID := uuid.New()

	act, cerr := buildAction(actionPayload{
		PlayerID:   playerID.String(),
		GameID:     matchID.String(),
		Type:       game.ActionScoreUpdate,
		Data:       map[string]interface{}{"team": "attackers", "points": float64(50)},
		PlayerName: "alice",
		Timestamp:  1234,
	})
	require.Nil(t, cerr)
	assert.Equal(t, playerID, act.PlayerID)
	assert.Equal(t, matchID, act.MatchID)
	assert.Equal(t, game.ActionScoreUpdate, act.Kind)
	assert.Equal(t, int64(1234), act.Timestamp)

	_, cerr = buildAction(actionPayload{PlayerID: "nope", GameID: matchID.String()})
	require.NotNil(t, cerr)
	assert.Equal(t, coordinator.KindValidation, cerr.Kind)

	_, cerr = buildAction(actionPayload{PlayerID: playerID.String(), GameID: "nope"})
	require.NotNil(t, cerr)
	assert.Equal(t, coordinator.KindValidation, cerr.Kind)
}

// dispatch rejects malformed frames before touching the coordinator, so
// these run against a nil one.
func TestDispatchValidation(t *testing.T) {
	ctx := context.Background()
	client := coordinator.NewClient(uuid.New(), "alice", "normal", nil)

	cerr := dispatch(ctx, client, nil, WSMessage{Event: "launch-missiles", Data: json.RawMessage(`{}`)})
	require.NotNil(t, cerr)
	assert.Equal(t, coordinator.KindValidation, cerr.Kind)

	cerr = dispatch(ctx, client, nil, WSMessage{
		Event: "join-game",
		Data:  json.RawMessage(`{"gameId":"not-a-uuid","playerName":"alice"}`),
	})
	require.NotNil(t, cerr)
	assert.Equal(t, coordinator.KindValidation, cerr.Kind)

	cerr = dispatch(ctx, client, nil, WSMessage{
		Event: "rejoin-game",
		Data:  json.RawMessage(`{"gameId":"` + uuid.New().String() + `","playerId":"bad"}`),
	})
	require.NotNil(t, cerr)
	assert.Equal(t, coordinator.KindValidation, cerr.Kind)

	cerr = dispatch(ctx, client, nil, WSMessage{
		Event: "start-game",
		Data:  json.RawMessage(`{"gameId":42}`),
	})
	require.NotNil(t, cerr)
	assert.Equal(t, coordinator.KindValidation, cerr.Kind)
}

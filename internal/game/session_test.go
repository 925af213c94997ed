package game

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillSession joins n players and returns them in join order.
func fillSession(t *testing.T, s *Session, n int) []*Player {
	t.Helper()
	players := make([]*Player, 0, n)
	for i := 0; i < n; i++ {
		s.Mu.Lock()
		p, err := s.AddPlayer(uuid.New(), fmt.Sprintf("player-%d", i), nil)
		s.Mu.Unlock()
		require.NoError(t, err)
		players = append(players, p)
	}
	return players
}

func TestAddPlayerUniqueAndBounded(t *testing.T) {
	s := NewSession(uuid.New())
	players := fillSession(t, s, MaxPlayers)

	seen := map[uuid.UUID]bool{}
	for _, p := range players {
		assert.False(t, seen[p.ID], "duplicate user id in roster")
		seen[p.ID] = true
	}

	// duplicate join
	s.Mu.Lock()
	_, err := s.AddPlayer(players[0].ID, "again", nil)
	s.Mu.Unlock()
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	// seventh player
	s.Mu.Lock()
	_, err = s.AddPlayer(uuid.New(), "late", nil)
	s.Mu.Unlock()
	assert.ErrorIs(t, err, ErrSessionFull)
	assert.Len(t, s.Players, MaxPlayers)
}

func TestTeamFillOrderPrefersAttackers(t *testing.T) {
	s := NewSession(uuid.New())
	players := fillSession(t, s, MaxPlayers)

	// ties (including the empty session) break toward attackers, so the
	// first three joins land on the attacking side.
	for i := 0; i < TeamCapacity; i++ {
		assert.Equal(t, TeamAttackers, players[i].Role.Team, "join %d", i)
	}
	for i := TeamCapacity; i < MaxPlayers; i++ {
		assert.Equal(t, TeamDefenders, players[i].Role.Team, "join %d", i)
	}
}

func TestExactRoleCoverageAfterSixJoins(t *testing.T) {
	// the draw is random, so repeat a few times
	for run := 0; run < 20; run++ {
		s := NewSession(uuid.New())
		fillSession(t, s, MaxPlayers)

		s.Mu.Lock()
		err := s.verifyRoleCoverage()
		perTeam := map[Team]int{}
		for _, p := range s.Players {
			perTeam[p.Role.Team]++
		}
		s.Mu.Unlock()

		require.NoError(t, err)
		assert.Equal(t, TeamCapacity, perTeam[TeamAttackers])
		assert.Equal(t, TeamCapacity, perTeam[TeamDefenders])
	}
}

func TestStartRequiresCoverage(t *testing.T) {
	s := NewSession(uuid.New())
	fillSession(t, s, 4)

	s.Mu.Lock()
	err := s.Start()
	s.Mu.Unlock()
	assert.ErrorIs(t, err, ErrRoleCoverage)
	assert.Equal(t, StatusWaiting, s.Status)

	fillSession(t, s, 2)
	s.Mu.Lock()
	err = s.Start()
	s.Mu.Unlock()
	require.NoError(t, err)
	assert.Equal(t, StatusPlaying, s.Status)
	assert.False(t, s.StartedAt.IsZero())

	// starting twice
	s.Mu.Lock()
	err = s.Start()
	s.Mu.Unlock()
	assert.ErrorIs(t, err, ErrNotWaiting)
}

func TestApplyActionScoreUpdate(t *testing.T) {
	s := NewSession(uuid.New())
	players := fillSession(t, s, MaxPlayers)
	s.Mu.Lock()
	require.NoError(t, s.Start())
	s.Mu.Unlock()

	act := Action{
		PlayerID: players[0].ID,
		MatchID:  s.MatchID,
		Kind:     ActionScoreUpdate,
		Data:     map[string]interface{}{"team": "attackers", "points": float64(100)},
	}
	s.Mu.Lock()
	changed, err := s.ApplyAction(act)
	s.Mu.Unlock()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, Scores{Attackers: 100, Defenders: 0}, s.Scores)

	// non-scoring action kinds leave the pair untouched but are not errors
	act.Kind = ActionVulnerabilityHit
	act.Data = map[string]interface{}{"vulnerability": "CVE-2024-0001"}
	s.Mu.Lock()
	changed, err = s.ApplyAction(act)
	s.Mu.Unlock()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, Scores{Attackers: 100, Defenders: 0}, s.Scores)

	// score-update without points is broadcast-only too
	act.Kind = ActionScoreUpdate
	act.Data = map[string]interface{}{"team": "defenders"}
	s.Mu.Lock()
	changed, err = s.ApplyAction(act)
	s.Mu.Unlock()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestApplyActionRejectsOutsiders(t *testing.T) {
	s := NewSession(uuid.New())
	fillSession(t, s, MaxPlayers)

	act := Action{PlayerID: uuid.New(), Kind: ActionScoreUpdate}

	// not playing yet
	s.Mu.Lock()
	_, err := s.ApplyAction(act)
	s.Mu.Unlock()
	assert.ErrorIs(t, err, ErrNotPlaying)

	s.Mu.Lock()
	require.NoError(t, s.Start())
	_, err = s.ApplyAction(act)
	s.Mu.Unlock()
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestEndWinnerComputation(t *testing.T) {
	cases := []struct {
		scores Scores
		want   string
	}{
		{Scores{Attackers: 150, Defenders: 90}, WinnerAttackers},
		{Scores{Attackers: 90, Defenders: 150}, WinnerDefenders},
		{Scores{Attackers: 120, Defenders: 120}, WinnerDraw},
		{Scores{}, WinnerDraw},
	}
	for _, tc := range cases {
		s := NewSession(uuid.New())
		s.Status = StatusPlaying
		s.Scores = tc.scores
		s.Mu.Lock()
		winner := s.End()
		s.Mu.Unlock()
		assert.Equal(t, tc.want, winner, "scores %+v", tc.scores)
		assert.Equal(t, StatusEnded, s.Status)
		assert.False(t, s.EndedAt.IsZero())
	}
}

func TestConcurrentJoinsNeverOverfill(t *testing.T) {
	s := NewSession(uuid.New())

	var wg sync.WaitGroup
	errs := make(chan error, 12)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Mu.Lock()
			_, err := s.AddPlayer(uuid.New(), fmt.Sprintf("racer-%d", i), nil)
			s.Mu.Unlock()
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrSessionFull)
		}
	}
	assert.Equal(t, MaxPlayers, succeeded)
	assert.Len(t, s.Players, MaxPlayers)

	s.Mu.Lock()
	defer s.Mu.Unlock()
	assert.NoError(t, s.verifyRoleCoverage())
}

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	matchID := uuid.New()

	_, ok := store.Get(matchID)
	assert.False(t, ok)

	sess := store.GetOrCreate(matchID)
	require.NotNil(t, sess)
	assert.Equal(t, StatusWaiting, sess.Status)
	assert.Same(t, sess, store.GetOrCreate(matchID), "GetOrCreate must be idempotent")
	assert.Equal(t, 1, store.Len())

	removed, ok := store.Remove(matchID)
	require.True(t, ok)
	assert.Same(t, sess, removed)
	_, ok = store.Get(matchID)
	assert.False(t, ok)

	_, ok = store.Remove(matchID)
	assert.False(t, ok)
}

package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogShape(t *testing.T) {
	catalog := Catalog()
	require.Len(t, catalog, MaxPlayers)

	perTeam := map[Team]int{}
	ids := map[string]bool{}
	for _, r := range catalog {
		perTeam[r.Team]++
		assert.False(t, ids[r.ID], "duplicate role id %s", r.ID)
		ids[r.ID] = true
		assert.NotEmpty(t, r.Name)
		assert.NotEmpty(t, r.Icon)
	}
	assert.Equal(t, TeamCapacity, perTeam[TeamAttackers])
	assert.Equal(t, TeamCapacity, perTeam[TeamDefenders])
}

func TestPickRoleDrawsFromUnassignedSubset(t *testing.T) {
	s := NewSession(uuid.New())
	for i := 0; i < TeamCapacity-1; i++ {
		s.Mu.Lock()
		_, err := s.AddPlayer(uuid.New(), "a", nil)
		s.Mu.Unlock()
		require.NoError(t, err)
	}

	assigned := map[string]bool{}
	for _, p := range s.Players {
		assigned[p.Role.ID] = true
	}

	s.Mu.Lock()
	role, err := s.pickRole()
	s.Mu.Unlock()
	require.NoError(t, err)
	assert.Equal(t, TeamAttackers, role.Team)
	assert.False(t, assigned[role.ID], "draw must avoid already-assigned roles")
}

// A role can only run out while the team is under capacity if the session
// state was corrupted upstream; the check still has to hold.
func TestPickRoleExhausted(t *testing.T) {
	s := NewSession(uuid.New())
	s.Players = []*Player{
		{ID: uuid.New(), Role: Role{ID: "exploit", Team: TeamAttackers}},
		{ID: uuid.New(), Role: Role{ID: "exfiltration", Team: TeamAttackers}},
		// attacker role counted on the wrong side
		{ID: uuid.New(), Role: Role{ID: "recon", Team: TeamDefenders}},
	}

	s.Mu.Lock()
	_, err := s.pickRole()
	s.Mu.Unlock()
	assert.ErrorIs(t, err, ErrNoRoleAvailable)
}

func TestVerifyRoleCoverageRejectsDuplicates(t *testing.T) {
	s := NewSession(uuid.New())
	for i := 0; i < MaxPlayers; i++ {
		role := roleCatalog[i%3] // duplicated attacker roles, defenders missing
		s.Players = append(s.Players, &Player{ID: uuid.New(), Role: role})
	}

	s.Mu.Lock()
	err := s.verifyRoleCoverage()
	s.Mu.Unlock()
	assert.ErrorIs(t, err, ErrRoleCoverage)
}

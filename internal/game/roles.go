// internal/game/roles.go
package game

import "math/rand"

// Team is one of the two sides of an exercise.
type Team string

const (
	TeamAttackers Team = "attackers"
	TeamDefenders Team = "defenders"
)

// TeamCapacity is the fixed number of players per side. It matches the
// role catalog size per team exactly, so a full team always has full
// role coverage.
const TeamCapacity = 3

// MaxPlayers is the total session capacity across both teams.
const MaxPlayers = 2 * TeamCapacity

// Role is one entry of the static process-wide role catalog.
type Role struct {
	ID   string `json:"roleId"`
	Name string `json:"roleName"`
	Icon string `json:"roleIcon"`
	Team Team   `json:"team"`
}

// roleCatalog is the fixed set of six roles, three per team.
var roleCatalog = []Role{
	{ID: "recon", Name: "Reconnaissance", Icon: "🔍", Team: TeamAttackers},
	{ID: "exploit", Name: "Exploitation", Icon: "💥", Team: TeamAttackers},
	{ID: "exfiltration", Name: "Exfiltration", Icon: "📦", Team: TeamAttackers},
	{ID: "monitoring", Name: "Monitoring", Icon: "🛡️", Team: TeamDefenders},
	{ID: "hardening", Name: "Hardening", Icon: "🔧", Team: TeamDefenders},
	{ID: "response", Name: "Incident Response", Icon: "🚨", Team: TeamDefenders},
}

// Catalog returns a copy of the full role catalog.
func Catalog() []Role {
	out := make([]Role, len(roleCatalog))
	copy(out, roleCatalog)
	return out
}

// rolesForTeam returns the catalog entries belonging to one side.
func rolesForTeam(team Team) []Role {
	var out []Role
	for _, r := range roleCatalog {
		if r.Team == team {
			out = append(out, r)
		}
	}
	return out
}

// pickRole chooses the team and role for the next player joining s.
// The caller must hold s.Mu.
//
// The team with fewer than TeamCapacity players is chosen, ties broken
// toward the attackers. Among that team's roles not yet assigned in this
// session, one is drawn uniformly at random. An empty candidate set can
// only arise from an upstream accounting bug (capacity and catalog size
// match), but the check is mandatory and yields ErrNoRoleAvailable.
func (s *Session) pickRole() (Role, error) {
	team := TeamAttackers
	if s.teamSize(TeamAttackers) >= TeamCapacity {
		team = TeamDefenders
	}

	assigned := make(map[string]bool, len(s.Players))
	for _, p := range s.Players {
		assigned[p.Role.ID] = true
	}

	var available []Role
	for _, r := range rolesForTeam(team) {
		if !assigned[r.ID] {
			available = append(available, r)
		}
	}
	if len(available) == 0 {
		return Role{}, ErrNoRoleAvailable
	}

	return available[rand.Intn(len(available))], nil
}

// teamSize counts the session players on one side. Caller must hold s.Mu.
func (s *Session) teamSize(team Team) int {
	n := 0
	for _, p := range s.Players {
		if p.Role.Team == team {
			n++
		}
	}
	return n
}

// verifyRoleCoverage checks the exact-coverage invariant: the assigned
// role ids are exactly the six catalog entries, three per side. It gates
// the transition to StatusPlaying. Caller must hold s.Mu.
func (s *Session) verifyRoleCoverage() error {
	if len(s.Players) != MaxPlayers {
		return ErrRoleCoverage
	}
	seen := make(map[string]bool, MaxPlayers)
	for _, p := range s.Players {
		if seen[p.Role.ID] {
			return ErrRoleCoverage
		}
		seen[p.Role.ID] = true
	}
	for _, r := range roleCatalog {
		if !seen[r.ID] {
			return ErrRoleCoverage
		}
	}
	return nil
}

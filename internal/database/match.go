package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/models"
)

// CreateTeam inserts a new team row.
func CreateTeam(ctx context.Context, team *models.Team) error {
	if team.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate team id: %w", err)
		}
		team.ID = id
	}
	_, err := DB.Exec(ctx, `INSERT INTO teams (id, name) VALUES ($1, $2)`, team.ID, team.Name)
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", err)
	}
	return nil
}

// ListTeams returns every team.
func ListTeams(ctx context.Context) ([]*models.Team, error) {
	rows, err := DB.Query(ctx, `SELECT id, name FROM teams ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		teams = append(teams, &t)
	}
	return teams, rows.Err()
}

// GetTeamMembers returns the users currently assigned to a team.
func GetTeamMembers(ctx context.Context, teamID uuid.UUID) ([]*models.User, error) {
	q := `SELECT id, username, role, team_id FROM users WHERE team_id=$1 ORDER BY username`
	rows, err := DB.Query(ctx, q, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.TeamID); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// CreateMatch inserts a new match pairing two teams.
func CreateMatch(ctx context.Context, match *models.Match) error {
	if match.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate match id: %w", err)
		}
		match.ID = id
	}
	q := `INSERT INTO matches (id, red_team_id, blue_team_id) VALUES ($1, $2, $3)`
	_, err := DB.Exec(ctx, q, match.ID, match.RedTeamID, match.BlueTeamID)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

// GetMatchByID fetches a single match row.
func GetMatchByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var m models.Match
	q := `SELECT id, red_team_id, blue_team_id FROM matches WHERE id=$1`
	err := DB.QueryRow(ctx, q, id).Scan(&m.ID, &m.RedTeamID, &m.BlueTeamID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMatches returns every match.
func ListMatches(ctx context.Context) ([]*models.Match, error) {
	rows, err := DB.Query(ctx, `SELECT id, red_team_id, blue_team_id FROM matches`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.ID, &m.RedTeamID, &m.BlueTeamID); err != nil {
			return nil, err
		}
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

// DeleteMatch removes a match row. The caller is responsible for tearing
// down any live session for the match afterwards.
func DeleteMatch(ctx context.Context, id uuid.UUID) error {
	_, err := DB.Exec(ctx, `DELETE FROM matches WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match %s: %w", id, err)
	}
	return nil
}

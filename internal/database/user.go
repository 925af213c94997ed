package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/auth"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/models"
)

// CreateUser inserts a new user, hashing the supplied plaintext password.
// The zero role defaults to "normal".
func CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}
	if user.Role == "" {
		user.Role = models.RoleNormal
	}

	hash, err := auth.HashPassword(user.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash

	q := `INSERT INTO users (id, username, password, role, team_id)
	      VALUES ($1, $2, $3, $4, $5)`

	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q, user.ID, user.Username, user.Password, user.Role, user.TeamID)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByID fetches a single user row.
func GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	q := `SELECT id, username, password, role, team_id FROM users WHERE id=$1`
	err := DB.QueryRow(ctx, q, id).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.TeamID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername fetches a single user row by login name.
func GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	q := `SELECT id, username, password, role, team_id FROM users WHERE username=$1`
	err := DB.QueryRow(ctx, q, username).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.TeamID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every user, password column excluded.
func ListUsers(ctx context.Context) ([]*models.User, error) {
	q := `SELECT id, username, role, team_id FROM users ORDER BY username`
	rows, err := DB.Query(ctx, q)
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

// SetUserRole updates a user's role (admin promotion, ban).
func SetUserRole(ctx context.Context, id uuid.UUID, role string) error {
	ct, err := DB.Exec(ctx, `UPDATE users SET role=$2 WHERE id=$1`, id, role)
	if err != nil {
		return fmt.Errorf("failed to update role for user %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AssignUserTeam moves a user onto a team; a nil teamID clears the assignment.
// This only shapes future start-game auto-assignment pools: a session roster
// is frozen once players have joined.
func AssignUserTeam(ctx context.Context, id uuid.UUID, teamID *uuid.UUID) error {
	ct, err := DB.Exec(ctx, `UPDATE users SET team_id=$2 WHERE id=$1`, id, teamID)
	if err != nil {
		return fmt.Errorf("failed to assign team for user %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

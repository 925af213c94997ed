package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/models"
)

// Directory adapts the package-level queries to the read-only lookup
// surface the coordinator consumes.
type Directory struct{}

func (Directory) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return GetUserByID(ctx, id)
}

func (Directory) FindMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	return GetMatchByID(ctx, id)
}

func (Directory) TeamMembers(ctx context.Context, teamID uuid.UUID) ([]*models.User, error) {
	return GetTeamMembers(ctx, teamID)
}

func (Directory) ListUsers(ctx context.Context) ([]*models.User, error) {
	return ListUsers(ctx)
}

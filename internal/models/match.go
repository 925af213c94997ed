package models

import "github.com/google/uuid"

// Team represents a row in the teams table.
type Team struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Match is the persisted pairing of two teams. The live run of a match is
// the ephemeral game.Session, which is never persisted.
type Match struct {
	ID         uuid.UUID `json:"id"`
	RedTeamID  uuid.UUID `json:"redTeamId"`
	BlueTeamID uuid.UUID `json:"blueTeamId"`
}

// internal/handlers/admin.go
//
// Administrative request/response handlers. These mutate persistence and
// then invoke the coordinator hooks so live registry/session state stays
// consistent with what was just persisted.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/coordinator"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/database"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/models"
)

type createTeamRequest struct {
	Name string `json:"name"`
}

// CreateTeamHandler creates a team.
func CreateTeamHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	team := models.Team{Name: req.Name}
	if err := database.CreateTeam(r.Context(), &team); err != nil {
		http.Error(w, "failed to create team", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(team)
}

type createMatchRequest struct {
	RedTeamID  string `json:"redTeamId"`
	BlueTeamID string `json:"blueTeamId"`
}

// CreateMatchHandler persists a new match. No session exists until the
// first join, so there is no coordinator side effect here.
func CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	redID, err := uuid.Parse(req.RedTeamID)
	if err != nil {
		http.Error(w, "redTeamId must be a UUID", http.StatusBadRequest)
		return
	}
	blueID, err := uuid.Parse(req.BlueTeamID)
	if err != nil {
		http.Error(w, "blueTeamId must be a UUID", http.StatusBadRequest)
		return
	}

	match := models.Match{RedTeamID: redID, BlueTeamID: blueID}
	if err := database.CreateMatch(r.Context(), &match); err != nil {
		http.Error(w, "failed to create match", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(match)
}

type deleteMatchRequest struct {
	MatchID string `json:"matchId"`
}

// DeleteMatchHandler removes a match row, then tears down its live
// session regardless of lifecycle state.
func DeleteMatchHandler(co *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}

		var req deleteMatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		matchID, err := uuid.Parse(req.MatchID)
		if err != nil {
			http.Error(w, "matchId must be a UUID", http.StatusBadRequest)
			return
		}

		if err := database.DeleteMatch(r.Context(), matchID); err != nil {
			http.Error(w, "failed to delete match", http.StatusInternalServerError)
			return
		}
		co.MatchDeleted(r.Context(), matchID)

		w.WriteHeader(http.StatusNoContent)
	}
}

type assignTeamRequest struct {
	UserID string  `json:"userId"`
	TeamID *string `json:"teamId"` // null clears the assignment
}

// AssignTeamHandler moves a user between teams. Live session rosters are
// frozen, so the coordinator hook only logs; the new membership shapes
// future start-game auto-assignment.
func AssignTeamHandler(co *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}

		var req assignTeamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			http.Error(w, "userId must be a UUID", http.StatusBadRequest)
			return
		}

		var teamID *uuid.UUID
		if req.TeamID != nil {
			id, err := uuid.Parse(*req.TeamID)
			if err != nil {
				http.Error(w, "teamId must be a UUID", http.StatusBadRequest)
				return
			}
			teamID = &id
		}

		if err := database.AssignUserTeam(r.Context(), userID, teamID); err != nil {
			http.Error(w, "failed to assign team", http.StatusInternalServerError)
			return
		}
		co.TeamAssigned(r.Context(), userID)

		w.WriteHeader(http.StatusNoContent)
	}
}

type banUserRequest struct {
	UserID string `json:"userId"`
}

// BanUserHandler marks a user banned, then cuts their connectivity. Any
// session they already joined keeps their player record.
func BanUserHandler(co *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, ok := requireAdmin(w, r)
		if !ok {
			return
		}

		var req banUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			http.Error(w, "userId must be a UUID", http.StatusBadRequest)
			return
		}
		if userID == admin.ID {
			http.Error(w, "cannot ban yourself", http.StatusBadRequest)
			return
		}

		if err := database.SetUserRole(r.Context(), userID, models.RoleBanned); err != nil {
			http.Error(w, "failed to ban user", http.StatusInternalServerError)
			return
		}
		co.UserBanned(r.Context(), userID)

		w.WriteHeader(http.StatusNoContent)
	}
}

// ListMatchesHandler returns every persisted match.
func ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := authenticatedUser(w, r); !ok {
		return
	}

	matches, err := database.ListMatches(r.Context())
	if err != nil {
		http.Error(w, "failed to list matches", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(matches)
}

// ListTeamsHandler returns every team.
func ListTeamsHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := authenticatedUser(w, r); !ok {
		return
	}

	teams, err := database.ListTeams(r.Context())
	if err != nil {
		http.Error(w, "failed to list teams", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(teams)
}

package game

import "errors"

var (
	// ErrAlreadyJoined is returned when a user id is already a session player.
	ErrAlreadyJoined = errors.New("player already joined this session")

	// ErrSessionFull is returned when a join would exceed MaxPlayers.
	ErrSessionFull = errors.New("session is full")

	// ErrNoRoleAvailable is returned when the target team has no unassigned role left.
	ErrNoRoleAvailable = errors.New("no role available for team")

	// ErrPlayerNotFound is returned by rejoin/action paths for unknown players.
	ErrPlayerNotFound = errors.New("player not found in session")

	// ErrNotPlaying is returned for actions against a session that is not in progress.
	ErrNotPlaying = errors.New("session is not in the playing state")

	// ErrNotWaiting is returned when starting a session that already left waiting.
	ErrNotWaiting = errors.New("session is not in the waiting state")

	// ErrRoleCoverage is returned when the assigned roles do not cover the catalog exactly.
	ErrRoleCoverage = errors.New("assigned roles do not cover the catalog")

	// ErrInsufficientPlayers is returned when persisted team membership does not total six.
	ErrInsufficientPlayers = errors.New("match does not have exactly six distinct team members")
)

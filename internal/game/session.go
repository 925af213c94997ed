// internal/game/session.go
package game

import (
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// MatchDuration is how long a session stays in StatusPlaying before the
// end-of-match timer resolves it.
const MatchDuration = 10 * time.Minute

// Status is a session's lifecycle state. StatusEnded is transient: an
// ended session is broadcast and then removed from the store, never kept.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusEnded   Status = "ended"
)

// Winner values reported when a session resolves.
const (
	WinnerAttackers = "attackers"
	WinnerDefenders = "defenders"
	WinnerDraw      = "draw"
)

// Action kinds accepted from players during a running session.
const (
	ActionScoreUpdate        = "score-update"
	ActionVulnerabilityHit   = "vulnerability-exploited"
	ActionVulnerabilityFixed = "vulnerability-fixed"
)

// Scores is the running score pair for one session.
type Scores struct {
	Attackers int `json:"attackers"`
	Defenders int `json:"defenders"`
}

// Player is a user's live participation record inside one session.
// The connection handle is refreshed on rejoin; nil means the player was
// auto-assigned at start (or banned) and has no live connection.
type Player struct {
	ID       uuid.UUID       `json:"playerId"`
	Name     string          `json:"playerName"`
	Role     Role            `json:"role"`
	Conn     *websocket.Conn `json:"-"`
	JoinedAt time.Time       `json:"-"`
}

// Action is a player's in-session move. It is rebroadcast verbatim and
// never stored beyond the broadcast.
type Action struct {
	PlayerID   uuid.UUID              `json:"playerId"`
	MatchID    uuid.UUID              `json:"gameId"`
	Kind       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	PlayerName string                 `json:"playerName"`
	Timestamp  int64                  `json:"timestamp"`
}

// Session holds the entire live state of one match run in memory. It is
// created lazily on first join and deleted when the match ends or is
// administratively removed; nothing survives a process restart.
//
// All mutation goes through methods called with Mu held, so concurrent
// handlers and the end-of-match timer serialize per session.
type Session struct {
	MatchID   uuid.UUID
	Status    Status
	Players   []*Player // join order, preserved for display
	Scores    Scores
	StartedAt time.Time
	EndedAt   time.Time

	Mu sync.Mutex

	endTimer *time.Timer
}

// NewSession builds a waiting session for a match.
func NewSession(matchID uuid.UUID) *Session {
	return &Session{
		MatchID: matchID,
		Status:  StatusWaiting,
	}
}

// FindPlayer returns the session player with the given user id, or nil.
// Caller must hold Mu.
func (s *Session) FindPlayer(userID uuid.UUID) *Player {
	for _, p := range s.Players {
		if p.ID == userID {
			return p
		}
	}
	return nil
}

// AddPlayer assigns a team and role to a new player and appends them to
// the roster. Caller must hold Mu.
//
// Capacity and duplicate checks happen under the same lock as the append,
// so two joins racing for the last slot cannot both succeed.
func (s *Session) AddPlayer(userID uuid.UUID, name string, conn *websocket.Conn) (*Player, error) {
	if s.FindPlayer(userID) != nil {
		return nil, ErrAlreadyJoined
	}
	if len(s.Players) >= MaxPlayers {
		return nil, ErrSessionFull
	}

	role, err := s.pickRole()
	if err != nil {
		return nil, err
	}

	p := &Player{
		ID:       userID,
		Name:     name,
		Role:     role,
		Conn:     conn,
		JoinedAt: time.Now(),
	}
	s.Players = append(s.Players, p)
	return p, nil
}

// Start moves the session from waiting to playing, recording the start
// timestamp. The caller has already auto-assigned roles and must hold Mu;
// the exact-coverage invariant is re-verified here before the transition.
func (s *Session) Start() error {
	if s.Status != StatusWaiting {
		return ErrNotWaiting
	}
	if err := s.verifyRoleCoverage(); err != nil {
		return err
	}
	s.Status = StatusPlaying
	s.StartedAt = time.Now()
	return nil
}

// ApplyAction validates an action against the running session and applies
// any score change. It reports whether the score pair changed; the caller
// rebroadcasts the action itself in all cases. Caller must hold Mu.
func (s *Session) ApplyAction(a Action) (bool, error) {
	if s.Status != StatusPlaying {
		return false, ErrNotPlaying
	}
	if s.FindPlayer(a.PlayerID) == nil {
		return false, ErrPlayerNotFound
	}

	if a.Kind != ActionScoreUpdate {
		return false, nil
	}

	team, _ := a.Data["team"].(string)
	points := 0
	switch v := a.Data["points"].(type) {
	case float64:
		points = int(v)
	case int:
		points = v
	}
	if points == 0 {
		return false, nil
	}

	switch Team(team) {
	case TeamAttackers:
		s.Scores.Attackers += points
	case TeamDefenders:
		s.Scores.Defenders += points
	default:
		return false, nil
	}
	return true, nil
}

// End resolves the session, comparing score totals. Strictly higher wins;
// an exact tie is a draw. Caller must hold Mu.
func (s *Session) End() string {
	s.Status = StatusEnded
	s.EndedAt = time.Now()
	s.stopTimerLocked()

	switch {
	case s.Scores.Attackers > s.Scores.Defenders:
		return WinnerAttackers
	case s.Scores.Defenders > s.Scores.Attackers:
		return WinnerDefenders
	default:
		return WinnerDraw
	}
}

// ScheduleEnd arms the autonomous end-of-match timer. The callback runs on
// the timer's own goroutine, so it fires even after the starting admin
// disconnects; it must tolerate the session already being gone. Caller
// must hold Mu.
func (s *Session) ScheduleEnd(d time.Duration, fire func()) {
	s.stopTimerLocked()
	s.endTimer = time.AfterFunc(d, fire)
}

// StopTimer disarms any pending end-of-match timer. Caller must hold Mu.
// Stopping is best effort: a timer that already fired finds the session
// removed from the store and no-ops.
func (s *Session) StopTimer() {
	s.stopTimerLocked()
}

func (s *Session) stopTimerLocked() {
	if s.endTimer != nil {
		s.endTimer.Stop()
		s.endTimer = nil
	}
}

// internal/coordinator/coordinator.go
package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/auth"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/game"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/models"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/results"
)

// Directory is the persistence collaborator the coordinator reads from.
// It never writes through it; administrative mutations happen on the HTTP
// path and reach the coordinator through the hook methods below.
type Directory interface {
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	TeamMembers(ctx context.Context, teamID uuid.UUID) ([]*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// ResultSink receives final match results. Satisfied by *results.Publisher.
type ResultSink interface {
	PublishMatchResult(ctx context.Context, res results.MatchResult) error
}

// Coordinator owns the live state of all matches: the connection
// registry, the session store, and the rooms. It is the single writer
// for all of them; HTTP admin handlers reach them only through its hooks.
type Coordinator struct {
	log      *logrus.Logger
	dir      Directory
	store    *game.SessionStore
	registry *Registry
	rooms    *Rooms
	sink     ResultSink

	// matchDuration is how long a started match runs before the
	// autonomous end timer resolves it. Shortened in tests.
	matchDuration time.Duration
}

// New wires a coordinator around its injected collaborators. sink may be
// nil when no result queue is configured.
func New(log *logrus.Logger, dir Directory, sink ResultSink) *Coordinator {
	return &Coordinator{
		log:           log,
		dir:           dir,
		store:         game.NewSessionStore(),
		registry:      NewRegistry(),
		rooms:         NewRooms(),
		sink:          sink,
		matchDuration: game.MatchDuration,
	}
}

// Registry exposes the connection registry (used by the websocket handler).
func (co *Coordinator) Registry() *Registry {
	return co.registry
}

// Authenticate decodes a credential and resolves it to a non-banned user.
// This is the one failure that is fatal to a connection rather than
// merely reported.
func (co *Coordinator) Authenticate(ctx context.Context, token string) (*models.User, *Error) {
	sub, err := auth.AuthenticateJWT(token)
	if err != nil {
		return nil, Errorf(KindAuth, "invalid credential")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, Errorf(KindAuth, "invalid credential")
	}
	user, err := co.dir.FindUser(ctx, userID)
	if err != nil {
		return nil, Errorf(KindAuth, "unknown user")
	}
	if user.IsBanned() {
		return nil, Errorf(KindAuth, "account banned")
	}
	return user, nil
}

// Connect registers an authenticated client, superseding any previous
// connection for the same user, and pushes the refreshed connected-user
// view to everyone.
func (co *Coordinator) Connect(ctx context.Context, c *Client) {
	if old := co.registry.Register(c); old != nil {
		co.rooms.RemoveClient(old)
		old.Close(CloseSuperseded, "superseded by a newer connection")
		co.log.Infof("user %s superseded a previous connection", c.UserID)
	}
	co.broadcastConnectedUsers(ctx)
}

// Disconnect drops a client from the registry and every room. A stale
// disconnect from an already-superseded connection leaves the newer
// record alone and does not rebroadcast.
func (co *Coordinator) Disconnect(ctx context.Context, c *Client) {
	co.rooms.RemoveClient(c)
	if co.registry.Unregister(c) {
		co.broadcastConnectedUsers(ctx)
	}
}

// Join adds the requester to a match's session, lazily creating it, and
// subscribes the connection to the match room. The private reply carries
// the role assignment; the room gets the updated roster.
func (co *Coordinator) Join(ctx context.Context, c *Client, matchID uuid.UUID, playerName string) *Error {
	if l := len(playerName); l < 1 || l > 50 {
		return Errorf(KindValidation, "player name must be 1-50 characters")
	}

	user, err := co.dir.FindUser(ctx, c.UserID)
	if err != nil {
		return Errorf(KindAuth, "unknown user")
	}
	if user.IsBanned() {
		return Errorf(KindAuth, "account banned")
	}

	if _, err := co.dir.FindMatch(ctx, matchID); err != nil {
		return Errorf(KindNotFound, "match not found")
	}

	sess := co.store.GetOrCreate(matchID)
	sess.Mu.Lock()
	defer sess.Mu.Unlock()

	player, err := sess.AddPlayer(c.UserID, playerName, c.Conn)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrAlreadyJoined):
			return Errorf(KindConflict, "already joined this match")
		case errors.Is(err, game.ErrSessionFull):
			return Errorf(KindConflict, "session is full")
		case errors.Is(err, game.ErrNoRoleAvailable):
			return Errorf(KindConflict, "no role available")
		default:
			return Errorf(KindConflict, "cannot join: %v", err)
		}
	}

	co.rooms.Subscribe(matchID, c)
	c.Send(Message{Event: "role-assigned", Data: roleAssignment(player)})
	co.rooms.Broadcast(matchID, stateMessage(sess))
	co.log.Infof("user %s joined match %s as %s", c.UserID, matchID, player.Role.ID)
	return nil
}

// Rejoin refreshes a reconnecting player's connection handle and replays
// their existing assignment privately. The roster never changes here.
func (co *Coordinator) Rejoin(ctx context.Context, c *Client, matchID, playerID uuid.UUID) *Error {
	if c.UserID != playerID {
		return Errorf(KindForbidden, "cannot rejoin as another player")
	}

	sess, ok := co.store.Get(matchID)
	if !ok {
		return Errorf(KindNotFound, "match not found")
	}

	sess.Mu.Lock()
	defer sess.Mu.Unlock()

	player := sess.FindPlayer(playerID)
	if player == nil {
		return Errorf(KindNotFound, "player not found")
	}

	player.Conn = c.Conn
	co.rooms.Subscribe(matchID, c)

	reply := roleAssignment(player)
	reply["gameId"] = matchID.String()
	reply["status"] = sess.Status
	c.Send(Message{Event: "rejoin-success", Data: reply})
	co.rooms.Broadcast(matchID, stateMessage(sess))
	co.log.Infof("user %s rejoined match %s", c.UserID, matchID)
	return nil
}

// Start moves a match into the playing state. Privilege is re-verified
// against the directory at call time, never trusted from the cached
// token claims of a long-lived connection.
func (co *Coordinator) Start(ctx context.Context, c *Client, matchID uuid.UUID) *Error {
	user, err := co.dir.FindUser(ctx, c.UserID)
	if err != nil {
		return Errorf(KindAuth, "unknown user")
	}
	if !user.IsAdmin() {
		return Errorf(KindForbidden, "admin privilege required")
	}

	match, err := co.dir.FindMatch(ctx, matchID)
	if err != nil {
		return Errorf(KindNotFound, "match not found")
	}

	red, err := co.dir.TeamMembers(ctx, match.RedTeamID)
	if err != nil {
		return Errorf(KindNotFound, "team membership unavailable")
	}
	blue, err := co.dir.TeamMembers(ctx, match.BlueTeamID)
	if err != nil {
		return Errorf(KindNotFound, "team membership unavailable")
	}

	members := make([]*models.User, 0, len(red)+len(blue))
	distinct := make(map[uuid.UUID]bool)
	for _, m := range append(red, blue...) {
		if !distinct[m.ID] {
			distinct[m.ID] = true
			members = append(members, m)
		}
	}
	if len(members) != game.MaxPlayers {
		return Errorf(KindConflict, "%s: found %d", game.ErrInsufficientPlayers, len(members))
	}

	sess := co.store.GetOrCreate(matchID)
	sess.Mu.Lock()
	defer sess.Mu.Unlock()

	if sess.Status != game.StatusWaiting {
		return Errorf(KindConflict, "match already started")
	}

	// Auto-assign a role to every persisted member not yet in the session.
	// Any failure leaves the session waiting with whatever was assigned;
	// roles are never reassigned, so a retry continues from here.
	for _, m := range members {
		if sess.FindPlayer(m.ID) != nil {
			continue
		}
		if _, err := sess.AddPlayer(m.ID, m.Username, nil); err != nil {
			switch {
			case errors.Is(err, game.ErrNoRoleAvailable):
				return Errorf(KindConflict, "no role available")
			case errors.Is(err, game.ErrSessionFull):
				return Errorf(KindConflict, "session is full")
			default:
				return Errorf(KindConflict, "cannot assign %s: %v", m.ID, err)
			}
		}
	}

	if err := sess.Start(); err != nil {
		if errors.Is(err, game.ErrRoleCoverage) {
			return Errorf(KindConflict, "role coverage mismatch")
		}
		return Errorf(KindConflict, "cannot start: %v", err)
	}

	co.rooms.Broadcast(matchID, stateMessage(sess))
	co.rooms.Broadcast(matchID, Message{Event: "game-started", Data: map[string]string{
		"gameId": matchID.String(),
	}})

	// The timer belongs to the coordinator, not the requester's
	// connection: it fires even after the admin disconnects.
	sess.ScheduleEnd(co.matchDuration, func() {
		co.finishMatch(matchID)
	})

	co.log.Infof("match %s started by %s", matchID, c.UserID)
	return nil
}

// Action validates and applies a player action, broadcasting the new
// score pair when it changed and always echoing the action to the room.
func (co *Coordinator) Action(ctx context.Context, c *Client, act game.Action) *Error {
	if c.UserID != act.PlayerID {
		return Errorf(KindForbidden, "cannot act as another player")
	}

	switch act.Kind {
	case game.ActionScoreUpdate, game.ActionVulnerabilityHit, game.ActionVulnerabilityFixed:
	default:
		return Errorf(KindValidation, "unknown action type %q", act.Kind)
	}

	sess, ok := co.store.Get(act.MatchID)
	if !ok {
		return Errorf(KindNotFound, "match not found")
	}

	sess.Mu.Lock()
	defer sess.Mu.Unlock()

	changed, err := sess.ApplyAction(act)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrNotPlaying):
			return Errorf(KindConflict, "match is not in progress")
		case errors.Is(err, game.ErrPlayerNotFound):
			return Errorf(KindNotFound, "player not found")
		default:
			return Errorf(KindConflict, "action rejected: %v", err)
		}
	}

	if changed {
		co.rooms.Broadcast(act.MatchID, Message{Event: "score-update", Data: sess.Scores})
	}
	// Every action is echoed so it shows up in the room's event log even
	// when it did not move the score.
	co.rooms.Broadcast(act.MatchID, Message{Event: "player-action", Data: act})
	return nil
}

// finishMatch is the autonomous timer path of playing -> ended. A timer
// firing after the session is gone, or after the session already left
// playing through another path, is absorbed as a no-op.
func (co *Coordinator) finishMatch(matchID uuid.UUID) {
	sess, ok := co.store.Get(matchID)
	if !ok {
		return
	}

	sess.Mu.Lock()
	// An administrative deletion can remove the session between the lookup
	// above and acquiring the lock; only the holder of a still-stored
	// session may end it.
	if cur, ok := co.store.Get(matchID); !ok || cur != sess {
		sess.Mu.Unlock()
		return
	}
	if sess.Status != game.StatusPlaying {
		sess.Mu.Unlock()
		return
	}

	winner := sess.End()
	result := results.MatchResult{
		MatchID:   matchID,
		Winner:    winner,
		Attackers: sess.Scores.Attackers,
		Defenders: sess.Scores.Defenders,
		StartedAt: sess.StartedAt,
		EndedAt:   sess.EndedAt,
	}

	co.rooms.Broadcast(matchID, Message{Event: "game-ended", Data: map[string]interface{}{
		"gameId": matchID.String(),
		"winner": winner,
		"scores": sess.Scores,
	}})
	co.store.Remove(matchID)
	co.rooms.Drop(matchID)
	sess.Mu.Unlock()

	co.log.Infof("match %s ended, winner: %s", matchID, winner)

	if co.sink != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := co.sink.PublishMatchResult(ctx, result); err != nil {
				co.log.Warnf("failed to publish result for match %s: %v", matchID, err)
			}
		}()
	}
}

// MatchDeleted is the administrative hook for match deletion: the session
// is removed outright in any state, with no winner computation; the room
// only hears a match-deleted notice.
func (co *Coordinator) MatchDeleted(ctx context.Context, matchID uuid.UUID) {
	sess, ok := co.store.Remove(matchID)
	if ok {
		sess.Mu.Lock()
		sess.StopTimer()
		co.rooms.Broadcast(matchID, Message{Event: "match-deleted", Data: map[string]string{
			"gameId": matchID.String(),
		}})
		sess.Mu.Unlock()
		co.log.Infof("session for deleted match %s torn down", matchID)
	}
	co.rooms.Drop(matchID)
}

// UserBanned is the administrative hook for a ban: connectivity is cut
// and the connected-user view refreshed, but any session the user already
// joined keeps their player record for scoring continuity.
func (co *Coordinator) UserBanned(ctx context.Context, userID uuid.UUID) {
	if c, ok := co.registry.Remove(userID); ok {
		co.rooms.RemoveClient(c)
		c.Send(Message{Event: "auth-revoked", Data: map[string]string{
			"message": "account banned",
		}})
		c.Close(CloseAuthRevoked, "account banned")
		co.log.Infof("banned user %s disconnected", userID)
	}
	co.broadcastConnectedUsers(ctx)
}

// TeamAssigned is the administrative hook for team reassignment. Session
// rosters are frozen once joined, so this only logs; the new membership
// shapes future start calls through the directory.
func (co *Coordinator) TeamAssigned(ctx context.Context, userID uuid.UUID) {
	co.log.Debugf("user %s reassigned; live sessions unaffected", userID)
}

// connectedUser is one entry of the connected-user view.
type connectedUser struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Connected bool      `json:"connected"`
}

// broadcastConnectedUsers recomputes the full known user list merged with
// registry presence and pushes it to every live connection.
func (co *Coordinator) broadcastConnectedUsers(ctx context.Context) {
	users, err := co.dir.ListUsers(ctx)
	if err != nil {
		co.log.Warnf("failed to list users for connected view: %v", err)
		return
	}

	connected := co.registry.ConnectedIDs()
	view := make([]connectedUser, 0, len(users))
	for _, u := range users {
		view = append(view, connectedUser{
			ID:        u.ID,
			Username:  u.Username,
			Role:      u.Role,
			Connected: connected[u.ID],
		})
	}

	msg := Message{Event: "connectedUsers", Data: map[string]interface{}{"users": view}}
	for _, c := range co.registry.Snapshot() {
		c.Send(msg)
	}
}

// playerState is the room-visible slice of one session player.
type playerState struct {
	PlayerID   uuid.UUID `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Team       game.Team `json:"team"`
	RoleID     string    `json:"roleId"`
	RoleName   string    `json:"roleName"`
	RoleIcon   string    `json:"roleIcon"`
}

// stateMessage renders a session as a game-state-update broadcast.
// Caller must hold the session lock.
func stateMessage(sess *game.Session) Message {
	players := make([]playerState, 0, len(sess.Players))
	for _, p := range sess.Players {
		players = append(players, playerState{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Team:       p.Role.Team,
			RoleID:     p.Role.ID,
			RoleName:   p.Role.Name,
			RoleIcon:   p.Role.Icon,
		})
	}
	return Message{Event: "game-state-update", Data: map[string]interface{}{
		"status":  sess.Status,
		"players": players,
	}}
}

// roleAssignment renders a player's private role-assigned payload.
func roleAssignment(p *game.Player) map[string]interface{} {
	return map[string]interface{}{
		"team":     p.Role.Team,
		"roleId":   p.Role.ID,
		"roleName": p.Role.Name,
		"roleIcon": p.Role.Icon,
		"playerId": p.ID.String(),
	}
}

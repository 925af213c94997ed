// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/coordinator"
	"github.com/CMQ-IED-AURA/cyberskillscmq-sub000/internal/game"
)

// WSMessage is the envelope for every client frame.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type authenticatePayload struct {
	Token string `json:"token"`
}

type joinPayload struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

type rejoinPayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

type startPayload struct {
	GameID string `json:"gameId"`
}

type actionPayload struct {
	PlayerID   string                 `json:"playerId"`
	GameID     string                 `json:"gameId"`
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	PlayerName string                 `json:"playerName"`
	Timestamp  int64                  `json:"timestamp"`
}

// authTimeout bounds how long a fresh connection may take to present its
// credential before being dropped.
const authTimeout = 10 * time.Second

// CoordinatorWSHandler upgrades the connection and runs the event loop.
// The first frame must be an authenticate event; failed or banned
// authentication is the one fatal condition, every later failure is
// reported privately and the loop continues.
func CoordinatorWSHandler(logger *logrus.Logger, co *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"cyberskills"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "cyberskills" {
			c.Close(coordinator.CloseBadSubprotocol, "client must use the 'cyberskills' subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		client, ok := authenticateConn(ctx, c, r, logger, co)
		if !ok {
			return
		}
		logger.Infof("user %s (%s) connected from %s", client.UserID, client.Username, r.RemoteAddr)

		go writePump(c, client, logger)

		co.Connect(ctx, client)
		client.Send(coordinator.Message{Event: "authenticated", Data: map[string]string{
			"userId": client.UserID.String(),
		}})

		readLoop(ctx, c, client, logger, co)

		co.Disconnect(context.Background(), client)
		client.Close(websocket.StatusNormalClosure, "disconnect")
		logger.Infof("user %s disconnected", client.UserID)
	}
}

// authenticateConn reads the first frame and resolves it to a registered
// client. The credential comes from the authenticate payload, falling
// back to the auth_token cookie set by the login handler.
func authenticateConn(ctx context.Context, c *websocket.Conn, r *http.Request, logger *logrus.Logger, co *coordinator.Coordinator) (*coordinator.Client, bool) {
	authCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	_, data, err := c.Read(authCtx)
	if err != nil {
		logger.Warnf("no authenticate frame from %s: %v", r.RemoteAddr, err)
		c.Close(coordinator.CloseInvalidToken, "authentication required")
		return nil, false
	}

	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Event != "authenticate" {
		writeRaw(c, coordinator.Message{Event: "authError", Data: map[string]string{
			"message": "first message must be authenticate",
		}})
		c.Close(coordinator.CloseInvalidToken, "authentication required")
		return nil, false
	}

	var payload authenticatePayload
	_ = json.Unmarshal(msg.Data, &payload)
	token := payload.Token
	if token == "" {
		token = extractCookieToken(r.Header.Get("Cookie"), "auth_token")
	}

	user, cerr := co.Authenticate(ctx, token)
	if cerr != nil {
		writeRaw(c, coordinator.Message{Event: "authError", Data: map[string]string{
			"message": cerr.Message,
		}})
		c.Close(coordinator.CloseInvalidToken, cerr.Message)
		return nil, false
	}

	return coordinator.NewClient(user.ID, user.Username, user.Role, c), true
}

// writePump drains the client's out-channel onto the wire in order, then
// closes the socket with whatever status Close recorded. Slow peers get
// bounded write timeouts, never a stalled session.
func writePump(c *websocket.Conn, client *coordinator.Client, logger *logrus.Logger) {
	for msg := range client.Out() {
		data, err := json.Marshal(msg)
		if err != nil {
			logger.Errorf("failed to marshal %q for user %s: %v", msg.Event, client.UserID, err)
			continue
		}
		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = c.Write(writeCtx, websocket.MessageText, data)
		cancel()
		if err != nil {
			logger.Warnf("write to user %s failed: %v", client.UserID, err)
			return
		}
	}

	code, reason := client.CloseStatus()
	if code == 0 {
		code = websocket.StatusNormalClosure
	}
	c.Close(code, reason)
}

// readLoop parses client frames and routes them into the coordinator.
func readLoop(ctx context.Context, c *websocket.Conn, client *coordinator.Client, logger *logrus.Logger, co *coordinator.Coordinator) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("websocket closed normally for user %s", client.UserID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("websocket context canceled for user %s", client.UserID)
			} else {
				logger.Warnf("read error for user %s: %v (status %d)", client.UserID, err, status)
			}
			return
		}
		if typ != websocket.MessageText {
			logger.Warnf("ignoring non-text frame from user %s", client.UserID)
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			client.SendError(coordinator.Errorf(coordinator.KindValidation, "invalid JSON"))
			continue
		}

		if cerr := dispatch(ctx, client, co, msg); cerr != nil {
			client.SendError(cerr)
		}
	}
}

// dispatch routes one parsed frame. All failures come back as taxonomy
// errors for a private report; nothing here reaches the room.
func dispatch(ctx context.Context, client *coordinator.Client, co *coordinator.Coordinator, msg WSMessage) *coordinator.Error {
	switch msg.Event {
	case "join-game":
		var p joinPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return coordinator.Errorf(coordinator.KindValidation, "malformed join-game payload")
		}
		matchID, err := uuid.Parse(p.GameID)
		if err != nil {
			return coordinator.Errorf(coordinator.KindValidation, "gameId must be a UUID")
		}
		return co.Join(ctx, client, matchID, p.PlayerName)

	case "rejoin-game":
		var p rejoinPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return coordinator.Errorf(coordinator.KindValidation, "malformed rejoin-game payload")
		}
		matchID, err := uuid.Parse(p.GameID)
		if err != nil {
			return coordinator.Errorf(coordinator.KindValidation, "gameId must be a UUID")
		}
		playerID, err := uuid.Parse(p.PlayerID)
		if err != nil {
			return coordinator.Errorf(coordinator.KindValidation, "playerId must be a UUID")
		}
		return co.Rejoin(ctx, client, matchID, playerID)

	case "start-game":
		var p startPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return coordinator.Errorf(coordinator.KindValidation, "malformed start-game payload")
		}
		matchID, err := uuid.Parse(p.GameID)
		if err != nil {
			return coordinator.Errorf(coordinator.KindValidation, "gameId must be a UUID")
		}
		return co.Start(ctx, client, matchID)

	case "player-action":
		var p actionPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return coordinator.Errorf(coordinator.KindValidation, "malformed player-action payload")
		}
		act, cerr := buildAction(p)
		if cerr != nil {
			return cerr
		}
		return co.Action(ctx, client, act)

	default:
		return coordinator.Errorf(coordinator.KindValidation, "unknown event %q", msg.Event)
	}
}

// buildAction validates ids on the wire shape and produces the in-memory
// action record that gets applied and echoed.
func buildAction(p actionPayload) (game.Action, *coordinator.Error) {
	playerID, err := uuid.Parse(p.PlayerID)
	if err != nil {
		return game.Action{}, coordinator.Errorf(coordinator.KindValidation, "playerId must be a UUID")
	}
	matchID, err := uuid.Parse(p.GameID)
	if err != nil {
		return game.Action{}, coordinator.Errorf(coordinator.KindValidation, "gameId must be a UUID")
	}
	return game.Action{
		PlayerID:   playerID,
		MatchID:    matchID,
		Kind:       p.Type,
		Data:       p.Data,
		PlayerName: p.PlayerName,
		Timestamp:  p.Timestamp,
	}, nil
}

// writeRaw sends a single message outside the write pump, used only
// before a client exists (the authenticate exchange). Write errors are
// ignored; the connection is being torn down anyway.
func writeRaw(c *websocket.Conn, msg coordinator.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = c.Write(ctx, websocket.MessageText, data)
}

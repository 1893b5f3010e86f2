// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mkleist/uno/internal/game"
	"github.com/mkleist/uno/internal/models"
)

// GameMessage represents the structure for incoming WebSocket messages during
// the game phase.
type GameMessage struct {
	Type string `json:"type"`

	// Payload carries action-specific fields: card_index and color for plays,
	// accused_id for UNO catches.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// GameWSHandler upgrades the HTTP connection to WebSocket for a specific game
// instance. It authenticates the user, seats them (or reconnects them),
// registers the connection, and then starts the read loop to handle incoming
// game messages.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Extract Game ID from URL path: /game/ws/{game_id}
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/game/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "Missing game_id in path (/game/ws/{game_id})", http.StatusBadRequest)
			return
		}
		gameID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "Invalid game_id format", http.StatusBadRequest)
			return
		}

		session, ok := gs.GameStore.GetGame(gameID)
		if !ok {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}
		if session.GameOver {
			http.Error(w, "Game has already ended", http.StatusGone)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for game %s: %v", gameID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "game" {
			logger.Warnf("Client for game %s connected with invalid subprotocol: %s", gameID, c.Subprotocol())
			c.Close(websocket.StatusPolicyViolation, "Client must use the 'game' subprotocol.")
			return
		}
		logger.Infof("WebSocket connection established for game %s from %s", gameID, r.RemoteAddr)

		userID, err := EnsureEphemeralUser(w, r)
		if err != nil {
			logger.Warnf("User authentication failed for game %s: %v", gameID, err)
			c.Close(websocket.StatusPolicyViolation, "Authentication failed.")
			return
		}
		logger.Infof("User %s authenticated for game %s", userID, gameID)

		// Seat the player, or refresh an existing seat. Seating fails once the
		// game has started and the user was never part of it.
		if err := session.AddPlayer(&models.Player{ID: userID, Conn: c, Connected: true}); err != nil {
			logger.Warnf("User %s cannot join game %s: %v", userID, gameID, err)
			c.Close(websocket.StatusPolicyViolation, "You are not a player in this game.")
			return
		}

		// Register broadcast functions if they haven't been set up yet for this
		// session. These handle sending events to clients, managing locks
		// appropriately.
		session.Mu.Lock()
		if session.BroadcastFn == nil {
			session.BroadcastFn = createBroadcastFunc(session, logger)
		}
		if session.BroadcastToPlayerFn == nil {
			session.BroadcastToPlayerFn = createBroadcastToPlayerFunc(session, logger)
		}
		session.Mu.Unlock()

		// Sends the initial sync state (and hand, if the game is live).
		session.HandleReconnect(userID, c)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readGameMessages(ctx, c, session, userID, logger)

		logger.Infof("Player %s WebSocket read loop exited for game %s.", userID, gameID)
		session.HandleDisconnect(userID)
	}
}

// createBroadcastFunc returns a function suitable for GameSession.BroadcastFn.
// It marshals the event and sends it asynchronously to all connected players.
func createBroadcastFunc(session *game.GameSession, logger *logrus.Logger) func(ev game.GameEvent) {
	return func(ev game.GameEvent) {
		// Called while the session lock is held; collect targets, then write
		// outside the lock.
		playersToSend := []*models.Player{}
		for _, p := range session.Players {
			if p.Connected && p.Conn != nil {
				playersToSend = append(playersToSend, p)
			}
		}

		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal broadcast event (%s) for game %s: %v", ev.Type, session.ID, err)
			return
		}

		go func(players []*models.Player, data []byte, gameID uuid.UUID) {
			for _, pl := range players {
				if pl.Conn != nil {
					ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
					err := pl.Conn.Write(ctx, websocket.MessageText, data)
					cancel()
					if err != nil {
						logger.Warnf("Failed to write broadcast message to player %s in game %s: %v", pl.ID, gameID, err)
					}
				}
			}
		}(playersToSend, msgBytes, session.ID)
	}
}

// createBroadcastToPlayerFunc returns a function suitable for
// GameSession.BroadcastToPlayerFn. It finds the target player, marshals the
// event, and sends it asynchronously.
func createBroadcastToPlayerFunc(session *game.GameSession, logger *logrus.Logger) func(targetPlayerID uuid.UUID, ev game.GameEvent) {
	return func(targetPlayerID uuid.UUID, ev game.GameEvent) {
		// Also called while the session lock is held.
		var targetConn *websocket.Conn
		for _, pl := range session.Players {
			if pl.ID == targetPlayerID {
				if pl.Connected && pl.Conn != nil {
					targetConn = pl.Conn
				}
				break
			}
		}
		if targetConn == nil {
			return
		}

		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal private event (%s) for player %s in game %s: %v", ev.Type, targetPlayerID, session.ID, err)
			return
		}
		go func(conn *websocket.Conn, data []byte, playerID uuid.UUID, gameID uuid.UUID) {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write private message to player %s in game %s: %v", playerID, gameID, err)
			}
		}(targetConn, msgBytes, targetPlayerID, session.ID)
	}
}

// readGameMessages continuously reads messages from a client's WebSocket
// connection, unmarshals them, and routes them to the session. It operates
// within the connection's context and exits upon error or cancellation.
func readGameMessages(ctx context.Context, c *websocket.Conn, session *game.GameSession, userID uuid.UUID, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for user %s in game %s.", userID, session.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for user %s in game %s.", userID, session.ID)
			} else {
				logger.Warnf("Error reading from WebSocket for user %s in game %s: %v (Status: %d)", userID, session.ID, err, status)
			}
			return
		}

		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from user %s in game %s. Ignoring.", msgType, userID, session.ID)
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON received from user %s in game %s: %v. Data: %s", userID, session.ID, err, string(data))
			sendWsError(ctx, c, "Invalid JSON format.")
			continue
		}

		logger.Debugf("Received action '%s' from user %s in game %s.", msg.Type, userID, session.ID)

		switch msg.Type {
		case "action_play", "action_draw", "action_say_uno", "action_catch_uno":
			session.Mu.Lock()
			session.HandlePlayerAction(userID, models.GameAction{
				ActionType: msg.Type,
				Payload:    msg.Payload,
			})
			session.Mu.Unlock()

		case "action_start":
			if session.HostID != userID {
				sendWsError(ctx, c, "Only the host can start the game.")
				continue
			}
			if err := session.Start(); err != nil {
				sendWsError(ctx, c, fmt.Sprintf("Cannot start game: %v", err))
			}

		case "ping":
			logger.Tracef("Received ping from user %s, sending pong.", userID)
			sendWsMessage(ctx, c, map[string]string{"type": "pong"})

		default:
			logger.Warnf("Unknown action type '%s' from user %s in game %s.", msg.Type, userID, session.ID)
			sendWsError(ctx, c, fmt.Sprintf("Unknown action type: %s", msg.Type))
		}

		select {
		case <-ctx.Done():
			logger.Infof("Context canceled after processing message for user %s in game %s.", userID, session.ID)
			return
		default:
		}
	}
}

// sendWsMessage marshals a message and sends it to the WebSocket client.
// Includes logging for errors and uses a write timeout.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}) {
	if c == nil {
		log.Println("Error: Attempted to send WebSocket message on nil connection.")
		return
	}
	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling WebSocket message: %v", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = c.Write(writeCtx, websocket.MessageText, msgBytes)
	if err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			log.Printf("Error writing WebSocket message: %v (Status: %d)", err, status)
		}
	}
}

// sendWsError sends a structured error message to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, errorMsg string) {
	sendWsMessage(ctx, c, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}

// internal/handlers/game_server.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/mkleist/uno/internal/auth"
	"github.com/mkleist/uno/internal/game"
	"github.com/mkleist/uno/internal/models"
)

// GameServer is a high-level struct that holds a reference to a GameStore
// and creates new game sessions over HTTP.
type GameServer struct {
	Mutex     sync.Mutex
	GameStore *game.GameStore
}

func NewGameServer() *GameServer {
	return &GameServer{
		GameStore: game.NewGameStore(),
	}
}

type createGameRequest struct {
	TargetScore    int `json:"target_score"`
	CardsPerPlayer int `json:"cards_per_player"`
	TurnTimeoutSec int `json:"turn_timeout_sec"`
}

// CreateGameHandler creates a new in-memory game session owned by the
// requesting user. Players join by opening the game WebSocket.
func (gs *GameServer) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, err := EnsureEphemeralUser(w, r)
	if err != nil {
		log.Warnf("Failed to resolve user for game creation: %v", err)
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}

	var req createGameRequest
	if r.Body != nil {
		// An empty body means default rules.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	rules := models.HouseRules{
		TargetScore:    req.TargetScore,
		CardsPerPlayer: req.CardsPerPlayer,
		TurnTimeoutSec: req.TurnTimeoutSec,
	}
	session := game.NewGameSession(userID, rules)
	gs.GameStore.AddGame(session)
	log.Infof("User %s created game %s", userID, session.ID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"game_id": session.ID,
	})
}

// GameStateHandler returns the obfuscated game state for the requesting user.
// Route: GET /game/state/{game_id}
func (gs *GameServer) GameStateHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDFromPath(r.URL.Path, "/game/state/")
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}
	session, ok := gs.GameStore.GetGame(gameID)
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	token := extractTokenFromCookie(r.Header.Get("Cookie"))
	userIDStr, err := auth.AuthenticateJWT(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		http.Error(w, "invalid user id in token", http.StatusForbidden)
		return
	}

	state := session.GetCurrentObfuscatedGameState(userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

func gameIDFromPath(path, prefix string) (uuid.UUID, error) {
	idStr := strings.TrimPrefix(path, prefix)
	if idx := strings.Index(idStr, "/"); idx != -1 {
		idStr = idStr[:idx]
	}
	return uuid.Parse(idStr)
}

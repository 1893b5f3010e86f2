// internal/game/game.go
package game

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/mkleist/uno/internal/cache"
	"github.com/mkleist/uno/internal/database"
	"github.com/mkleist/uno/internal/models"
	"github.com/mkleist/uno/internal/uno"
)

// OnGameEndFunc is a function signature that can handle a finished game,
// recording results, releasing the session, etc.
type OnGameEndFunc func(gameID uuid.UUID, winner uuid.UUID, scores map[uuid.UUID]int)

// GameSession holds the entire state for a single game instance in memory.
// Cards, turn order and scoring live in the rules engine; the session owns
// seating, connections, the turn timer and persistence. All mutating methods
// expect callers to serialize through Mu unless noted otherwise.
type GameSession struct {
	ID     uuid.UUID
	HostID uuid.UUID

	HouseRules models.HouseRules

	Players []*models.Player
	Engine  *uno.Game

	TurnDuration time.Duration
	turnTimer    *time.Timer
	turnEpoch    int // bumped on every processed action so stale timers can detect themselves
	actionIndex  int

	Started  bool
	GameOver bool
	lastSeen map[uuid.UUID]time.Time
	Mu       sync.Mutex

	// BroadcastFn is used to send events to all players. If nil, no broadcast is done.
	BroadcastFn func(ev GameEvent)

	// BroadcastToPlayerFn sends an event to a single specific player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)

	// OnGameEnd is invoked at game end to broadcast results, etc.
	OnGameEnd OnGameEndFunc
}

// NewGameSession builds an empty session waiting for players to join.
func NewGameSession(hostID uuid.UUID, rules models.HouseRules) *GameSession {
	id, _ := uuid.NewRandom()
	if rules.TargetScore <= 0 {
		rules.TargetScore = uno.DefaultTargetScore
	}
	if rules.CardsPerPlayer <= 0 {
		rules.CardsPerPlayer = uno.DefaultCardsPerPlayer
	}
	return &GameSession{
		ID:           id,
		HostID:       hostID,
		HouseRules:   rules,
		lastSeen:     make(map[uuid.UUID]time.Time),
		TurnDuration: time.Duration(rules.TurnTimeoutSec) * time.Second,
	}
}

// AddPlayer seats a player, or refreshes the connection of a player already
// seated. New players cannot join once the game has started.
func (s *GameSession) AddPlayer(p *models.Player) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	for _, existing := range s.Players {
		if existing.ID == p.ID {
			existing.Conn = p.Conn
			existing.Connected = p.Conn != nil
			s.lastSeen[p.ID] = time.Now()
			return nil
		}
	}
	if s.Started || s.GameOver {
		return errors.New("game already started")
	}
	if len(s.Players) >= uno.MaxPlayers {
		return errors.New("game is full")
	}
	p.Seat = len(s.Players)
	s.Players = append(s.Players, p)
	s.lastSeen[p.ID] = time.Now()
	return nil
}

// Start deals the opening round and begins the turn cycle.
func (s *GameSession) Start() error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.Started || s.GameOver {
		return errors.New("game already started")
	}
	ids := make([]string, len(s.Players))
	for i, p := range s.Players {
		ids[i] = p.ID.String()
	}
	engine, err := uno.NewGame(uno.GameConfig{
		Players:        ids,
		TargetScore:    s.HouseRules.TargetScore,
		CardsPerPlayer: s.HouseRules.CardsPerPlayer,
	})
	if err != nil {
		return err
	}
	s.Engine = engine
	s.Started = true
	log.Printf("Game %s: started with %d players.", s.ID, len(s.Players))
	s.logAction(uuid.Nil, "game_start", map[string]interface{}{"players": ids})

	s.persistSnapshot()
	for _, p := range s.Players {
		s.sendPrivateHand(p.ID)
	}
	s.broadcastPlayerTurn()
	s.scheduleNextTurnTimer()
	return nil
}

// HandlePlayerAction interprets play, draw, UNO declarations and catches.
// This is the main router for player actions. Assumes lock is held by the
// caller (e.g. the WS handler).
func (s *GameSession) HandlePlayerAction(playerID uuid.UUID, action models.GameAction) {
	if s.GameOver {
		log.Printf("Game %s: action %s from player %s after game over. Ignoring.", s.ID, action.ActionType, playerID)
		return
	}
	if !s.Started {
		log.Printf("Game %s: action %s from player %s before game start. Ignoring.", s.ID, action.ActionType, playerID)
		s.fireEventToPlayer(playerID, failEvent("The game has not started yet."))
		return
	}
	player := s.getPlayerByID(playerID)
	if player == nil || !player.Connected {
		log.Printf("Game %s: action %s from unknown or disconnected player %s. Ignoring.", s.ID, action.ActionType, playerID)
		return
	}

	// Play and draw require the turn; UNO declarations and catches do not.
	if action.ActionType == "action_play" || action.ActionType == "action_draw" {
		if seat, ok := s.currentSeat(); !ok || seat != player.Seat {
			log.Printf("Game %s: action %s from player %s out of turn. Ignoring.", s.ID, action.ActionType, playerID)
			s.fireEventToPlayer(playerID, failEvent("It's not your turn."))
			return
		}
	}

	s.lastSeen[playerID] = time.Now()

	switch action.ActionType {
	case "action_play":
		s.handlePlay(player, action.Payload)
	case "action_draw":
		s.handleDraw(player)
	case "action_say_uno":
		s.handleSayUno(player)
	case "action_catch_uno":
		s.handleCatchUno(player, action.Payload)
	default:
		log.Printf("Game %s: unknown action type '%s' from player %s.", s.ID, action.ActionType, playerID)
		s.fireEventToPlayer(playerID, failEvent("Unknown action type."))
	}
}

// handlePlay discards a card from the acting player's hand and applies its
// effect. Assumes lock is held.
func (s *GameSession) handlePlay(player *models.Player, payload map[string]interface{}) {
	idxF, ok := payload["card_index"].(float64)
	if !ok {
		s.fireEventToPlayer(player.ID, failEvent("Missing or invalid card_index."))
		return
	}
	idx := int(idxF)

	chosenColor := uno.ColorNone
	if raw, exists := payload["color"]; exists {
		colorStr, ok := raw.(string)
		if !ok {
			s.fireEventToPlayer(player.ID, failEvent("Invalid color."))
			return
		}
		parsed, err := uno.ParseColor(colorStr)
		if err != nil {
			s.fireEventToPlayer(player.ID, failEvent("Invalid color."))
			return
		}
		chosenColor = parsed
	}

	var played uno.Card
	outcome, err := s.Engine.Apply(func(r *uno.Round) error {
		var playErr error
		played, playErr = r.Play(idx, chosenColor)
		return playErr
	})
	if err != nil {
		s.fireEventToPlayer(player.ID, failEvent(playFailureMessage(err)))
		return
	}

	ev := GameEvent{
		Type: EventPlayerPlay,
		User: &EventUser{ID: player.ID},
		Card: eventCard(played),
	}
	if played.IsWild() {
		ev.Payload = map[string]interface{}{"chosen_color": chosenColor.String()}
	}
	s.fireEvent(ev)
	s.logAction(player.ID, string(EventPlayerPlay), map[string]interface{}{
		"card_index": idx,
		"card":       played.String(),
	})
	s.afterAction(player, outcome)
}

// handleDraw takes the top card of the draw pile into the acting player's
// hand. Depending on the drawn card the turn may stay with the player.
// Assumes lock is held.
func (s *GameSession) handleDraw(player *models.Player) {
	var drawn *uno.Card
	outcome, err := s.Engine.Apply(func(r *uno.Round) error {
		before := r.HandSize(player.Seat)
		if drawErr := r.Draw(); drawErr != nil {
			return drawErr
		}
		hand, handErr := r.Hand(player.Seat)
		if handErr == nil && len(hand) > before {
			c := hand[len(hand)-1]
			drawn = &c
		}
		return nil
	})
	if err != nil {
		s.fireEventToPlayer(player.ID, failEvent(drawFailureMessage(err)))
		return
	}

	s.fireEvent(GameEvent{
		Type: EventPlayerDraw,
		User: &EventUser{ID: player.ID},
	})
	if drawn != nil {
		s.fireEventToPlayer(player.ID, GameEvent{
			Type: EventPrivateDraw,
			Card: eventCard(*drawn),
		})
	}
	s.logAction(player.ID, string(EventPlayerDraw), nil)
	s.afterAction(player, outcome)
}

// handleSayUno records an UNO declaration for the acting player.
// Assumes lock is held.
func (s *GameSession) handleSayUno(player *models.Player) {
	_, err := s.Engine.Apply(func(r *uno.Round) error {
		return r.SayUno(player.Seat)
	})
	if err != nil {
		s.fireEventToPlayer(player.ID, failEvent("Cannot declare UNO right now."))
		return
	}
	s.fireEvent(GameEvent{
		Type: EventPlayerUno,
		User: &EventUser{ID: player.ID},
	})
	s.logAction(player.ID, string(EventPlayerUno), nil)
}

// handleCatchUno accuses another player of failing to declare UNO.
// Assumes lock is held.
func (s *GameSession) handleCatchUno(accuser *models.Player, payload map[string]interface{}) {
	accusedStr, ok := payload["accused_id"].(string)
	if !ok {
		s.fireEventToPlayer(accuser.ID, failEvent("Missing or invalid accused_id."))
		return
	}
	accusedID, err := uuid.Parse(accusedStr)
	if err != nil {
		s.fireEventToPlayer(accuser.ID, failEvent("Missing or invalid accused_id."))
		return
	}
	accused := s.getPlayerByID(accusedID)
	if accused == nil {
		s.fireEventToPlayer(accuser.ID, failEvent("Accused player is not in this game."))
		return
	}

	var caught bool
	_, err = s.Engine.Apply(func(r *uno.Round) error {
		var catchErr error
		caught, catchErr = r.CatchUnoFailure(accuser.Seat, accused.Seat)
		return catchErr
	})
	if err != nil {
		s.fireEventToPlayer(accuser.ID, failEvent("Cannot catch right now."))
		return
	}
	if !caught {
		s.fireEventToPlayer(accuser.ID, failEvent("No UNO violation to catch."))
		return
	}

	s.fireEvent(GameEvent{
		Type: EventPlayerUnoPenalty,
		User: &EventUser{ID: accused.ID},
		Payload: map[string]interface{}{
			"accuser":      accuser.ID.String(),
			"cards_drawn":  4,
			"accused_seat": accused.Seat,
		},
	})
	s.logAction(accuser.ID, string(EventPlayerUnoPenalty), map[string]interface{}{
		"accused": accusedID.String(),
	})
	s.sendPrivateHand(accused.ID)
	s.persistSnapshot()
}

// afterAction handles everything that follows a successful play or draw:
// hand updates, round and game transitions, turn broadcast and timer.
// Assumes lock is held.
func (s *GameSession) afterAction(actor *models.Player, outcome uno.RoundOutcome) {
	s.turnEpoch++

	if !outcome.Ended {
		s.sendPrivateHand(actor.ID)
		s.persistSnapshot()
		s.broadcastPlayerTurn()
		s.scheduleNextTurnTimer()
		return
	}

	winner := s.playerAtSeat(outcome.Winner)
	roundPayload := map[string]interface{}{
		"score":  outcome.Score,
		"totals": s.scoresByPlayer(),
	}
	if winner != nil {
		roundPayload["winner"] = winner.ID.String()
	}
	ev := GameEvent{Type: EventRoundEnd, Payload: roundPayload}
	if winner != nil {
		ev.User = &EventUser{ID: winner.ID}
	}
	s.fireEvent(ev)
	s.logAction(uuid.Nil, string(EventRoundEnd), roundPayload)

	if outcome.GameOver {
		s.finishGame()
		return
	}

	// Next round has been dealt with the round winner as dealer.
	s.persistSnapshot()
	for _, p := range s.Players {
		s.sendPrivateHand(p.ID)
	}
	s.broadcastPlayerTurn()
	s.scheduleNextTurnTimer()
}

// finishGame closes out a completed game: stops timers, broadcasts results
// and persists the final standings. Assumes lock is held.
func (s *GameSession) finishGame() {
	if s.GameOver {
		return
	}
	s.GameOver = true
	s.Started = false
	if s.turnTimer != nil {
		s.turnTimer.Stop()
		s.turnTimer = nil
	}

	scores := s.scoresByPlayer()
	var winnerID uuid.UUID
	if seat, ok := s.Engine.Winner(); ok {
		if winner := s.playerAtSeat(seat); winner != nil {
			winnerID = winner.ID
		}
	}

	payload := map[string]interface{}{
		"winner": winnerID.String(),
		"scores": scores,
	}
	s.fireEvent(GameEvent{Type: EventGameEnd, Payload: payload})
	s.logAction(uuid.Nil, string(EventGameEnd), payload)
	s.persistResults(winnerID, scores)

	if s.OnGameEnd != nil {
		byID := make(map[uuid.UUID]int, len(s.Players))
		for _, p := range s.Players {
			if score, err := s.Engine.Score(p.Seat); err == nil {
				byID[p.ID] = score
			}
		}
		s.OnGameEnd(s.ID, winnerID, byID)
	}
	log.Printf("Game %s: ended. Winner: %s. Scores: %v", s.ID, winnerID, scores)
}

// scheduleNextTurnTimer arms the forced-draw timer for the player currently
// in turn. Assumes lock is held.
func (s *GameSession) scheduleNextTurnTimer() {
	if s.TurnDuration <= 0 {
		return
	}
	if s.turnTimer != nil {
		s.turnTimer.Stop()
	}
	seat, ok := s.currentSeat()
	if !ok {
		return
	}
	current := s.playerAtSeat(seat)
	if current == nil {
		return
	}
	epoch := s.turnEpoch
	curPID := current.ID

	s.turnTimer = time.AfterFunc(s.TurnDuration, func() {
		s.Mu.Lock()
		defer s.Mu.Unlock()
		// Verify the timer is not stale: same turn, game still live.
		if s.GameOver || !s.Started || s.turnEpoch != epoch {
			return
		}
		if seat, ok := s.currentSeat(); !ok || seat != s.playerSeat(curPID) {
			return
		}
		s.handleTimeout(curPID)
	})
}

// handleTimeout forces a draw for a player that let the turn clock run out.
// Assumes lock is held.
func (s *GameSession) handleTimeout(playerID uuid.UUID) {
	log.Printf("Game %s: player %s timed out, forcing a draw.", s.ID, playerID)
	s.logAction(playerID, "player_timeout", nil)
	player := s.getPlayerByID(playerID)
	if player == nil {
		return
	}
	s.handleDraw(player)
}

// broadcastPlayerTurn notifies all players whose turn it is now.
// Assumes lock is held.
func (s *GameSession) broadcastPlayerTurn() {
	seat, ok := s.currentSeat()
	if !ok {
		return
	}
	current := s.playerAtSeat(seat)
	if current == nil {
		return
	}
	payload := map[string]interface{}{"seat": seat}
	if round := s.Engine.CurrentRound(); round != nil {
		payload["current_color"] = round.CurrentColor().String()
		if top, exists := round.TopOfDiscard(); exists {
			payload["discard_top"] = eventCard(top)
		}
	}
	s.fireEvent(GameEvent{
		Type:    EventGamePlayerTurn,
		User:    &EventUser{ID: current.ID},
		Payload: payload,
	})
}

// fireEvent broadcasts an event to all connected players. Assumes lock is held.
func (s *GameSession) fireEvent(ev GameEvent) {
	if s.BroadcastFn != nil {
		s.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends an event only to a specific player. Assumes lock is held.
func (s *GameSession) fireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	if s.BroadcastToPlayerFn == nil {
		return
	}
	target := s.getPlayerByID(playerID)
	if target != nil && target.Connected {
		s.BroadcastToPlayerFn(playerID, ev)
	}
}

// sendPrivateHand reveals a player's current hand to them. Assumes lock is held.
func (s *GameSession) sendPrivateHand(playerID uuid.UUID) {
	player := s.getPlayerByID(playerID)
	if player == nil {
		return
	}
	round := s.Engine.CurrentRound()
	if round == nil {
		return
	}
	hand, err := round.Hand(player.Seat)
	if err != nil {
		return
	}
	s.fireEventToPlayer(playerID, GameEvent{
		Type:  EventPrivateHand,
		Cards: eventCards(hand),
	})
}

// HandleDisconnect marks a player as disconnected.
func (s *GameSession) HandleDisconnect(playerID uuid.UUID) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	player := s.getPlayerByID(playerID)
	if player == nil || !player.Connected {
		return
	}
	log.Printf("Game %s: handling disconnect for player %s.", s.ID, playerID)
	s.logAction(playerID, "player_disconnect", nil)
	player.Connected = false
	player.Conn = nil

	if s.Started && !s.GameOver && s.HouseRules.ForfeitOnDisconnect {
		if remaining := s.countConnectedPlayers(); remaining <= 1 {
			log.Printf("Game %s: one or zero players left connected, closing the game.", s.ID)
			s.finishGame()
			return
		}
	}
	s.broadcastSyncStateToAll()
}

// HandleReconnect marks a player as connected again and resyncs their view.
func (s *GameSession) HandleReconnect(playerID uuid.UUID, conn *websocket.Conn) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	player := s.getPlayerByID(playerID)
	if player == nil {
		log.Printf("Game %s: reconnecting player %s not found.", s.ID, playerID)
		if conn != nil {
			conn.Close(websocket.StatusPolicyViolation, "You are not part of this game.")
		}
		return
	}
	log.Printf("Game %s: handling reconnect for player %s.", s.ID, playerID)
	s.logAction(playerID, "player_reconnect", nil)
	player.Connected = true
	player.Conn = conn
	s.lastSeen[playerID] = time.Now()

	s.sendSyncState(playerID)
	if s.Started {
		s.sendPrivateHand(playerID)
	}
	s.broadcastSyncStateToAll()
}

// sendSyncState sends the obfuscated game state to a specific player.
// Assumes lock is held.
func (s *GameSession) sendSyncState(playerID uuid.UUID) {
	state := s.obfuscatedStateFor(playerID)
	s.fireEventToPlayer(playerID, GameEvent{
		Type:  EventPrivateSyncState,
		State: &state,
	})
}

// broadcastSyncStateToAll sends a per-player sync state to every connected
// player. Assumes lock is held.
func (s *GameSession) broadcastSyncStateToAll() {
	for _, p := range s.Players {
		if p.Connected {
			s.sendSyncState(p.ID)
		}
	}
}

// persistSnapshot writes the engine memento to the cache and database so a
// live game can be restored after a crash. Assumes lock is held.
func (s *GameSession) persistSnapshot() {
	if s.Engine == nil {
		return
	}
	memento := s.Engine.ToMemento()
	gameID := s.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if cache.Rdb != nil {
			if err := cache.StoreGameSnapshot(ctx, gameID, memento); err != nil {
				log.Printf("Game %s: failed to cache snapshot: %v", gameID, err)
			}
		}
		if database.DB != nil {
			if err := database.SaveGameSnapshot(ctx, gameID, memento); err != nil {
				log.Printf("Game %s: failed to persist snapshot: %v", gameID, err)
			}
		}
	}()
}

// persistResults records the final standings. Assumes lock is held.
func (s *GameSession) persistResults(winnerID uuid.UUID, scores map[string]int) {
	gameID := s.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if database.DB == nil {
			return
		}
		if err := database.RecordGameResults(ctx, gameID, winnerID, scores); err != nil {
			log.Printf("Game %s: failed to record results: %v", gameID, err)
		}
	}()
}

// logAction sends the action details to the historian service via Redis.
// Assumes lock is held.
func (s *GameSession) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	s.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        s.ID,
		ActionIndex:   s.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec cache.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cache.Rdb == nil {
			return
		}
		if err := cache.PublishGameAction(ctx, rec); err != nil {
			log.Printf("Error publishing game action %d to Redis for game %s: %v", rec.ActionIndex, s.ID, err)
		}
	}(record)
}

// scoresByPlayer returns cumulative scores keyed by player ID string.
// Assumes lock is held.
func (s *GameSession) scoresByPlayer() map[string]int {
	out := make(map[string]int, len(s.Players))
	for _, p := range s.Players {
		if score, err := s.Engine.Score(p.Seat); err == nil {
			out[p.ID.String()] = score
		}
	}
	return out
}

// currentSeat returns the seat currently in turn. Assumes lock is held.
func (s *GameSession) currentSeat() (int, bool) {
	if s.Engine == nil {
		return 0, false
	}
	round := s.Engine.CurrentRound()
	if round == nil {
		return 0, false
	}
	return round.PlayerInTurn()
}

// getPlayerByID is a helper to find a player struct by their ID.
// Assumes lock is held.
func (s *GameSession) getPlayerByID(playerID uuid.UUID) *models.Player {
	for _, p := range s.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// playerAtSeat resolves a seat index into the seated player. Assumes lock is held.
func (s *GameSession) playerAtSeat(seat int) *models.Player {
	for _, p := range s.Players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

// playerSeat returns the seat for a player ID, or -1. Assumes lock is held.
func (s *GameSession) playerSeat(playerID uuid.UUID) int {
	if p := s.getPlayerByID(playerID); p != nil {
		return p.Seat
	}
	return -1
}

// countConnectedPlayers returns the number of players currently marked as
// connected. Assumes lock is held.
func (s *GameSession) countConnectedPlayers() int {
	count := 0
	for _, p := range s.Players {
		if p.Connected {
			count++
		}
	}
	return count
}

func failEvent(message string) GameEvent {
	return GameEvent{
		Type:    EventPrivateFail,
		Payload: map[string]interface{}{"message": message},
	}
}

// playFailureMessage maps engine errors to client-facing rejection text.
func playFailureMessage(err error) string {
	switch {
	case errors.Is(err, uno.ErrCardIndex):
		return "No such card in your hand."
	case errors.Is(err, uno.ErrIllegalPlay):
		return "That card cannot be played on the current discard."
	case errors.Is(err, uno.ErrMissingColor):
		return "You must choose a color when playing a wild card."
	case errors.Is(err, uno.ErrUnexpectedColor):
		return "Only wild cards take a chosen color."
	case errors.Is(err, uno.ErrRoundEnded), errors.Is(err, uno.ErrGameEnded):
		return "The round is over."
	default:
		return "Play rejected."
	}
}

func drawFailureMessage(err error) string {
	switch {
	case errors.Is(err, uno.ErrDeckExhausted):
		return "No cards left to draw."
	case errors.Is(err, uno.ErrRoundEnded), errors.Is(err, uno.ErrGameEnded):
		return "The round is over."
	default:
		return "Draw rejected."
	}
}

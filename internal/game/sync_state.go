// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
)

// ObfPlayerState represents the minimal state for one player from the
// perspective of a requesting user. Only the requesting user's own hand is
// revealed; everyone else shows a hand size.
type ObfPlayerState struct {
	PlayerID      uuid.UUID   `json:"player_id"`
	Seat          int         `json:"seat"`
	HandSize      int         `json:"hand_size"`
	Score         int         `json:"score"`
	Connected     bool        `json:"connected"`
	IsCurrentTurn bool        `json:"isCurrentTurn"`
	RevealedHand  []EventCard `json:"revealedHand,omitempty"`
}

// ObfGameState is returned by GetCurrentObfuscatedGameState.
type ObfGameState struct {
	GameID          uuid.UUID        `json:"game_id"`
	Started         bool             `json:"started"`
	GameOver        bool             `json:"gameOver"`
	CurrentPlayerID uuid.UUID        `json:"currentPlayerId,omitempty"`
	CurrentColor    string           `json:"currentColor,omitempty"`
	Direction       int              `json:"direction,omitempty"`
	DrawPileSize    int              `json:"drawPileSize"`
	DiscardSize     int              `json:"discardSize"`
	DiscardTop      *EventCard       `json:"discardTop,omitempty"`
	TargetScore     int              `json:"targetScore"`
	Players         []ObfPlayerState `json:"players"`
}

// GetCurrentObfuscatedGameState generates a snapshot of the game for the
// requesting user. Safe to call without holding the session lock.
func (s *GameSession) GetCurrentObfuscatedGameState(forUser uuid.UUID) ObfGameState {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.obfuscatedStateFor(forUser)
}

// obfuscatedStateFor builds the snapshot. Assumes lock is held.
func (s *GameSession) obfuscatedStateFor(forUser uuid.UUID) ObfGameState {
	obf := ObfGameState{
		GameID:   s.ID,
		Started:  s.Started,
		GameOver: s.GameOver,
	}
	if s.Engine == nil {
		for _, pl := range s.Players {
			obf.Players = append(obf.Players, ObfPlayerState{
				PlayerID:  pl.ID,
				Seat:      pl.Seat,
				Connected: pl.Connected,
			})
		}
		obf.TargetScore = s.HouseRules.TargetScore
		return obf
	}

	obf.TargetScore = s.Engine.TargetScore()
	round := s.Engine.CurrentRound()
	currentSeat := -1
	if round != nil {
		if seat, ok := round.PlayerInTurn(); ok {
			currentSeat = seat
			if current := s.playerAtSeat(seat); current != nil {
				obf.CurrentPlayerID = current.ID
			}
		}
		obf.CurrentColor = round.CurrentColor().String()
		obf.Direction = round.Direction()
		obf.DrawPileSize = round.DrawPileSize()
		obf.DiscardSize = round.DiscardPileSize()
		if top, ok := round.TopOfDiscard(); ok {
			obf.DiscardTop = eventCard(top)
		}
	}

	for _, pl := range s.Players {
		ps := ObfPlayerState{
			PlayerID:      pl.ID,
			Seat:          pl.Seat,
			Connected:     pl.Connected,
			IsCurrentTurn: pl.Seat == currentSeat,
		}
		if score, err := s.Engine.Score(pl.Seat); err == nil {
			ps.Score = score
		}
		if round != nil {
			ps.HandSize = round.HandSize(pl.Seat)
			if pl.ID == forUser {
				if hand, err := round.Hand(pl.Seat); err == nil {
					ps.RevealedHand = eventCards(hand)
				}
			}
		}
		obf.Players = append(obf.Players, ps)
	}
	return obf
}

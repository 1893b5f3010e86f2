// internal/game/events.go
package game

import (
	"github.com/google/uuid"

	"github.com/mkleist/uno/internal/uno"
)

// GameEventType is an enum-like type for broadcasting game actions.
type GameEventType string

const (
	EventPlayerPlay       GameEventType = "player_play"         // Public notification of a card played (includes card details)
	EventPlayerDraw       GameEventType = "player_draw"         // Public draw notification (card hidden)
	EventPrivateDraw      GameEventType = "private_draw"        // Private draw details for the drawing player
	EventPlayerUno        GameEventType = "player_uno"          // Public notification of an UNO declaration
	EventPlayerUnoPenalty GameEventType = "player_uno_penalty"  // Public notification of a caught UNO failure
	EventGamePlayerTurn   GameEventType = "game_player_turn"    // Public notification of whose turn it is
	EventRoundEnd         GameEventType = "round_end"           // Public notification a round ended + scores
	EventGameEnd          GameEventType = "game_end"            // Public notification the game has ended + results
	EventPrivateSyncState GameEventType = "private_sync_state"  // Private state sync on connect/reconnect
	EventPrivateHand      GameEventType = "private_hand"        // Private reveal of the player's current hand
	EventPrivateFail      GameEventType = "private_action_fail" // Private notification of a rejected action
)

// EventUser is used within GameEvent payloads for user identification.
type EventUser struct {
	ID uuid.UUID `json:"id"`
}

// EventCard is used within GameEvent payloads for card details.
type EventCard struct {
	Type   string `json:"type"`
	Color  string `json:"color,omitempty"`
	Number *int   `json:"number,omitempty"`
	Idx    *int   `json:"idx,omitempty"`
}

// GameEvent holds data about an event that can be broadcast to the clients in a consistent format.
type GameEvent struct {
	Type  GameEventType `json:"type"`
	User  *EventUser    `json:"user,omitempty"`
	Card  *EventCard    `json:"card,omitempty"`
	Cards []EventCard   `json:"cards,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`

	State *ObfGameState `json:"state,omitempty"`
}

func eventCard(c uno.Card) *EventCard {
	ec := &EventCard{Type: c.Type.String()}
	if c.Colored() {
		ec.Color = c.Color.String()
	}
	if c.Type == uno.Numbered {
		n := c.Number
		ec.Number = &n
	}
	return ec
}

func eventCards(cards []uno.Card) []EventCard {
	out := make([]EventCard, len(cards))
	for i, c := range cards {
		out[i] = *eventCard(c)
	}
	return out
}

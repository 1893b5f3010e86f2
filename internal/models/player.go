package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Player is a seated participant in a game session. The hand itself lives in
// the rules engine; the session resolves a player's seat index into it.
type Player struct {
	ID        uuid.UUID       `json:"id"`
	Seat      int             `json:"seat"`
	Connected bool            `json:"connected"`
	Conn      *websocket.Conn `json:"-"`

	User *User `json:"-"`
}

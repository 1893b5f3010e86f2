// internal/models/house_rules.go
package models

// HouseRules captures the game-time configuration chosen by the host
// including scoring target, hand size, and turn timeouts.
type HouseRules struct {
	// TargetScore is the cumulative score a player must reach to win the game.
	TargetScore int `json:"target_score"`

	// CardsPerPlayer is the hand size dealt at the start of each round.
	CardsPerPlayer int `json:"cards_per_player"`

	// TurnTimeoutSec is how many seconds each turn lasts before a forced draw (0 => no limit).
	TurnTimeoutSec int `json:"turn_timeout_sec"`

	// ForfeitOnDisconnect indicates if a player should immediately forfeit upon disconnect.
	ForfeitOnDisconnect bool `json:"forfeit_on_disconnect"`
}

// TurnTimeoutSeconds returns the configured turn timeout or 0 if no limit.
func (h HouseRules) TurnTimeoutSeconds() int {
	return h.TurnTimeoutSec
}

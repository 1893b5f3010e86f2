// internal/uno/errors.go
package uno

import "errors"

// Illegal-move errors: expected, frequent, and cheap. A command rejected with
// one of these leaves the round untouched; transport handlers drop or NAK the
// offending message and move on.
var (
	ErrRoundEnded      = errors.New("round has ended")
	ErrCardIndex       = errors.New("card index out of bounds")
	ErrPlayerIndex     = errors.New("player index out of bounds")
	ErrIllegalPlay     = errors.New("illegal play")
	ErrMissingColor    = errors.New("must choose a color for a wild card")
	ErrUnexpectedColor = errors.New("cannot choose a color for a non-wild card")
)

// ErrGameEnded is returned when a round action is applied after the game
// winner has been decided.
var ErrGameEnded = errors.New("game has ended")

// ErrConfig wraps construction failures (player count, dealer index, target
// score). These indicate a caller bug and should surface as hard failures.
var ErrConfig = errors.New("invalid configuration")

// ErrDeckExhausted signals that neither the draw pile nor the discard pile can
// supply a card. Unreachable with a standard deck and at most 10 players, but
// never a panic.
var ErrDeckExhausted = errors.New("deck exhausted")

// ErrMemento wraps snapshot validation failures. Restore fails atomically; no
// partially constructed state escapes.
var ErrMemento = errors.New("invalid memento")

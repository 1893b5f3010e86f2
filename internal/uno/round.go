// internal/uno/round.go
package uno

import "fmt"

const (
	// MinPlayers and MaxPlayers bound the seats at a single round.
	MinPlayers = 2
	MaxPlayers = 10

	// DefaultCardsPerPlayer is the hand size dealt when none is specified.
	DefaultCardsPerPlayer = 7

	// maxRedeals bounds the rebuild-and-redeal loop when the revealed top
	// card keeps coming up wild.
	maxRedeals = 10
)

// wildDrawFourAnytime pins the WildDrawFour legality policy: when true a
// WildDrawFour is always playable, when false it is only playable if the
// player holds no card of the active color (the stricter official rule).
const wildDrawFourAnytime = true

type lastAction uint8

const (
	actionNone lastAction = iota
	actionPlay
	actionDraw
)

// Round is one hand of play from deal to one player emptying their hand.
// It is a plain in-memory state machine with no internal locking; the caller
// serializes access per game instance.
type Round struct {
	players      []string
	hands        [][]Card
	drawPile     []Card
	discardPile  []Card // last element is the top
	currentColor Color
	direction    int
	dealer       int
	playerInTurn int // -1 once the round has ended
	unoSaid      []bool
	ended        bool
	winner       int
	lastAction   lastAction
	lastActor    int
	shuffler     Shuffler
}

// NewRound builds, shuffles and deals a fresh round. Cards are dealt one at a
// time in dealer-relative turn order. If the revealed top card is wild, the
// whole deck is rebuilt and redealt; the retry is bounded so a pathological
// shuffler surfaces an error instead of hanging. The revealed card's effect
// is applied as if the dealer had just played it.
func NewRound(players []string, dealer int, shuffler Shuffler, cardsPerPlayer int) (*Round, error) {
	n := len(players)
	if n < MinPlayers {
		return nil, fmt.Errorf("%w: round requires at least %d players", ErrConfig, MinPlayers)
	}
	if n > MaxPlayers {
		return nil, fmt.Errorf("%w: round allows at most %d players", ErrConfig, MaxPlayers)
	}
	if dealer < 0 || dealer >= n {
		return nil, fmt.Errorf("%w: dealer must be a valid player index", ErrConfig)
	}
	if shuffler == nil {
		shuffler = StandardShuffler
	}
	if cardsPerPlayer <= 0 {
		cardsPerPlayer = DefaultCardsPerPlayer
	}
	if n*cardsPerPlayer+1 > DeckSize {
		return nil, fmt.Errorf("%w: cannot deal %d cards to %d players from a %d-card deck", ErrConfig, cardsPerPlayer, n, DeckSize)
	}

	for attempt := 0; attempt < maxRedeals; attempt++ {
		deck := NewStandardDeck()
		shuffler(deck)

		hands := make([][]Card, n)
		for i := range hands {
			hands[i] = make([]Card, 0, cardsPerPlayer)
		}
		idx := 0
		for c := 0; c < cardsPerPlayer; c++ {
			for s := 0; s < n; s++ {
				seat := (dealer + 1 + s) % n
				hands[seat] = append(hands[seat], deck[idx])
				idx++
			}
		}

		top := deck[idx]
		idx++
		if top.IsWild() {
			continue
		}

		r := &Round{
			players:      append([]string(nil), players...),
			hands:        hands,
			drawPile:     append([]Card(nil), deck[idx:]...),
			discardPile:  []Card{top},
			currentColor: top.Color,
			direction:    1,
			dealer:       dealer,
			unoSaid:      make([]bool, n),
			winner:       -1,
			lastActor:    -1,
			shuffler:     shuffler,
		}

		first := (dealer + 1) % n
		switch top.Type {
		case Reverse:
			r.direction = -1
			first = (dealer - 1 + n) % n
		case Skip:
			first = (dealer + 2) % n
		case DrawTwo:
			r.drawInto((dealer+1)%n, 2)
			first = (dealer + 2) % n
		}
		r.playerInTurn = first
		return r, nil
	}
	return nil, fmt.Errorf("%w: no non-wild top card after %d deals", ErrConfig, maxRedeals)
}

// PlayerCount returns the number of seats at the round.
func (r *Round) PlayerCount() int { return len(r.players) }

// Players returns a copy of the player identities in seat order.
func (r *Round) Players() []string { return append([]string(nil), r.players...) }

// Player returns the identity at the given seat.
func (r *Round) Player(index int) (string, error) {
	if index < 0 || index >= len(r.players) {
		return "", ErrPlayerIndex
	}
	return r.players[index], nil
}

// Dealer returns the dealer's seat.
func (r *Round) Dealer() int { return r.dealer }

// Direction is +1 or -1.
func (r *Round) Direction() int { return r.direction }

// CurrentColor is the active color set by the last played card or wild choice.
func (r *Round) CurrentColor() Color { return r.currentColor }

// PlayerInTurn returns the seat whose turn it is. The second return is false
// once the round has ended.
func (r *Round) PlayerInTurn() (int, bool) {
	if r.ended {
		return 0, false
	}
	return r.playerInTurn, true
}

// Hand returns a copy of the given player's hand.
func (r *Round) Hand(index int) ([]Card, error) {
	if index < 0 || index >= len(r.hands) {
		return nil, ErrPlayerIndex
	}
	return append([]Card(nil), r.hands[index]...), nil
}

// HandSize returns the number of cards the given player holds, or 0 for an
// out-of-range index.
func (r *Round) HandSize(index int) int {
	if index < 0 || index >= len(r.hands) {
		return 0
	}
	return len(r.hands[index])
}

// DrawPileSize returns the number of cards left to draw.
func (r *Round) DrawPileSize() int { return len(r.drawPile) }

// DiscardPileSize returns the number of cards in the discard pile.
func (r *Round) DiscardPileSize() int { return len(r.discardPile) }

// TopOfDiscard returns the most recently played card. The second return is
// false only for a structurally broken round; post-setup the discard pile is
// never empty.
func (r *Round) TopOfDiscard() (Card, bool) {
	if len(r.discardPile) == 0 {
		return Card{}, false
	}
	return r.discardPile[len(r.discardPile)-1], true
}

// CanPlay reports whether the card at the given index of the current player's
// hand is playable. It is false once the round has ended or for an
// out-of-range index.
func (r *Round) CanPlay(index int) bool {
	if r.ended {
		return false
	}
	hand := r.hands[r.playerInTurn]
	if index < 0 || index >= len(hand) {
		return false
	}
	card := hand[index]
	switch card.Type {
	case Wild:
		return true
	case WildDrawFour:
		if wildDrawFourAnytime {
			return true
		}
		for _, c := range hand {
			if c.Colored() && c.Color == r.currentColor {
				return false
			}
		}
		return true
	}
	if card.Color == r.currentColor {
		return true
	}
	top, ok := r.TopOfDiscard()
	if !ok {
		return false
	}
	if card.Type == Numbered && top.Type == Numbered && card.Number == top.Number {
		return true
	}
	if card.Type != Numbered && card.Type == top.Type {
		return true
	}
	return false
}

// CanPlayAny reports whether the current player has at least one playable card.
func (r *Round) CanPlayAny() bool {
	if r.ended {
		return false
	}
	for i := range r.hands[r.playerInTurn] {
		if r.CanPlay(i) {
			return true
		}
	}
	return false
}

// Play removes the card at the given index from the current player's hand,
// puts it on the discard pile and resolves its effect. chosenColor must be a
// valid color exactly when the card is wild, and ColorNone otherwise. Any
// precondition failure returns an error with the round left untouched.
func (r *Round) Play(index int, chosenColor Color) (Card, error) {
	if r.ended {
		return Card{}, ErrRoundEnded
	}
	actor := r.playerInTurn
	hand := r.hands[actor]
	if index < 0 || index >= len(hand) {
		return Card{}, ErrCardIndex
	}
	if !r.CanPlay(index) {
		return Card{}, ErrIllegalPlay
	}
	card := hand[index]
	if card.IsWild() && !chosenColor.Valid() {
		return Card{}, ErrMissingColor
	}
	if !card.IsWild() && chosenColor != ColorNone {
		return Card{}, ErrUnexpectedColor
	}

	r.hands[actor] = append(hand[:index:index], hand[index+1:]...)
	r.discardPile = append(r.discardPile, card)
	if card.IsWild() {
		r.currentColor = chosenColor
	} else {
		r.currentColor = card.Color
	}

	// A fresh play clears every other player's stale declaration; the
	// actor's own flag protects their upcoming one-card exposure.
	for i := range r.unoSaid {
		if i != actor {
			r.unoSaid[i] = false
		}
	}

	next := r.nextSeat(actor)
	switch card.Type {
	case Reverse:
		r.direction = -r.direction
		next = r.nextSeat(actor)
		if len(r.players) == 2 {
			// With two players the reverse also skips the opponent.
			next = r.nextSeat(next)
		}
	case Skip:
		next = r.nextSeat(next)
	case DrawTwo:
		r.drawInto(next, 2)
		next = r.nextSeat(next)
	case WildDrawFour:
		r.drawInto(next, 4)
		next = r.nextSeat(next)
	}

	r.lastAction = actionPlay
	r.lastActor = actor

	if len(r.hands[actor]) == 0 {
		r.ended = true
		r.winner = actor
		r.playerInTurn = -1
		return card, nil
	}
	r.playerInTurn = next
	return card, nil
}

// Draw puts one card from the draw pile into the current player's hand,
// reshuffling the discard pile underneath its top card if needed. If the
// drawn card is unplayable the turn passes to the next player; otherwise it
// stays with the drawer.
func (r *Round) Draw() error {
	if r.ended {
		return ErrRoundEnded
	}
	actor := r.playerInTurn
	card, err := r.drawOne()
	if err != nil {
		return err
	}
	r.hands[actor] = append(r.hands[actor], card)
	for i := range r.unoSaid {
		r.unoSaid[i] = false
	}
	r.lastAction = actionDraw
	r.lastActor = actor
	if !r.CanPlay(len(r.hands[actor]) - 1) {
		r.playerInTurn = r.nextSeat(actor)
	}
	return nil
}

// SayUno marks the given player's declaration. Legal at any time before the
// round ends; it does not affect turn order.
func (r *Round) SayUno(player int) error {
	if player < 0 || player >= len(r.players) {
		return ErrPlayerIndex
	}
	if r.ended {
		return ErrRoundEnded
	}
	r.unoSaid[player] = true
	return nil
}

// CatchUnoFailure resolves an accusation that the accused failed to declare
// UNO. It succeeds, drawing 4 penalty cards into the accused's hand, iff the
// accused played the immediately preceding card, holds exactly one card, had
// not declared, and no play or draw has happened since. Any other situation
// returns false with no state change.
func (r *Round) CatchUnoFailure(accuser, accused int) (bool, error) {
	if accuser < 0 || accuser >= len(r.players) {
		return false, ErrPlayerIndex
	}
	if accused < 0 || accused >= len(r.players) {
		return false, ErrPlayerIndex
	}
	if r.ended {
		return false, nil
	}
	if r.lastAction != actionPlay || r.lastActor != accused {
		return false, nil
	}
	if len(r.hands[accused]) != 1 {
		return false, nil
	}
	if r.unoSaid[accused] {
		return false, nil
	}

	r.drawInto(accused, 4)
	for i := range r.unoSaid {
		r.unoSaid[i] = false
	}
	// Closing the window: a caught player cannot be caught again until
	// their next one-card exposure.
	r.lastAction = actionDraw
	return true, nil
}

// HasEnded reports whether some player has emptied their hand.
func (r *Round) HasEnded() bool { return r.ended }

// Winner returns the winning seat. The second return is false while the
// round is still live.
func (r *Round) Winner() (int, bool) {
	if !r.ended {
		return 0, false
	}
	return r.winner, true
}

// Score sums the point values of all non-winning hands. The second return is
// false while the round is still live.
func (r *Round) Score() (int, bool) {
	if !r.ended {
		return 0, false
	}
	total := 0
	for i, hand := range r.hands {
		if i == r.winner {
			continue
		}
		for _, card := range hand {
			total += card.Value()
		}
	}
	return total, true
}

func (r *Round) nextSeat(seat int) int {
	n := len(r.players)
	return (seat + r.direction + n) % n
}

// drawOne deals the front card of the draw pile, reshuffling all but the top
// discard into a fresh draw pile when the draw pile is exhausted. An empty
// draw pile with a single-card discard is the genuine deck-exhausted case.
func (r *Round) drawOne() (Card, error) {
	if len(r.drawPile) == 0 {
		if len(r.discardPile) <= 1 {
			return Card{}, ErrDeckExhausted
		}
		top := r.discardPile[len(r.discardPile)-1]
		rest := append([]Card(nil), r.discardPile[:len(r.discardPile)-1]...)
		r.shuffler(rest)
		r.drawPile = rest
		r.discardPile = []Card{top}
	}
	card, rest, ok := dealFrom(r.drawPile)
	if !ok {
		return Card{}, ErrDeckExhausted
	}
	r.drawPile = rest
	return card, nil
}

// drawInto deals up to count cards to the given player, stopping quietly if
// the piles run dry.
func (r *Round) drawInto(player, count int) {
	for i := 0; i < count; i++ {
		card, err := r.drawOne()
		if err != nil {
			return
		}
		r.hands[player] = append(r.hands[player], card)
	}
}

// internal/uno/memento.go
package uno

import "fmt"

// CardMemento is the serializable form of a single card. Number is a pointer
// so a numbered 0 survives the wire.
type CardMemento struct {
	Type   string `json:"type"`
	Color  string `json:"color,omitempty"`
	Number *int   `json:"number,omitempty"`
}

// RoundMemento is the snapshot format for a round, taken at every observable
// state change and handed to persistence/transport layers. Pile order matches
// the engine: the draw pile deals from the front, the last discard element is
// the top.
type RoundMemento struct {
	Players      []string        `json:"players"`
	Hands        [][]CardMemento `json:"hands"`
	DrawPile     []CardMemento   `json:"drawPile"`
	DiscardPile  []CardMemento   `json:"discardPile"`
	CurrentColor string          `json:"currentColor"`
	Direction    int             `json:"direction"`
	Dealer       int             `json:"dealer"`
	PlayerInTurn *int            `json:"playerInTurn,omitempty"`
}

// GameMemento is the snapshot format for a whole game. CurrentRound is absent
// exactly when the game has a winner.
type GameMemento struct {
	Players        []string      `json:"players"`
	TargetScore    int           `json:"targetScore"`
	Scores         []int         `json:"scores"`
	CardsPerPlayer int           `json:"cardsPerPlayer"`
	CurrentRound   *RoundMemento `json:"currentRound,omitempty"`
}

func cardToMemento(c Card) CardMemento {
	m := CardMemento{Type: c.Type.String()}
	if c.Colored() {
		m.Color = c.Color.String()
	}
	if c.Type == Numbered {
		n := c.Number
		m.Number = &n
	}
	return m
}

func cardFromMemento(m CardMemento) (Card, error) {
	t, err := ParseCardType(m.Type)
	if err != nil {
		return Card{}, err
	}
	card := Card{Type: t}
	if card.Colored() {
		if m.Color == "" {
			return Card{}, fmt.Errorf("%s card is missing its color", m.Type)
		}
		color, err := ParseColor(m.Color)
		if err != nil {
			return Card{}, err
		}
		card.Color = color
	}
	if t == Numbered {
		if m.Number == nil {
			return Card{}, fmt.Errorf("numbered card is missing its number")
		}
		if *m.Number < 0 || *m.Number > 9 {
			return Card{}, fmt.Errorf("numbered card has number %d outside 0-9", *m.Number)
		}
		card.Number = *m.Number
	}
	return card, nil
}

func cardsToMemento(cards []Card) []CardMemento {
	out := make([]CardMemento, len(cards))
	for i, c := range cards {
		out[i] = cardToMemento(c)
	}
	return out
}

func cardsFromMemento(mementos []CardMemento) ([]Card, error) {
	out := make([]Card, len(mementos))
	for i, m := range mementos {
		c, err := cardFromMemento(m)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// ToMemento snapshots the round.
func (r *Round) ToMemento() RoundMemento {
	m := RoundMemento{
		Players:      append([]string(nil), r.players...),
		Hands:        make([][]CardMemento, len(r.hands)),
		DrawPile:     cardsToMemento(r.drawPile),
		DiscardPile:  cardsToMemento(r.discardPile),
		CurrentColor: r.currentColor.String(),
		Direction:    r.direction,
		Dealer:       r.dealer,
	}
	for i, hand := range r.hands {
		m.Hands[i] = cardsToMemento(hand)
	}
	if !r.ended {
		turn := r.playerInTurn
		m.PlayerInTurn = &turn
	}
	return m
}

// RoundFromMemento validates the snapshot and reconstructs an equivalent
// round. Any structural inconsistency fails atomically with ErrMemento; no
// partially built round is ever returned. The restored round has a closed
// UNO-accusation window and cleared declarations.
func RoundFromMemento(m RoundMemento, shuffler Shuffler) (*Round, error) {
	n := len(m.Players)
	if n < MinPlayers {
		return nil, fmt.Errorf("%w: round requires at least %d players", ErrMemento, MinPlayers)
	}
	if n > MaxPlayers {
		return nil, fmt.Errorf("%w: round allows at most %d players", ErrMemento, MaxPlayers)
	}
	if len(m.Hands) != n {
		return nil, fmt.Errorf("%w: %d hands for %d players", ErrMemento, len(m.Hands), n)
	}
	if len(m.DiscardPile) == 0 {
		return nil, fmt.Errorf("%w: empty discard pile", ErrMemento)
	}
	if m.Dealer < 0 || m.Dealer >= n {
		return nil, fmt.Errorf("%w: invalid dealer index %d", ErrMemento, m.Dealer)
	}
	if m.Direction != 1 && m.Direction != -1 {
		return nil, fmt.Errorf("%w: direction must be 1 or -1, got %d", ErrMemento, m.Direction)
	}

	emptyHands := 0
	winner := -1
	for i, hand := range m.Hands {
		if len(hand) == 0 {
			emptyHands++
			winner = i
		}
	}
	if emptyHands > 1 {
		return nil, fmt.Errorf("%w: multiple empty hands", ErrMemento)
	}
	if emptyHands == 0 && m.PlayerInTurn == nil {
		return nil, fmt.Errorf("%w: missing playerInTurn on a live round", ErrMemento)
	}
	if emptyHands == 1 && m.PlayerInTurn != nil {
		return nil, fmt.Errorf("%w: playerInTurn set on an ended round", ErrMemento)
	}
	if m.PlayerInTurn != nil && (*m.PlayerInTurn < 0 || *m.PlayerInTurn >= n) {
		return nil, fmt.Errorf("%w: invalid playerInTurn %d", ErrMemento, *m.PlayerInTurn)
	}

	currentColor, err := ParseColor(m.CurrentColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMemento, err)
	}

	hands := make([][]Card, n)
	for i, hand := range m.Hands {
		cards, err := cardsFromMemento(hand)
		if err != nil {
			return nil, fmt.Errorf("%w: hand %d: %v", ErrMemento, i, err)
		}
		hands[i] = cards
	}
	drawPile, err := cardsFromMemento(m.DrawPile)
	if err != nil {
		return nil, fmt.Errorf("%w: draw pile: %v", ErrMemento, err)
	}
	discardPile, err := cardsFromMemento(m.DiscardPile)
	if err != nil {
		return nil, fmt.Errorf("%w: discard pile: %v", ErrMemento, err)
	}

	top := discardPile[len(discardPile)-1]
	if top.Colored() && top.Color != currentColor {
		return nil, fmt.Errorf("%w: currentColor %s inconsistent with discard top %s", ErrMemento, currentColor, top)
	}

	if shuffler == nil {
		shuffler = StandardShuffler
	}
	r := &Round{
		players:      append([]string(nil), m.Players...),
		hands:        hands,
		drawPile:     drawPile,
		discardPile:  discardPile,
		currentColor: currentColor,
		direction:    m.Direction,
		dealer:       m.Dealer,
		playerInTurn: -1,
		unoSaid:      make([]bool, n),
		ended:        emptyHands == 1,
		winner:       winner,
		lastActor:    -1,
		shuffler:     shuffler,
	}
	if m.PlayerInTurn != nil {
		r.playerInTurn = *m.PlayerInTurn
	}
	return r, nil
}

// ToMemento snapshots the game, including the live round if one exists.
func (g *Game) ToMemento() GameMemento {
	m := GameMemento{
		Players:        append([]string(nil), g.players...),
		TargetScore:    g.targetScore,
		Scores:         append([]int(nil), g.scores...),
		CardsPerPlayer: g.cardsPerPlayer,
	}
	if g.currentRound != nil {
		round := g.currentRound.ToMemento()
		m.CurrentRound = &round
	}
	return m
}

// GameFromMemento validates the snapshot and reconstructs an equivalent game.
func GameFromMemento(m GameMemento, shuffler Shuffler, randomizer Randomizer) (*Game, error) {
	n := len(m.Players)
	if n < MinPlayers {
		return nil, fmt.Errorf("%w: game requires at least %d players", ErrMemento, MinPlayers)
	}
	if m.TargetScore <= 0 {
		return nil, fmt.Errorf("%w: target score must be positive", ErrMemento)
	}
	if len(m.Scores) != n {
		return nil, fmt.Errorf("%w: %d scores for %d players", ErrMemento, len(m.Scores), n)
	}
	winners := 0
	winner := -1
	for i, s := range m.Scores {
		if s < 0 {
			return nil, fmt.Errorf("%w: negative score for player %d", ErrMemento, i)
		}
		if s >= m.TargetScore {
			winners++
			winner = i
		}
	}
	if winners > 1 {
		return nil, fmt.Errorf("%w: multiple game winners", ErrMemento)
	}
	if winners == 0 && m.CurrentRound == nil {
		return nil, fmt.Errorf("%w: missing currentRound in an unfinished game", ErrMemento)
	}

	if shuffler == nil {
		shuffler = StandardShuffler
	}
	if randomizer == nil {
		randomizer = StandardRandomizer
	}
	cardsPerPlayer := m.CardsPerPlayer
	if cardsPerPlayer <= 0 {
		cardsPerPlayer = DefaultCardsPerPlayer
	}

	g := &Game{
		players:        append([]string(nil), m.Players...),
		scores:         append([]int(nil), m.Scores...),
		targetScore:    m.TargetScore,
		cardsPerPlayer: cardsPerPlayer,
		shuffler:       shuffler,
		randomizer:     randomizer,
		winner:         winner,
		hasWinner:      winners == 1,
	}
	if m.CurrentRound != nil {
		round, err := RoundFromMemento(*m.CurrentRound, shuffler)
		if err != nil {
			return nil, err
		}
		if len(round.players) != n {
			return nil, fmt.Errorf("%w: round players do not match game players", ErrMemento)
		}
		g.currentRound = round
	}
	return g, nil
}

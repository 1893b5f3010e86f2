// internal/uno/deck.go
package uno

// DeckSize is the card count of a standard deck.
const DeckSize = 108

// NewStandardDeck returns the 108-card composition in a fixed, deterministic
// pre-shuffle order: for each color one 0 and two of each 1-9, then for each
// color two Skip, two Reverse and two DrawTwo, then four Wild and four
// WildDrawFour.
func NewStandardDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, color := range Colors {
		deck = append(deck, Card{Type: Numbered, Color: color, Number: 0})
		for n := 1; n <= 9; n++ {
			deck = append(deck,
				Card{Type: Numbered, Color: color, Number: n},
				Card{Type: Numbered, Color: color, Number: n},
			)
		}
	}
	for _, color := range Colors {
		deck = append(deck,
			Card{Type: Skip, Color: color},
			Card{Type: Skip, Color: color},
			Card{Type: Reverse, Color: color},
			Card{Type: Reverse, Color: color},
			Card{Type: DrawTwo, Color: color},
			Card{Type: DrawTwo, Color: color},
		)
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, Card{Type: Wild}, Card{Type: WildDrawFour})
	}
	return deck
}

// dealFrom removes and returns the front card of the pile.
// The second return is false if the pile is empty.
func dealFrom(pile []Card) (Card, []Card, bool) {
	if len(pile) == 0 {
		return Card{}, pile, false
	}
	return pile[0], pile[1:], true
}

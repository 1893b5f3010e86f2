// internal/uno/card.go
package uno

import "fmt"

// Color is the color of a colored card, or the active color chosen for a wild.
// ColorNone is only valid on Wild and WildDrawFour cards.
type Color uint8

const (
	ColorNone Color = iota
	Red
	Green
	Blue
	Yellow
)

// Colors lists the four playable colors in deck order.
var Colors = [4]Color{Red, Green, Blue, Yellow}

func (c Color) Valid() bool {
	return c >= Red && c <= Yellow
}

func (c Color) String() string {
	switch c {
	case Red:
		return "RED"
	case Green:
		return "GREEN"
	case Blue:
		return "BLUE"
	case Yellow:
		return "YELLOW"
	default:
		return "NONE"
	}
}

// ParseColor maps the wire/memento representation back to a Color.
func ParseColor(s string) (Color, error) {
	switch s {
	case "RED":
		return Red, nil
	case "GREEN":
		return Green, nil
	case "BLUE":
		return Blue, nil
	case "YELLOW":
		return Yellow, nil
	}
	return ColorNone, fmt.Errorf("unknown color %q", s)
}

// CardType discriminates the closed set of card variants.
type CardType uint8

const (
	Numbered CardType = iota
	Skip
	Reverse
	DrawTwo
	Wild
	WildDrawFour
)

func (t CardType) String() string {
	switch t {
	case Numbered:
		return "NUMBERED"
	case Skip:
		return "SKIP"
	case Reverse:
		return "REVERSE"
	case DrawTwo:
		return "DRAW"
	case Wild:
		return "WILD"
	case WildDrawFour:
		return "WILD DRAW"
	default:
		return "UNKNOWN"
	}
}

// ParseCardType maps the wire/memento representation back to a CardType.
func ParseCardType(s string) (CardType, error) {
	switch s {
	case "NUMBERED":
		return Numbered, nil
	case "SKIP":
		return Skip, nil
	case "REVERSE":
		return Reverse, nil
	case "DRAW":
		return DrawTwo, nil
	case "WILD":
		return Wild, nil
	case "WILD DRAW":
		return WildDrawFour, nil
	}
	return Numbered, fmt.Errorf("unknown card type %q", s)
}

// Card is an immutable value over the tagged union
// {Numbered(color, 0-9), Skip(color), Reverse(color), DrawTwo(color), Wild, WildDrawFour}.
// Color is ColorNone exactly for the two wild variants; Number is meaningful
// only for Numbered cards. Equality is structural (plain ==).
type Card struct {
	Type   CardType `json:"type"`
	Color  Color    `json:"color,omitempty"`
	Number int      `json:"number,omitempty"`
}

// Colored reports whether the card carries a fixed color of its own.
func (c Card) Colored() bool {
	return c.Type != Wild && c.Type != WildDrawFour
}

// IsWild reports whether the card is Wild or WildDrawFour.
func (c Card) IsWild() bool {
	return c.Type == Wild || c.Type == WildDrawFour
}

// Value is the card's point value when left in a losing hand at round end.
func (c Card) Value() int {
	switch c.Type {
	case Numbered:
		return c.Number
	case Skip, Reverse, DrawTwo:
		return 20
	case Wild, WildDrawFour:
		return 50
	default:
		return 0
	}
}

func (c Card) String() string {
	switch c.Type {
	case Numbered:
		return fmt.Sprintf("%s %d", c.Color, c.Number)
	case Wild, WildDrawFour:
		return c.Type.String()
	default:
		return fmt.Sprintf("%s %s", c.Color, c.Type)
	}
}

// internal/uno/round_test.go
package uno

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noShuffle leaves the deck in its fixed build order.
func noShuffle([]Card) {}

// frontload returns a Shuffler that moves the wanted cards, in order, to the
// front of the deck. Positions beyond the wanted cards keep the build order.
// With n players and k cards per player, position p < n*k lands in the hand
// of seat (dealer+1+p%n) mod n, position n*k is the revealed top card, and
// everything after is the draw pile front-first.
func frontload(wanted ...Card) Shuffler {
	return func(cards []Card) {
		pos := 0
		for _, w := range wanted {
			for i := pos; i < len(cards); i++ {
				if cards[i] == w {
					cards[pos], cards[i] = cards[i], cards[pos]
					pos++
					break
				}
			}
		}
	}
}

// shuffleSequence uses a different shuffler per call, repeating the last one.
func shuffleSequence(shufflers ...Shuffler) Shuffler {
	i := 0
	return func(cards []Card) {
		idx := i
		if idx >= len(shufflers) {
			idx = len(shufflers) - 1
		}
		i++
		shufflers[idx](cards)
	}
}

// seededShuffler reproduces the same permutation on every call.
func seededShuffler(seed int64) Shuffler {
	return func(cards []Card) {
		r := rand.New(rand.NewSource(seed))
		r.Shuffle(len(cards), func(i, j int) {
			cards[i], cards[j] = cards[j], cards[i]
		})
	}
}

func num(color Color, n int) Card { return Card{Type: Numbered, Color: color, Number: n} }
func skip(color Color) Card       { return Card{Type: Skip, Color: color} }
func reverse(color Color) Card    { return Card{Type: Reverse, Color: color} }
func drawTwo(color Color) Card    { return Card{Type: DrawTwo, Color: color} }
func wild() Card                  { return Card{Type: Wild} }
func wildDrawFour() Card          { return Card{Type: WildDrawFour} }

func cardTotal(r *Round) int {
	total := r.DrawPileSize() + r.DiscardPileSize()
	for i := 0; i < r.PlayerCount(); i++ {
		total += r.HandSize(i)
	}
	return total
}

func TestNewRoundValidation(t *testing.T) {
	_, err := NewRound([]string{"solo"}, 0, noShuffle, 7)
	assert.ErrorIs(t, err, ErrConfig)

	eleven := make([]string, 11)
	for i := range eleven {
		eleven[i] = "p"
	}
	_, err = NewRound(eleven, 0, noShuffle, 7)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewRound([]string{"a", "b"}, -1, noShuffle, 7)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = NewRound([]string{"a", "b"}, 2, noShuffle, 7)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestNewRoundDealsInTurnOrder(t *testing.T) {
	r, err := NewRound([]string{"a", "b", "c", "d"}, 0, noShuffle, 7)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		assert.Equal(t, 7, r.HandSize(i))
	}
	assert.Equal(t, DeckSize-4*7-1, r.DrawPileSize())
	assert.Equal(t, 1, r.DiscardPileSize())
	assert.Equal(t, DeckSize, cardTotal(r))

	// Build order: deck[28] is the revealed Green 5.
	top, ok := r.TopOfDiscard()
	require.True(t, ok)
	assert.Equal(t, num(Green, 5), top)
	assert.Equal(t, Green, r.CurrentColor())

	seat, live := r.PlayerInTurn()
	require.True(t, live)
	assert.Equal(t, 1, seat, "numbered top: first player is the seat after the dealer")
	assert.Equal(t, 1, r.Direction())

	// Seat after the dealer received the first dealt card.
	hand, err := r.Hand(1)
	require.NoError(t, err)
	assert.Equal(t, num(Red, 0), hand[0])
}

func TestNewRoundRedealsOnWildTop(t *testing.T) {
	junk := []Card{num(Blue, 1), num(Blue, 2), num(Blue, 3), num(Yellow, 1), num(Yellow, 2), num(Yellow, 3)}

	wildTop := frontload(append(append([]Card(nil), junk...), wild())...)
	cleanTop := frontload(append(append([]Card(nil), junk...), num(Green, 5))...)

	r, err := NewRound([]string{"a", "b", "c"}, 0, shuffleSequence(wildTop, cleanTop), 2)
	require.NoError(t, err)
	top, _ := r.TopOfDiscard()
	assert.Equal(t, num(Green, 5), top, "wild top forces a full redeal")
	for i := 0; i < 3; i++ {
		assert.Equal(t, 2, r.HandSize(i))
	}
	assert.Equal(t, DeckSize, cardTotal(r))
}

func TestNewRoundFailsAfterBoundedRedeals(t *testing.T) {
	alwaysWild := frontload(num(Blue, 1), num(Blue, 2), num(Blue, 3), num(Yellow, 1), num(Yellow, 2), num(Yellow, 3), wild())
	_, err := NewRound([]string{"a", "b", "c"}, 0, alwaysWild, 2)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestInitialTopCardEffects(t *testing.T) {
	players := []string{"a", "b", "c"}
	junk := []Card{num(Blue, 1), num(Blue, 2), num(Blue, 3), num(Yellow, 1), num(Yellow, 2), num(Yellow, 3)}
	deal := func(top Card) *Round {
		r, err := NewRound(players, 0, frontload(append(append([]Card(nil), junk...), top)...), 2)
		require.NoError(t, err)
		got, _ := r.TopOfDiscard()
		require.Equal(t, top, got)
		return r
	}

	t.Run("reverse flips direction and starts before the dealer", func(t *testing.T) {
		r := deal(reverse(Green))
		assert.Equal(t, -1, r.Direction())
		seat, _ := r.PlayerInTurn()
		assert.Equal(t, 2, seat)
		assert.Equal(t, Green, r.CurrentColor())
	})

	t.Run("skip starts two seats after the dealer", func(t *testing.T) {
		r := deal(skip(Green))
		assert.Equal(t, 1, r.Direction())
		seat, _ := r.PlayerInTurn()
		assert.Equal(t, 2, seat)
	})

	t.Run("draw-two deals two to the next seat and skips it", func(t *testing.T) {
		r := deal(drawTwo(Green))
		assert.Equal(t, 4, r.HandSize(1), "seat after the dealer drew two")
		assert.Equal(t, 2, r.HandSize(0))
		assert.Equal(t, 2, r.HandSize(2))
		seat, _ := r.PlayerInTurn()
		assert.Equal(t, 2, seat)
		assert.Equal(t, DeckSize, cardTotal(r))
	})
}

// twoPlayerRound stacks a 2-player round with dealer 1 so that seat 0 is
// first in turn, holds the even frontload positions in order, and the top
// card sits at position 2*cardsPerPlayer.
func twoPlayerRound(t *testing.T, cardsPerPlayer int, stacked ...Card) *Round {
	t.Helper()
	r, err := NewRound([]string{"a", "b"}, 1, frontload(stacked...), cardsPerPlayer)
	require.NoError(t, err)
	seat, live := r.PlayerInTurn()
	require.True(t, live)
	require.Equal(t, 0, seat)
	return r
}

func TestCanPlayMatrix(t *testing.T) {
	r := twoPlayerRound(t, 7,
		num(Green, 3), num(Red, 1),
		num(Red, 5), num(Red, 1),
		num(Red, 7), num(Red, 2),
		skip(Green), num(Red, 2),
		skip(Red), num(Red, 3),
		wild(), num(Red, 3),
		wildDrawFour(), num(Red, 4),
		num(Green, 5), // top
	)

	hand, err := r.Hand(0)
	require.NoError(t, err)
	require.Equal(t, []Card{num(Green, 3), num(Red, 5), num(Red, 7), skip(Green), skip(Red), wild(), wildDrawFour()}, hand)

	assert.True(t, r.CanPlay(0), "color match")
	assert.True(t, r.CanPlay(1), "cross-color number match")
	assert.False(t, r.CanPlay(2), "no match")
	assert.True(t, r.CanPlay(3), "color match on action card")
	assert.False(t, r.CanPlay(4), "skip against a numbered top of another color")
	assert.True(t, r.CanPlay(5), "wild always playable")
	assert.True(t, r.CanPlay(6), "wild draw four playable under the pinned policy")
	assert.False(t, r.CanPlay(-1))
	assert.False(t, r.CanPlay(7))
	assert.True(t, r.CanPlayAny())

	// Cross-color type match: after the green skip is played the red skip
	// becomes legal even though the color changed.
	_, err = r.Play(3, ColorNone)
	require.NoError(t, err)
	seat, _ := r.PlayerInTurn()
	require.Equal(t, 0, seat, "two-player skip keeps the turn")
	hand, _ = r.Hand(0)
	require.Equal(t, skip(Red), hand[3])
	assert.True(t, r.CanPlay(3), "same special type across colors")
	assert.False(t, r.CanPlay(2), "red 7 still dead against green")
}

func TestPlayPreconditionsLeaveStateUntouched(t *testing.T) {
	r := twoPlayerRound(t, 7,
		num(Green, 3), num(Red, 1),
		num(Red, 5), num(Red, 1),
		num(Red, 7), num(Red, 2),
		skip(Green), num(Red, 2),
		skip(Red), num(Red, 3),
		wild(), num(Red, 3),
		wildDrawFour(), num(Red, 4),
		num(Green, 5),
	)
	before := r.ToMemento()

	_, err := r.Play(99, ColorNone)
	assert.ErrorIs(t, err, ErrCardIndex)
	_, err = r.Play(-1, ColorNone)
	assert.ErrorIs(t, err, ErrCardIndex)
	_, err = r.Play(2, ColorNone)
	assert.ErrorIs(t, err, ErrIllegalPlay)
	_, err = r.Play(5, ColorNone)
	assert.ErrorIs(t, err, ErrMissingColor)
	_, err = r.Play(0, Blue)
	assert.ErrorIs(t, err, ErrUnexpectedColor)
	err = r.SayUno(-1)
	assert.ErrorIs(t, err, ErrPlayerIndex)
	_, err = r.CatchUnoFailure(0, 5)
	assert.ErrorIs(t, err, ErrPlayerIndex)

	assert.Equal(t, before, r.ToMemento(), "rejected commands leave the round byte-for-byte unchanged")
}

func TestPlayNumberedAdvancesTurn(t *testing.T) {
	r := twoPlayerRound(t, 7,
		num(Green, 3), num(Red, 1),
		num(Red, 5), num(Red, 1),
		num(Red, 7), num(Red, 2),
		skip(Green), num(Red, 2),
		skip(Red), num(Red, 3),
		wild(), num(Red, 3),
		wildDrawFour(), num(Red, 4),
		num(Green, 5),
	)
	played, err := r.Play(0, ColorNone)
	require.NoError(t, err)
	assert.Equal(t, num(Green, 3), played)
	top, _ := r.TopOfDiscard()
	assert.Equal(t, num(Green, 3), top)
	assert.Equal(t, Green, r.CurrentColor())
	assert.Equal(t, 6, r.HandSize(0))
	seat, _ := r.PlayerInTurn()
	assert.Equal(t, 1, seat)
	assert.Equal(t, DeckSize, cardTotal(r))
}

func TestTwoPlayerReverseActsAsSkip(t *testing.T) {
	r := twoPlayerRound(t, 7,
		reverse(Green), num(Red, 1),
		num(Red, 5), num(Red, 1),
		num(Red, 7), num(Red, 2),
		skip(Green), num(Red, 2),
		skip(Red), num(Red, 3),
		wild(), num(Red, 3),
		wildDrawFour(), num(Red, 4),
		num(Green, 5),
	)
	opponentBefore := r.HandSize(1)
	_, err := r.Play(0, ColorNone)
	require.NoError(t, err)

	seat, _ := r.PlayerInTurn()
	assert.Equal(t, 0, seat, "two-player reverse keeps the turn with the actor")
	assert.Equal(t, -1, r.Direction(), "the direction still flips")
	assert.Equal(t, opponentBefore, r.HandSize(1), "the skipped player draws nothing")
}

func TestThreePlayerReverseFlipsDirection(t *testing.T) {
	// Seat order for dealer 0: positions cycle seats 1,2,0. The numbered
	// top puts seat 1 in turn holding the green reverse.
	r, err := NewRound([]string{"a", "b", "c"}, 0, frontload(
		reverse(Green), num(Blue, 1), num(Yellow, 1),
		num(Green, 7), num(Blue, 2), num(Yellow, 2),
		num(Green, 5), // top
	), 2)
	require.NoError(t, err)
	seat, _ := r.PlayerInTurn()
	require.Equal(t, 1, seat)

	_, err = r.Play(0, ColorNone)
	require.NoError(t, err)
	assert.Equal(t, -1, r.Direction())
	seat, _ = r.PlayerInTurn()
	assert.Equal(t, 0, seat, "play passes backwards after a reverse")
}

func TestPlayDrawTwoForcesDrawsAndSkips(t *testing.T) {
	r := twoPlayerRound(t, 7,
		drawTwo(Green), num(Blue, 1),
		num(Red, 1), num(Blue, 2),
		num(Red, 2), num(Blue, 3),
		num(Red, 3), num(Blue, 4),
		num(Red, 4), num(Blue, 6),
		num(Red, 6), num(Blue, 7),
		num(Red, 7), num(Blue, 8),
		num(Green, 5), // top
		num(Red, 8), num(Red, 9), // draw pile front
	)
	_, err := r.Play(0, ColorNone)
	require.NoError(t, err)

	assert.Equal(t, 9, r.HandSize(1), "opponent drew two")
	hand, _ := r.Hand(1)
	assert.Equal(t, num(Red, 8), hand[7])
	assert.Equal(t, num(Red, 9), hand[8])
	seat, _ := r.PlayerInTurn()
	assert.Equal(t, 0, seat, "the drawing player is skipped")
	assert.Equal(t, DeckSize, cardTotal(r))
}

func TestPlayWildDrawFour(t *testing.T) {
	r := twoPlayerRound(t, 2,
		wildDrawFour(), num(Blue, 1),
		num(Red, 9), num(Blue, 2),
		num(Green, 5), // top
		num(Red, 1), num(Red, 2), num(Red, 3), num(Red, 4), // draw pile front
	)
	played, err := r.Play(0, Green)
	require.NoError(t, err)
	assert.Equal(t, wildDrawFour(), played)

	top, _ := r.TopOfDiscard()
	assert.Equal(t, wildDrawFour(), top)
	assert.Equal(t, Green, r.CurrentColor())
	assert.Equal(t, 6, r.HandSize(1), "opponent's hand grew by exactly 4")
	seat, _ := r.PlayerInTurn()
	assert.Equal(t, 0, seat, "turn skips the penalized player")
	assert.False(t, r.HasEnded())
	assert.Equal(t, DeckSize, cardTotal(r))
}

func TestDrawPassesWhenUnplayable(t *testing.T) {
	r := twoPlayerRound(t, 7,
		num(Red, 1), num(Blue, 1),
		num(Red, 1), num(Blue, 2),
		num(Red, 2), num(Blue, 3),
		num(Red, 2), num(Blue, 4),
		num(Red, 3), num(Blue, 6),
		num(Red, 3), num(Blue, 7),
		num(Red, 4), num(Blue, 8),
		num(Green, 5), // top
		num(Red, 9), // unplayable against green 5
	)
	require.False(t, r.CanPlayAny())

	require.NoError(t, r.Draw())
	assert.Equal(t, 8, r.HandSize(0))
	hand, _ := r.Hand(0)
	assert.Equal(t, num(Red, 9), hand[7])
	seat, _ := r.PlayerInTurn()
	assert.Equal(t, 1, seat, "unplayable draw passes the turn")
}

func TestDrawKeepsTurnWhenPlayable(t *testing.T) {
	r := twoPlayerRound(t, 7,
		num(Red, 1), num(Blue, 1),
		num(Red, 1), num(Blue, 2),
		num(Red, 2), num(Blue, 3),
		num(Red, 2), num(Blue, 4),
		num(Red, 3), num(Blue, 6),
		num(Red, 3), num(Blue, 7),
		num(Red, 4), num(Blue, 8),
		num(Green, 5), // top
		num(Green, 9), // playable against green 5
	)
	require.NoError(t, r.Draw())
	assert.Equal(t, 8, r.HandSize(0))
	seat, _ := r.PlayerInTurn()
	assert.Equal(t, 0, seat, "a playable draw keeps the turn")
	assert.True(t, r.CanPlay(7))
}

func TestDrawReshufflesFromDiscard(t *testing.T) {
	turn := 0
	r, err := RoundFromMemento(RoundMemento{
		Players: []string{"a", "b"},
		Hands: [][]CardMemento{
			{cardToMemento(num(Red, 2))},
			{cardToMemento(num(Yellow, 3))},
		},
		DrawPile: nil,
		DiscardPile: []CardMemento{
			cardToMemento(num(Green, 5)),
			cardToMemento(num(Red, 9)),
			cardToMemento(num(Blue, 1)),
		},
		CurrentColor: "BLUE",
		Direction:    1,
		Dealer:       0,
		PlayerInTurn: &turn,
	}, noShuffle)
	require.NoError(t, err)

	require.NoError(t, r.Draw())
	assert.Equal(t, 1, r.DiscardPileSize(), "only the top card stays in the discard")
	top, _ := r.TopOfDiscard()
	assert.Equal(t, num(Blue, 1), top)
	assert.Equal(t, 1, r.DrawPileSize())
	assert.Equal(t, 2, r.HandSize(0))
	hand, _ := r.Hand(0)
	assert.Equal(t, num(Green, 5), hand[1], "reshuffled pile deals bottom-of-discard first")
}

func TestDrawDeckExhausted(t *testing.T) {
	turn := 0
	r, err := RoundFromMemento(RoundMemento{
		Players: []string{"a", "b"},
		Hands: [][]CardMemento{
			{cardToMemento(num(Red, 2))},
			{cardToMemento(num(Yellow, 3))},
		},
		DrawPile:     nil,
		DiscardPile:  []CardMemento{cardToMemento(num(Blue, 1))},
		CurrentColor: "BLUE",
		Direction:    1,
		Dealer:       0,
		PlayerInTurn: &turn,
	}, noShuffle)
	require.NoError(t, err)

	before := r.ToMemento()
	err = r.Draw()
	assert.ErrorIs(t, err, ErrDeckExhausted)
	assert.Equal(t, before, r.ToMemento(), "a failed draw changes nothing")
}

func TestWinningPlayEndsRound(t *testing.T) {
	r := twoPlayerRound(t, 1,
		num(Green, 7), skip(Red),
		num(Green, 5), // top
	)
	played, err := r.Play(0, ColorNone)
	require.NoError(t, err)
	assert.Equal(t, num(Green, 7), played)

	assert.True(t, r.HasEnded())
	winner, ok := r.Winner()
	require.True(t, ok)
	assert.Equal(t, 0, winner)
	_, live := r.PlayerInTurn()
	assert.False(t, live)

	score, ok := r.Score()
	require.True(t, ok)
	assert.Equal(t, 20, score, "losing skip counts 20")

	_, err = r.Play(0, ColorNone)
	assert.ErrorIs(t, err, ErrRoundEnded)
	assert.ErrorIs(t, r.Draw(), ErrRoundEnded)
	assert.ErrorIs(t, r.SayUno(0), ErrRoundEnded)
	assert.False(t, r.CanPlay(0))
	assert.False(t, r.CanPlayAny())
}

func TestScoreCountsWildsAsFifty(t *testing.T) {
	r := twoPlayerRound(t, 1,
		num(Green, 7), wild(),
		num(Green, 5),
	)
	_, err := r.Play(0, ColorNone)
	require.NoError(t, err)
	score, ok := r.Score()
	require.True(t, ok)
	assert.Equal(t, 50, score)
}

func TestRoundInvariantsUnderLegalPlay(t *testing.T) {
	players := []string{"a", "b", "c"}
	r, err := NewRound(players, 0, seededShuffler(42), 7)
	require.NoError(t, err)

	for steps := 0; steps < 1000 && !r.HasEnded(); steps++ {
		require.Equal(t, DeckSize, cardTotal(r), "step %d: cards conserved", steps)

		for i := range players {
			require.NotZero(t, r.HandSize(i), "step %d: no empty hand mid-round", steps)
		}
		seat, live := r.PlayerInTurn()
		require.True(t, live)
		require.GreaterOrEqual(t, seat, 0)
		require.Less(t, seat, len(players))

		hand, err := r.Hand(seat)
		require.NoError(t, err)
		played := false
		for i := range hand {
			if r.CanPlay(i) {
				color := ColorNone
				if hand[i].IsWild() {
					color = Red
				}
				_, err := r.Play(i, color)
				require.NoError(t, err)
				played = true
				break
			}
		}
		if !played {
			require.False(t, r.CanPlayAny())
			if err := r.Draw(); err != nil {
				require.ErrorIs(t, err, ErrDeckExhausted)
				break
			}
		}
	}

	require.Equal(t, DeckSize, cardTotal(r), "cards conserved across reshuffles")
	if r.HasEnded() {
		winner, ok := r.Winner()
		require.True(t, ok)
		assert.Zero(t, r.HandSize(winner))
		empty := 0
		for i := range players {
			if r.HandSize(i) == 0 {
				empty++
			}
		}
		assert.Equal(t, 1, empty, "exactly one empty hand once ended")
		_, ok = r.Score()
		assert.True(t, ok)
	}
}

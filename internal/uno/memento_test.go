// internal/uno/memento_test.go
package uno

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundMementoRoundTrip(t *testing.T) {
	r, err := NewRound([]string{"a", "b", "c"}, 1, seededShuffler(7), 7)
	require.NoError(t, err)

	m := r.ToMemento()
	restored, err := RoundFromMemento(m, noShuffle)
	require.NoError(t, err)
	assert.Equal(t, m, restored.ToMemento())

	// The restored round is a live, playable state machine.
	seat, live := restored.PlayerInTurn()
	origSeat, _ := r.PlayerInTurn()
	require.True(t, live)
	assert.Equal(t, origSeat, seat)
	assert.Equal(t, r.CurrentColor(), restored.CurrentColor())
	assert.Equal(t, r.Direction(), restored.Direction())
	for i := 0; i < 3; i++ {
		assert.Equal(t, r.HandSize(i), restored.HandSize(i))
	}
}

func TestRoundMementoSurvivesJSON(t *testing.T) {
	r, err := NewRound([]string{"a", "b"}, 0, seededShuffler(9), 7)
	require.NoError(t, err)

	m := r.ToMemento()
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded RoundMemento
	require.NoError(t, json.Unmarshal(data, &decoded))
	restored, err := RoundFromMemento(decoded, noShuffle)
	require.NoError(t, err)
	assert.Equal(t, m, restored.ToMemento())
}

func TestEndedRoundMementoRoundTrip(t *testing.T) {
	r := twoPlayerRound(t, 1,
		num(Green, 7), skip(Red),
		num(Green, 5),
	)
	_, err := r.Play(0, ColorNone)
	require.NoError(t, err)
	require.True(t, r.HasEnded())

	m := r.ToMemento()
	assert.Nil(t, m.PlayerInTurn)

	restored, err := RoundFromMemento(m, noShuffle)
	require.NoError(t, err)
	assert.True(t, restored.HasEnded())
	winner, ok := restored.Winner()
	require.True(t, ok)
	assert.Equal(t, 0, winner)
	score, ok := restored.Score()
	require.True(t, ok)
	assert.Equal(t, 20, score)
}

func validRoundMemento() RoundMemento {
	turn := 0
	return RoundMemento{
		Players: []string{"a", "b"},
		Hands: [][]CardMemento{
			{cardToMemento(num(Red, 2)), cardToMemento(wild())},
			{cardToMemento(num(Yellow, 3))},
		},
		DrawPile:     []CardMemento{cardToMemento(num(Green, 8))},
		DiscardPile:  []CardMemento{cardToMemento(num(Blue, 1))},
		CurrentColor: "BLUE",
		Direction:    1,
		Dealer:       0,
		PlayerInTurn: &turn,
	}
}

func TestRoundFromMementoValidation(t *testing.T) {
	base := validRoundMemento()
	_, err := RoundFromMemento(base, noShuffle)
	require.NoError(t, err)

	mutate := func(fn func(*RoundMemento)) error {
		m := validRoundMemento()
		fn(&m)
		_, err := RoundFromMemento(m, noShuffle)
		return err
	}

	assert.ErrorIs(t, mutate(func(m *RoundMemento) { m.Players = []string{"solo"}; m.Hands = m.Hands[:1] }), ErrMemento)
	assert.ErrorIs(t, mutate(func(m *RoundMemento) { m.Hands = m.Hands[:1] }), ErrMemento)
	assert.ErrorIs(t, mutate(func(m *RoundMemento) { m.DiscardPile = nil }), ErrMemento)
	assert.ErrorIs(t, mutate(func(m *RoundMemento) { m.Dealer = 5 }), ErrMemento)
	assert.ErrorIs(t, mutate(func(m *RoundMemento) { m.Direction = 0 }), ErrMemento)
	assert.ErrorIs(t, mutate(func(m *RoundMemento) { m.CurrentColor = "PURPLE" }), ErrMemento)
	assert.ErrorIs(t, mutate(func(m *RoundMemento) { m.CurrentColor = "RED" }), ErrMemento, "color inconsistent with discard top")
	assert.ErrorIs(t, mutate(func(m *RoundMemento) { m.PlayerInTurn = nil }), ErrMemento, "live round needs a player in turn")
	assert.ErrorIs(t, mutate(func(m *RoundMemento) { bad := 9; m.PlayerInTurn = &bad }), ErrMemento)
	assert.ErrorIs(t, mutate(func(m *RoundMemento) {
		m.Hands = [][]CardMemento{{}, {}}
		m.PlayerInTurn = nil
	}), ErrMemento, "multiple empty hands")
	assert.ErrorIs(t, mutate(func(m *RoundMemento) {
		m.Hands[0][0] = CardMemento{Type: "NUMBERED", Color: "RED"}
	}), ErrMemento, "numbered card without a number")
	assert.ErrorIs(t, mutate(func(m *RoundMemento) {
		m.DrawPile[0] = CardMemento{Type: "SKIP"}
	}), ErrMemento, "skip card without a color")
	assert.ErrorIs(t, mutate(func(m *RoundMemento) {
		m.DiscardPile = append(m.DiscardPile, CardMemento{Type: "SWAP"})
	}), ErrMemento, "unknown card type")
}

func TestGameMementoRoundTrip(t *testing.T) {
	g, err := NewGame(GameConfig{
		Players:     []string{"a", "b"},
		TargetScore: 200,
		Shuffler:    seededShuffler(3),
		Randomizer:  func(int) int { return 0 },
	})
	require.NoError(t, err)

	m := g.ToMemento()
	restored, err := GameFromMemento(m, noShuffle, nil)
	require.NoError(t, err)
	assert.Equal(t, m, restored.ToMemento())
	assert.Equal(t, 200, restored.TargetScore())
	require.NotNil(t, restored.CurrentRound())
}

func TestGameFromMementoValidation(t *testing.T) {
	round := validRoundMemento()
	valid := GameMemento{
		Players:        []string{"a", "b"},
		TargetScore:    500,
		Scores:         []int{0, 40},
		CardsPerPlayer: 7,
		CurrentRound:   &round,
	}
	_, err := GameFromMemento(valid, noShuffle, nil)
	require.NoError(t, err)

	mutate := func(fn func(*GameMemento)) error {
		m := valid
		m.Scores = append([]int(nil), valid.Scores...)
		fn(&m)
		_, err := GameFromMemento(m, noShuffle, nil)
		return err
	}

	assert.ErrorIs(t, mutate(func(m *GameMemento) { m.Players = []string{"solo"} }), ErrMemento)
	assert.ErrorIs(t, mutate(func(m *GameMemento) { m.TargetScore = 0 }), ErrMemento)
	assert.ErrorIs(t, mutate(func(m *GameMemento) { m.Scores = []int{0} }), ErrMemento)
	assert.ErrorIs(t, mutate(func(m *GameMemento) { m.Scores[0] = -5 }), ErrMemento)
	assert.ErrorIs(t, mutate(func(m *GameMemento) { m.Scores = []int{500, 600} }), ErrMemento, "multiple winners")
	assert.ErrorIs(t, mutate(func(m *GameMemento) { m.CurrentRound = nil }), ErrMemento, "unfinished game needs a round")
}

func TestGameFromMementoFinishedGame(t *testing.T) {
	m := GameMemento{
		Players:        []string{"a", "b"},
		TargetScore:    100,
		Scores:         []int{120, 30},
		CardsPerPlayer: 7,
	}
	g, err := GameFromMemento(m, noShuffle, nil)
	require.NoError(t, err)
	winner, ok := g.Winner()
	require.True(t, ok)
	assert.Equal(t, 0, winner)
	assert.Nil(t, g.CurrentRound())
}

// internal/uno/game_test.go
package uno

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quickWinShuffler stacks one-card hands so the seat after the dealer wins
// immediately by playing a green 7 while the loser keeps a red skip (20 pts).
var quickWinShuffler Shuffler = frontload(num(Green, 7), skip(Red), num(Green, 5))

func firstDealer(int) int { return 0 }

func TestNewGameValidation(t *testing.T) {
	_, err := NewGame(GameConfig{Players: []string{"solo"}})
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewGame(GameConfig{Players: []string{"a", "b"}, TargetScore: -1})
	assert.ErrorIs(t, err, ErrConfig)

	eleven := make([]string, 11)
	for i := range eleven {
		eleven[i] = "p"
	}
	_, err = NewGame(GameConfig{Players: eleven})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestNewGameDefaults(t *testing.T) {
	g, err := NewGame(GameConfig{Players: []string{"a", "b"}, Shuffler: seededShuffler(1), Randomizer: firstDealer})
	require.NoError(t, err)
	assert.Equal(t, DefaultTargetScore, g.TargetScore())
	assert.Equal(t, DefaultCardsPerPlayer, g.CardsPerPlayer())
	require.NotNil(t, g.CurrentRound())
	assert.Equal(t, 0, g.CurrentRound().Dealer())
	assert.Equal(t, []int{0, 0}, g.Scores())
}

func TestApplyAccumulatesScoresAndRotatesDealer(t *testing.T) {
	g, err := NewGame(GameConfig{
		Players:        []string{"a", "b"},
		TargetScore:    500,
		CardsPerPlayer: 1,
		Shuffler:       quickWinShuffler,
		Randomizer:     firstDealer,
	})
	require.NoError(t, err)

	// Dealer 0: seat 1 is in turn holding the green 7 and wins the round.
	out, err := g.Apply(func(r *Round) error {
		_, err := r.Play(0, ColorNone)
		return err
	})
	require.NoError(t, err)
	assert.True(t, out.Ended)
	assert.Equal(t, 1, out.Winner)
	assert.Equal(t, 20, out.Score)
	assert.False(t, out.GameOver)
	assert.Equal(t, []int{0, 20}, g.Scores())

	// The round winner deals the next round, so seat 0 is now in turn.
	require.NotNil(t, g.CurrentRound())
	assert.Equal(t, 1, g.CurrentRound().Dealer())
	seat, live := g.CurrentRound().PlayerInTurn()
	require.True(t, live)
	assert.Equal(t, 0, seat)

	out, err = g.Apply(func(r *Round) error {
		_, err := r.Play(0, ColorNone)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Winner)
	assert.Equal(t, []int{20, 20}, g.Scores())
}

func TestApplyDetectsGameWinner(t *testing.T) {
	g, err := NewGame(GameConfig{
		Players:        []string{"a", "b"},
		TargetScore:    20,
		CardsPerPlayer: 1,
		Shuffler:       quickWinShuffler,
		Randomizer:     firstDealer,
	})
	require.NoError(t, err)

	out, err := g.Apply(func(r *Round) error {
		_, err := r.Play(0, ColorNone)
		return err
	})
	require.NoError(t, err)
	assert.True(t, out.Ended)
	assert.True(t, out.GameOver)

	winner, ok := g.Winner()
	require.True(t, ok)
	assert.Equal(t, 1, winner)
	assert.Nil(t, g.CurrentRound(), "no live round once the game has a winner")

	_, err = g.Apply(func(r *Round) error { return nil })
	assert.ErrorIs(t, err, ErrGameEnded)
}

func TestApplyPropagatesRoundErrors(t *testing.T) {
	g, err := NewGame(GameConfig{
		Players:        []string{"a", "b"},
		CardsPerPlayer: 1,
		Shuffler:       quickWinShuffler,
		Randomizer:     firstDealer,
	})
	require.NoError(t, err)

	before := g.ToMemento()
	_, err = g.Apply(func(r *Round) error {
		_, err := r.Play(9, ColorNone)
		return err
	})
	assert.ErrorIs(t, err, ErrCardIndex)
	assert.Equal(t, before, g.ToMemento(), "a rejected command changes nothing")

	_, ok := g.Winner()
	assert.False(t, ok)
}

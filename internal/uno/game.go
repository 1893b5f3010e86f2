// internal/uno/game.go
package uno

import "fmt"

// DefaultTargetScore is the cumulative score that ends a game when none is
// configured.
const DefaultTargetScore = 500

// GameConfig carries the construction inputs for a Game. Zero values fall
// back to defaults where one exists (target score 500, 7 cards per player,
// clock-seeded shuffler and randomizer).
type GameConfig struct {
	Players        []string
	TargetScore    int
	CardsPerPlayer int
	Shuffler       Shuffler
	Randomizer     Randomizer
}

// Game sequences rounds until one player's cumulative score reaches the
// target. Scores are monotonically non-decreasing; at most one live round
// exists at a time and is exclusively owned by the Game.
type Game struct {
	players        []string
	scores         []int
	targetScore    int
	cardsPerPlayer int
	shuffler       Shuffler
	randomizer     Randomizer
	currentRound   *Round
	winner         int
	hasWinner      bool
}

// RoundOutcome is the explicit result of applying a round action through the
// game, replacing callback-style end-of-round notification.
type RoundOutcome struct {
	Ended    bool
	Winner   int
	Score    int
	GameOver bool
}

// NewGame validates the configuration, picks the first dealer with the
// randomizer and deals the opening round.
func NewGame(cfg GameConfig) (*Game, error) {
	n := len(cfg.Players)
	if n < MinPlayers {
		return nil, fmt.Errorf("%w: game requires at least %d players", ErrConfig, MinPlayers)
	}
	if n > MaxPlayers {
		return nil, fmt.Errorf("%w: game allows at most %d players", ErrConfig, MaxPlayers)
	}
	target := cfg.TargetScore
	if target == 0 {
		target = DefaultTargetScore
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: target score must be positive", ErrConfig)
	}
	cardsPerPlayer := cfg.CardsPerPlayer
	if cardsPerPlayer <= 0 {
		cardsPerPlayer = DefaultCardsPerPlayer
	}
	shuffler := cfg.Shuffler
	if shuffler == nil {
		shuffler = StandardShuffler
	}
	randomizer := cfg.Randomizer
	if randomizer == nil {
		randomizer = StandardRandomizer
	}

	g := &Game{
		players:        append([]string(nil), cfg.Players...),
		scores:         make([]int, n),
		targetScore:    target,
		cardsPerPlayer: cardsPerPlayer,
		shuffler:       shuffler,
		randomizer:     randomizer,
		winner:         -1,
	}
	round, err := NewRound(g.players, g.randomizer(n), g.shuffler, g.cardsPerPlayer)
	if err != nil {
		return nil, err
	}
	g.currentRound = round
	return g, nil
}

// Apply runs one round-mutating action against the current round. If the
// action errors the game is unchanged. If the round ends, its score is folded
// into the winner's total; the game either finishes (winner at or past the
// target, no further round) or deals the next round with the round winner as
// dealer.
func (g *Game) Apply(action func(*Round) error) (RoundOutcome, error) {
	if g.hasWinner || g.currentRound == nil {
		return RoundOutcome{}, ErrGameEnded
	}
	if err := action(g.currentRound); err != nil {
		return RoundOutcome{}, err
	}
	if !g.currentRound.HasEnded() {
		return RoundOutcome{}, nil
	}

	roundWinner, _ := g.currentRound.Winner()
	roundScore, _ := g.currentRound.Score()
	g.scores[roundWinner] += roundScore
	out := RoundOutcome{Ended: true, Winner: roundWinner, Score: roundScore}

	if g.scores[roundWinner] >= g.targetScore {
		g.winner = roundWinner
		g.hasWinner = true
		g.currentRound = nil
		out.GameOver = true
		return out, nil
	}

	round, err := NewRound(g.players, roundWinner, g.shuffler, g.cardsPerPlayer)
	if err != nil {
		return out, err
	}
	g.currentRound = round
	return out, nil
}

// PlayerCount returns the number of players in the game.
func (g *Game) PlayerCount() int { return len(g.players) }

// Players returns a copy of the player identities.
func (g *Game) Players() []string { return append([]string(nil), g.players...) }

// Player returns the identity at the given index.
func (g *Game) Player(index int) (string, error) {
	if index < 0 || index >= len(g.players) {
		return "", ErrPlayerIndex
	}
	return g.players[index], nil
}

// Score returns the given player's cumulative score.
func (g *Game) Score(index int) (int, error) {
	if index < 0 || index >= len(g.scores) {
		return 0, ErrPlayerIndex
	}
	return g.scores[index], nil
}

// Scores returns a copy of all cumulative scores.
func (g *Game) Scores() []int { return append([]int(nil), g.scores...) }

// TargetScore returns the score a player must reach to win the game.
func (g *Game) TargetScore() int { return g.targetScore }

// CardsPerPlayer returns the configured hand size.
func (g *Game) CardsPerPlayer() int { return g.cardsPerPlayer }

// CurrentRound returns the live round, or nil once the game has ended.
func (g *Game) CurrentRound() *Round { return g.currentRound }

// Winner returns the game winner. The second return is false while no player
// has reached the target score.
func (g *Game) Winner() (int, bool) {
	if !g.hasWinner {
		return 0, false
	}
	return g.winner, true
}

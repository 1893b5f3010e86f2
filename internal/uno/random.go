// internal/uno/random.go
package uno

import (
	"math/rand"
	"time"
)

// Shuffler permutes the given cards in place. Injected everywhere the engine
// shuffles so tests can force fixed orderings.
type Shuffler func(cards []Card)

// Randomizer returns a value in [0, bound). Used by Game to pick the first
// dealer.
type Randomizer func(bound int) int

// StandardShuffler is a uniform Fisher-Yates shuffle seeded from the clock,
// matching how live games are shuffled.
func StandardShuffler(cards []Card) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// StandardRandomizer returns a uniform value in [0, bound).
func StandardRandomizer(bound int) int {
	if bound <= 0 {
		return 0
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return r.Intn(bound)
}

package engine

import (
	"fmt"
	"math/rand/v2"
)

// ShuffleStrategy selects the permutation algorithm used when dealing.
type ShuffleStrategy string

const (
	// ShuffleFisherYates swaps in place over a dense copy: O(n).
	ShuffleFisherYates ShuffleStrategy = "fisher-yates"
	// ShuffleRejection draws indices in [0, n) and redraws slots that were
	// already consumed: O(n^2) expected, fine for the grid sizes we allow.
	ShuffleRejection ShuffleStrategy = "rejection"
)

// ParseShuffleStrategy accepts "", "fisher-yates" and "rejection".
func ParseShuffleStrategy(s string) (ShuffleStrategy, error) {
	switch ShuffleStrategy(s) {
	case "", ShuffleFisherYates:
		return ShuffleFisherYates, nil
	case ShuffleRejection:
		return ShuffleRejection, nil
	default:
		return "", fmt.Errorf("%w: unknown shuffle strategy %q", ErrInvalidConfig, s)
	}
}

// permutation returns a uniformly random ordering of the indices [0, n).
func permutation(rng *rand.Rand, n int, strategy ShuffleStrategy) []int {
	if strategy == ShuffleRejection {
		return rejectionPermutation(rng, n)
	}
	return fisherYatesPermutation(rng, n)
}

func fisherYatesPermutation(rng *rand.Rand, n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func rejectionPermutation(rng *rand.Rand, n int) []int {
	order := make([]int, 0, n)
	consumed := make([]bool, n)
	for len(order) < n {
		i := rng.IntN(n)
		if consumed[i] {
			continue
		}
		consumed[i] = true
		order = append(order, i)
	}
	return order
}

// shuffleSymbols returns a permuted copy of pool; pool is left untouched.
func shuffleSymbols(rng *rand.Rand, pool []Symbol, strategy ShuffleStrategy) []Symbol {
	order := permutation(rng, len(pool), strategy)
	out := make([]Symbol, len(pool))
	for dst, src := range order {
		out[dst] = pool[src]
	}
	return out
}

// shuffleCards deals the ordered deck into play order. Each card takes its
// image from the shuffled pool as it is placed.
func shuffleCards(rng *rand.Rand, deck []Card, images []Symbol, strategy ShuffleStrategy) []Card {
	order := permutation(rng, len(deck), strategy)
	out := make([]Card, 0, len(deck))
	for _, src := range order {
		card := deck[src]
		card.Image = images[card.Value-1]
		out = append(out, card)
	}
	return out
}

// buildDeck creates two unrevealed cards per pair value 1..pairCount.
func buildDeck(pairCount int) []Card {
	deck := make([]Card, 0, pairCount*2)
	for value := 1; value <= pairCount; value++ {
		deck = append(deck, Card{Value: value}, Card{Value: value})
	}
	return deck
}

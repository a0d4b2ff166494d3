package exercise

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShufflePairs_NeverIdentity(t *testing.T) {
	pairs := []Pair{
		{Left: "dog", Right: "perro"},
		{Left: "cat", Right: "gato"},
		{Left: "house", Right: "casa"},
	}
	original := []string{"perro", "gato", "casa"}

	for seed := uint64(0); seed < 200; seed++ {
		got := ShufflePairs(pairs, rand.New(rand.NewPCG(seed, seed)))
		assert.ElementsMatch(t, original, got)
		assert.NotEqual(t, original, got, "seed %d", seed)
	}
}

func TestShufflePairs_TwoPairsAlwaysSwap(t *testing.T) {
	pairs := []Pair{{Left: "yes", Right: "sí"}, {Left: "no", Right: "no"}}
	for seed := uint64(0); seed < 20; seed++ {
		got := ShufflePairs(pairs, rand.New(rand.NewPCG(seed, 1)))
		assert.Equal(t, []string{"no", "sí"}, got)
	}
}

func TestShufflePairs_LeavesInputAlone(t *testing.T) {
	pairs := []Pair{{Left: "a", Right: "1"}, {Left: "b", Right: "2"}}
	ShufflePairs(pairs, rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, "1", pairs[0].Right)
	assert.Equal(t, "2", pairs[1].Right)
}

func TestShufflePairs_Small(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))
	assert.Empty(t, ShufflePairs(nil, rnd))
	assert.Equal(t, []string{"uno"}, ShufflePairs([]Pair{{Left: "one", Right: "uno"}}, rnd))
}

func TestShuffleWords(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		got := ShuffleWords("yo tengo un perro", rand.New(rand.NewPCG(seed, 3)))
		assert.ElementsMatch(t, []string{"yo", "tengo", "un", "perro"}, got)
		assert.NotEqual(t, []string{"yo", "tengo", "un", "perro"}, got)
	}
}

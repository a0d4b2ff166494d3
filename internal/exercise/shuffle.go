package exercise

import (
	"math/rand/v2"
	"strings"
)

type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// ShufflePairs returns the right-hand column of pairs in a new order. With
// two or more pairs the order always differs from the original one.
func ShufflePairs(pairs []Pair, rnd *rand.Rand) []string {
	right := make([]string, len(pairs))
	for i, p := range pairs {
		right[i] = p.Right
	}
	return derange(right, rnd)
}

// ShuffleWords splits a sentence into its words and scrambles them.
func ShuffleWords(sentence string, rnd *rand.Rand) []string {
	return derange(strings.Fields(sentence), rnd)
}

// derange shuffles a copy of items. If the shuffle lands on the identity
// order and the items are not all equal, the result is rotated by one.
func derange(items []string, rnd *rand.Rand) []string {
	out := make([]string, len(items))
	copy(out, items)
	if len(out) < 2 {
		return out
	}

	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	if equalSlices(out, items) && !allEqual(items) {
		out = append(out[1:], out[0])
	}
	return out
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allEqual(items []string) bool {
	for i := 1; i < len(items); i++ {
		if items[i] != items[0] {
			return false
		}
	}
	return true
}

package exercise

import (
	"github.com/agnivade/levenshtein"
)

// MaxTypoDistance is the edit distance tolerated by MatchAnswer.
const MaxTypoDistance = 2

// Distance is the Levenshtein distance between the normalized forms.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(Normalize(a), Normalize(b))
}

// MatchAnswer accepts input when it starts with the same character as
// answer and is within MaxTypoDistance edits of it.
func MatchAnswer(input, answer string) bool {
	in, ans := []rune(Normalize(input)), []rune(Normalize(answer))
	if len(in) == 0 || len(ans) == 0 {
		return false
	}
	if in[0] != ans[0] {
		return false
	}
	return levenshtein.ComputeDistance(string(in), string(ans)) <= MaxTypoDistance
}

// NearestChoice returns the choice closest to input among those
// MatchAnswer accepts. Ties keep the earlier choice.
func NearestChoice(input string, choices []string) (string, bool) {
	best, bestDist := "", -1
	for _, choice := range choices {
		if !MatchAnswer(input, choice) {
			continue
		}
		d := Distance(input, choice)
		if bestDist == -1 || d < bestDist {
			best, bestDist = choice, d
		}
	}
	return best, bestDist != -1
}

// SameAnswer compares two strings after normalization.
func SameAnswer(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

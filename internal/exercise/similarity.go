package exercise

import (
	"github.com/pmezard/go-difflib/difflib"
)

const (
	CorrectThreshold = 0.8
	CloseThreshold   = 0.5
)

type Grade string

const (
	GradeCorrect Grade = "correct"
	GradeClose   Grade = "close"
	GradeWrong   Grade = "wrong"
)

// Similarity aligns the two sentences word by word and returns 2*M/T,
// where M is the number of words in matching blocks and T the total word
// count of both sentences.
func Similarity(a, b string) float64 {
	wa, wb := Words(a), Words(b)
	if len(wa) == 0 && len(wb) == 0 {
		return 1
	}
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	return difflib.NewMatcher(wa, wb).Ratio()
}

func GradeFor(score float64) Grade {
	switch {
	case score >= CorrectThreshold:
		return GradeCorrect
	case score >= CloseThreshold:
		return GradeClose
	default:
		return GradeWrong
	}
}

// GradeTranslation scores input against every accepted translation and
// keeps the best one.
func GradeTranslation(input string, accepted ...string) (Grade, float64, string) {
	best, bestScore := "", -1.0
	for _, candidate := range accepted {
		if s := Similarity(input, candidate); s > bestScore {
			best, bestScore = candidate, s
		}
	}
	if bestScore < 0 {
		return GradeWrong, 0, ""
	}
	return GradeFor(bestScore), bestScore, best
}

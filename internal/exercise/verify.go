package exercise

// Attempt is one submitted answer together with the expected solution the
// client received with the lesson.
type Attempt struct {
	Type     Type     `json:"type" binding:"required,oneof=multiple_choice fill_blank translation matching listening_order"`
	Prompt   string   `json:"prompt"`
	Input    string   `json:"input"`
	Expected string   `json:"expected"`
	Accepted []string `json:"accepted,omitempty"`
	Choices  []string `json:"choices,omitempty"`
	Pairs    []Pair   `json:"pairs,omitempty"`
	Matched  []Pair   `json:"matched,omitempty"`
}

type Verdict struct {
	Correct bool    `json:"correct"`
	Grade   Grade   `json:"grade"`
	Score   float64 `json:"score"`
	// Answer is the expected answer the input was compared with.
	Answer string `json:"answer,omitempty"`
}

// NeedsReview reports whether the verdict is borderline and should be
// confirmed by the language model.
func (v Verdict) NeedsReview() bool {
	return v.Grade == GradeClose
}

func verdict(ok bool, answer string) Verdict {
	if ok {
		return Verdict{Correct: true, Grade: GradeCorrect, Score: 1, Answer: answer}
	}
	return Verdict{Grade: GradeWrong, Answer: answer}
}

// Check grades an attempt locally. Translations may come back as
// GradeClose; everything else is either correct or wrong.
func Check(a Attempt) Verdict {
	accepted := append([]string{a.Expected}, a.Accepted...)

	switch a.Type {
	case TypeTranslation:
		grade, score, best := GradeTranslation(a.Input, accepted...)
		return Verdict{Correct: grade == GradeCorrect, Grade: grade, Score: score, Answer: best}

	case TypeListeningOrder:
		for _, ans := range accepted {
			if Normalize(a.Input) != "" && SameAnswer(a.Input, ans) {
				return verdict(true, ans)
			}
		}
		return verdict(false, a.Expected)

	case TypeMatching:
		return checkPairs(a.Pairs, a.Matched)

	default:
		if len(a.Choices) > 0 {
			chosen, ok := NearestChoice(a.Input, a.Choices)
			if !ok {
				return verdict(false, a.Expected)
			}
			for _, ans := range accepted {
				if SameAnswer(chosen, ans) {
					return verdict(true, ans)
				}
			}
			return verdict(false, a.Expected)
		}
		for _, ans := range accepted {
			if MatchAnswer(a.Input, ans) {
				return verdict(true, ans)
			}
		}
		return verdict(false, a.Expected)
	}
}

// checkPairs requires every expected pair to be matched. Score is the
// fraction of pairs matched correctly.
func checkPairs(expected, matched []Pair) Verdict {
	if len(expected) == 0 {
		return verdict(false, "")
	}
	got := make(map[string]string, len(matched))
	for _, p := range matched {
		got[Normalize(p.Left)] = p.Right
	}

	hits := 0
	for _, p := range expected {
		if right, ok := got[Normalize(p.Left)]; ok && MatchAnswer(right, p.Right) {
			hits++
		}
	}
	score := float64(hits) / float64(len(expected))
	if hits == len(expected) {
		return Verdict{Correct: true, Grade: GradeCorrect, Score: 1}
	}
	return Verdict{Grade: GradeWrong, Score: score}
}

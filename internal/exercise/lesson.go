package exercise

import (
	"math/rand/v2"
	"strings"
)

type Type string

const (
	TypeMultipleChoice Type = "multiple_choice"
	TypeFillBlank      Type = "fill_blank"
	TypeTranslation    Type = "translation"
	TypeMatching       Type = "matching"
	TypeListeningOrder Type = "listening_order"
)

// Blank marks the gap in a fill_blank prompt.
const Blank = "___"

// Exercise is one question of a lesson. Which fields are meaningful
// depends on Type:
//
//	multiple_choice  Prompt, Choices, Answer
//	fill_blank       Prompt (containing Blank), Answer, optional Choices
//	translation      Prompt, Answer
//	matching         Pairs, Options (shuffled right column)
//	listening_order  Answer (full sentence), Options (shuffled words)
type Exercise struct {
	Type        Type     `json:"type"`
	Prompt      string   `json:"prompt,omitempty"`
	Choices     []string `json:"choices,omitempty"`
	Answer      string   `json:"answer,omitempty"`
	Pairs       []Pair   `json:"pairs,omitempty"`
	Options     []string `json:"options,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

type Lesson struct {
	Language  string     `json:"language"`
	Level     string     `json:"level"`
	Topic     string     `json:"topic"`
	Title     string     `json:"title,omitempty"`
	Exercises []Exercise `json:"exercises"`
}

// Sanitize repairs a generated lesson. Exercises
// with missing fields or an unknown type are dropped; the number dropped
// is returned.
func Sanitize(l Lesson, rnd *rand.Rand) (Lesson, int) {
	kept := make([]Exercise, 0, len(l.Exercises))
	for _, ex := range l.Exercises {
		if fixed, ok := sanitizeExercise(ex, rnd); ok {
			kept = append(kept, fixed)
		}
	}
	dropped := len(l.Exercises) - len(kept)
	l.Exercises = kept
	return l, dropped
}

func sanitizeExercise(ex Exercise, rnd *rand.Rand) (Exercise, bool) {
	ex.Type = Type(strings.ToLower(strings.TrimSpace(string(ex.Type))))
	ex.Prompt = strings.TrimSpace(ex.Prompt)
	ex.Answer = strings.TrimSpace(ex.Answer)

	switch ex.Type {
	case TypeMultipleChoice:
		if ex.Prompt == "" || ex.Answer == "" {
			return ex, false
		}
		ex.Choices = fixChoices(ex.Choices, &ex.Answer, rnd)
		return ex, len(ex.Choices) >= 2

	case TypeFillBlank:
		if ex.Prompt == "" || ex.Answer == "" {
			return ex, false
		}
		if !strings.Contains(ex.Prompt, Blank) {
			return ex, false
		}
		if len(ex.Choices) > 0 {
			ex.Choices = fixChoices(ex.Choices, &ex.Answer, rnd)
		}
		return ex, true

	case TypeTranslation:
		ex.Choices = nil
		return ex, ex.Prompt != "" && ex.Answer != ""

	case TypeMatching:
		ex.Pairs = cleanPairs(ex.Pairs)
		if len(ex.Pairs) < 2 {
			return ex, false
		}
		ex.Options = ShufflePairs(ex.Pairs, rnd)
		return ex, true

	case TypeListeningOrder:
		if len(strings.Fields(ex.Answer)) < 2 {
			return ex, false
		}
		ex.Options = ShuffleWords(ex.Answer, rnd)
		return ex, true
	}
	return ex, false
}

// fixChoices trims and de-duplicates choices, snaps the answer onto its
// nearest choice, and inserts the answer at a random position when no
// choice is close enough.
func fixChoices(choices []string, answer *string, rnd *rand.Rand) []string {
	seen := make(map[string]bool, len(choices))
	out := make([]string, 0, len(choices)+1)
	for _, c := range choices {
		c = strings.TrimSpace(c)
		key := Normalize(c)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}

	for _, c := range out {
		if SameAnswer(c, *answer) {
			*answer = c
			return out
		}
	}
	if nearest, ok := NearestChoice(*answer, out); ok {
		*answer = nearest
		return out
	}

	pos := rnd.IntN(len(out) + 1)
	out = append(out, "")
	copy(out[pos+1:], out[pos:])
	out[pos] = *answer
	return out
}

func cleanPairs(pairs []Pair) []Pair {
	seen := make(map[string]bool, len(pairs))
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		p.Left, p.Right = strings.TrimSpace(p.Left), strings.TrimSpace(p.Right)
		if p.Left == "" || p.Right == "" {
			continue
		}
		key := Normalize(p.Left)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

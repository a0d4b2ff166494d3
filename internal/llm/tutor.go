package llm

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/lingoleap/api/internal/exercise"
)

// Tutor turns raw completions into the typed content the API serves.
type Tutor struct {
	gen Generator
}

func NewTutor(gen Generator) *Tutor {
	return &Tutor{gen: gen}
}

type LessonRequest struct {
	Language string
	Level    string
	Topic    string
	Count    int
	Native   string
}

// Lesson generates and sanitizes a lesson. An error is returned when no
// usable exercise survives sanitizing.
func (t *Tutor) Lesson(ctx context.Context, r LessonRequest) (exercise.Lesson, error) {
	prompt := fmt.Sprintf(LessonPrompt, r.Count, r.Language, r.Level, r.Topic, r.Native)

	raw, err := t.gen.Generate(ctx, Prompt(lessonSystem, prompt, true))
	if err != nil {
		return exercise.Lesson{}, err
	}

	var lesson exercise.Lesson
	if err := DecodeJSON(raw, &lesson); err != nil {
		return exercise.Lesson{}, err
	}
	lesson.Language, lesson.Level, lesson.Topic = r.Language, r.Level, r.Topic

	lesson, _ = exercise.Sanitize(lesson, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	if len(lesson.Exercises) == 0 {
		return exercise.Lesson{}, fmt.Errorf("generated lesson has no usable exercises")
	}
	if len(lesson.Exercises) > r.Count {
		lesson.Exercises = lesson.Exercises[:r.Count]
	}
	return lesson, nil
}

type Correction struct {
	Original    string `json:"original"`
	Corrected   string `json:"corrected"`
	Explanation string `json:"explanation"`
}

type ChatReply struct {
	Reply       string       `json:"reply"`
	Translation string       `json:"translation,omitempty"`
	Corrections []Correction `json:"corrections"`
}

// Chat answers the latest user message in history.
func (t *Tutor) Chat(ctx context.Context, language, level, native string, history []Message) (ChatReply, error) {
	req := Request{
		System:      fmt.Sprintf(ChatSystemPrompt, language, level, native),
		Messages:    history,
		JSON:        true,
		Temperature: 0.8,
	}

	raw, err := t.gen.Generate(ctx, req)
	if err != nil {
		return ChatReply{}, err
	}

	var reply ChatReply
	if err := DecodeJSON(raw, &reply); err != nil {
		// Some models ignore the JSON instruction in conversation mode.
		return ChatReply{Reply: strings.TrimSpace(raw), Corrections: []Correction{}}, nil
	}
	if strings.TrimSpace(reply.Reply) == "" {
		return ChatReply{}, ErrEmptyResponse
	}
	if reply.Corrections == nil {
		reply.Corrections = []Correction{}
	}
	return reply, nil
}

type Judgement struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback"`
}

// JudgeTranslation asks the model whether a borderline translation keeps
// the meaning of the reference.
func (t *Tutor) JudgeTranslation(ctx context.Context, language, source, reference, answer string) (Judgement, error) {
	req := Prompt(gradeSystem, fmt.Sprintf(GradePrompt, language, source, reference, answer), true)
	req.Temperature = 0.1

	raw, err := t.gen.Generate(ctx, req)
	if err != nil {
		return Judgement{}, err
	}

	var j Judgement
	if err := DecodeJSON(raw, &j); err != nil {
		return Judgement{}, err
	}
	return j, nil
}

type Example struct {
	Sentence    string `json:"sentence"`
	Translation string `json:"translation"`
}

type Word struct {
	Word          string    `json:"word"`
	Translation   string    `json:"translation"`
	Pronunciation string    `json:"pronunciation"`
	Definition    string    `json:"definition"`
	Examples      []Example `json:"examples"`
}

// DailyWord picks a word for the given day, avoiding recent ones.
func (t *Tutor) DailyWord(ctx context.Context, language, day string, recent []string) (Word, error) {
	avoid := "none"
	if len(recent) > 0 {
		avoid = strings.Join(recent, ", ")
	}

	raw, err := t.gen.Generate(ctx, Prompt(dailyWordSystem, fmt.Sprintf(DailyWordPrompt, language, day, avoid), true))
	if err != nil {
		return Word{}, err
	}

	var w Word
	if err := DecodeJSON(raw, &w); err != nil {
		return Word{}, err
	}
	w.Word = strings.TrimSpace(w.Word)
	if w.Word == "" || strings.TrimSpace(w.Translation) == "" {
		return Word{}, fmt.Errorf("generated word is incomplete")
	}
	return w, nil
}

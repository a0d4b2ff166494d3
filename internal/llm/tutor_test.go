package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/lingoleap/api/internal/exercise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lessonJSON = `{
  "title": "Animals",
  "exercises": [
    {"type": "multiple_choice", "prompt": "dog?", "choices": ["perro", "gato", "casa"], "answer": "perro"},
    {"type": "fill_blank", "prompt": "El ___ come", "answer": "gato"},
    {"type": "translation", "prompt": "The dog eats", "answer": "El perro come"},
    {"type": "matching", "pairs": [{"left": "dog", "right": "perro"}, {"left": "cat", "right": "gato"}]},
    {"type": "translation", "prompt": "broken"}
  ]
}`

func TestTutor_Lesson(t *testing.T) {
	gen := NewScripted("Here you go:\n```json\n" + lessonJSON + "\n```")
	tutor := NewTutor(gen)

	lesson, err := tutor.Lesson(context.Background(), LessonRequest{
		Language: "Spanish", Level: "beginner", Topic: "animals", Count: 3, Native: "English",
	})
	require.NoError(t, err)

	assert.Equal(t, "Animals", lesson.Title)
	assert.Equal(t, "Spanish", lesson.Language)
	assert.Len(t, lesson.Exercises, 3)
	assert.Equal(t, exercise.TypeMultipleChoice, lesson.Exercises[0].Type)

	require.Equal(t, 1, gen.Calls())
	req := gen.Requests[0]
	assert.True(t, req.JSON)
	assert.Contains(t, req.Messages[0].Content, `"animals"`)
	assert.Contains(t, req.Messages[0].Content, "3 exercises")
}

func TestTutor_LessonNothingUsable(t *testing.T) {
	tutor := NewTutor(NewScripted(`{"exercises":[{"type":"essay"}]}`))
	_, err := tutor.Lesson(context.Background(), LessonRequest{Count: 5})
	assert.Error(t, err)
}

func TestTutor_Chat(t *testing.T) {
	gen := NewScripted(`{"reply":"¡Muy bien! ¿Y tú?","corrections":[{"original":"yo es","corrected":"yo soy","explanation":"ser"}]}`)
	history := []Message{{Role: RoleUser, Content: "Hola, yo es Ana"}}

	reply, err := NewTutor(gen).Chat(context.Background(), "Spanish", "beginner", "English", history)
	require.NoError(t, err)
	assert.Equal(t, "¡Muy bien! ¿Y tú?", reply.Reply)
	require.Len(t, reply.Corrections, 1)
	assert.Equal(t, "yo soy", reply.Corrections[0].Corrected)

	assert.Contains(t, gen.Requests[0].System, "practise Spanish at beginner level")
	assert.Equal(t, history, gen.Requests[0].Messages)
}

func TestTutor_ChatPlainText(t *testing.T) {
	reply, err := NewTutor(NewScripted("Hola, ¿qué tal?")).Chat(context.Background(), "Spanish", "a1", "English", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hola, ¿qué tal?", reply.Reply)
	assert.NotNil(t, reply.Corrections)
}

func TestTutor_JudgeTranslation(t *testing.T) {
	j, err := NewTutor(NewScripted(`{"correct":true,"feedback":"Good"}`)).
		JudgeTranslation(context.Background(), "Spanish", "I like apples", "Me gustan las manzanas", "Me gusta las manzanas")
	require.NoError(t, err)
	assert.True(t, j.Correct)

	failing := NewScripted()
	failing.Err = errors.New("quota")
	_, err = NewTutor(failing).JudgeTranslation(context.Background(), "Spanish", "a", "b", "c")
	assert.Error(t, err)
}

func TestTutor_DailyWord(t *testing.T) {
	gen := NewScripted(`{"word":" madrugada ","translation":"early morning","definition":"the hours after midnight","examples":[{"sentence":"Llegó de madrugada.","translation":"He arrived in the early morning."}]}`)

	w, err := NewTutor(gen).DailyWord(context.Background(), "Spanish", "2026-10-14", []string{"sobremesa"})
	require.NoError(t, err)
	assert.Equal(t, "madrugada", w.Word)
	assert.Len(t, w.Examples, 1)
	assert.Contains(t, gen.Requests[0].Messages[0].Content, "sobremesa")

	_, err = NewTutor(NewScripted(`{"word":"x"}`)).DailyWord(context.Background(), "Spanish", "2026-10-14", nil)
	assert.Error(t, err)
}

package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lingoleap/api/internal/model"
)

func TestDailyWord(t *testing.T) {
	e := newEnv(t, `{"word": "Fernweh", "translation": "wanderlust", "pronunciation": "ˈfɛʁnveː",
		"definition": "longing for far-off places", "examples": [{"sentence": "Ich habe Fernweh.", "translation": "I have wanderlust."}]}`)

	w := e.do(t, http.MethodGet, "/api/daily-word?language=de", "", nil)
	requireStatus(t, w, http.StatusOK)
	word := decodeBody[model.DailyWord](t, w)
	assert.Equal(t, "Fernweh", word.Word)
	assert.Equal(t, "de", word.Language)
	assert.Contains(t, string(word.Examples), "Ich habe Fernweh.")

	w = e.do(t, http.MethodGet, "/api/daily-word?language=de", "", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, 1, e.gen.Calls(), "the stored word is reused")

	w = e.do(t, http.MethodGet, "/api/daily-word?language=xx", "", nil)
	requireStatus(t, w, http.StatusBadRequest)
}

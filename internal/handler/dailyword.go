package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingoleap/api/internal/apperror"
	"github.com/lingoleap/api/internal/dailyword"
)

type DailyWordHandler struct {
	words *dailyword.Service
}

func NewDailyWordHandler(words *dailyword.Service) *DailyWordHandler {
	return &DailyWordHandler{words: words}
}

// Today returns the word of the day, English when no language is given.
func (h *DailyWordHandler) Today(c *gin.Context) {
	code := c.DefaultQuery("language", "en")

	word, err := h.words.Today(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, dailyword.ErrUnsupportedLanguage) {
			_ = c.Error(apperror.BadRequest("unsupported language: " + code))
			return
		}
		_ = c.Error(apperror.Upstream("failed to load the word of the day", err))
		return
	}
	c.JSON(http.StatusOK, word)
}

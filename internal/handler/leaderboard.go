package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingoleap/api/internal/apperror"
	"github.com/lingoleap/api/internal/leaderboard"
	"github.com/lingoleap/api/internal/middleware"
)

type LeaderboardHandler struct {
	board *leaderboard.Service
}

func NewLeaderboardHandler(board *leaderboard.Service) *LeaderboardHandler {
	return &LeaderboardHandler{board: board}
}

// Get serves the board. An empty language ranks across all languages.
func (h *LeaderboardHandler) Get(c *gin.Context) {
	q := leaderboard.Query{
		Language: c.Query("language"),
		Period:   c.DefaultQuery("period", leaderboard.PeriodAll),
	}
	if !leaderboard.ValidPeriod(q.Period) {
		_ = c.Error(apperror.BadRequest("invalid period, use all, week or month"))
		return
	}
	if q.Language != "" {
		code, err := resolveLanguage(q.Language)
		if err != nil {
			_ = c.Error(err)
			return
		}
		q.Language = code
	}

	board, err := h.board.Top(c.Request.Context(), q, middleware.UserID(c))
	if err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}
	c.JSON(http.StatusOK, board)
}

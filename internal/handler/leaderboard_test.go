package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingoleap/api/internal/leaderboard"
	"github.com/lingoleap/api/internal/model"
)

func TestLeaderboard(t *testing.T) {
	e := newEnv(t)
	ana, tok := e.user(t, "ana")
	bo, _ := e.user(t, "bo")

	require.NoError(t, e.db.Create(&[]model.Result{
		{UserID: ana.ID, Language: "fr", Exp: 30, Source: model.SourceLesson},
		{UserID: bo.ID, Language: "fr", Exp: 50, Source: model.SourceLesson},
		{UserID: bo.ID, Language: "de", Exp: 10, Source: model.SourceChat},
	}).Error)

	w := e.do(t, http.MethodGet, "/api/leaderboard?language=fr", tok, nil)
	requireStatus(t, w, http.StatusOK)

	board := decodeBody[leaderboard.Board](t, w)
	require.Len(t, board.Top3, 3)
	require.Len(t, board.Top10, 7)
	assert.Equal(t, "bo", board.Top3[0].Username)
	assert.Equal(t, 50, board.Top3[0].Total)
	assert.Equal(t, "ana", board.Top3[1].Username)
	assert.Nil(t, board.Top3[2])
	require.NotNil(t, board.Me)
	assert.Equal(t, 2, board.Me.Rank)

	w = e.do(t, http.MethodGet, "/api/leaderboard", "", nil)
	requireStatus(t, w, http.StatusOK)
	board = decodeBody[leaderboard.Board](t, w)
	assert.Equal(t, 60, board.Top3[0].Total)
	assert.Nil(t, board.Me)
}

func TestLeaderboard_BadQuery(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/leaderboard?period=decade", "", nil)
	requireStatus(t, w, http.StatusBadRequest)

	w = e.do(t, http.MethodGet, "/api/leaderboard?language=xx", "", nil)
	requireStatus(t, w, http.StatusBadRequest)
}

package dailyword

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lingoleap/api/internal/cache"
	"github.com/lingoleap/api/internal/database/dbtest"
	"github.com/lingoleap/api/internal/llm"
	"github.com/lingoleap/api/internal/model"
)

const wordJSON = `{"word":"sobremesa","translation":"after-meal conversation","pronunciation":"so-bre-ME-sa","definition":"time spent chatting at the table after eating","examples":[{"sentence":"La sobremesa duró horas.","translation":"The after-dinner chat lasted hours."}]}`

func TestToday_GeneratesOncePerDay(t *testing.T) {
	db := dbtest.Open(t)
	gen := llm.NewScripted(wordJSON)
	s := NewService(db, nil, llm.NewTutor(gen), time.UTC, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	w, err := s.Today(ctx, "ES")
	require.NoError(t, err)
	assert.Equal(t, "sobremesa", w.Word)
	assert.Equal(t, "2026-10-14", w.Day)
	assert.Equal(t, "es", w.Language)
	assert.JSONEq(t, `[{"sentence":"La sobremesa duró horas.","translation":"The after-dinner chat lasted hours."}]`, string(w.Examples))

	again, err := s.Today(ctx, "es")
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID)
	assert.Equal(t, 1, gen.Calls())
	assert.Contains(t, gen.Requests[0].Messages[0].Content, "Spanish")
}

func TestToday_AvoidsRecentWords(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, db.Create(&model.DailyWord{Day: "2026-10-13", Language: "es", Word: "madrugada"}).Error)

	gen := llm.NewScripted(wordJSON)
	s := NewService(db, nil, llm.NewTutor(gen), time.UTC, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC) }

	_, err := s.Today(context.Background(), "es")
	require.NoError(t, err)
	assert.Contains(t, gen.Requests[0].Messages[0].Content, "madrugada")
}

// liveContextGen fails if it is handed a cancelled context.
type liveContextGen struct {
	calls     atomic.Int32
	cancelled atomic.Int32
}

func (g *liveContextGen) Name() string { return "live" }

func (g *liveContextGen) Generate(ctx context.Context, _ llm.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		g.cancelled.Add(1)
		return "", err
	}
	g.calls.Add(1)
	return wordJSON, nil
}

func TestToday_CallerCancellationDoesNotAbortGeneration(t *testing.T) {
	gen := &liveContextGen{}
	s := NewService(dbtest.Open(t), nil, llm.NewTutor(gen), time.UTC, zap.NewNop())

	gone, cancel := context.WithCancel(context.Background())
	cancel()
	_, _ = s.Today(gone, "es")

	w, err := s.Today(context.Background(), "es")
	require.NoError(t, err)
	assert.Equal(t, "sobremesa", w.Word)
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.Zero(t, gen.cancelled.Load())
}

func TestToday_Unsupported(t *testing.T) {
	s := NewService(dbtest.Open(t), nil, llm.NewTutor(llm.NewScripted()), time.UTC, zap.NewNop())
	_, err := s.Today(context.Background(), "tlh")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestToday_GeneratorFailure(t *testing.T) {
	gen := llm.NewScripted(`{"word":""}`)
	s := NewService(dbtest.Open(t), nil, llm.NewTutor(gen), time.UTC, zap.NewNop())
	_, err := s.Today(context.Background(), "fr")
	assert.Error(t, err)
}

func TestToday_CachedUntilMidnight(t *testing.T) {
	db := dbtest.Open(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	loc := time.FixedZone("JST", 9*60*60)

	s := NewService(db, cache.New(client, zap.NewNop()), llm.NewTutor(llm.NewScripted(wordJSON)), loc, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 10, 14, 22, 0, 0, 0, loc) }

	_, err := s.Today(context.Background(), "es")
	require.NoError(t, err)

	key := "daily-word:2026-10-14:es"
	require.True(t, mr.Exists(key))
	assert.Equal(t, 2*time.Hour, mr.TTL(key))

	s.Invalidate(context.Background(), "2026-10-14", "es")
	assert.False(t, mr.Exists(key))
}

func TestPrepare(t *testing.T) {
	db := dbtest.Open(t)
	s := NewService(db, nil, llm.NewTutor(llm.NewScripted(wordJSON)), time.UTC, zap.NewNop())

	err := s.Prepare(context.Background(), []string{"es", "fr", "tlh"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tlh")

	var count int64
	require.NoError(t, db.Model(&model.DailyWord{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

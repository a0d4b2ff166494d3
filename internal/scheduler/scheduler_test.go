package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/lingoleap/api/internal/database/dbtest"
	"github.com/lingoleap/api/internal/model"
)

type fakeWords struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (f *fakeWords) Prepare(_ context.Context, codes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, codes)
	return f.err
}

func TestPurgeRefreshTokens(t *testing.T) {
	db := dbtest.Open(t)
	now := time.Date(2026, 10, 14, 3, 0, 0, 0, time.UTC)

	u := model.User{Email: "ana@example.com", Username: "ana"}
	require.NoError(t, db.Create(&u).Error)
	require.NoError(t, db.Create(&[]model.RefreshToken{
		{UserID: u.ID, Token: "live", ExpiresAt: now.Add(time.Hour)},
		{UserID: u.ID, Token: "expired", ExpiresAt: now.Add(-time.Hour)},
		{UserID: u.ID, Token: "revoked", ExpiresAt: now.Add(time.Hour), Revoked: true},
	}).Error)

	s := New(db, nil, Config{}, zap.NewNop())
	s.now = func() time.Time { return now }
	require.NoError(t, s.PurgeRefreshTokens(context.Background()))

	var left []string
	require.NoError(t, db.Model(&model.RefreshToken{}).Pluck("token", &left).Error)
	assert.Equal(t, []string{"live"}, left)
}

func TestTrackRecordsOutcome(t *testing.T) {
	words := &fakeWords{err: errors.New("quota exceeded")}
	s := New(dbtest.Open(t), words, Config{Languages: []string{"fr", "de"}}, zap.NewNop())
	s.register(JobDailyWord, nil)

	s.track(JobDailyWord, s.PrepareDailyWords)()

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, 1, status[0].Runs)
	assert.Equal(t, "quota exceeded", status[0].LastError)
	assert.Equal(t, [][]string{{"fr", "de"}}, words.calls)

	words.err = nil
	s.track(JobDailyWord, s.PrepareDailyWords)()
	status = s.Status()
	assert.Equal(t, 2, status[0].Runs)
	assert.Empty(t, status[0].LastError)
}

func TestStartStop(t *testing.T) {
	db := dbtest.Open(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := New(db, &fakeWords{}, Config{DailyWordCron: "5 0 * * *", Languages: []string{"es"}}, zap.NewNop())
	require.NoError(t, s.Start())

	status := s.Status()
	require.Len(t, status, 2)
	assert.Equal(t, JobDailyWord, status[0].Name)
	assert.False(t, status[0].NextRun.IsZero())

	s.Stop()
	s.Stop()
}

func TestStart_BadCron(t *testing.T) {
	s := New(dbtest.Open(t), &fakeWords{}, Config{DailyWordCron: "not a cron", Languages: []string{"es"}}, zap.NewNop())
	assert.Error(t, s.Start())
}

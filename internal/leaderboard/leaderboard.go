// Package leaderboard ranks users by the experience they earned.
package leaderboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lingoleap/api/internal/cache"
	"github.com/lingoleap/api/internal/events"
	"github.com/lingoleap/api/internal/progress"
)

const (
	PeriodAll   = "all"
	PeriodWeek  = "week"
	PeriodMonth = "month"

	podiumSize = 3
	boardSize  = 10
	cacheTTL   = 60 * time.Second
)

var Periods = []string{PeriodAll, PeriodWeek, PeriodMonth}

type Entry struct {
	Rank      int    `json:"rank"`
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
	Total     int    `json:"total"`
	Level     int    `json:"level"`
}

// Board always carries three podium slots and seven slots for ranks 4-10.
// Slots without a user are nil and encode as JSON null.
type Board struct {
	Language string   `json:"language"`
	Period   string   `json:"period"`
	Top3     []*Entry `json:"top3"`
	Top10    []*Entry `json:"top10"`
	Me       *Entry   `json:"me,omitempty"`
}

type Query struct {
	Language string
	Period   string
}

type Service struct {
	db    *gorm.DB
	cache *cache.RedisCache
	log   *zap.Logger
	now   func() time.Time
}

func NewService(db *gorm.DB, c *cache.RedisCache, log *zap.Logger) *Service {
	return &Service{db: db, cache: c, log: log, now: time.Now}
}

// Register drops cached boards whenever new experience is recorded.
func (s *Service) Register(bus *events.Bus) {
	bus.Subscribe(events.ResultRecorded, func(ctx context.Context, _ any) {
		s.cache.DeletePrefix(ctx, cache.LeaderboardPrefix())
	})
}

func ValidPeriod(p string) bool {
	for _, v := range Periods {
		if v == p {
			return true
		}
	}
	return false
}

// Top returns the board for q. When userID is non-zero the caller's own
// position is attached; it is computed fresh and never cached.
func (s *Service) Top(ctx context.Context, q Query, userID int64) (*Board, error) {
	q.Language = strings.ToLower(strings.TrimSpace(q.Language))
	if q.Period == "" {
		q.Period = PeriodAll
	}
	if !ValidPeriod(q.Period) {
		return nil, fmt.Errorf("unknown period %q", q.Period)
	}

	board := &Board{}
	key := cache.LeaderboardKey(q.Language, q.Period)
	if !s.cache.GetJSON(ctx, key, board) {
		entries, err := s.top(ctx, q)
		if err != nil {
			return nil, err
		}
		board = pad(q, entries)
		s.cache.SetJSON(ctx, key, board, cacheTTL)
	}

	if userID != 0 {
		me, err := s.position(ctx, q, userID)
		if err != nil {
			return nil, err
		}
		board.Me = me
	}
	return board, nil
}

type row struct {
	UserID    int64
	Username  string
	AvatarURL string
	UserExp   int
	Total     int
}

func (s *Service) filtered(ctx context.Context, q Query) *gorm.DB {
	tx := s.db.WithContext(ctx).Table("results")
	if q.Language != "" {
		tx = tx.Where("results.language = ?", q.Language)
	}
	if since, ok := s.since(q.Period); ok {
		tx = tx.Where("results.created_at >= ?", since)
	}
	return tx
}

// since returns the start of a rolling period window.
func (s *Service) since(period string) (time.Time, bool) {
	now := s.now().UTC()
	switch period {
	case PeriodWeek:
		return now.AddDate(0, 0, -7), true
	case PeriodMonth:
		return now.AddDate(0, 0, -30), true
	default:
		return time.Time{}, false
	}
}

func (s *Service) top(ctx context.Context, q Query) ([]Entry, error) {
	var rows []row
	err := s.filtered(ctx, q).
		Select("results.user_id, users.username, users.avatar_url, users.exp AS user_exp, SUM(results.exp) AS total").
		Joins("JOIN users ON users.id = results.user_id").
		Group("results.user_id, users.username, users.avatar_url, users.exp").
		Order("total DESC, results.user_id ASC").
		Limit(boardSize).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate leaderboard: %w", err)
	}

	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = Entry{
			Rank:      i + 1,
			UserID:    r.UserID,
			Username:  r.Username,
			AvatarURL: r.AvatarURL,
			Total:     r.Total,
			Level:     progress.Level(r.UserExp),
		}
	}
	return entries, nil
}

// position ranks one user with the same ordering as top. A user without
// results in the window gets rank 0.
func (s *Service) position(ctx context.Context, q Query, userID int64) (*Entry, error) {
	var u row
	err := s.db.WithContext(ctx).Table("users").
		Select("id AS user_id, username, avatar_url, exp AS user_exp").
		Where("id = ?", userID).
		Scan(&u).Error
	if err != nil {
		return nil, fmt.Errorf("load leaderboard user: %w", err)
	}
	if u.UserID == 0 {
		return nil, nil
	}

	var total struct{ Total int }
	err = s.filtered(ctx, q).
		Select("COALESCE(SUM(results.exp), 0) AS total").
		Where("results.user_id = ?", userID).
		Scan(&total).Error
	if err != nil {
		return nil, fmt.Errorf("sum user exp: %w", err)
	}

	me := &Entry{
		UserID:    u.UserID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
		Total:     total.Total,
		Level:     progress.Level(u.UserExp),
	}

	var hasResults int64
	if err := s.filtered(ctx, q).Where("results.user_id = ?", userID).Count(&hasResults).Error; err != nil {
		return nil, fmt.Errorf("count user results: %w", err)
	}
	if hasResults == 0 {
		return me, nil
	}

	sub := s.filtered(ctx, q).
		Select("results.user_id, SUM(results.exp) AS total").
		Group("results.user_id")

	var ahead int64
	err = s.db.WithContext(ctx).Table("(?) AS t", sub).
		Where("t.total > ? OR (t.total = ? AND t.user_id < ?)", me.Total, me.Total, userID).
		Count(&ahead).Error
	if err != nil {
		return nil, fmt.Errorf("rank user: %w", err)
	}
	me.Rank = int(ahead) + 1
	return me, nil
}

func pad(q Query, entries []Entry) *Board {
	b := &Board{
		Language: q.Language,
		Period:   q.Period,
		Top3:     make([]*Entry, podiumSize),
		Top10:    make([]*Entry, boardSize-podiumSize),
	}
	for i := range entries {
		e := entries[i]
		if i < podiumSize {
			b.Top3[i] = &e
		} else if i < boardSize {
			b.Top10[i-podiumSize] = &e
		}
	}
	return b
}

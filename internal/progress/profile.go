package progress

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lingoleap/api/internal/model"
)

const weekDays = 7

type AchievementStatus struct {
	ID          int64  `json:"id"`
	Key         string `json:"key"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Goals       []int  `json:"goals"`
	TierStatus
}

type DayExp struct {
	Day string `json:"day"`
	Exp int    `json:"exp"`
}

type Profile struct {
	User         *model.User         `json:"user"`
	Level        LevelInfo           `json:"level"`
	Streak       int                 `json:"streak"`
	MaxStreak    int                 `json:"maxStreak"`
	Languages    []model.Language    `json:"languages"`
	Achievements []AchievementStatus `json:"achievements"`
	Week         []DayExp            `json:"week"`
	Stats        Stats               `json:"stats"`
}

// Profile records today's visit and aggregates everything the profile
// page shows.
func (t *Tracker) Profile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := t.RecordVisit(ctx, userID)
	if err != nil {
		return nil, err
	}
	return t.build(t.db.WithContext(ctx), user, user.Streak)
}

// Snapshot aggregates the profile without writing anything. The streak is
// derived from the visit log as of today.
func (t *Tracker) Snapshot(ctx context.Context, userID int64) (*Profile, error) {
	db := t.db.WithContext(ctx)
	user, err := loadUser(db, userID)
	if err != nil {
		return nil, err
	}
	streak, err := t.currentStreak(db, user)
	if err != nil {
		return nil, err
	}
	return t.build(db, user, streak)
}

func (t *Tracker) build(db *gorm.DB, user *model.User, streak int) (*Profile, error) {
	userID := user.ID
	p := &Profile{
		User:      user,
		Level:     LevelProgress(user.Exp),
		Streak:    streak,
		MaxStreak: user.MaxStreak,
	}

	err := db.Where("user_id = ?", userID).Order("exp DESC, code ASC").Find(&p.Languages).Error
	if err != nil {
		return nil, fmt.Errorf("load languages: %w", err)
	}

	if p.Stats, err = t.stats(db, user); err != nil {
		return nil, err
	}
	if p.Achievements, err = t.achievements(db, userID); err != nil {
		return nil, err
	}
	if p.Week, err = t.week(db, userID); err != nil {
		return nil, err
	}
	return p, nil
}

func (t *Tracker) achievements(db *gorm.DB, userID int64) ([]AchievementStatus, error) {
	var catalog []model.Achievement
	if err := db.Order("category, id").Find(&catalog).Error; err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}

	var rows []model.UserAchievement
	if err := db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load user achievements: %w", err)
	}
	progress := make(map[int64]int, len(rows))
	for _, r := range rows {
		progress[r.AchievementID] = r.Progress
	}

	out := make([]AchievementStatus, 0, len(catalog))
	for _, a := range catalog {
		out = append(out, AchievementStatus{
			ID:          a.ID,
			Key:         a.Key,
			Category:    a.Category,
			Title:       a.Title,
			Description: a.Description,
			Goals:       a.Goals,
			TierStatus:  Tier(a.Goals, progress[a.ID]),
		})
	}
	return out, nil
}

// week returns the experience earned on each of the last seven calendar
// days, oldest first, with today last.
func (t *Tracker) week(db *gorm.DB, userID int64) ([]DayExp, error) {
	today := t.today()
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, t.loc)
	start := midnight.AddDate(0, 0, -(weekDays - 1))

	var results []model.Result
	err := db.Select("exp", "created_at").
		Where("user_id = ? AND created_at >= ?", userID, start.UTC()).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("load recent results: %w", err)
	}

	series := make([]DayExp, weekDays)
	index := make(map[string]int, weekDays)
	for i := range series {
		day := DayKey(start.AddDate(0, 0, i))
		series[i].Day = day
		index[day] = i
	}
	for _, r := range results {
		if i, ok := index[DayKey(r.CreatedAt.In(t.loc))]; ok {
			series[i].Exp += r.Exp
		}
	}
	return series, nil
}

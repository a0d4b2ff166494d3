package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lingoleap/api/internal/events"
	"github.com/lingoleap/api/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrChatTooShort   = errors.New("chat session too short to earn experience")
	ErrInvalidOutcome = errors.New("invalid lesson outcome")
)

// Tracker persists visits, experience and achievement progress.
type Tracker struct {
	db  *gorm.DB
	bus *events.Bus
	loc *time.Location
	now func() time.Time
	log *zap.Logger
}

func NewTracker(db *gorm.DB, bus *events.Bus, loc *time.Location, log *zap.Logger) *Tracker {
	if loc == nil {
		loc = time.UTC
	}
	return &Tracker{db: db, bus: bus, loc: loc, now: time.Now, log: log}
}

func (t *Tracker) today() time.Time {
	return t.now().In(t.loc)
}

type Stats struct {
	Lessons   int `json:"lessons"`
	Perfect   int `json:"perfect"`
	Chats     int `json:"chats"`
	Languages int `json:"languages"`
	Exp       int `json:"exp"`
	MaxStreak int `json:"maxStreak"`
}

// Value returns the counter an achievement category is measured by.
func (s Stats) Value(category string) int {
	switch category {
	case model.CategoryLessons:
		return s.Lessons
	case model.CategoryPerfect:
		return s.Perfect
	case model.CategoryExperience:
		return s.Exp
	case model.CategoryStreak:
		return s.MaxStreak
	case model.CategoryPolyglot:
		return s.Languages
	case model.CategoryChat:
		return s.Chats
	default:
		return 0
	}
}

type Unlock struct {
	AchievementID int64  `json:"achievementId"`
	Key           string `json:"key"`
	Title         string `json:"title"`
	Tier          int    `json:"tier"`
}

type Award struct {
	Exp      int            `json:"exp"`
	Level    LevelInfo      `json:"level"`
	LevelUp  bool           `json:"levelUp"`
	Language model.Language `json:"language"`
	Unlocked []Unlock       `json:"unlocked"`
}

type LessonOutcome struct {
	UserID    int64
	Language  string
	Topic     string
	Questions int
	Correct   int
	Mistakes  int
}

func (o LessonOutcome) valid() bool {
	return o.Questions > 0 && o.Correct >= 0 && o.Mistakes >= 0 &&
		o.Correct+o.Mistakes == o.Questions
}

type ChatOutcome struct {
	UserID       int64
	Language     string
	UserMessages int
}

func loadUser(tx *gorm.DB, userID int64) (*model.User, error) {
	var user model.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	return &user, nil
}

// RecordVisit logs today's visit (idempotent), refreshes the streak
// counters and returns the updated user.
func (t *Tracker) RecordVisit(ctx context.Context, userID int64) (*model.User, error) {
	var (
		user     *model.User
		unlocked []Unlock
	)
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if user, err = loadUser(tx, userID); err != nil {
			return err
		}

		today := t.today()
		visit := model.VisitLog{UserID: userID, Day: DayKey(today)}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&visit).Error; err != nil {
			return fmt.Errorf("record visit: %w", err)
		}

		if err := t.refreshStreak(tx, user, today); err != nil {
			return err
		}
		unlocked, err = t.syncAchievements(tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	t.publishUnlocks(userID, unlocked)
	return user, nil
}

// refreshStreak recomputes user's streak from visit logs and persists it
// when it changed.
func (t *Tracker) refreshStreak(tx *gorm.DB, user *model.User, today time.Time) error {
	// A running streak can be at most one day longer than the best one.
	var days []string
	err := tx.Model(&model.VisitLog{}).
		Where("user_id = ?", user.ID).
		Order("day DESC").
		Limit(user.MaxStreak+2).
		Pluck("day", &days).Error
	if err != nil {
		return fmt.Errorf("load visits: %w", err)
	}

	streak := Streak(days, today)
	maxStreak := user.MaxStreak
	if streak > maxStreak {
		maxStreak = streak
	}
	if streak == user.Streak && maxStreak == user.MaxStreak {
		return nil
	}

	err = tx.Model(&model.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{"streak": streak, "max_streak": maxStreak}).Error
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	user.Streak, user.MaxStreak = streak, maxStreak
	return nil
}

type StreakChange struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Before   int    `json:"before"`
	After    int    `json:"after"`
}

// RecomputeStreaks re-derives every user's streak without recording a
// visit. Streaks broken by inactivity drop to 0 here. With dryRun nothing
// is written.
func (t *Tracker) RecomputeStreaks(ctx context.Context, dryRun bool) ([]StreakChange, error) {
	var users []model.User
	if err := t.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var changes []StreakChange
	today := t.today()
	for i := range users {
		user := &users[i]
		before := user.Streak

		var err error
		if dryRun {
			user.Streak, err = t.streakOn(t.db.WithContext(ctx), user, today)
		} else {
			err = t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				return t.refreshStreak(tx, user, today)
			})
		}
		if err != nil {
			return changes, err
		}

		if user.Streak != before {
			changes = append(changes, StreakChange{UserID: user.ID, Username: user.Username, Before: before, After: user.Streak})
		}
	}
	return changes, nil
}

// currentStreak computes the streak from the visit log without storing it.
func (t *Tracker) currentStreak(db *gorm.DB, user *model.User) (int, error) {
	return t.streakOn(db, user, t.today())
}

func (t *Tracker) streakOn(db *gorm.DB, user *model.User, today time.Time) (int, error) {
	var days []string
	err := db.Model(&model.VisitLog{}).
		Where("user_id = ?", user.ID).Order("day DESC").Limit(user.MaxStreak+2).
		Pluck("day", &days).Error
	if err != nil {
		return 0, fmt.Errorf("load visits: %w", err)
	}
	return Streak(days, today), nil
}

// AwardLesson stores a completed lesson and credits its experience. Every
// question must be answered, either correctly or as a mistake.
func (t *Tracker) AwardLesson(ctx context.Context, o LessonOutcome) (*Award, error) {
	if !o.valid() {
		return nil, ErrInvalidOutcome
	}

	exp := LessonExp(o.Correct, o.Mistakes)
	award, err := t.award(ctx, o.UserID, o.Language, exp, model.SourceLesson, func(tx *gorm.DB, result *model.Result) error {
		challenge := model.Challenge{
			UserID:        o.UserID,
			ResultID:      result.ID,
			Language:      o.Language,
			Topic:         o.Topic,
			QuestionCount: o.Questions,
			Mistakes:      o.Mistakes,
		}
		if err := tx.Create(&challenge).Error; err != nil {
			return fmt.Errorf("create challenge: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return award, nil
}

// AwardChat credits a finished practice conversation.
func (t *Tracker) AwardChat(ctx context.Context, o ChatOutcome) (*Award, error) {
	exp, ok := ChatExp(o.UserMessages)
	if !ok {
		return nil, ErrChatTooShort
	}
	return t.award(ctx, o.UserID, o.Language, exp, model.SourceChat, nil)
}

func (t *Tracker) award(ctx context.Context, userID int64, language string, exp int, source string, extra func(*gorm.DB, *model.Result) error) (*Award, error) {
	award := &Award{Exp: exp}
	var levelBefore int

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		levelBefore = Level(user.Exp)

		result := model.Result{UserID: userID, Language: language, Exp: exp, Source: source}
		if err := tx.Create(&result).Error; err != nil {
			return fmt.Errorf("create result: %w", err)
		}
		if extra != nil {
			if err := extra(tx, &result); err != nil {
				return err
			}
		}

		if exp > 0 {
			err := tx.Model(&model.User{}).Where("id = ?", userID).
				Update("exp", gorm.Expr("exp + ?", exp)).Error
			if err != nil {
				return fmt.Errorf("credit user exp: %w", err)
			}
			user.Exp += exp
		}

		lang, err := addLanguageExp(tx, userID, language, exp)
		if err != nil {
			return err
		}
		award.Language = *lang

		award.Unlocked, err = t.syncAchievements(tx, user)
		if err != nil {
			return err
		}
		award.Level = LevelProgress(user.Exp)
		return nil
	})
	if err != nil {
		return nil, err
	}

	award.LevelUp = award.Level.Level > levelBefore
	if award.Unlocked == nil {
		award.Unlocked = []Unlock{}
	}

	t.bus.Publish(events.ResultRecorded, events.ResultRecordedEvent{UserID: userID, Language: language, Exp: exp, Source: source})
	t.publishUnlocks(userID, award.Unlocked)

	t.log.Info("experience awarded",
		zap.Int64("user_id", userID),
		zap.String("language", language),
		zap.String("source", source),
		zap.Int("exp", exp),
		zap.Int("unlocked", len(award.Unlocked)),
	)
	return award, nil
}

// addLanguageExp credits exp to the user's row for code, creating it on
// first practice, and keeps rank equal to the level of that exp.
func addLanguageExp(tx *gorm.DB, userID int64, code string, exp int) (*model.Language, error) {
	var lang model.Language
	err := tx.Where("user_id = ? AND code = ?", userID, code).First(&lang).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		lang = model.Language{UserID: userID, Code: code, Exp: exp, Rank: Level(exp)}
		if err := tx.Create(&lang).Error; err != nil {
			return nil, fmt.Errorf("create language: %w", err)
		}
		return &lang, nil
	case err != nil:
		return nil, fmt.Errorf("load language: %w", err)
	}

	lang.Exp += exp
	lang.Rank = Level(lang.Exp)
	err = tx.Model(&model.Language{}).Where("id = ?", lang.ID).
		Updates(map[string]interface{}{"exp": lang.Exp, "rank": lang.Rank}).Error
	if err != nil {
		return nil, fmt.Errorf("update language: %w", err)
	}
	return &lang, nil
}

func (t *Tracker) stats(tx *gorm.DB, user *model.User) (Stats, error) {
	s := Stats{Exp: user.Exp, MaxStreak: user.MaxStreak}

	counts := []struct {
		dst   *int
		model interface{}
		where string
		args  []interface{}
	}{
		{&s.Lessons, &model.Challenge{}, "user_id = ?", []interface{}{user.ID}},
		{&s.Perfect, &model.Challenge{}, "user_id = ? AND mistakes = 0 AND question_count > 0", []interface{}{user.ID}},
		{&s.Chats, &model.Result{}, "user_id = ? AND source = ?", []interface{}{user.ID, model.SourceChat}},
		{&s.Languages, &model.Language{}, "user_id = ?", []interface{}{user.ID}},
	}
	for _, c := range counts {
		var n int64
		if err := tx.Model(c.model).Where(c.where, c.args...).Count(&n).Error; err != nil {
			return s, fmt.Errorf("count stats: %w", err)
		}
		*c.dst = int(n)
	}
	return s, nil
}

// syncAchievements writes the current progress of every catalog entry for
// user and returns the tiers newly reached.
func (t *Tracker) syncAchievements(tx *gorm.DB, user *model.User) ([]Unlock, error) {
	stats, err := t.stats(tx, user)
	if err != nil {
		return nil, err
	}

	var catalog []model.Achievement
	if err := tx.Order("id").Find(&catalog).Error; err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	if len(catalog) == 0 {
		return nil, nil
	}

	var rows []model.UserAchievement
	if err := tx.Where("user_id = ?", user.ID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load user achievements: %w", err)
	}
	existing := make(map[int64]model.UserAchievement, len(rows))
	for _, r := range rows {
		existing[r.AchievementID] = r
	}

	var unlocked []Unlock
	for _, a := range catalog {
		value := stats.Value(a.Category)
		row, ok := existing[a.ID]
		if ok && row.Progress == value {
			continue
		}

		before := 0
		if ok {
			before = Tier(a.Goals, row.Progress).Tier
			err = tx.Model(&model.UserAchievement{}).Where("id = ?", row.ID).Update("progress", value).Error
		} else {
			err = tx.Create(&model.UserAchievement{UserID: user.ID, AchievementID: a.ID, Progress: value}).Error
		}
		if err != nil {
			return nil, fmt.Errorf("save achievement %s: %w", a.Key, err)
		}

		if after := Tier(a.Goals, value).Tier; after > before {
			unlocked = append(unlocked, Unlock{AchievementID: a.ID, Key: a.Key, Title: a.Title, Tier: after})
		}
	}
	return unlocked, nil
}

func (t *Tracker) publishUnlocks(userID int64, unlocked []Unlock) {
	for _, u := range unlocked {
		t.bus.Publish(events.AchievementUnlocked, events.AchievementUnlockedEvent{
			UserID:        userID,
			AchievementID: u.AchievementID,
			Key:           u.Key,
			Title:         u.Title,
			Tier:          u.Tier,
		})
	}
}

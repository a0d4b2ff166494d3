// Package dailyword serves one generated vocabulary entry per calendar day
// and language.
package dailyword

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lingoleap/api/internal/cache"
	"github.com/lingoleap/api/internal/language"
	"github.com/lingoleap/api/internal/llm"
	"github.com/lingoleap/api/internal/model"
	"github.com/lingoleap/api/internal/progress"
)

// recentWords is how many previous words the generator is told to avoid.
const recentWords = 30

// generateTimeout bounds a shared generation once it is detached from the
// request that started it.
const generateTimeout = 2 * time.Minute

var ErrUnsupportedLanguage = errors.New("unsupported language")

type Service struct {
	db    *gorm.DB
	cache *cache.RedisCache
	tutor *llm.Tutor
	loc   *time.Location
	now   func() time.Time
	log   *zap.Logger
	group singleflight.Group
}

func NewService(db *gorm.DB, c *cache.RedisCache, tutor *llm.Tutor, loc *time.Location, log *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{db: db, cache: c, tutor: tutor, loc: loc, now: time.Now, log: log}
}

// Today returns today's word for code, generating it on first request.
// Concurrent first requests share one generation.
func (s *Service) Today(ctx context.Context, code string) (*model.DailyWord, error) {
	code = language.Normalize(code)
	if !language.Supported(code) {
		return nil, ErrUnsupportedLanguage
	}

	today := s.now().In(s.loc)
	day := progress.DayKey(today)
	key := cache.DailyWordKey(day, code)

	var word model.DailyWord
	if s.cache.GetJSON(ctx, key, &word) {
		return &word, nil
	}

	// Every waiter shares this call, so it must outlive the first caller.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), generateTimeout)
		defer cancel()
		return s.load(genCtx, day, code)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	w := res.Val.(*model.DailyWord)
	s.cache.SetJSON(ctx, key, w, untilMidnight(today))
	return w, nil
}

func (s *Service) load(ctx context.Context, day, code string) (*model.DailyWord, error) {
	db := s.db.WithContext(ctx)

	var word model.DailyWord
	err := db.Where("day = ? AND language = ?", day, code).First(&word).Error
	if err == nil {
		return &word, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load daily word: %w", err)
	}

	var recent []string
	err = db.Model(&model.DailyWord{}).
		Where("language = ?", code).
		Order("day DESC").
		Limit(recentWords).
		Pluck("word", &recent).Error
	if err != nil {
		return nil, fmt.Errorf("load recent words: %w", err)
	}

	generated, err := s.tutor.DailyWord(ctx, language.Name(code), day, recent)
	if err != nil {
		return nil, fmt.Errorf("generate daily word: %w", err)
	}

	examples, err := json.Marshal(generated.Examples)
	if err != nil {
		return nil, fmt.Errorf("encode examples: %w", err)
	}

	word = model.DailyWord{
		Day:           day,
		Language:      code,
		Word:          generated.Word,
		Translation:   generated.Translation,
		Pronunciation: generated.Pronunciation,
		Definition:    generated.Definition,
		Examples:      examples,
	}

	// Another instance may have stored the word meanwhile; keep theirs.
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&word).Error; err != nil {
		return nil, fmt.Errorf("store daily word: %w", err)
	}
	if err := db.Where("day = ? AND language = ?", day, code).First(&word).Error; err != nil {
		return nil, fmt.Errorf("reload daily word: %w", err)
	}

	s.log.Info("daily word generated", zap.String("day", day), zap.String("language", code), zap.String("word", word.Word))
	return &word, nil
}

// Prepare generates today's word for every code that lacks one. It is run
// by the scheduler shortly after midnight.
func (s *Service) Prepare(ctx context.Context, codes []string) error {
	var errs []error
	for _, code := range codes {
		if _, err := s.Today(ctx, code); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", code, err))
		}
	}
	return errors.Join(errs...)
}

// Invalidate drops the cached word for day and code.
func (s *Service) Invalidate(ctx context.Context, day, code string) {
	s.cache.Delete(ctx, cache.DailyWordKey(day, code))
}

func untilMidnight(t time.Time) time.Duration {
	next := time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
	if d := next.Sub(t); d > 0 {
		return d
	}
	return time.Minute
}

// Package scheduler runs the periodic maintenance jobs: generating the
// word of the day and purging dead refresh tokens.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lingoleap/api/internal/model"
)

const (
	JobDailyWord  = "daily-word"
	JobPurgeToken = "purge-refresh-tokens"

	purgeInterval = time.Hour
	jobTimeout    = 5 * time.Minute
)

// WordPreparer generates today's word for each language code.
type WordPreparer interface {
	Prepare(ctx context.Context, codes []string) error
}

type Config struct {
	DailyWordCron string
	Languages     []string
	Location      *time.Location
}

type Scheduler struct {
	cron   *gocron.Scheduler
	db     *gorm.DB
	words  WordPreparer
	cfg    Config
	log    *zap.Logger
	now    func() time.Time
	mu     sync.Mutex
	status map[string]*JobStatus
	jobs   map[string]*gocron.Job
}

type JobStatus struct {
	Name      string    `json:"name"`
	Runs      int       `json:"runs"`
	LastRun   time.Time `json:"lastRun,omitempty"`
	NextRun   time.Time `json:"nextRun,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

func New(db *gorm.DB, words WordPreparer, cfg Config, log *zap.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	cron := gocron.NewScheduler(cfg.Location)
	cron.SingletonModeAll()

	return &Scheduler{
		cron:   cron,
		db:     db,
		words:  words,
		cfg:    cfg,
		log:    log.Named("scheduler"),
		now:    time.Now,
		status: make(map[string]*JobStatus),
		jobs:   make(map[string]*gocron.Job),
	}
}

// Start registers the jobs and runs them in the background.
func (s *Scheduler) Start() error {
	if s.words != nil && len(s.cfg.Languages) > 0 {
		job, err := s.cron.Cron(s.cfg.DailyWordCron).Do(s.track(JobDailyWord, s.PrepareDailyWords))
		if err != nil {
			return fmt.Errorf("schedule %s: %w", JobDailyWord, err)
		}
		s.register(JobDailyWord, job)
	}

	job, err := s.cron.Every(purgeInterval).Do(s.track(JobPurgeToken, s.PurgeRefreshTokens))
	if err != nil {
		return fmt.Errorf("schedule %s: %w", JobPurgeToken, err)
	}
	s.register(JobPurgeToken, job)

	s.cron.StartAsync()
	s.log.Info("scheduler started", zap.String("daily_word_cron", s.cfg.DailyWordCron), zap.Strings("languages", s.cfg.Languages))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	if s.cron.IsRunning() {
		s.cron.Stop()
		s.log.Info("scheduler stopped")
	}
}

func (s *Scheduler) register(name string, job *gocron.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[name] = job
	s.status[name] = &JobStatus{Name: name}
}

// track wraps a job so its outcome shows up in Status.
func (s *Scheduler) track(name string, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		started := s.now()
		err := run(ctx)

		s.mu.Lock()
		st := s.status[name]
		st.Runs++
		st.LastRun = started
		st.LastError = ""
		if err != nil {
			st.LastError = err.Error()
		}
		s.mu.Unlock()

		if err != nil {
			s.log.Error("job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.log.Info("job finished", zap.String("job", name), zap.Duration("elapsed", s.now().Sub(started)))
	}
}

// PrepareDailyWords generates today's word for every configured language.
func (s *Scheduler) PrepareDailyWords(ctx context.Context) error {
	return s.words.Prepare(ctx, s.cfg.Languages)
}

// PurgeRefreshTokens deletes expired and revoked refresh tokens.
func (s *Scheduler) PurgeRefreshTokens(ctx context.Context) error {
	res := s.db.WithContext(ctx).
		Where("expires_at < ? OR revoked = ?", s.now().UTC(), true).
		Delete(&model.RefreshToken{})
	if res.Error != nil {
		return fmt.Errorf("purge refresh tokens: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.Info("refresh tokens purged", zap.Int64("count", res.RowsAffected))
	}
	return nil
}

// Status reports every registered job.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.status))
	for _, name := range []string{JobDailyWord, JobPurgeToken} {
		st, ok := s.status[name]
		if !ok {
			continue
		}
		cp := *st
		if job := s.jobs[name]; job != nil {
			cp.NextRun = job.NextRun()
		}
		out = append(out, cp)
	}
	return out
}

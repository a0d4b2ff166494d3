// Package app wires configuration into the long-lived services shared by
// the HTTP server and the maintenance CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/lingoleap/api/internal/auth"
	"github.com/lingoleap/api/internal/cache"
	"github.com/lingoleap/api/internal/config"
	"github.com/lingoleap/api/internal/dailyword"
	"github.com/lingoleap/api/internal/database"
	"github.com/lingoleap/api/internal/events"
	"github.com/lingoleap/api/internal/leaderboard"
	"github.com/lingoleap/api/internal/llm"
	"github.com/lingoleap/api/internal/mail"
	"github.com/lingoleap/api/internal/middleware"
	"github.com/lingoleap/api/internal/model"
	"github.com/lingoleap/api/internal/progress"
	"github.com/lingoleap/api/internal/ratelimit"
)

type App struct {
	Config  *config.Config
	Log     *zap.Logger
	DB      *gorm.DB
	Cache   *cache.RedisCache
	Limiter *ratelimit.Limiter
	Bus     *events.Bus
	Tutor   *llm.Tutor
	Tracker *progress.Tracker
	Words   *dailyword.Service
	Board   *leaderboard.Service
	Google  *oauth2.Config
}

// New connects to the database and Redis and builds every service.
// Redis is optional: when it is unreachable caching is disabled and rate
// limits are kept in process.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Log: log, DB: db, Bus: events.NewBus(log)}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	a.Cache, err = cache.NewRedisCache(pingCtx, cfg.RedisURL, log.Named("cache"))
	if err != nil {
		log.Warn("redis unavailable, caching disabled", zap.Error(err))
		a.Cache = nil
	}

	var storage ratelimit.Storage
	if client := a.Cache.Client(); client != nil {
		storage = ratelimit.NewRedisStorage(client)
	}
	a.Limiter = ratelimit.NewLimiter(storage, nil, log.Named("ratelimit"))

	gen, err := llm.New(ctx, llm.Options{
		Provider:     cfg.LLMProvider,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		OllamaURL:    cfg.OllamaURL,
		OllamaModel:  cfg.OllamaModel,
		Timeout:      cfg.LLMTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}
	log.Info("llm provider ready", zap.String("provider", gen.Name()))
	a.Tutor = llm.NewTutor(llm.Instrument(gen, middleware.RecordLLMCall))

	loc := cfg.Location()
	a.Tracker = progress.NewTracker(db, a.Bus, loc, log.Named("progress"))
	a.Words = dailyword.NewService(db, a.Cache, a.Tutor, loc, log.Named("dailyword"))
	a.Board = leaderboard.NewService(db, a.Cache, log.Named("leaderboard"))
	a.Board.Register(a.Bus)

	if cfg.GoogleEnabled() {
		a.Google = auth.NewGoogleConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}

	var sender mail.Sender = mail.NewLogSender(log.Named("mail"))
	if cfg.MailEnabled() {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	}
	mail.NewNotifier(sender, cfg.FrontendURL, a.lookupEmail, log.Named("mail")).Register(a.Bus)

	return a, nil
}

func (a *App) lookupEmail(ctx context.Context, userID int64) (string, error) {
	var user model.User
	if err := a.DB.WithContext(ctx).Select("email").First(&user, userID).Error; err != nil {
		return "", err
	}
	return user.Email, nil
}

// Close drains pending events and releases connections.
func (a *App) Close() {
	a.Bus.Close()
	if err := a.Cache.Close(); err != nil {
		a.Log.Warn("close redis", zap.Error(err))
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Package server assembles the HTTP router from the application services.
package server

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/lingoleap/api/internal/cache"
	"github.com/lingoleap/api/internal/config"
	"github.com/lingoleap/api/internal/dailyword"
	"github.com/lingoleap/api/internal/events"
	"github.com/lingoleap/api/internal/handler"
	"github.com/lingoleap/api/internal/leaderboard"
	"github.com/lingoleap/api/internal/llm"
	"github.com/lingoleap/api/internal/middleware"
	"github.com/lingoleap/api/internal/progress"
	"github.com/lingoleap/api/internal/ratelimit"
	"github.com/lingoleap/api/internal/scheduler"
)

// Deps are the services the router needs. Cache, Limiter, Google and
// Scheduler may be nil.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Cache     *cache.RedisCache
	Limiter   *ratelimit.Limiter
	Tutor     *llm.Tutor
	Bus       *events.Bus
	Tracker   *progress.Tracker
	Words     *dailyword.Service
	Board     *leaderboard.Service
	Scheduler *scheduler.Scheduler
	Google    *oauth2.Config
	Log       *zap.Logger
}

var registerTagNames sync.Once

// useJSONFieldNames makes validation errors name fields as clients send them.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// RecordMetrics feeds domain events into Prometheus.
func RecordMetrics(bus *events.Bus) {
	bus.Subscribe(events.ResultRecorded, func(_ context.Context, payload any) {
		if e, ok := payload.(events.ResultRecordedEvent); ok {
			middleware.RecordExpAwarded(e.Source, e.Language, e.Exp)
		}
	})
}

func NewRouter(d Deps) *gin.Engine {
	useJSONFieldNames()
	cfg := d.Config

	authHandler := handler.NewAuthHandler(d.DB, d.Tracker, d.Bus, cfg.JWTSecret, d.Google, cfg.FrontendURL, d.Log)
	profileHandler := handler.NewProfileHandler(d.DB, d.Tracker)
	exportHandler := handler.NewExportHandler(d.DB, d.Tracker)
	lessonHandler := handler.NewLessonHandler(d.Tutor, d.Tracker, d.Log)
	chatHandler := handler.NewChatHandler(d.Tutor, d.Tracker)
	wordHandler := handler.NewDailyWordHandler(d.Words)
	boardHandler := handler.NewLeaderboardHandler(d.Board)
	adminHandler := handler.NewAdminHandler(d.DB, d.Cache, d.Words, d.Log)

	limiter := d.Limiter
	if !cfg.RateLimitEnabled {
		limiter = nil
	}
	limit := func(action string) gin.HandlerFunc {
		return middleware.RateLimitMiddleware(limiter, action)
	}

	r := gin.New()
	r.Use(
		middleware.RequestIDMiddleware(),
		middleware.Recovery(d.Log),
		middleware.LoggerMiddleware(d.Log),
		middleware.MetricsMiddleware(),
		middleware.CORS(cfg.FrontendURL),
		middleware.ErrorHandler(d.Log),
	)
	r.NoRoute(middleware.NotFound())

	r.GET("/health", health(d.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/register", limit(ratelimit.ActionLogin), authHandler.Register)
		api.POST("/auth", limit(ratelimit.ActionLogin), authHandler.Login)
		api.POST("/auth/refresh", authHandler.RefreshToken)
		api.POST("/auth/logout", authHandler.Logout)
		api.GET("/auth/google", authHandler.GoogleAuth)
		api.GET("/auth/google/callback", authHandler.GoogleCallback)

		api.GET("/daily-word", wordHandler.Today)
		api.GET("/leaderboard", middleware.OptionalAuthMiddleware(cfg.JWTSecret), boardHandler.Get)
	}

	user := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret))
	{
		user.GET("/auth/me", authHandler.Me)

		user.GET("/profile", profileHandler.Get)
		user.PUT("/profile", profileHandler.Update)
		user.GET("/profile/export", limit(ratelimit.ActionExport), exportHandler.Export)

		user.POST("/generateLesson", limit(ratelimit.ActionLesson), lessonHandler.Generate)
		user.POST("/generateLesson/verify", limit(ratelimit.ActionVerify), lessonHandler.Verify)
		user.POST("/generateLesson/complete", limit(ratelimit.ActionComplete), lessonHandler.Complete)

		user.POST("/chat-with-me", limit(ratelimit.ActionChat), chatHandler.Reply)
		user.POST("/chat-with-me/complete", limit(ratelimit.ActionComplete), chatHandler.Complete)
	}

	admin := api.Group("/admin", middleware.AdminMiddleware(cfg.JWTSecret, cfg.AdminEmails))
	{
		admin.GET("/stats", adminHandler.GetStats)

		admin.GET("/achievements", adminHandler.ListAchievements)
		admin.POST("/achievements", adminHandler.CreateAchievement)
		admin.PUT("/achievements/:id", adminHandler.UpdateAchievement)
		admin.DELETE("/achievements/:id", adminHandler.DeleteAchievement)

		admin.GET("/users", adminHandler.ListUsers)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)

		admin.GET("/daily-words", adminHandler.ListDailyWords)
		admin.DELETE("/daily-words/:id", adminHandler.DeleteDailyWord)

		admin.GET("/scheduler", func(c *gin.Context) {
			if d.Scheduler == nil {
				c.JSON(http.StatusOK, gin.H{"enabled": false})
				return
			}
			c.JSON(http.StatusOK, gin.H{"enabled": true, "jobs": d.Scheduler.Status()})
		})
	}

	return r
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

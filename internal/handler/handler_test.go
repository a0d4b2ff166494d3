package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lingoleap/api/internal/auth"
	"github.com/lingoleap/api/internal/dailyword"
	"github.com/lingoleap/api/internal/database/dbtest"
	"github.com/lingoleap/api/internal/events"
	"github.com/lingoleap/api/internal/leaderboard"
	"github.com/lingoleap/api/internal/llm"
	"github.com/lingoleap/api/internal/middleware"
	"github.com/lingoleap/api/internal/model"
	"github.com/lingoleap/api/internal/progress"
)

const (
	testSecret = "handler-test-secret"
	adminEmail = "admin@example.com"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	db     *gorm.DB
	bus    *events.Bus
	gen    *llm.Scripted
	router *gin.Engine
}

// newEnv wires every handler onto a router the same way the server does,
// backed by SQLite and a scripted model.
func newEnv(t *testing.T, responses ...string) *env {
	t.Helper()
	log := zap.NewNop()

	e := &env{db: dbtest.Open(t), bus: events.NewBus(log), gen: llm.NewScripted(responses...)}
	t.Cleanup(e.bus.Close)

	tracker := progress.NewTracker(e.db, e.bus, time.UTC, log)
	tutor := llm.NewTutor(e.gen)
	words := dailyword.NewService(e.db, nil, tutor, time.UTC, log)
	board := leaderboard.NewService(e.db, nil, log)

	authH := NewAuthHandler(e.db, tracker, e.bus, testSecret, nil, "http://localhost:5173", log)
	profileH := NewProfileHandler(e.db, tracker)
	exportH := NewExportHandler(e.db, tracker)
	lessonH := NewLessonHandler(tutor, tracker, log)
	chatH := NewChatHandler(tutor, tracker)
	wordH := NewDailyWordHandler(words)
	boardH := NewLeaderboardHandler(board)
	adminH := NewAdminHandler(e.db, nil, words, log)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware(), middleware.Recovery(log), middleware.ErrorHandler(log))

	api := r.Group("/api")
	api.POST("/register", authH.Register)
	api.POST("/auth", authH.Login)
	api.POST("/auth/refresh", authH.RefreshToken)
	api.POST("/auth/logout", authH.Logout)
	api.GET("/auth/google", authH.GoogleAuth)
	api.GET("/daily-word", wordH.Today)
	api.GET("/leaderboard", middleware.OptionalAuthMiddleware(testSecret), boardH.Get)

	user := api.Group("", middleware.AuthMiddleware(testSecret))
	user.GET("/auth/me", authH.Me)
	user.GET("/profile", profileH.Get)
	user.PUT("/profile", profileH.Update)
	user.GET("/profile/export", exportH.Export)
	user.POST("/generateLesson", lessonH.Generate)
	user.POST("/generateLesson/verify", lessonH.Verify)
	user.POST("/generateLesson/complete", lessonH.Complete)
	user.POST("/chat-with-me", chatH.Reply)
	user.POST("/chat-with-me/complete", chatH.Complete)

	admin := api.Group("/admin", middleware.AdminMiddleware(testSecret, []string{adminEmail}))
	admin.GET("/stats", adminH.GetStats)
	admin.GET("/achievements", adminH.ListAchievements)
	admin.POST("/achievements", adminH.CreateAchievement)
	admin.PUT("/achievements/:id", adminH.UpdateAchievement)
	admin.DELETE("/achievements/:id", adminH.DeleteAchievement)
	admin.GET("/users", adminH.ListUsers)
	admin.DELETE("/users/:id", adminH.DeleteUser)
	admin.GET("/daily-words", adminH.ListDailyWords)
	admin.DELETE("/daily-words/:id", adminH.DeleteDailyWord)

	e.router = r
	return e
}

func (e *env) user(t *testing.T, name string) (*model.User, string) {
	t.Helper()
	u := &model.User{Email: name + "@example.com", Username: name, Provider: model.ProviderLocal}
	require.NoError(t, e.db.Create(u).Error)
	tok, err := auth.GenerateAccessToken(u, testSecret)
	require.NoError(t, err)
	return u, tok
}

func (e *env) admin(t *testing.T) string {
	t.Helper()
	u := &model.User{Email: adminEmail, Username: "admin", Provider: model.ProviderLocal}
	require.NoError(t, e.db.Create(u).Error)
	tok, err := auth.GenerateAccessToken(u, testSecret)
	require.NoError(t, err)
	return tok
}

func (e *env) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// payload is a JSON request body.
type payload = map[string]any

type apiError struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}

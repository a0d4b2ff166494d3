package handler

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lingoleap/api/internal/model"
)

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/register", "", payload{"email": "Ana@Example.com", "username": "ana", "password": "correct-horse"})
	requireStatus(t, w, http.StatusCreated)
	reg := decodeBody[TokenResponse](t, w)
	assert.NotEmpty(t, reg.AccessToken)
	assert.NotEmpty(t, reg.RefreshToken)
	assert.Equal(t, "ana@example.com", reg.User.Email)

	w = e.do(t, http.MethodPost, "/api/register", "", payload{"email": "ana@example.com", "username": "other", "password": "correct-horse"})
	requireStatus(t, w, http.StatusConflict)

	w = e.do(t, http.MethodPost, "/api/auth", "", payload{"email": "ana@example.com", "password": "wrong-horse"})
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Equal(t, "invalid email or password", decodeBody[apiError](t, w).Message)

	w = e.do(t, http.MethodPost, "/api/auth", "", payload{"email": "ana@example.com", "password": "correct-horse"})
	requireStatus(t, w, http.StatusOK)
	login := decodeBody[TokenResponse](t, w)
	assert.Equal(t, 1, login.User.Streak)

	w = e.do(t, http.MethodGet, "/api/auth/me", login.AccessToken, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "ana", decodeBody[model.User](t, w).Username)
}

func TestRegister_ConcurrentSignupIsConflict(t *testing.T) {
	e := newEnv(t)

	// Another sign-up lands between the availability checks and the insert.
	var fired atomic.Bool
	require.NoError(t, e.db.Callback().Create().Before("gorm:create").Register("test:concurrent_signup", func(db *gorm.DB) {
		if db.Statement.Table != "users" || !fired.CompareAndSwap(false, true) {
			return
		}
		now := time.Now().UTC()
		_, err := db.Statement.ConnPool.ExecContext(db.Statement.Context,
			"INSERT INTO users (email, username, provider, exp, streak, max_streak, created_at, updated_at) VALUES (?, ?, 'local', 0, 0, 0, ?, ?)",
			"bob@example.com", "bobby", now, now)
		require.NoError(t, err)
	}))

	w := e.do(t, http.MethodPost, "/api/register", "", payload{"email": "bob@example.com", "username": "bob", "password": "correct-horse"})
	requireStatus(t, w, http.StatusConflict)
	assert.Equal(t, "email or username already taken", decodeBody[apiError](t, w).Message)
	assert.True(t, fired.Load())
}

func TestRegister_ValidationMessages(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/register", "", payload{"email": "nope", "username": "a!", "password": "short"})
	requireStatus(t, w, http.StatusBadRequest)

	body := decodeBody[apiError](t, w)
	assert.Equal(t, "validation failed", body.Message)
	assert.Equal(t, "must be a valid email address", body.Errors["email"])
	assert.Equal(t, "must be at least 8 characters", body.Errors["password"])
	assert.Contains(t, body.Errors, "username")
}

func TestRefreshAndLogout(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/register", "", payload{"email": "bo@example.com", "username": "bo", "password": "correct-horse"})
	requireStatus(t, w, http.StatusCreated)
	reg := decodeBody[TokenResponse](t, w)

	w = e.do(t, http.MethodPost, "/api/auth/refresh", "", payload{"refreshToken": reg.RefreshToken})
	requireStatus(t, w, http.StatusOK)
	assert.NotEmpty(t, decodeBody[map[string]any](t, w)["accessToken"])

	w = e.do(t, http.MethodPost, "/api/auth/logout", "", payload{"refreshToken": reg.RefreshToken})
	requireStatus(t, w, http.StatusOK)

	w = e.do(t, http.MethodPost, "/api/auth/refresh", "", payload{"refreshToken": reg.RefreshToken})
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestGoogleAuth_DisabledIsNotFound(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/api/auth/google", "", nil)
	requireStatus(t, w, http.StatusNotFound)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/api/profile", "", nil)
	requireStatus(t, w, http.StatusUnauthorized)

	_, tok := e.user(t, "cy")
	w = e.do(t, http.MethodGet, "/api/admin/users", tok, nil)
	requireStatus(t, w, http.StatusForbidden)
}


package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/lingoleap/api/internal/apperror"
	"github.com/lingoleap/api/internal/auth"
	"github.com/lingoleap/api/internal/events"
	"github.com/lingoleap/api/internal/middleware"
	"github.com/lingoleap/api/internal/model"
	"github.com/lingoleap/api/internal/progress"
)

type AuthHandler struct {
	db           *gorm.DB
	tracker      *progress.Tracker
	bus          *events.Bus
	jwtSecret    string
	googleConfig *oauth2.Config
	userInfoURL  string
	frontendURL  string
	log          *zap.Logger
}

const (
	stateCookie       = "lingoleap_oauth_state"
	stateCookieMaxAge = 10 * 60
)

// NewAuthHandler builds the auth endpoints. googleConfig may be nil, in
// which case Google sign-in answers 404.
func NewAuthHandler(db *gorm.DB, tracker *progress.Tracker, bus *events.Bus, jwtSecret string, googleConfig *oauth2.Config, frontendURL string, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		db:           db,
		tracker:      tracker,
		bus:          bus,
		jwtSecret:    jwtSecret,
		googleConfig: googleConfig,
		userInfoURL:  auth.GoogleUserInfoURL,
		frontendURL:  frontendURL,
		log:          log,
	}
}

type TokenResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int         `json:"expiresIn"`
	User         *model.User `json:"user"`
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Username string `json:"username" binding:"required,min=3,max=30,alphanum"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Register creates a local account and signs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Validation(err))
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var taken int64
	if err := h.db.Model(&model.User{}).Where("email = ?", req.Email).Count(&taken).Error; err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}
	if taken > 0 {
		_ = c.Error(apperror.Conflict("email already registered"))
		return
	}
	if err := h.db.Model(&model.User{}).Where("username = ?", req.Username).Count(&taken).Error; err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}
	if taken > 0 {
		_ = c.Error(apperror.Conflict("username already taken"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}

	user := model.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		Provider:     model.ProviderLocal,
	}
	// The checks above race with concurrent sign-ups; the unique indexes decide.
	if err := h.db.Create(&user).Error; err != nil {
		_ = c.Error(storeError(err, "email or username already taken"))
		return
	}

	resp, err := h.issueTokens(&user)
	if err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}

	h.bus.Publish(events.UserRegistered, events.UserRegisteredEvent{UserID: user.ID, Email: user.Email, Username: user.Username})
	h.log.Info("user registered", zap.Int64("user_id", user.ID))

	c.JSON(http.StatusCreated, resp)
}

// Login exchanges email and password for tokens and records the visit.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Validation(err))
		return
	}

	var user model.User
	err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		_ = c.Error(apperror.Internal(err))
		return
	}
	if err != nil || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		_ = c.Error(apperror.Unauthorized("invalid email or password"))
		return
	}

	visited, err := h.tracker.RecordVisit(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}

	resp, err := h.issueTokens(visited)
	if err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GoogleAuth starts the OAuth flow. The state value round-trips through a
// short-lived cookie.
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	if h.googleConfig == nil {
		_ = c.Error(apperror.NotFound("google sign-in is not enabled"))
		return
	}

	state := generateState()
	c.SetCookie(stateCookie, state, stateCookieMaxAge, "/", "", false, true)

	c.Redirect(http.StatusTemporaryRedirect, h.googleConfig.AuthCodeURL(state, oauth2.AccessTypeOffline))
}

// GoogleCallback finishes sign-in and hands the tokens to the frontend.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.googleConfig == nil {
		_ = c.Error(apperror.NotFound("google sign-in is not enabled"))
		return
	}

	state := c.Query("state")
	savedState, err := c.Cookie(stateCookie)
	if err != nil || state == "" || state != savedState {
		h.redirectError(c, "invalid_state")
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		h.redirectError(c, "no_code")
		return
	}

	ctx := c.Request.Context()
	token, err := h.googleConfig.Exchange(ctx, code)
	if err != nil {
		h.log.Warn("google code exchange failed", zap.Error(err))
		h.redirectError(c, "exchange_failed")
		return
	}

	info, err := auth.GetGoogleUserInfo(ctx, h.googleConfig, token, h.userInfoURL)
	if err != nil {
		h.log.Warn("google user info failed", zap.Error(err))
		h.redirectError(c, "user_info_failed")
		return
	}
	// Accounts are matched by email, so an unverified address could claim
	// someone else's account.
	if info.Email == "" || !info.VerifiedEmail {
		h.log.Warn("google email not verified", zap.String("google_id", info.ID))
		h.redirectError(c, "email_not_verified")
		return
	}

	user, err := h.findOrCreateGoogleUser(info)
	if err != nil {
		h.log.Error("google user upsert failed", zap.Error(err))
		h.redirectError(c, "db_error")
		return
	}

	if _, err := h.tracker.RecordVisit(ctx, user.ID); err != nil {
		h.log.Warn("record visit failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		h.log.Error("issue tokens failed", zap.Error(err))
		h.redirectError(c, "token_failed")
		return
	}

	q := url.Values{}
	q.Set("accessToken", resp.AccessToken)
	q.Set("refreshToken", resp.RefreshToken)
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?"+q.Encode())
}

func (h *AuthHandler) findOrCreateGoogleUser(info *auth.GoogleUserInfo) (*model.User, error) {
	var user model.User
	err := h.db.Where("provider = ? AND provider_id = ?", model.ProviderGoogle, info.ID).First(&user).Error
	if err == nil {
		err = h.db.Model(&user).Updates(map[string]interface{}{"avatar_url": info.Picture}).Error
		return &user, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// An existing local account with the same email is linked.
	err = h.db.Where("email = ?", strings.ToLower(info.Email)).First(&user).Error
	if err == nil {
		err = h.db.Model(&user).Updates(map[string]interface{}{
			"provider_id": info.ID,
			"avatar_url":  info.Picture,
		}).Error
		return &user, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	username, err := h.uniqueUsername(info)
	if err != nil {
		return nil, err
	}
	user = model.User{
		Email:      strings.ToLower(info.Email),
		Username:   username,
		Provider:   model.ProviderGoogle,
		ProviderID: info.ID,
		AvatarURL:  info.Picture,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return nil, err
	}
	h.bus.Publish(events.UserRegistered, events.UserRegisteredEvent{UserID: user.ID, Email: user.Email, Username: user.Username})
	return &user, nil
}

// uniqueUsername derives a free username from the Google profile.
func (h *AuthHandler) uniqueUsername(info *auth.GoogleUserInfo) (string, error) {
	base := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, strings.ToLower(strings.SplitN(info.Email, "@", 2)[0]))
	if len(base) < 3 {
		base = "learner"
	}
	if len(base) > 24 {
		base = base[:24]
	}

	candidate := base
	for i := 1; i < 100; i++ {
		var n int64
		if err := h.db.Model(&model.User{}).Where("username = ?", candidate).Count(&n).Error; err != nil {
			return "", fmt.Errorf("check username %q: %w", candidate, err)
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return base + generateState()[:6], nil
}

// RefreshToken issues a new access token for a live refresh token.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Validation(err))
		return
	}

	var refreshToken model.RefreshToken
	err := h.db.Where("token = ? AND revoked = ? AND expires_at > ?", req.RefreshToken, false, time.Now().UTC()).
		First(&refreshToken).Error
	if err != nil {
		_ = c.Error(apperror.Unauthorized("invalid or expired refresh token"))
		return
	}

	var user model.User
	if err := h.db.First(&user, refreshToken.UserID).Error; err != nil {
		_ = c.Error(apperror.Unauthorized("user not found"))
		return
	}

	accessToken, err := auth.GenerateAccessToken(&user, h.jwtSecret)
	if err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
		"expiresIn":   int(auth.AccessTokenExpiry.Seconds()),
	})
}

// Logout revokes the refresh token. Unknown tokens are not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Validation(err))
		return
	}

	if err := h.db.Model(&model.RefreshToken{}).Where("token = ?", req.RefreshToken).Update("revoked", true).Error; err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	var user model.User
	if err := h.db.First(&user, middleware.UserID(c)).Error; err != nil {
		_ = c.Error(apperror.NotFound("user not found"))
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) issueTokens(user *model.User) (*TokenResponse, error) {
	accessToken, err := auth.GenerateAccessToken(user, h.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	stored := model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().UTC().Add(auth.RefreshTokenExpiry),
	}
	if err := h.db.Create(&stored).Error; err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(auth.AccessTokenExpiry.Seconds()),
		User:         user,
	}, nil
}

func (h *AuthHandler) redirectError(c *gin.Context, code string) {
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?error="+code)
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lingoleap/api/internal/apperror"
	"github.com/lingoleap/api/internal/middleware"
	"github.com/lingoleap/api/internal/model"
	"github.com/lingoleap/api/internal/progress"
)

type ProfileHandler struct {
	db      *gorm.DB
	tracker *progress.Tracker
}

func NewProfileHandler(db *gorm.DB, tracker *progress.Tracker) *ProfileHandler {
	return &ProfileHandler{db: db, tracker: tracker}
}

// progressError maps tracker errors onto HTTP errors.
func progressError(err error) error {
	switch {
	case errors.Is(err, progress.ErrUserNotFound):
		return apperror.NotFound("user not found")
	case errors.Is(err, progress.ErrChatTooShort):
		return apperror.BadRequest("send at least 3 messages to finish a chat")
	case errors.Is(err, progress.ErrInvalidOutcome):
		return apperror.BadRequest("invalid lesson result")
	default:
		return apperror.Internal(err)
	}
}

// storeError maps a unique index violation onto 409 and anything else onto 500.
func storeError(err error, conflict string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict(conflict)
	}
	return apperror.Internal(err)
}

// Get records today's visit and returns the aggregated profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	p, err := h.tracker.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(progressError(err))
		return
	}
	c.JSON(http.StatusOK, p)
}

type updateProfileRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=3,max=30,alphanum"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,url,max=500"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Validation(err))
		return
	}

	userID := middleware.UserID(c)
	updates := map[string]interface{}{}

	if req.Username != nil {
		var taken int64
		if err := h.db.Model(&model.User{}).Where("username = ? AND id <> ?", *req.Username, userID).Count(&taken).Error; err != nil {
			_ = c.Error(apperror.Internal(err))
			return
		}
		if taken > 0 {
			_ = c.Error(apperror.Conflict("username already taken"))
			return
		}
		updates["username"] = *req.Username
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if len(updates) == 0 {
		_ = c.Error(apperror.BadRequest("nothing to update"))
		return
	}

	if err := h.db.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		_ = c.Error(storeError(err, "username already taken"))
		return
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		_ = c.Error(apperror.NotFound("user not found"))
		return
	}
	c.JSON(http.StatusOK, user)
}

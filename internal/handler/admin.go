package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lingoleap/api/internal/apperror"
	"github.com/lingoleap/api/internal/cache"
	"github.com/lingoleap/api/internal/dailyword"
	"github.com/lingoleap/api/internal/middleware"
	"github.com/lingoleap/api/internal/model"
)

type AdminHandler struct {
	db    *gorm.DB
	cache *cache.RedisCache
	words *dailyword.Service
	log   *zap.Logger
}

func NewAdminHandler(db *gorm.DB, c *cache.RedisCache, words *dailyword.Service, log *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, cache: c, words: words, log: log}
}

type page struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalCount int64       `json:"totalCount"`
	TotalPages int         `json:"totalPages"`
}

// paginate reads page and limit from the query string and applies them.
func paginate(c *gin.Context, query *gorm.DB, out interface{}) (*page, error) {
	p, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if p < 1 {
		p = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	if err := query.Offset((p - 1) * limit).Limit(limit).Find(out).Error; err != nil {
		return nil, err
	}

	return &page{
		Data:       out,
		Page:       p,
		Limit:      limit,
		TotalCount: total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

func paramID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.BadRequest("invalid id")
	}
	return id, nil
}

type DashboardStats struct {
	Users      int64           `json:"users"`
	Results    int64           `json:"results"`
	Challenges int64           `json:"challenges"`
	TotalExp   int64           `json:"totalExp"`
	ByLanguage []LanguageCount `json:"byLanguage"`
}

type LanguageCount struct {
	Language string `json:"language"`
	Results  int64  `json:"results"`
	Exp      int64  `json:"exp"`
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	db := h.db.WithContext(c.Request.Context())
	var stats DashboardStats

	steps := []func() error{
		func() error { return db.Model(&model.User{}).Count(&stats.Users).Error },
		func() error { return db.Model(&model.Result{}).Count(&stats.Results).Error },
		func() error { return db.Model(&model.Challenge{}).Count(&stats.Challenges).Error },
		func() error {
			return db.Model(&model.Result{}).Select("COALESCE(SUM(exp), 0)").Scan(&stats.TotalExp).Error
		},
		func() error {
			return db.Model(&model.Result{}).
				Select("language, COUNT(*) AS results, SUM(exp) AS exp").
				Group("language").
				Order("exp DESC").
				Scan(&stats.ByLanguage).Error
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			_ = c.Error(apperror.Internal(err))
			return
		}
	}
	if stats.ByLanguage == nil {
		stats.ByLanguage = []LanguageCount{}
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers pages through users, newest first. q filters by email or
// username substring.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&model.User{})
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(username) LIKE ?", like, like)
	}

	var users []model.User
	res, err := paginate(c, query.Order("created_at DESC, id DESC"), &users)
	if err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// DeleteUser removes a user together with everything recorded for them.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user not found")
			}
			return err
		}

		children := []interface{}{
			&model.Challenge{},
			&model.Result{},
			&model.UserAchievement{},
			&model.Language{},
			&model.VisitLog{},
			&model.RefreshToken{},
		}
		for _, child := range children {
			if err := tx.Where("user_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		_ = c.Error(apperror.From(err))
		return
	}

	h.cache.DeletePrefix(c.Request.Context(), cache.LeaderboardPrefix())
	h.log.Info("user deleted", zap.Int64("user_id", id), zap.Int64("admin_id", middleware.UserID(c)))
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) ListAchievements(c *gin.Context) {
	var achievements []model.Achievement
	if err := h.db.WithContext(c.Request.Context()).Order("category, id").Find(&achievements).Error; err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}
	c.JSON(http.StatusOK, achievements)
}

type achievementRequest struct {
	Key         string      `json:"key" binding:"required,max=50"`
	Category    string      `json:"category" binding:"required,oneof=lessons perfect experience streak polyglot chat"`
	Title       string      `json:"title" binding:"required,max=100"`
	Description string      `json:"description" binding:"max=500"`
	Goals       model.Goals `json:"goals" binding:"required,min=1,max=10,dive,gte=1"`
}

func (r achievementRequest) validate() error {
	if !model.AscendingGoals(r.Goals) {
		return &apperror.Error{
			Status:  http.StatusBadRequest,
			Message: "validation failed",
			Fields:  map[string]string{"goals": "must be strictly ascending"},
		}
	}
	return nil
}

func (h *AdminHandler) bindAchievement(c *gin.Context) (*achievementRequest, bool) {
	var req achievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Validation(err))
		return nil, false
	}
	if err := req.validate(); err != nil {
		_ = c.Error(err)
		return nil, false
	}
	return &req, true
}

func (h *AdminHandler) keyTaken(c *gin.Context, key string, exceptID int64) (bool, error) {
	var n int64
	err := h.db.WithContext(c.Request.Context()).Model(&model.Achievement{}).
		Where(&model.Achievement{Key: key}).
		Where("id <> ?", exceptID).
		Count(&n).Error
	return n > 0, err
}

func (h *AdminHandler) CreateAchievement(c *gin.Context) {
	req, ok := h.bindAchievement(c)
	if !ok {
		return
	}

	taken, err := h.keyTaken(c, req.Key, 0)
	if err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}
	if taken {
		_ = c.Error(apperror.Conflict("achievement key already exists"))
		return
	}

	a := model.Achievement{
		Key:         req.Key,
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		Goals:       req.Goals,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&a).Error; err != nil {
		_ = c.Error(storeError(err, "achievement key already exists"))
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *AdminHandler) UpdateAchievement(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	req, ok := h.bindAchievement(c)
	if !ok {
		return
	}

	db := h.db.WithContext(c.Request.Context())
	var a model.Achievement
	if err := db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Error(apperror.NotFound("achievement not found"))
			return
		}
		_ = c.Error(apperror.Internal(err))
		return
	}

	taken, err := h.keyTaken(c, req.Key, id)
	if err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}
	if taken {
		_ = c.Error(apperror.Conflict("achievement key already exists"))
		return
	}

	a.Key, a.Category, a.Title, a.Description, a.Goals = req.Key, req.Category, req.Title, req.Description, req.Goals
	if err := db.Save(&a).Error; err != nil {
		_ = c.Error(storeError(err, "achievement key already exists"))
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *AdminHandler) DeleteAchievement(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("achievement_id = ?", id).Delete(&model.UserAchievement{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Achievement{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("achievement not found")
		}
		return nil
	})
	if err != nil {
		_ = c.Error(apperror.From(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// ListDailyWords pages through generated words, newest day first.
func (h *AdminHandler) ListDailyWords(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&model.DailyWord{})
	if lang := c.Query("language"); lang != "" {
		query = query.Where("language = ?", strings.ToLower(lang))
	}

	var words []model.DailyWord
	res, err := paginate(c, query.Order("day DESC, language ASC"), &words)
	if err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// DeleteDailyWord removes a word so the next request for that day
// generates a new one.
func (h *AdminHandler) DeleteDailyWord(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	db := h.db.WithContext(c.Request.Context())
	var word model.DailyWord
	if err := db.First(&word, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Error(apperror.NotFound("daily word not found"))
			return
		}
		_ = c.Error(apperror.Internal(err))
		return
	}
	if err := db.Delete(&word).Error; err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}

	h.words.Invalidate(c.Request.Context(), word.Day, word.Language)
	c.Status(http.StatusNoContent)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingoleap/api/internal/apperror"
	"github.com/lingoleap/api/internal/language"
	"github.com/lingoleap/api/internal/llm"
	"github.com/lingoleap/api/internal/middleware"
	"github.com/lingoleap/api/internal/progress"
)

// maxChatHistory is how many trailing messages are forwarded to the model.
const maxChatHistory = 20

type ChatHandler struct {
	tutor   *llm.Tutor
	tracker *progress.Tracker
}

func NewChatHandler(tutor *llm.Tutor, tracker *progress.Tracker) *ChatHandler {
	return &ChatHandler{tutor: tutor, tracker: tracker}
}

type chatRequest struct {
	Language string        `json:"language" binding:"required"`
	Level    string        `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Native   string        `json:"native"`
	Messages []llm.Message `json:"messages" binding:"required,min=1,max=100,dive"`
}

// Reply answers the latest learner message and points out mistakes in it.
func (h *ChatHandler) Reply(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Validation(err))
		return
	}
	code, err := resolveLanguage(req.Language)
	if err != nil {
		_ = c.Error(err)
		return
	}
	native := defaultNative
	if req.Native != "" {
		if native, err = resolveLanguage(req.Native); err != nil {
			_ = c.Error(err)
			return
		}
	}
	if req.Level == "" {
		req.Level = defaultLevel
	}

	history := req.Messages
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	if history[len(history)-1].Role != llm.RoleUser {
		_ = c.Error(apperror.BadRequest("last message must come from the user"))
		return
	}

	reply, err := h.tutor.Chat(c.Request.Context(), language.Name(code), req.Level, language.Name(native), history)
	if err != nil {
		_ = c.Error(apperror.Upstream("failed to get a reply", err))
		return
	}
	c.JSON(http.StatusOK, reply)
}

type completeChatRequest struct {
	Language     string `json:"language" binding:"required"`
	UserMessages int    `json:"userMessages" binding:"gte=0,lte=1000"`
}

// Complete awards experience for a finished conversation.
func (h *ChatHandler) Complete(c *gin.Context) {
	var req completeChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Validation(err))
		return
	}
	code, err := resolveLanguage(req.Language)
	if err != nil {
		_ = c.Error(err)
		return
	}

	award, err := h.tracker.AwardChat(c.Request.Context(), progress.ChatOutcome{
		UserID:       middleware.UserID(c),
		Language:     code,
		UserMessages: req.UserMessages,
	})
	if err != nil {
		_ = c.Error(progressError(err))
		return
	}
	c.JSON(http.StatusCreated, award)
}

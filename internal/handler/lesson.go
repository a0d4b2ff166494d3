package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lingoleap/api/internal/apperror"
	"github.com/lingoleap/api/internal/exercise"
	"github.com/lingoleap/api/internal/language"
	"github.com/lingoleap/api/internal/llm"
	"github.com/lingoleap/api/internal/middleware"
	"github.com/lingoleap/api/internal/progress"
)

const (
	defaultExerciseCount = 8
	defaultTopic         = "everyday life"
	defaultLevel         = "beginner"
	defaultNative        = "en"

	// gradeConcurrency bounds the LLM calls one verify request may fan out.
	gradeConcurrency = 4
)

type LessonHandler struct {
	tutor   *llm.Tutor
	tracker *progress.Tracker
	log     *zap.Logger
}

func NewLessonHandler(tutor *llm.Tutor, tracker *progress.Tracker, log *zap.Logger) *LessonHandler {
	return &LessonHandler{tutor: tutor, tracker: tracker, log: log}
}

type generateLessonRequest struct {
	Language string `json:"language" binding:"required"`
	Level    string `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Topic    string `json:"topic" binding:"max=100"`
	Count    int    `json:"count" binding:"omitempty,gte=1,lte=20"`
	Native   string `json:"native"`
}

// resolveLanguage normalizes a code and rejects unsupported ones.
func resolveLanguage(code string) (string, error) {
	code = language.Normalize(code)
	if !language.Supported(code) {
		return "", apperror.BadRequest("unsupported language: " + code)
	}
	return code, nil
}

// Generate asks the model for a fresh lesson and returns it sanitized.
func (h *LessonHandler) Generate(c *gin.Context) {
	var req generateLessonRequest
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
	if req.Topic == "" {
		req.Topic = defaultTopic
	}
	if req.Count == 0 {
		req.Count = defaultExerciseCount
	}

	lesson, err := h.tutor.Lesson(c.Request.Context(), llm.LessonRequest{
		Language: language.Name(code),
		Level:    req.Level,
		Topic:    req.Topic,
		Count:    req.Count,
		Native:   language.Name(native),
	})
	if err != nil {
		_ = c.Error(apperror.Upstream("failed to generate lesson", err))
		return
	}
	lesson.Language = code

	c.JSON(http.StatusOK, lesson)
}

type verifyRequest struct {
	Language string             `json:"language" binding:"required"`
	Attempts []exercise.Attempt `json:"attempts" binding:"required,min=1,max=50,dive"`
}

type verifyResponse struct {
	Results []verifyResult `json:"results"`
	Correct int            `json:"correct"`
	Total   int            `json:"total"`
}

type verifyResult struct {
	exercise.Verdict
	Feedback string `json:"feedback,omitempty"`
	Reviewed bool   `json:"reviewed"`
}

// Verify grades every attempt locally and escalates borderline
// translations to the model.
func (h *LessonHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Validation(err))
		return
	}
	code, err := resolveLanguage(req.Language)
	if err != nil {
		_ = c.Error(err)
		return
	}

	results := make([]verifyResult, len(req.Attempts))
	for i, a := range req.Attempts {
		results[i] = verifyResult{Verdict: exercise.Check(a)}
	}

	h.review(c.Request.Context(), language.Name(code), req.Attempts, results)

	resp := verifyResponse{Results: results, Total: len(results)}
	for _, r := range results {
		if r.Correct {
			resp.Correct++
		}
	}
	c.JSON(http.StatusOK, resp)
}

// review resolves Close verdicts through the model. Each goroutine writes
// only its own slot; a failed review leaves the local verdict in place.
func (h *LessonHandler) review(ctx context.Context, lang string, attempts []exercise.Attempt, results []verifyResult) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(gradeConcurrency)

	for i := range results {
		if !results[i].NeedsReview() {
			continue
		}
		g.Go(func() error {
			a := attempts[i]
			j, err := h.tutor.JudgeTranslation(ctx, lang, a.Prompt, results[i].Answer, a.Input)
			if err != nil {
				h.log.Warn("translation review failed", zap.Error(err))
				return nil
			}
			results[i].Reviewed = true
			results[i].Correct = j.Correct
			results[i].Feedback = j.Feedback
			if j.Correct {
				results[i].Grade = exercise.GradeCorrect
			} else {
				results[i].Grade = exercise.GradeWrong
			}
			return nil
		})
	}
	_ = g.Wait()
}

type completeLessonRequest struct {
	Language  string `json:"language" binding:"required"`
	Topic     string `json:"topic" binding:"max=100"`
	Questions int    `json:"questions" binding:"required,gte=1,lte=50"`
	Correct   int    `json:"correct" binding:"gte=0"`
	Mistakes  int    `json:"mistakes" binding:"gte=0"`
}

// Complete stores a finished lesson and awards its experience.
func (h *LessonHandler) Complete(c *gin.Context) {
	var req completeLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Validation(err))
		return
	}
	code, err := resolveLanguage(req.Language)
	if err != nil {
		_ = c.Error(err)
		return
	}

	award, err := h.tracker.AwardLesson(c.Request.Context(), progress.LessonOutcome{
		UserID:    middleware.UserID(c),
		Language:  code,
		Topic:     req.Topic,
		Questions: req.Questions,
		Correct:   req.Correct,
		Mistakes:  req.Mistakes,
	})
	if err != nil {
		_ = c.Error(progressError(err))
		return
	}
	c.JSON(http.StatusCreated, award)
}

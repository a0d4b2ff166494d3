package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `validate:"required,email"`
	Username string `validate:"required,min=3"`
	Level    int    `validate:"gte=1,lte=5"`
}

func TestFrom_ValidationErrors(t *testing.T) {
	err := validator.New().Struct(signup{Email: "nope", Username: "ab", Level: 9})
	require.Error(t, err)

	appErr := From(err)

	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "validation failed", appErr.Message)
	assert.Equal(t, "must be a valid email address", appErr.Fields["email"])
	assert.Equal(t, "must be at least 3 characters", appErr.Fields["username"])
	assert.Equal(t, "must be less than or equal to 5", appErr.Fields["level"])
}

type catalog struct {
	Goals []int    `validate:"min=1"`
	Tags  []string `validate:"max=2"`
	Count int      `validate:"min=3"`
}

func TestFrom_LengthUnitsFollowKind(t *testing.T) {
	err := validator.New().Struct(catalog{Tags: []string{"a", "b", "c"}, Count: 1})
	require.Error(t, err)

	appErr := From(err)
	assert.Equal(t, "must be at least 1 item", appErr.Fields["goals"])
	assert.Equal(t, "must be at most 2 items", appErr.Fields["tags"])
	assert.Equal(t, "must be at least 3", appErr.Fields["count"])
}

func TestFrom_PassesThroughWrapped(t *testing.T) {
	original := NotFound("user not found")
	wrapped := fmt.Errorf("lookup: %w", original)

	assert.Same(t, original, From(wrapped))
}

func TestFrom_UnknownIsInternal(t *testing.T) {
	cause := errors.New("disk on fire")
	appErr := From(cause)

	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "internal server error", appErr.Message)
	assert.ErrorIs(t, appErr, cause)
}

func TestValidation_MalformedBody(t *testing.T) {
	appErr := Validation(errors.New("unexpected EOF"))
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "invalid request body", appErr.Message)
	assert.Empty(t, appErr.Fields)
}

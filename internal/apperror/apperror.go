// Package apperror carries HTTP-aware errors from handlers to the
// centralized error middleware.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Error struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"errors,omitempty"`
	Err     error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Wrap attaches an underlying cause that is logged but never rendered.
func Wrap(status int, message string, err error) *Error {
	return &Error{Status: status, Message: message, Err: err}
}

func BadRequest(message string) *Error   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error    { return New(http.StatusForbidden, message) }
func NotFound(message string) *Error     { return New(http.StatusNotFound, message) }
func Conflict(message string) *Error     { return New(http.StatusConflict, message) }

func Internal(err error) *Error {
	return Wrap(http.StatusInternalServerError, "internal server error", err)
}

func Upstream(message string, err error) *Error {
	return Wrap(http.StatusBadGateway, message, err)
}

// From converts any error into an *Error. Binding and validation failures
// become 400s with per-field messages; anything unrecognised is a 500.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldName(fe)] = fieldMessage(fe)
		}
		return &Error{Status: http.StatusBadRequest, Message: "validation failed", Fields: fields, Err: err}
	}

	return Internal(err)
}

// Validation wraps a binding error; malformed JSON is reported as such.
func Validation(err error) *Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return From(err)
	}
	return Wrap(http.StatusBadRequest, "invalid request body", err)
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return fe.StructField()
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// unit names what a length bound counts for the field's kind.
func unit(fe validator.FieldError) string {
	var noun string
	switch fe.Kind() {
	case reflect.String:
		noun = " character"
	case reflect.Slice, reflect.Array, reflect.Map:
		noun = " item"
	default:
		return ""
	}
	if fe.Param() != "1" {
		noun += "s"
	}
	return noun
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + unit(fe)
	case "max":
		return "must be at most " + fe.Param() + unit(fe)
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "alphanum":
		return "must contain only letters and digits"
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

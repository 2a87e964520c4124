package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorCode classifies failures surfaced by the booking core.
type ErrorCode string

const (
	CodeNotFound            ErrorCode = "not_found"
	CodeForbidden           ErrorCode = "forbidden"
	CodeInvalidTransition   ErrorCode = "invalid_transition"
	CodeDuplicateRating     ErrorCode = "duplicate_rating"
	CodeBookingNotCompleted ErrorCode = "booking_not_completed"
	CodeValidation          ErrorCode = "validation"
	CodePersistence         ErrorCode = "persistence_failure"
	CodeDelivery            ErrorCode = "delivery_failure"
)

// AppError carries a code, a caller-facing message and an optional cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same code, so the sentinels below work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

var (
	ErrNotFound            = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrForbidden           = &AppError{Code: CodeForbidden, Message: "forbidden"}
	ErrInvalidTransition   = &AppError{Code: CodeInvalidTransition, Message: "invalid transition"}
	ErrDuplicateRating     = &AppError{Code: CodeDuplicateRating, Message: "booking already rated"}
	ErrBookingNotCompleted = &AppError{Code: CodeBookingNotCompleted, Message: "booking not completed"}
	ErrValidation          = &AppError{Code: CodeValidation, Message: "invalid input"}
	ErrPersistence         = &AppError{Code: CodePersistence, Message: "storage failure"}
	ErrDelivery            = &AppError{Code: CodeDelivery, Message: "delivery failure"}
)

func NewError(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func WrapError(err error, code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of the first AppError in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HTTPStatus maps an error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeInvalidTransition, CodeDuplicateRating:
		return http.StatusConflict
	case CodeBookingNotCompleted:
		return http.StatusUnprocessableEntity
	case CodeValidation:
		return http.StatusBadRequest
	case CodeDelivery:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code,omitempty"`
	Details string    `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic", zap.Any("error", err))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// RespondError writes err using its code. Internal causes are logged, never echoed.
func RespondError(c *gin.Context, err error) {
	status := HTTPStatus(err)
	resp := ErrorResponse{Message: "Internal Server Error", Code: CodeOf(err)}

	var appErr *AppError
	if errors.As(err, &appErr) && status < http.StatusInternalServerError {
		resp.Message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		GetLogger().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, resp)
}

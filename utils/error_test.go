package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("handler: %w", NewError(CodeForbidden, "booking %s is not yours", "b1"))

	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, CodeForbidden, CodeOf(err))
}

func TestAppError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError(cause, CodePersistence, "update booking")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		ErrNotFound:            http.StatusNotFound,
		ErrForbidden:           http.StatusForbidden,
		ErrInvalidTransition:   http.StatusConflict,
		ErrDuplicateRating:     http.StatusConflict,
		ErrBookingNotCompleted: http.StatusUnprocessableEntity,
		ErrValidation:          http.StatusBadRequest,
		ErrPersistence:         http.StatusInternalServerError,
		errors.New("plain"):    http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}

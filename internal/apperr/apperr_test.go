package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mjhajdugaNext/messenger/internal/apperr"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperr.AppError
		code   string
		status int
	}{
		{"validation", apperr.ValidationError("bad"), apperr.CodeValidation, http.StatusUnprocessableEntity},
		{"not found", apperr.NotFound("Message"), apperr.CodeNotFound, http.StatusNotFound},
		{"unauthorized", apperr.Unauthorized("no"), apperr.CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("no"), apperr.CodeForbidden, http.StatusForbidden},
		{"conflict", apperr.Conflict("dup"), apperr.CodeConflict, http.StatusConflict},
		{"rate limited", apperr.RateLimited("slow"), apperr.CodeRateLimited, http.StatusTooManyRequests},
		{"internal", apperr.Internal(errors.New("boom")), apperr.CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
	assert.Equal(t, "Message not found", apperr.NotFound("Message").Message)
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperr.Internalf(cause, "find user %s", "u1")

	assert.Equal(t, "An unexpected error occurred", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "find user u1")
}

func TestAsAndFrom(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", apperr.NotFound("User"))
	assert.Equal(t, apperr.CodeNotFound, apperr.As(wrapped).Code)
	assert.Nil(t, apperr.As(errors.New("plain")))
	assert.Equal(t, apperr.CodeInternal, apperr.From(errors.New("plain")).Code)
}

func TestIs_MatchesSentinel(t *testing.T) {
	sentinel := apperr.Conflict("User already exist")
	err := fmt.Errorf("register: %w", apperr.Conflict("User already exist"))

	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, apperr.Conflict("other"))
}

package sightings

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
)

func TestErrorToResponseMapsCategories(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		code    string
	}{
		{
			name:    "auth maps to 401",
			err:     ErrTokenExpired,
			status:  router.StatusUnauthorized,
			message: "authentication token is expired",
			code:    TextCodeTokenExpired,
		},
		{
			name:    "authz maps to 403",
			err:     ErrRefreshTokenExpired,
			status:  router.StatusForbidden,
			message: "refresh token is expired",
			code:    TextCodeRefreshTokenExpired,
		},
		{
			name:   "validation maps to 400",
			err:    ErrInvalidTransition,
			status: router.StatusBadRequest,
			code:   "INVALID_POST_STATE_TRANSITION",
		},
		{
			name:   "conflict maps to 409",
			err:    ErrStatusConflict,
			status: router.StatusConflict,
			code:   "POST_STATUS_CONFLICT",
		},
		{
			name:    "plain errors map to a generic 500",
			err:     errors.New("pq: connection refused"),
			status:  router.StatusInternalServerError,
			message: "an unexpected error occurred",
		},
		{
			name:    "internal rich errors never leak their message",
			err:     goerrors.New("dial tcp 10.0.0.5: timeout", goerrors.CategoryInternal),
			status:  router.StatusInternalServerError,
			message: "an unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorToResponse(tt.err)
			assert.Equal(t, tt.status, status)
			if tt.message != "" {
				assert.Equal(t, tt.message, body.Message)
			}
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestErrorToResponseNotFoundCategory(t *testing.T) {
	err := goerrors.New("post not found", goerrors.CategoryNotFound)

	status, body := errorToResponse(err)
	assert.Equal(t, router.StatusNotFound, status)
	assert.Equal(t, "post not found", body.Message)
}

func TestErrorToResponseUsesExplicitCode(t *testing.T) {
	err := goerrors.New("upstream rejected the payload", goerrors.CategoryOperation).
		WithCode(router.StatusBadGateway)

	status, _ := errorToResponse(err)
	assert.Equal(t, router.StatusBadGateway, status)
}

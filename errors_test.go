package sightings_test

import (
	"errors"
	"testing"

	sightings "github.com/goliatone/go-sightings"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      sightings.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      sightings.ErrTokenMalformed,
			expected: false,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sightings.IsTokenExpiredError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Legacy malformed error (string match)",
			err:      errors.New("token is malformed"),
			expected: true,
		},
		{
			name:     "Legacy missing JWT error (string match)",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("token is expired"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sightings.IsMalformedError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

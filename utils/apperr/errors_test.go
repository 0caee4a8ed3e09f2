package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("accept: %w", New(KindWindowExpired, "expired at 10:00"))

	assert.True(t, errors.Is(err, ErrWindowExpired))
	assert.False(t, errors.Is(err, ErrAlreadyResolved))
	assert.Equal(t, KindWindowExpired, KindOf(err))
}

func TestUnavailableKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("activate appointment", cause)

	assert.True(t, errors.Is(err, ErrCollaboratorUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, IsBusinessRule(err))
	assert.Equal(t, ErrCollaboratorUnavailable.Message, UserMessage(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrAlreadyResolved, http.StatusConflict},
		{ErrWindowExpired, http.StatusConflict},
		{ErrRebookingLimitReached, http.StatusConflict},
		{ErrInvalidSuggestedDates, http.StatusBadRequest},
		{ErrNotParticipant, http.StatusForbidden},
		{Unavailable("x", errors.New("y")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknownAsInternal(t *testing.T) {
	err := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.False(t, err.Retryable)
}

func TestWrappedClonesMatchBaseCode(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", Clone(ErrNotFound, "point history entry not found"))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrValidation))
}

func TestWrapAsKeepsRetryable(t *testing.T) {
	cause := fmt.Errorf("deadlock detected")
	err := WrapAs(ErrTransactionFailed, cause, "")
	assert.True(t, err.Retryable)
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.Equal(t, ErrTransactionFailed.Message, err.Message)
	assert.ErrorIs(t, err, cause)
}

package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewPermanentError("lookup failed", errors.New("status 404"))
	assert.Equal(t, "PERMANENT: lookup failed: status 404", err.Error())

	err = NewNotFoundError("app 42 not found")
	assert.Equal(t, "NOT_FOUND: app 42 not found", err.Error())
}

func TestTypeHelpers_WrappedChain(t *testing.T) {
	base := NewTransientError("throttled", nil, 2*time.Second)
	wrapped := fmt.Errorf("fetch details: %w", base)

	assert.True(t, IsTransient(wrapped))
	assert.False(t, IsPermanent(wrapped))
	assert.Equal(t, ErrorTypeTransient, TypeOf(wrapped))
	assert.Equal(t, 2*time.Second, base.RetryDelay())

	assert.True(t, IsNotFound(NewNotFoundError("x")))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}

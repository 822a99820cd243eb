package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{0, ErrorTypeNetwork},
		{400, ErrorTypeInvalid},
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{302, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, TypeFromStatus(tt.status))
		})
	}
}

func TestTypeFromGraphCode(t *testing.T) {
	assert.Equal(t, ErrorTypeRateLimit, TypeFromGraphCode(400, GraphCodeUserThrottle))
	assert.Equal(t, ErrorTypeRateLimit, TypeFromGraphCode(403, GraphCodeAppThrottle))
	assert.Equal(t, ErrorTypeServerError, TypeFromGraphCode(400, GraphCodeService))
	assert.Equal(t, ErrorTypeAuth, TypeFromGraphCode(400, GraphCodeInvalidToken))
	assert.Equal(t, ErrorTypeInvalid, TypeFromGraphCode(400, GraphCodeInvalidParam))
	assert.Equal(t, ErrorTypeNotFound, TypeFromGraphCode(404, GraphCodeInvalidParam))
	assert.Equal(t, ErrorTypeServerError, TypeFromGraphCode(502, 0))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeAuth))
	assert.False(t, IsRetryable(ErrorTypeInvalid))
	assert.False(t, IsRetryable(ErrorTypeUnknown))

	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(504))
	assert.False(t, IsRetryableStatusCode(401))
}

func TestErrorWrapping(t *testing.T) {
	err := Wrap(ErrorTypeNetwork, io.ErrUnexpectedEOF, "read response")
	wrapped := fmt.Errorf("fetch page: %w", err)

	assert.ErrorIs(t, wrapped, io.ErrUnexpectedEOF)
	assert.Equal(t, ErrorTypeNetwork, TypeOf(wrapped))
	assert.True(t, IsRetryableError(wrapped))

	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
	assert.False(t, IsRetryableError(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Type: ErrorTypeRateLimit, Code: 400, GraphCode: 17, Message: "User request limit reached"}
	assert.Equal(t, "rate_limit error (code 400, graph code 17): User request limit reached", err.Error())

	assert.Equal(t, "auth error (code 401): bad token", New(ErrorTypeAuth, 401, "bad token").Error())
}

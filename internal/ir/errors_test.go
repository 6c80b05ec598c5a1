package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := NewError(ErrCodeStorageIO, "put", "cache_portfolio", errors.New("disk full"))
	assert.Equal(t, "STORAGE_IO: put (key=cache_portfolio): disk full", err.Error())

	bare := NewError(ErrCodeNetworkUnavailable, "probe", "", nil)
	assert.Equal(t, "NETWORK_UNAVAILABLE: probe", bare.Error())
}

func TestError_Classification_Wrapped(t *testing.T) {
	base := NewError(ErrCodeParse, "decode", "cache_x", errors.New("bad"))
	wrapped := fmt.Errorf("get: %w", base)

	assert.True(t, IsParseError(wrapped))
	assert.False(t, IsStorageError(wrapped))
	assert.Equal(t, ErrCodeParse, CodeOf(wrapped))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := NewError(ErrCodeRemoteCall, "place order", "a1", cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRemoteError(err))
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			"op only",
			NewError("listShares", base),
			"storage.listShares: boom",
		},
		{
			"share context",
			NewShareError("createShare", "myshare", base),
			"storage.createShare share myshare: boom",
		},
		{
			"share and path",
			NewResourceError("uploadFile", "myshare", "dir/file.txt", base),
			"storage.uploadFile myshare/dir/file.txt: boom",
		},
		{
			"path only",
			NewError("validate", base).WithPath("dir/file.txt"),
			"storage.validate resource dir/file.txt: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorUnwrapChain(t *testing.T) {
	err := NewResourceError("getRange", "share", "file", ErrInvalidRange)
	assert.ErrorIs(t, err, ErrInvalidRange)

	withMsg := NewError("download", ErrMD5Mismatch).WithMessage("range at offset 4")
	assert.ErrorIs(t, withMsg, ErrMD5Mismatch)
	assert.Contains(t, withMsg.Error(), "range at offset 4")
}

func TestServiceErrorFormatting(t *testing.T) {
	svcErr := &ServiceError{
		Code:       "ShareNotFound",
		Message:    "The specified share does not exist.",
		StatusCode: 404,
		RequestID:  "req-123",
	}
	msg := svcErr.Error()
	assert.Contains(t, msg, "ShareNotFound")
	assert.Contains(t, msg, "404")
	assert.Contains(t, msg, "req-123")
}

func TestSentinelHelpers(t *testing.T) {
	wrapped := NewShareError("shareExists", "s", fmt.Errorf("call failed: %w", ErrShareNotFound))
	assert.True(t, IsShareNotFound(wrapped))
	assert.False(t, IsResourceNotFound(wrapped))

	assert.True(t, IsResourceNotFound(NewError("x", ErrResourceNotFound)))
	assert.True(t, IsAccessDenied(NewError("x", ErrAccessDenied)))
	assert.True(t, IsInvalidInput(NewError("x", ErrInvalidInput)))
}

func TestNotRetryableMarking(t *testing.T) {
	plain := NewError("download", ErrConnection)
	assert.False(t, IsNotRetryable(plain), "transport errors stay retryable")

	marked := MarkNotRetryable(NewError("download", ErrMD5Mismatch))
	require.Error(t, marked)
	assert.True(t, IsNotRetryable(marked))
	assert.ErrorIs(t, marked, ErrMD5Mismatch, "marking preserves the error chain")

	// Wrapping a marked error keeps the mark visible.
	rewrapped := NewResourceError("downloadFile", "s", "f", marked)
	assert.True(t, IsNotRetryable(rewrapped))

	assert.NoError(t, MarkNotRetryable(nil))
}

func TestIsIntegrity(t *testing.T) {
	assert.True(t, IsIntegrity(NewError("x", ErrMD5Mismatch)))
	assert.True(t, IsIntegrity(MarkNotRetryable(NewError("x", ErrLengthMismatch))))
	assert.False(t, IsIntegrity(NewError("x", ErrConnection)))
}

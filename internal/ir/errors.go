package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes failures inside the sync subsystem.
type ErrorCode string

const (
	// ErrCodeStorageIO indicates a durable storage read or write failed.
	ErrCodeStorageIO ErrorCode = "STORAGE_IO"

	// ErrCodeNetworkUnavailable indicates the reachability probe failed.
	ErrCodeNetworkUnavailable ErrorCode = "NETWORK_UNAVAILABLE"

	// ErrCodeRemoteCall indicates a backend call failed or was rejected.
	ErrCodeRemoteCall ErrorCode = "REMOTE_CALL"

	// ErrCodeMaxRetries indicates an action exhausted its retries.
	ErrCodeMaxRetries ErrorCode = "MAX_RETRIES_EXCEEDED"

	// ErrCodeParse indicates a stored value could not be decoded.
	ErrCodeParse ErrorCode = "PARSE"

	// ErrCodeNotFound indicates a queued action does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Error is a categorized failure with the operation and key it concerns.
type Error struct {
	Code ErrorCode
	Op   string
	Key  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Op)
	if e.Key != "" {
		msg += fmt.Sprintf(" (key=%s)", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error.
func NewError(code ErrorCode, op, key string, err error) *Error {
	return &Error{Code: code, Op: op, Key: key, Err: err}
}

// CodeOf returns the ErrorCode of err, or "" when err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsStorageError returns true if err is a storage I/O failure.
func IsStorageError(err error) bool {
	return CodeOf(err) == ErrCodeStorageIO
}

// IsParseError returns true if err is a decode failure.
func IsParseError(err error) bool {
	return CodeOf(err) == ErrCodeParse
}

// IsNotFound returns true if err reports a missing action.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsRemoteError returns true if err is a backend call failure.
func IsRemoteError(err error) bool {
	return CodeOf(err) == ErrCodeRemoteCall
}

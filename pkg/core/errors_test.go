package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoRetryError(t *testing.T) {
	originalErr := errors.New("permanent failure")
	wrapped := NoRetry(originalErr)

	var noRetryErr *NoRetryError
	assert.True(t, errors.As(wrapped, &noRetryErr))
	assert.Equal(t, originalErr, noRetryErr.Unwrap())
	assert.Contains(t, noRetryErr.Error(), "no retry")
	assert.Contains(t, noRetryErr.Error(), "permanent failure")
}

func TestNoRetry_PreservesSentinel(t *testing.T) {
	err := NoRetry(fmt.Errorf("%w: missing.pdf", ErrFileNotFound))

	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(ErrCancelled))
	assert.True(t, IsCancelled(fmt.Errorf("split a.pdf page 2: %w", ErrCancelled)))
	assert.False(t, IsCancelled(errors.New("disk full")))
	assert.False(t, IsCancelled(nil))
}

func TestValidationError_SingleFailure(t *testing.T) {
	err := &ValidationError{Failures: []FileFailure{{Path: "b.pdf", Reason: "not a valid PDF file"}}}

	assert.Equal(t, "validation failed: b.pdf: not a valid PDF file", err.Error())
	assert.Equal(t, []string{"b.pdf"}, err.Paths())
}

func TestValidationError_ListsEveryFailure(t *testing.T) {
	err := &ValidationError{Failures: []FileFailure{
		{Path: "a.pdf", Reason: "PDF is encrypted"},
		{Path: "c.pdf", Reason: "file not found"},
	}}

	msg := err.Error()
	assert.Contains(t, msg, "2 files")
	assert.Contains(t, msg, "a.pdf: PDF is encrypted")
	assert.Contains(t, msg, "c.pdf: file not found")
	assert.Equal(t, []string{"a.pdf", "c.pdf"}, err.Paths())
}

func TestErrorVariables(t *testing.T) {
	assert.Contains(t, ErrUnknownKind.Error(), "unknown operation kind")
	assert.Contains(t, ErrFileNotFound.Error(), "not found")
	assert.Contains(t, ErrCancelled.Error(), "cancelled")
}

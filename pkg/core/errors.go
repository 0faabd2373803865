package core

import (
	"errors"
	"fmt"
	"strings"
)

// Submission and processing errors
var (
	ErrUnknownKind     = errors.New("pdfbatch: unknown operation kind")
	ErrNoHandler       = errors.New("pdfbatch: no handler registered for kind")
	ErrNoInputs        = errors.New("pdfbatch: job has no input files")
	ErrNoOutputDir     = errors.New("pdfbatch: job has no output directory")
	ErrFileNotFound    = errors.New("pdfbatch: file not found")
	ErrInvalidSettings = errors.New("pdfbatch: invalid job settings")
	ErrCancelled       = errors.New("pdfbatch: cancelled")
	ErrJobNotFound     = errors.New("pdfbatch: job not found")
	ErrRunNotFound     = errors.New("pdfbatch: run not found")
)

// NoRetryError indicates an error that should not be retried.
type NoRetryError struct {
	Err error
}

func (e *NoRetryError) Error() string {
	return fmt.Sprintf("no retry: %v", e.Err)
}

func (e *NoRetryError) Unwrap() error {
	return e.Err
}

// NoRetry wraps an error to indicate it should not be retried.
func NoRetry(err error) error {
	return &NoRetryError{Err: err}
}

// IsCancelled reports whether err was caused by a cancellation request.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// FileFailure describes why one input file was refused.
type FileFailure struct {
	Path   string
	Reason string
}

// ValidationError is returned when a submission is rejected before admission.
// It lists every offending file, not only the first.
type ValidationError struct {
	Failures []FileFailure
}

func (e *ValidationError) Error() string {
	if len(e.Failures) == 1 {
		f := e.Failures[0]
		return fmt.Sprintf("validation failed: %s: %s", f.Path, f.Reason)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "validation failed for %d files:", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  %s: %s", f.Path, f.Reason)
	}
	return b.String()
}

// Paths returns the offending file paths in submission order.
func (e *ValidationError) Paths() []string {
	paths := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		paths[i] = f.Path
	}
	return paths
}

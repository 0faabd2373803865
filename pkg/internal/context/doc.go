// Package context provides internal context helpers for job execution.
//
// This package is internal and should not be imported directly.
// It provides the context value carrying the job being processed together
// with its cancellation check and item progress reporter.
package context

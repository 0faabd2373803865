// Package security provides validation, sanitization, and limits for the pdfbatch package.
package security

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits
const (
	// MaxRetries is the hard limit for a job's retry budget
	MaxRetries = 100

	// MaxInputsPerJob is the maximum number of input files in one job
	MaxInputsPerJob = 10000

	// MaxErrorMessageLength is the maximum length for stored error messages
	MaxErrorMessageLength = 4096

	// MinPasswordLength is the minimum length of an encryption password
	MinPasswordLength = 8
)

// Password errors
var (
	ErrPasswordEmpty     = errors.New("password cannot be empty")
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters")
	ErrPasswordNoUpper   = errors.New("password must contain at least one uppercase letter")
	ErrPasswordNoLower   = errors.New("password must contain at least one lowercase letter")
	ErrPasswordNoDigit   = errors.New("password must contain at least one digit")
	ErrTooManyInputFiles = errors.New("too many input files for one job")
)

// SanitizeErrorMessage truncates and sanitizes error messages for storage
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// ClampRetries ensures a retry budget is within limits
func ClampRetries(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxRetries {
		return MaxRetries
	}
	return n
}

// ValidateInputCount rejects jobs carrying more inputs than MaxInputsPerJob
func ValidateInputCount(n int) error {
	if n > MaxInputsPerJob {
		return ErrTooManyInputFiles
	}
	return nil
}

// ValidatePassword checks the strength of an encryption password.
// All violated rules are reported together.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordEmpty
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	var errs []error
	if utf8.RuneCountInString(password) < MinPasswordLength {
		errs = append(errs, ErrPasswordTooShort)
	}
	if !hasUpper {
		errs = append(errs, ErrPasswordNoUpper)
	}
	if !hasLower {
		errs = append(errs, ErrPasswordNoLower)
	}
	if !hasDigit {
		errs = append(errs, ErrPasswordNoDigit)
	}
	return errors.Join(errs...)
}

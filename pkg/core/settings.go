package core

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Settings holds operation specific parameters of a job.
type Settings map[string]any

// Has reports whether key is present with a non-empty value.
func (s Settings) Has(key string) bool {
	v, ok := s[key]
	if !ok || v == nil {
		return false
	}
	if str, isStr := v.(string); isStr {
		return strings.TrimSpace(str) != ""
	}
	return true
}

// String returns the value for key as a string, or def when absent.
func (s Settings) String(key, def string) string {
	if !s.Has(key) {
		return def
	}
	return cast.ToString(s[key])
}

// Int returns the value for key as an int, or def when absent.
func (s Settings) Int(key string, def int) (int, error) {
	if !s.Has(key) {
		return def, nil
	}
	n, err := cast.ToIntE(s[key])
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, key, err)
	}
	return n, nil
}

// Float returns the value for key as a float64, or def when absent.
func (s Settings) Float(key string, def float64) (float64, error) {
	if !s.Has(key) {
		return def, nil
	}
	f, err := cast.ToFloat64E(s[key])
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, key, err)
	}
	return f, nil
}

// Bool returns the value for key as a bool, or def when absent.
func (s Settings) Bool(key string, def bool) (bool, error) {
	if !s.Has(key) {
		return def, nil
	}
	b, err := cast.ToBoolE(s[key])
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, key, err)
	}
	return b, nil
}

// Clone returns a shallow copy of the settings.
func (s Settings) Clone() Settings {
	if s == nil {
		return Settings{}
	}
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

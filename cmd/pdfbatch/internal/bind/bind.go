// Package bind converts command-line flag values into library options.
package bind

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jdziat/pdfbatch/pkg/batch"
	"github.com/jdziat/pdfbatch/pkg/core"
)

// ErrBadSetting is returned for a --set value that is not key=value.
var ErrBadSetting = errors.New("setting must have the form key=value")

// ParseSettings turns key=value pairs into job settings. Values that read
// as integers, floats or booleans keep that type; everything else is a string.
func ParseSettings(pairs []string) (map[string]any, error) {
	settings := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadSetting, pair)
		}
		settings[key] = typed(value)
	}
	return settings, nil
}

func typed(v string) any {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

// ExecRequest builds the single job request of the exec command.
//
// Flags read:
//   - --output / -o: output directory (falls back to batch.output_dir)
//   - --set: repeatable key=value operation setting
//   - --retries: retry budget, -1 keeps the configured default
func ExecRequest(cmd *cobra.Command, args []string) (batch.Request, error) {
	if len(args) < 2 {
		return batch.Request{}, errors.New("exec needs an operation and at least one file")
	}
	kind, err := core.ParseKind(strings.ToLower(args[0]))
	if err != nil {
		return batch.Request{}, err
	}

	outputDir, _ := cmd.Flags().GetString("output")
	pairs, _ := cmd.Flags().GetStringArray("set")
	retries, _ := cmd.Flags().GetInt("retries")

	settings, err := ParseSettings(pairs)
	if err != nil {
		return batch.Request{}, err
	}

	var opts []batch.JobOption
	if len(settings) > 0 {
		opts = append(opts, batch.Settings(settings))
	}
	if retries >= 0 {
		opts = append(opts, batch.Retries(retries))
	}

	return batch.Request{
		Kind:      kind,
		Inputs:    args[1:],
		OutputDir: outputDir,
		Options:   opts,
	}, nil
}

// Package manifest reads YAML batch descriptions.
//
// A manifest lists the jobs of one batch:
//
//	output_dir: ./out
//	max_retries: 3
//	jobs:
//	  - kind: combine
//	    inputs: [cover.pdf, body.pdf]
//	  - kind: watermark
//	    inputs: [body.pdf]
//	    settings:
//	      text: DRAFT
//	      opacity: 0.2
//
// Relative paths are resolved against the manifest's directory.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jdziat/pdfbatch/pkg/batch"
	"github.com/jdziat/pdfbatch/pkg/core"
)

// ErrNoJobs is returned for a manifest without jobs.
var ErrNoJobs = errors.New("manifest: no jobs")

// Manifest is a parsed batch description.
type Manifest struct {
	Name       string `yaml:"name"`
	OutputDir  string `yaml:"output_dir"`
	MaxRetries *int   `yaml:"max_retries"`
	Jobs       []Job  `yaml:"jobs"`

	// BaseDir is the directory relative paths are resolved against.
	BaseDir string `yaml:"-"`
}

// Job is one entry of the jobs list.
type Job struct {
	Kind      string         `yaml:"kind"`
	Inputs    []string       `yaml:"inputs"`
	OutputDir string         `yaml:"output_dir"`
	Retries   *int           `yaml:"retries"`
	Settings  map[string]any `yaml:"settings"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	m, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	m.BaseDir = abs
	return m, nil
}

// Parse decodes and validates a manifest. Unknown fields are rejected.
func Parse(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoJobs
		}
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks kinds and input lists. Files themselves are checked at submission.
func (m *Manifest) Validate() error {
	if len(m.Jobs) == 0 {
		return ErrNoJobs
	}
	var errs []error
	for i, j := range m.Jobs {
		if _, err := core.ParseKind(j.Kind); err != nil {
			errs = append(errs, fmt.Errorf("jobs[%d]: %w", i, err))
		}
		if len(j.Inputs) == 0 {
			errs = append(errs, fmt.Errorf("jobs[%d]: %w", i, core.ErrNoInputs))
		}
		if j.Retries != nil && *j.Retries < 0 {
			errs = append(errs, fmt.Errorf("jobs[%d]: retries must not be negative", i))
		}
	}
	return errors.Join(errs...)
}

func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.BaseDir == "" {
		return p
	}
	return filepath.Join(m.BaseDir, p)
}

// Requests converts the manifest into submission requests. defaultOutputDir
// is used when neither the job nor the manifest names one.
func (m *Manifest) Requests(defaultOutputDir string) []batch.Request {
	reqs := make([]batch.Request, 0, len(m.Jobs))
	for _, j := range m.Jobs {
		inputs := make([]string, len(j.Inputs))
		for i, in := range j.Inputs {
			inputs[i] = m.resolve(in)
		}

		outputDir := m.resolve(j.OutputDir)
		if outputDir == "" {
			outputDir = m.resolve(m.OutputDir)
		}
		if outputDir == "" {
			outputDir = defaultOutputDir
		}

		var opts []batch.JobOption
		switch {
		case j.Retries != nil:
			opts = append(opts, batch.Retries(*j.Retries))
		case m.MaxRetries != nil:
			opts = append(opts, batch.Retries(*m.MaxRetries))
		}
		if len(j.Settings) > 0 {
			settings := make(map[string]any, len(j.Settings))
			for k, v := range j.Settings {
				if k == "watermark_file" {
					if s, ok := v.(string); ok {
						v = m.resolve(s)
					}
				}
				settings[k] = v
			}
			opts = append(opts, batch.Settings(settings))
		}

		reqs = append(reqs, batch.Request{
			Kind:      core.Kind(j.Kind),
			Inputs:    inputs,
			OutputDir: outputDir,
			Options:   opts,
		})
	}
	return reqs
}

package batch

import (
	"github.com/rs/zerolog"

	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/security"
)

// Option configures a Batch.
type Option interface {
	apply(*Batch)
}

type optionFunc func(*Batch)

func (f optionFunc) apply(b *Batch) { f(b) }

// WithLogger sets the logger used by the batch and its worker.
func WithLogger(l zerolog.Logger) Option {
	return optionFunc(func(b *Batch) {
		b.logger = l
	})
}

// WithValidator replaces the admission validator.
func WithValidator(v Validator) Option {
	return optionFunc(func(b *Batch) {
		b.validator = v
	})
}

// WithStorage records jobs and runs in s.
func WithStorage(s core.Storage) Option {
	return optionFunc(func(b *Batch) {
		b.storage = s
	})
}

// WithDefaultRetries sets the retry budget for jobs submitted without Retries.
func WithDefaultRetries(n int) Option {
	return optionFunc(func(b *Batch) {
		b.defaultRetries = security.ClampRetries(n)
	})
}

// WithDefaultOutputDir sets the output directory for jobs submitted without one.
func WithDefaultOutputDir(dir string) Option {
	return optionFunc(func(b *Batch) {
		b.defaultOutputDir = dir
	})
}

// WithID sets the batch ID. Durable queues are resumed by ID.
func WithID(id string) Option {
	return optionFunc(func(b *Batch) {
		b.id = id
	})
}

// JobOption configures a submitted job.
type JobOption interface {
	applyJob(*jobOptions)
}

type jobOptionFunc func(*jobOptions)

func (f jobOptionFunc) applyJob(o *jobOptions) { f(o) }

type jobOptions struct {
	retries  *int
	settings core.Settings
}

// Retries sets the maximum number of retries. Values are clamped to [0, MaxRetries].
func Retries(n int) JobOption {
	return jobOptionFunc(func(o *jobOptions) {
		clamped := security.ClampRetries(n)
		o.retries = &clamped
	})
}

// Settings merges operation settings into the job.
func Settings(s map[string]any) JobOption {
	return jobOptionFunc(func(o *jobOptions) {
		for k, v := range s {
			o.settings[k] = v
		}
	})
}

// Setting sets one operation setting.
func Setting(key string, value any) JobOption {
	return jobOptionFunc(func(o *jobOptions) {
		o.settings[key] = value
	})
}

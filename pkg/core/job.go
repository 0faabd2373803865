// Package core provides the domain models and interfaces for the pdfbatch package.
package core

import (
	"fmt"
	"time"
)

// Kind identifies the operation a job performs.
type Kind string

const (
	KindCombine   Kind = "combine"
	KindSplit     Kind = "split"
	KindWatermark Kind = "watermark"
	KindEncrypt   Kind = "encrypt"
	KindCompress  Kind = "compress"
)

// Kinds lists every supported operation kind.
var Kinds = []Kind{KindCombine, KindSplit, KindWatermark, KindEncrypt, KindCompress}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// JobStatus represents the current state of a job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusCancelled  JobStatus = "cancelled" // Stopped at a cancellation checkpoint
)

// Terminal reports whether the status is final for the job.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// DefaultMaxRetries is the retry budget given to a job when none is requested.
const DefaultMaxRetries = 3

// Job represents one requested batch operation.
type Job struct {
	ID         string     `gorm:"primaryKey;size:36"`
	BatchID    string     `gorm:"index;size:36;not null"`
	Kind       Kind       `gorm:"index;size:32;not null"`
	Inputs     []string   `gorm:"serializer:json"`
	OutputDir  string     `gorm:"type:text"`
	Settings   Settings   `gorm:"serializer:json"`
	Status     JobStatus  `gorm:"index;size:20;default:'pending'"`
	LastError  string     `gorm:"type:text"`
	RetryCount int        `gorm:"default:0"`
	MaxRetries int        `gorm:"default:3"`
	QueuePos   *int64     `gorm:"index"` // Position in a durable queue, nil when not queued
	Outputs    []string   `gorm:"serializer:json"`
	StartedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// CanRetry reports whether the job still has retry budget left.
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// Attempt returns the 1-based number of the current or last attempt.
func (j *Job) Attempt() int {
	return j.RetryCount + 1
}

// Label returns a short human readable description of the job.
func (j *Job) Label() string {
	switch len(j.Inputs) {
	case 0:
		return string(j.Kind)
	case 1:
		return fmt.Sprintf("%s %s", j.Kind, j.Inputs[0])
	default:
		return fmt.Sprintf("%s %s (+%d more)", j.Kind, j.Inputs[0], len(j.Inputs)-1)
	}
}

// Run records one processing run over a batch queue.
type Run struct {
	ID           string `gorm:"primaryKey;size:36"`
	BatchID      string `gorm:"index;size:36;not null"`
	Total        int    `gorm:"default:0"`
	Completed    int    `gorm:"default:0"`
	Failed       int    `gorm:"default:0"`
	Cancelled    int    `gorm:"default:0"`
	NotAttempted int    `gorm:"default:0"`
	Interrupted  bool   `gorm:"default:false"`
	StartedAt    time.Time
	FinishedAt   *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Summary is the final outcome of a run, delivered with the BatchDone event.
type Summary struct {
	BatchID      string
	RunID        string
	Total        int
	Completed    int
	Failed       int
	Cancelled    int
	NotAttempted int
	Interrupted  bool // Ended through a cancellation request
	Duration     time.Duration
}

// Resolved returns how many jobs reached a terminal status during the run.
func (s Summary) Resolved() int {
	return s.Completed + s.Failed + s.Cancelled
}

// Apply copies the summary counters onto a run record.
func (s Summary) Apply(r *Run) {
	r.Total = s.Total
	r.Completed = s.Completed
	r.Failed = s.Failed
	r.Cancelled = s.Cancelled
	r.NotAttempted = s.NotAttempted
	r.Interrupted = s.Interrupted
}

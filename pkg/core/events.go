package core

import "time"

// Event is the interface for all batch events.
type Event interface {
	eventMarker()
}

// BatchStarted is emitted when a run begins consuming the queue.
type BatchStarted struct {
	BatchID   string
	RunID     string
	Total     int
	Timestamp time.Time
}

func (*BatchStarted) eventMarker() {}

// JobStarted is emitted when a job is dequeued for processing.
type JobStarted struct {
	Job       *Job
	Attempt   int
	Timestamp time.Time
}

func (*JobStarted) eventMarker() {}

// ItemProgress reports progress within the job being processed.
// Percent is in the range 0..100.
type ItemProgress struct {
	Job       *Job
	Label     string
	Percent   int
	Timestamp time.Time
}

func (*ItemProgress) eventMarker() {}

// OverallProgress reports batch level progress. Max is fixed when the run
// starts and is not increased by retries.
type OverallProgress struct {
	Value     int
	Max       int
	Message   string
	Timestamp time.Time
}

func (*OverallProgress) eventMarker() {}

// Percent returns the progress as a percentage in the range 0..100.
func (p *OverallProgress) Percent() int {
	if p.Max <= 0 {
		return 100
	}
	return p.Value * 100 / p.Max
}

// JobCompleted is emitted when a job completes successfully.
type JobCompleted struct {
	Job       *Job
	Duration  time.Duration
	Timestamp time.Time
}

func (*JobCompleted) eventMarker() {}

// JobFailed is emitted when a job fails permanently.
type JobFailed struct {
	Job       *Job
	Error     error
	Timestamp time.Time
}

func (*JobFailed) eventMarker() {}

// JobRetrying is emitted when a failed job is put back at the front of the queue.
type JobRetrying struct {
	Job       *Job
	Attempt   int // The attempt that will run next
	Error     error
	Timestamp time.Time
}

func (*JobRetrying) eventMarker() {}

// JobCancelled is emitted when a job stops at a cancellation checkpoint.
type JobCancelled struct {
	Job       *Job
	Timestamp time.Time
}

func (*JobCancelled) eventMarker() {}

// BatchDone is emitted exactly once per run when processing stops.
type BatchDone struct {
	Summary   Summary
	Timestamp time.Time
}

func (*BatchDone) eventMarker() {}

package queue

import (
	"context"
	"sync"

	"github.com/jdziat/pdfbatch/pkg/core"
)

// JobQueue is the ordered holding area for not-yet-processed jobs.
type JobQueue interface {
	// Enqueue appends a job to the back. No validation is performed.
	Enqueue(ctx context.Context, job *core.Job) error
	// EnqueueAll appends jobs in order. Either every job is queued or,
	// on error, none is.
	EnqueueAll(ctx context.Context, jobs []*core.Job) error
	// DequeueFront removes and returns the front job, or nil when empty.
	DequeueFront(ctx context.Context) (*core.Job, error)
	// RequeueFront puts a job back at the front. Used for retries only.
	RequeueFront(ctx context.Context, job *core.Job) error
	IsEmpty(ctx context.Context) (bool, error)
	Len(ctx context.Context) (int, error)
}

// Memory is a mutex-protected in-memory JobQueue.
type Memory struct {
	mu   sync.Mutex
	jobs []*core.Job
}

// NewMemory creates an empty in-memory queue.
func NewMemory() *Memory {
	return &Memory{}
}

// Enqueue appends a job to the back of the queue.
func (m *Memory) Enqueue(_ context.Context, job *core.Job) error {
	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	m.mu.Unlock()
	return nil
}

// EnqueueAll appends jobs to the back of the queue in one step.
func (m *Memory) EnqueueAll(_ context.Context, jobs []*core.Job) error {
	m.mu.Lock()
	m.jobs = append(m.jobs, jobs...)
	m.mu.Unlock()
	return nil
}

// DequeueFront removes and returns the job at the front of the queue.
func (m *Memory) DequeueFront(_ context.Context) (*core.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.jobs) == 0 {
		return nil, nil
	}
	job := m.jobs[0]
	m.jobs[0] = nil
	m.jobs = m.jobs[1:]
	return job, nil
}

// RequeueFront reinserts a job at the front of the queue.
func (m *Memory) RequeueFront(_ context.Context, job *core.Job) error {
	m.mu.Lock()
	m.jobs = append([]*core.Job{job}, m.jobs...)
	m.mu.Unlock()
	return nil
}

// IsEmpty reports whether the queue holds no jobs.
func (m *Memory) IsEmpty(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs) == 0, nil
}

// Len returns the number of queued jobs.
func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs), nil
}

// Snapshot returns the queued jobs in processing order.
func (m *Memory) Snapshot() []*core.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*core.Job, len(m.jobs))
	copy(out, m.jobs)
	return out
}

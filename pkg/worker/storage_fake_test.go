package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/jdziat/pdfbatch/pkg/core"
)

// fakeStorage is an in-memory core.Storage whose SaveJob can be made to fail.
type fakeStorage struct {
	mu        sync.Mutex
	jobs      map[string]core.Job
	runs      map[string]core.Run
	failSaves atomic.Int32
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{jobs: map[string]core.Job{}, runs: map[string]core.Run{}}
}

func (s *fakeStorage) Migrate(context.Context) error { return nil }

func (s *fakeStorage) SaveJob(_ context.Context, job *core.Job) error {
	if s.failSaves.Add(-1) >= 0 {
		return errors.New("database is locked")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *fakeStorage) GetJob(_ context.Context, id string) (*core.Job, error) {
	if j := s.job(id); j != nil {
		return j, nil
	}
	return nil, core.ErrJobNotFound
}

func (s *fakeStorage) GetJobsByBatch(_ context.Context, batchID string) ([]*core.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*core.Job
	for _, j := range s.jobs {
		if j.BatchID == batchID {
			j := j
			out = append(out, &j)
		}
	}
	return out, nil
}

func (s *fakeStorage) GetJobsByStatus(_ context.Context, status core.JobStatus, _ int) ([]*core.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*core.Job
	for _, j := range s.jobs {
		if j.Status == status {
			j := j
			out = append(out, &j)
		}
	}
	return out, nil
}

func (s *fakeStorage) CreateRun(_ context.Context, run *core.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

func (s *fakeStorage) FinishRun(ctx context.Context, run *core.Run) error {
	return s.CreateRun(ctx, run)
}

func (s *fakeStorage) GetRun(_ context.Context, id string) (*core.Run, error) {
	if r := s.run(id); r != nil {
		return r, nil
	}
	return nil, core.ErrRunNotFound
}

func (s *fakeStorage) ListRuns(context.Context, int) ([]*core.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.Run, 0, len(s.runs))
	for _, r := range s.runs {
		r := r
		out = append(out, &r)
	}
	return out, nil
}

func (s *fakeStorage) job(id string) *core.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil
	}
	return &j
}

func (s *fakeStorage) run(id string) *core.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[id]
	if !ok {
		return nil
	}
	return &r
}

var _ core.Storage = (*fakeStorage)(nil)

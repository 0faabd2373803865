package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jdziat/pdfbatch/pkg/batch"
	"github.com/jdziat/pdfbatch/pkg/core"
	intctx "github.com/jdziat/pdfbatch/pkg/internal/context"
	"github.com/jdziat/pdfbatch/pkg/handlers"
	"github.com/jdziat/pdfbatch/pkg/security"
)

// State is the lifecycle state of a Worker.
type State string

const (
	StateIdle       State = "idle"
	StateRunning    State = "running"
	StateCancelling State = "cancelling"
	StateDone       State = "done"
)

// cancelPoll is how often a retry delay checks the cancellation flag.
const cancelPoll = 20 * time.Millisecond

// Worker consumes a batch queue on one background goroutine.
type Worker struct {
	batch  *batch.Batch
	config WorkerConfig
	logger zerolog.Logger

	mu      sync.Mutex
	state   State
	done    chan struct{}
	summary core.Summary
}

// NewWorker creates a new worker for the given batch.
func NewWorker(b *batch.Batch, opts ...WorkerOption) *Worker {
	config := WorkerConfig{}
	for _, opt := range opts {
		opt.ApplyWorker(&config)
	}

	if config.StorageRetry == nil {
		defaultCfg := DefaultRetryConfig()
		config.StorageRetry = &defaultCfg
	}
	if config.DequeueRetry == nil {
		dequeueCfg := RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    200 * time.Millisecond,
			MaxBackoff:        2 * time.Second,
			BackoffMultiplier: 2.0,
			JitterFraction:    0.2,
		}
		config.DequeueRetry = &dequeueCfg
	}

	logger := b.Logger()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Worker{
		batch:  b,
		config: config,
		logger: logger,
		state:  StateIdle,
	}
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateRunning && w.batch.CancellationRequested() {
		return StateCancelling
	}
	return w.state
}

// Start begins consuming the queue in the background. It is a no-op while
// a run is active. Once a run is done, Start begins a new run over whatever
// the queue holds. A cancellation requested before Start stops the new run
// before its first job.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateRunning {
		w.logger.Debug().Msg("start ignored, run already active")
		return
	}
	w.state = StateRunning
	w.done = make(chan struct{})
	w.summary = core.Summary{}

	go w.run(ctx, w.done)
}

// Wait blocks until the current run is done and returns its summary.
// It returns immediately with an empty summary if Start was never called.
func (w *Worker) Wait() core.Summary {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()

	if done == nil {
		return core.Summary{}
	}
	<-done

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.summary
}

// Run starts a run and blocks until it is done.
func (w *Worker) Run(ctx context.Context) core.Summary {
	w.Start(ctx)
	return w.Wait()
}

// run is the worker loop. Jobs are taken strictly from the front of the
// queue; a cancellation request is honoured before each job.
func (w *Worker) run(ctx context.Context, done chan struct{}) {
	startTime := time.Now()
	q := w.batch.Queue()
	// History writes outlive a cancelled run context.
	storeCtx := context.WithoutCancel(ctx)

	total, err := q.Len(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to read queue length")
	}

	r := &runState{
		summary: core.Summary{BatchID: w.batch.ID(), RunID: uuid.New().String()},
		max:     total,
	}
	run := &core.Run{ID: r.summary.RunID, BatchID: w.batch.ID(), Total: total, StartedAt: startTime}
	w.store(storeCtx, "create run", func() error { return w.batch.Storage().CreateRun(storeCtx, run) })

	w.logger.Info().Str("run_id", run.ID).Int("jobs", total).Msg("batch started")
	w.batch.Emit(&core.BatchStarted{BatchID: w.batch.ID(), RunID: run.ID, Total: total, Timestamp: startTime})
	w.batch.ReportProgress(0, total, "Starting")

	for {
		if w.batch.CancellationRequested() || ctx.Err() != nil {
			r.summary.Interrupted = true
			break
		}

		job, err := w.dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.summary.Interrupted = true
			} else {
				w.logger.Error().Err(err).Msg("failed to dequeue after retries")
			}
			break
		}
		if job == nil {
			break
		}

		w.processJob(ctx, storeCtx, job, r)
	}

	remaining, err := q.Len(storeCtx)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to read queue length")
	}
	s := r.summary
	s.NotAttempted = remaining
	s.Total = s.Resolved() + s.NotAttempted
	s.Duration = time.Since(startTime)

	finished := time.Now()
	s.Apply(run)
	run.FinishedAt = &finished
	w.store(storeCtx, "finish run", func() error { return w.batch.Storage().FinishRun(storeCtx, run) })

	w.logger.Info().
		Str("run_id", run.ID).
		Int("completed", s.Completed).
		Int("failed", s.Failed).
		Int("cancelled", s.Cancelled).
		Int("not_attempted", s.NotAttempted).
		Bool("interrupted", s.Interrupted).
		Dur("duration", s.Duration).
		Msg("batch done")

	w.mu.Lock()
	w.summary = s
	w.state = StateDone
	w.mu.Unlock()

	// The request is consumed by the run it stopped.
	w.batch.ClearCancellation()
	w.batch.Finish(s)
	close(done)
}

// runState tracks counters of the active run.
type runState struct {
	summary core.Summary
	max     int
	value   int
}

// dequeue takes the front job with retry on transient queue failures.
func (w *Worker) dequeue(ctx context.Context) (*core.Job, error) {
	var job *core.Job
	err := retryWithBackoff(ctx, *w.config.DequeueRetry, func() error {
		var dequeueErr error
		job, dequeueErr = w.batch.Queue().DequeueFront(ctx)
		return dequeueErr
	})
	return job, err
}

func (w *Worker) processJob(ctx, storeCtx context.Context, job *core.Job, r *runState) {
	startTime := time.Now()
	log := w.logger.With().
		Str("job_id", job.ID).
		Str("kind", string(job.Kind)).
		Int("attempt", job.Attempt()).
		Logger()

	job.Status = core.StatusProcessing
	job.StartedAt = &startTime
	job.FinishedAt = nil
	w.saveJob(storeCtx, job)

	w.batch.CallStartHooks(ctx, job)
	w.batch.Emit(&core.JobStarted{Job: snapshot(job), Attempt: job.Attempt(), Timestamp: startTime})
	log.Debug().Msg("job started")

	var err error
	h, ok := w.batch.Handler(job.Kind)
	if !ok {
		err = core.NoRetry(fmt.Errorf("%w: %s", core.ErrNoHandler, job.Kind))
	} else {
		err = w.executeHandler(ctx, job, h, log)
	}

	if err == nil {
		finished := time.Now()
		job.Status = core.StatusCompleted
		job.LastError = ""
		job.FinishedAt = &finished
		w.saveJob(storeCtx, job)
		r.summary.Completed++

		duration := time.Since(startTime)
		log.Info().Dur("duration", duration).Strs("outputs", job.Outputs).Msg("job completed")
		w.batch.CallCompleteHooks(ctx, job)
		w.batch.Emit(&core.JobCompleted{Job: snapshot(job), Duration: duration, Timestamp: finished})
		w.progress(storeCtx, r, "Completed "+job.Label())
		return
	}

	w.handleError(ctx, storeCtx, job, err, r, log)
}

func (w *Worker) executeHandler(ctx context.Context, job *core.Job, h handlers.Handler, log zerolog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	jc := &intctx.JobContext{
		Job:       job,
		Cancelled: w.batch.CancellationRequested,
		Report: func(label string, percent int) {
			w.batch.ReportItem(snapshot(job), label, percent)
		},
		Logger: log,
	}
	return h.Handle(intctx.WithJobContext(ctx, jc), job)
}

func (w *Worker) handleError(ctx, storeCtx context.Context, job *core.Job, err error, r *runState, log zerolog.Logger) {
	msg := security.SanitizeErrorMessage(err.Error())

	// Cancellation ends the job without spending retry budget
	if core.IsCancelled(err) {
		finished := time.Now()
		job.Status = core.StatusCancelled
		job.FinishedAt = &finished
		w.saveJob(storeCtx, job)
		r.summary.Cancelled++

		log.Info().Msg("job cancelled")
		w.batch.CallCancelHooks(ctx, job)
		w.batch.Emit(&core.JobCancelled{Job: snapshot(job), Timestamp: finished})
		w.progress(storeCtx, r, "Cancelled "+job.Label())
		return
	}

	var noRetry *core.NoRetryError
	if !errors.As(err, &noRetry) && job.CanRetry() {
		job.RetryCount++
		job.Status = core.StatusPending
		job.LastError = msg
		job.StartedAt = nil

		if qErr := w.batch.Queue().RequeueFront(storeCtx, job); qErr != nil {
			log.Error().Err(qErr).Msg("failed to requeue job")
			w.fail(ctx, storeCtx, job, fmt.Errorf("requeue: %w", qErr), r, log)
			return
		}
		w.saveJob(storeCtx, job)

		log.Warn().Err(err).Int("next_attempt", job.Attempt()).Int("max_retries", job.MaxRetries).Msg("job failed, retrying")
		w.batch.CallRetryHooks(ctx, job, job.Attempt(), err)
		w.batch.Emit(&core.JobRetrying{Job: snapshot(job), Attempt: job.Attempt(), Error: err, Timestamp: time.Now()})
		w.progress(storeCtx, r, fmt.Sprintf("Retrying %s (attempt %d of %d)", job.Label(), job.Attempt(), job.MaxRetries+1))
		w.waitRetryDelay(ctx)
		return
	}

	w.fail(ctx, storeCtx, job, err, r, log)
}

// fail marks a job as permanently failed.
func (w *Worker) fail(ctx, storeCtx context.Context, job *core.Job, err error, r *runState, log zerolog.Logger) {
	finished := time.Now()
	job.Status = core.StatusFailed
	job.LastError = security.SanitizeErrorMessage(err.Error())
	job.FinishedAt = &finished
	w.saveJob(storeCtx, job)
	r.summary.Failed++

	log.Error().Err(err).Int("retries", job.RetryCount).Msg("job failed")
	w.batch.CallFailHooks(ctx, job, err)
	w.batch.Emit(&core.JobFailed{Job: snapshot(job), Error: err, Timestamp: finished})
	w.progress(storeCtx, r, "Failed "+job.Label())
}

// progress reports Value = Max - remaining. Max never grows and Value
// never moves backwards.
func (w *Worker) progress(ctx context.Context, r *runState, message string) {
	remaining, err := w.batch.Queue().Len(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("failed to read queue length")
		remaining = r.max - r.value
	}
	value := r.max - remaining
	if value > r.max {
		value = r.max
	}
	if value < r.value {
		value = r.value
	}
	r.value = value
	w.batch.ReportProgress(value, r.max, message)
}

// waitRetryDelay sleeps for the configured retry delay unless the run is
// cancelled first.
func (w *Worker) waitRetryDelay(ctx context.Context) {
	if w.config.RetryDelay <= 0 {
		return
	}
	timer := time.NewTimer(w.config.RetryDelay)
	defer timer.Stop()
	ticker := time.NewTicker(cancelPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			return
		case <-ticker.C:
			if w.batch.CancellationRequested() {
				return
			}
		}
	}
}

// saveJob records the job in history storage with retry on transient failures.
func (w *Worker) saveJob(ctx context.Context, job *core.Job) {
	w.store(ctx, "save job", func() error { return w.batch.Storage().SaveJob(ctx, job) })
}

// store runs a history write if storage is configured. Failures are logged
// and never stop the worker.
func (w *Worker) store(ctx context.Context, what string, op func() error) {
	if w.batch.Storage() == nil {
		return
	}
	if err := retryWithBackoff(ctx, *w.config.StorageRetry, op); err != nil {
		w.logger.Error().Err(err).Str("op", what).Msg("storage write failed after retries")
	}
}

// snapshot copies a job so observers never share memory with the worker.
func snapshot(job *core.Job) *core.Job {
	c := *job
	c.Inputs = append([]string(nil), job.Inputs...)
	c.Outputs = append([]string(nil), job.Outputs...)
	c.Settings = job.Settings.Clone()
	return &c
}

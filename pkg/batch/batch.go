package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/handlers"
	"github.com/jdziat/pdfbatch/pkg/pdf"
	"github.com/jdziat/pdfbatch/pkg/queue"
	"github.com/jdziat/pdfbatch/pkg/security"
)

// Validator decides whether an input file may be admitted.
type Validator interface {
	Validate(path string) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(path string) error

// Validate calls f(path).
func (f ValidatorFunc) Validate(path string) error { return f(path) }

// Request describes one job of a multi-job submission.
type Request struct {
	Kind      core.Kind
	Inputs    []string
	OutputDir string
	Options   []JobOption
}

// Batch manages handler registration, submission and observation of one job queue.
type Batch struct {
	id               string
	queue            queue.JobQueue
	storage          core.Storage
	validator        Validator
	handlers         map[core.Kind]handlers.Handler
	defaultRetries   int
	defaultOutputDir string
	logger           zerolog.Logger
	mu               sync.RWMutex

	// Hooks
	onStart    []func(context.Context, *core.Job)
	onComplete []func(context.Context, *core.Job)
	onFail     []func(context.Context, *core.Job, error)
	onRetry    []func(context.Context, *core.Job, int, error)
	onCancel   []func(context.Context, *core.Job)
	onProgress []func(*core.OverallProgress)
	onItem     []func(*core.ItemProgress)
	onDone     []func(core.Summary)

	// Event stream
	eventSubs []chan core.Event

	cancelRequested atomic.Bool
}

// New creates a Batch consuming q. Without WithValidator, inputs are
// checked with pdf.NewValidator.
func New(q queue.JobQueue, opts ...Option) *Batch {
	b := &Batch{
		id:             uuid.New().String(),
		queue:          q,
		handlers:       make(map[core.Kind]handlers.Handler),
		defaultRetries: core.DefaultMaxRetries,
		logger:         log.Logger,
	}
	for _, opt := range opts {
		opt.apply(b)
	}
	if b.validator == nil {
		b.validator = pdf.NewValidator()
	}
	b.logger = b.logger.With().Str("batch_id", b.id).Logger()
	return b
}

// ID returns the batch ID.
func (b *Batch) ID() string { return b.id }

// Queue returns the underlying job queue.
func (b *Batch) Queue() queue.JobQueue { return b.queue }

// Storage returns the history storage, or nil when none is configured.
func (b *Batch) Storage() core.Storage { return b.storage }

// Logger returns the batch logger.
func (b *Batch) Logger() zerolog.Logger { return b.logger }

// Register registers the handler for kind, replacing any previous one.
func (b *Batch) Register(kind core.Kind, h handlers.Handler) {
	if !kind.Valid() {
		panic(fmt.Sprintf("pdfbatch: cannot register handler for unknown kind %q", kind))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = h
}

// Handler returns the handler registered for kind.
func (b *Batch) Handler(kind core.Kind) (handlers.Handler, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	h, ok := b.handlers[kind]
	return h, ok
}

// Submit validates and enqueues a single job.
func (b *Batch) Submit(ctx context.Context, kind core.Kind, inputs []string, outputDir string, opts ...JobOption) (*core.Job, error) {
	jobs, err := b.SubmitAll(ctx, Request{Kind: kind, Inputs: inputs, OutputDir: outputDir, Options: opts})
	if err != nil {
		return nil, err
	}
	return jobs[0], nil
}

// SubmitAll validates every request and enqueues them in order. If any
// request or input is refused, or the queue cannot take them all, nothing
// is enqueued.
func (b *Batch) SubmitAll(ctx context.Context, reqs ...Request) ([]*core.Job, error) {
	if len(reqs) == 0 {
		return nil, core.ErrNoInputs
	}

	jobs := make([]*core.Job, 0, len(reqs))
	for _, req := range reqs {
		job, err := b.newJob(req)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := b.validate(jobs); err != nil {
		b.logger.Warn().Err(err).Int("jobs", len(jobs)).Msg("submission rejected")
		return nil, err
	}

	if err := b.queue.EnqueueAll(ctx, jobs); err != nil {
		return nil, fmt.Errorf("pdfbatch: failed to enqueue: %w", err)
	}
	for _, job := range jobs {
		if b.storage != nil {
			if err := b.storage.SaveJob(ctx, job); err != nil {
				b.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to record job")
			}
		}
		b.logger.Debug().
			Str("job_id", job.ID).
			Str("kind", string(job.Kind)).
			Int("inputs", len(job.Inputs)).
			Msg("job submitted")
	}
	return jobs, nil
}

func (b *Batch) newJob(req Request) (*core.Job, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownKind, req.Kind)
	}
	if _, ok := b.Handler(req.Kind); !ok {
		return nil, fmt.Errorf("%w: no handler for %q", core.ErrUnknownKind, req.Kind)
	}
	if len(req.Inputs) == 0 {
		return nil, core.ErrNoInputs
	}
	if err := security.ValidateInputCount(len(req.Inputs)); err != nil {
		return nil, err
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = b.defaultOutputDir
	}
	if outputDir == "" {
		return nil, core.ErrNoOutputDir
	}

	o := &jobOptions{settings: core.Settings{}}
	for _, opt := range req.Options {
		opt.applyJob(o)
	}
	maxRetries := b.defaultRetries
	if o.retries != nil {
		maxRetries = *o.retries
	}

	return &core.Job{
		ID:         uuid.New().String(),
		BatchID:    b.id,
		Kind:       req.Kind,
		Inputs:     append([]string(nil), req.Inputs...),
		OutputDir:  outputDir,
		Settings:   o.settings,
		Status:     core.StatusPending,
		MaxRetries: maxRetries,
	}, nil
}

// validate checks every distinct input once and collects every failure.
func (b *Batch) validate(jobs []*core.Job) error {
	seen := make(map[string]bool)
	var failures []core.FileFailure
	for _, job := range jobs {
		for _, path := range job.Inputs {
			if seen[path] {
				continue
			}
			seen[path] = true
			if err := b.validator.Validate(path); err != nil {
				failures = append(failures, core.FileFailure{Path: path, Reason: err.Error()})
			}
		}
	}
	if len(failures) > 0 {
		return &core.ValidationError{Failures: failures}
	}
	return nil
}

// Pending returns the number of jobs waiting in the queue.
func (b *Batch) Pending(ctx context.Context) (int, error) {
	return b.queue.Len(ctx)
}

// RequestCancellation asks the worker to stop at its next checkpoint.
// It never interrupts a library call in progress. A request made while no
// run is active is kept, so the next run stops before its first job.
func (b *Batch) RequestCancellation() {
	if b.cancelRequested.CompareAndSwap(false, true) {
		b.logger.Info().Msg("cancellation requested")
	}
}

// CancellationRequested reports whether RequestCancellation was called
// since the last run finished.
func (b *Batch) CancellationRequested() bool {
	return b.cancelRequested.Load()
}

// ClearCancellation resets the flag. Workers call it when a run finishes.
func (b *Batch) ClearCancellation() {
	b.cancelRequested.Store(false)
}

// OnJobStart registers a callback for when a job starts.
func (b *Batch) OnJobStart(fn func(context.Context, *core.Job)) {
	b.mu.Lock()
	b.onStart = append(b.onStart, fn)
	b.mu.Unlock()
}

// OnJobComplete registers a callback for when a job completes successfully.
func (b *Batch) OnJobComplete(fn func(context.Context, *core.Job)) {
	b.mu.Lock()
	b.onComplete = append(b.onComplete, fn)
	b.mu.Unlock()
}

// OnJobFail registers a callback for when a job fails permanently.
func (b *Batch) OnJobFail(fn func(context.Context, *core.Job, error)) {
	b.mu.Lock()
	b.onFail = append(b.onFail, fn)
	b.mu.Unlock()
}

// OnRetry registers a callback for when a job is requeued for another attempt.
func (b *Batch) OnRetry(fn func(context.Context, *core.Job, int, error)) {
	b.mu.Lock()
	b.onRetry = append(b.onRetry, fn)
	b.mu.Unlock()
}

// OnJobCancel registers a callback for when a job stops at a cancellation checkpoint.
func (b *Batch) OnJobCancel(fn func(context.Context, *core.Job)) {
	b.mu.Lock()
	b.onCancel = append(b.onCancel, fn)
	b.mu.Unlock()
}

// OnProgress registers a callback for overall progress updates.
func (b *Batch) OnProgress(fn func(*core.OverallProgress)) {
	b.mu.Lock()
	b.onProgress = append(b.onProgress, fn)
	b.mu.Unlock()
}

// OnItemProgress registers a callback for progress within a job.
func (b *Batch) OnItemProgress(fn func(*core.ItemProgress)) {
	b.mu.Lock()
	b.onItem = append(b.onItem, fn)
	b.mu.Unlock()
}

// OnDone registers a callback for the end of a run.
func (b *Batch) OnDone(fn func(core.Summary)) {
	b.mu.Lock()
	b.onDone = append(b.onDone, fn)
	b.mu.Unlock()
}

// Events returns a channel for receiving batch events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (b *Batch) Events() <-chan core.Event {
	ch := make(chan core.Event, 100)
	b.mu.Lock()
	b.eventSubs = append(b.eventSubs, ch)
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Events().
// The channel is not closed. After Unsubscribe returns, no further events
// will be sent to the channel.
func (b *Batch) Unsubscribe(ch <-chan core.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.eventSubs {
		if sub == ch {
			b.eventSubs = append(b.eventSubs[:i], b.eventSubs[i+1:]...)
			return
		}
	}
}

// Emit emits an event to all subscribers.
func (b *Batch) Emit(e core.Event) {
	b.mu.RLock()
	subs := make([]chan core.Event, len(b.eventSubs))
	copy(subs, b.eventSubs)
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			// Drop if full
		}
	}
}

// snapshot copies a hook slice under the read lock.
func snapshot[T any](mu *sync.RWMutex, hooks *[]T) []T {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]T, len(*hooks))
	copy(out, *hooks)
	return out
}

// safely runs one hook. A panicking hook is logged and skipped.
func (b *Batch) safely(hook string, call func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("hook", hook).
				Str("panic", fmt.Sprint(r)).
				Msg("hook panicked")
		}
	}()
	call()
}

// CallStartHooks calls all registered start hooks.
func (b *Batch) CallStartHooks(ctx context.Context, job *core.Job) {
	for _, fn := range snapshot(&b.mu, &b.onStart) {
		b.safely("start", func() { fn(ctx, job) })
	}
}

// CallCompleteHooks calls all registered complete hooks.
func (b *Batch) CallCompleteHooks(ctx context.Context, job *core.Job) {
	for _, fn := range snapshot(&b.mu, &b.onComplete) {
		b.safely("complete", func() { fn(ctx, job) })
	}
}

// CallFailHooks calls all registered fail hooks.
func (b *Batch) CallFailHooks(ctx context.Context, job *core.Job, err error) {
	for _, fn := range snapshot(&b.mu, &b.onFail) {
		b.safely("fail", func() { fn(ctx, job, err) })
	}
}

// CallRetryHooks calls all registered retry hooks.
func (b *Batch) CallRetryHooks(ctx context.Context, job *core.Job, attempt int, err error) {
	for _, fn := range snapshot(&b.mu, &b.onRetry) {
		b.safely("retry", func() { fn(ctx, job, attempt, err) })
	}
}

// CallCancelHooks calls all registered cancel hooks.
func (b *Batch) CallCancelHooks(ctx context.Context, job *core.Job) {
	for _, fn := range snapshot(&b.mu, &b.onCancel) {
		b.safely("cancel", func() { fn(ctx, job) })
	}
}

// ReportProgress emits overall progress to hooks and subscribers.
func (b *Batch) ReportProgress(value, max int, message string) {
	p := &core.OverallProgress{Value: value, Max: max, Message: message, Timestamp: time.Now()}
	for _, fn := range snapshot(&b.mu, &b.onProgress) {
		b.safely("progress", func() { fn(p) })
	}
	b.Emit(p)
}

// ReportItem emits progress within job to hooks and subscribers.
func (b *Batch) ReportItem(job *core.Job, label string, percent int) {
	p := &core.ItemProgress{Job: job, Label: label, Percent: percent, Timestamp: time.Now()}
	for _, fn := range snapshot(&b.mu, &b.onItem) {
		b.safely("item_progress", func() { fn(p) })
	}
	b.Emit(p)
}

// Finish emits BatchDone and calls the done hooks.
func (b *Batch) Finish(s core.Summary) {
	for _, fn := range snapshot(&b.mu, &b.onDone) {
		b.safely("done", func() { fn(s) })
	}
	b.Emit(&core.BatchDone{Summary: s, Timestamp: time.Now()})
}

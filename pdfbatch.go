// Package pdfbatch runs batches of PDF file operations through a
// single-consumer job queue with retries, progress reporting and
// cooperative cancellation.
//
// This is the main package users should import. It re-exports the public
// types of the pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	b := pdfbatch.New(pdfbatch.WithDefaultOutputDir("out"))
//	b.OnProgress(func(p *pdfbatch.OverallProgress) {
//	    fmt.Printf("%d%% %s\n", p.Percent(), p.Message)
//	})
//
//	_, err := b.Submit(ctx, pdfbatch.KindCombine, []string{"a.pdf", "b.pdf"}, "")
//	if err != nil {
//	    var verr *pdfbatch.ValidationError
//	    if errors.As(err, &verr) {
//	        // nothing was queued; verr lists every rejected file
//	    }
//	}
//
//	w := pdfbatch.NewWorker(b)
//	w.Start(ctx)
//	summary := w.Wait()
//
// Durable batches keep their queue in a database and can be resumed:
//
//	db, _ := pdfbatch.OpenDB(pdfbatch.DriverSQLite, "pdfbatch.db")
//	store := pdfbatch.NewGormStorage(db)
//	store.Migrate(ctx)
//	b, err := pdfbatch.NewDurable(ctx, db, batchID, pdfbatch.WithStorage(store))
package pdfbatch

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rs/zerolog"

	"github.com/jdziat/pdfbatch/pkg/batch"
	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/handlers"
	"github.com/jdziat/pdfbatch/pkg/jobctx"
	"github.com/jdziat/pdfbatch/pkg/manifest"
	"github.com/jdziat/pdfbatch/pkg/pdf"
	"github.com/jdziat/pdfbatch/pkg/queue"
	"github.com/jdziat/pdfbatch/pkg/schedule"
	"github.com/jdziat/pdfbatch/pkg/security"
	"github.com/jdziat/pdfbatch/pkg/storage"
	"github.com/jdziat/pdfbatch/pkg/worker"
)

type (
	// Job is one requested batch operation.
	Job = core.Job

	// Kind identifies the operation a job performs.
	Kind = core.Kind

	// JobStatus represents the current state of a job.
	JobStatus = core.JobStatus

	// Settings holds operation specific job settings.
	Settings = core.Settings

	// Run records one processing run over a batch queue.
	Run = core.Run

	// Summary is the outcome of a run.
	Summary = core.Summary

	// Storage defines the persistence layer for batch history.
	Storage = core.Storage

	// Event is the interface for all batch events.
	Event = core.Event

	BatchStarted    = core.BatchStarted
	JobStarted      = core.JobStarted
	ItemProgress    = core.ItemProgress
	OverallProgress = core.OverallProgress
	JobCompleted    = core.JobCompleted
	JobFailed       = core.JobFailed
	JobRetrying     = core.JobRetrying
	JobCancelled    = core.JobCancelled
	BatchDone       = core.BatchDone

	// NoRetryError marks an error that must not be retried.
	NoRetryError = core.NoRetryError

	// ValidationError lists every file refused at submission.
	ValidationError = core.ValidationError

	// FileFailure is one entry of a ValidationError.
	FileFailure = core.FileFailure

	// Batch validates submissions and owns the queue, hooks and event stream.
	Batch = batch.Batch

	// BatchOption configures a Batch.
	BatchOption = batch.Option

	// JobOption configures a submitted job.
	JobOption = batch.JobOption

	// Request is one job of a multi-job submission.
	Request = batch.Request

	// Validator checks an input file before it is accepted.
	Validator = batch.Validator

	// Handler performs the operation of one job kind.
	Handler = handlers.Handler

	// HandlerFunc adapts a function to Handler.
	HandlerFunc = handlers.HandlerFunc

	// JobQueue is the ordered job container consumed by the worker.
	JobQueue = queue.JobQueue

	// MemoryQueue is the in-process JobQueue.
	MemoryQueue = queue.Memory

	// Worker is the single background consumer of a batch queue.
	Worker = worker.Worker

	// WorkerOption configures a Worker.
	WorkerOption = worker.WorkerOption

	// Engine is the PDF library collaborator used by the built-in handlers.
	Engine = pdf.Engine

	// Permissions are the document permissions applied by the encrypt operation.
	Permissions = pdf.Permissions

	// Schedule defines when a recurring batch runs next.
	Schedule = schedule.Schedule

	// GormStorage implements Storage using GORM.
	GormStorage = storage.GormStorage

	// GormQueue is a JobQueue kept in the database.
	GormQueue = storage.GormQueue

	// Manifest is a parsed YAML batch description.
	Manifest = manifest.Manifest
)

// Operation kinds
const (
	KindCombine   = core.KindCombine
	KindSplit     = core.KindSplit
	KindWatermark = core.KindWatermark
	KindEncrypt   = core.KindEncrypt
	KindCompress  = core.KindCompress
)

// Status constants
const (
	StatusPending    = core.StatusPending
	StatusProcessing = core.StatusProcessing
	StatusCompleted  = core.StatusCompleted
	StatusFailed     = core.StatusFailed
	StatusCancelled  = core.StatusCancelled
)

// Database drivers accepted by OpenDB
const (
	DriverSQLite   = storage.DriverSQLite
	DriverPostgres = storage.DriverPostgres
)

// Limits
const (
	DefaultMaxRetries     = core.DefaultMaxRetries
	MaxRetries            = security.MaxRetries
	MaxInputsPerJob       = security.MaxInputsPerJob
	MaxErrorMessageLength = security.MaxErrorMessageLength
)

// Error variables
var (
	ErrUnknownKind     = core.ErrUnknownKind
	ErrNoHandler       = core.ErrNoHandler
	ErrNoInputs        = core.ErrNoInputs
	ErrNoOutputDir     = core.ErrNoOutputDir
	ErrFileNotFound    = core.ErrFileNotFound
	ErrInvalidSettings = core.ErrInvalidSettings
	ErrCancelled       = core.ErrCancelled
	ErrJobNotFound     = core.ErrJobNotFound
	ErrRunNotFound     = core.ErrRunNotFound

	ErrNotPDF      = pdf.ErrNotPDF
	ErrEncrypted   = pdf.ErrEncrypted
	ErrUnreadable  = pdf.ErrUnreadable
	ErrNoPages     = pdf.ErrNoPages
	ErrCorruptFile = pdf.ErrCorruptFile
)

// New creates a batch over an in-memory queue with every built-in handler
// registered against the pdfcpu engine.
func New(opts ...BatchOption) *Batch {
	return NewWithQueue(queue.NewMemory(), opts...)
}

// NewWithQueue creates a batch over q with every built-in handler registered.
func NewWithQueue(q JobQueue, opts ...BatchOption) *Batch {
	b := batch.New(q, opts...)
	handlers.Register(b, pdf.NewEngine())
	return b
}

// NewDurable creates a batch whose queue is stored in db under batchID.
// Jobs left behind by an interrupted run are put back at the front.
func NewDurable(ctx context.Context, db *gorm.DB, batchID string, opts ...BatchOption) (*Batch, error) {
	q := storage.NewGormQueue(db, batchID)
	if _, err := q.Recover(ctx); err != nil {
		return nil, err
	}
	return NewWithQueue(q, append([]BatchOption{batch.WithID(batchID)}, opts...)...), nil
}

// NewMemoryQueue creates an empty in-process queue.
func NewMemoryQueue() *MemoryQueue {
	return queue.NewMemory()
}

// NewWorker creates the consumer for b.
func NewWorker(b *Batch, opts ...WorkerOption) *Worker {
	return worker.NewWorker(b, opts...)
}

// OpenDB connects to a history database. An empty SQLite DSN uses pdfbatch.db.
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	return storage.Open(driver, dsn, false)
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return storage.NewGormStorage(db)
}

// NewGormQueue creates a database queue for batchID.
func NewGormQueue(db *gorm.DB, batchID string) *GormQueue {
	return storage.NewGormQueue(db, batchID)
}

// NewEngine returns the pdfcpu-backed Engine.
func NewEngine() Engine {
	return pdf.NewEngine()
}

// DefaultPermissions allows printing, copying and annotation but not modification.
func DefaultPermissions() Permissions {
	return pdf.DefaultPermissions()
}

// RegisterHandlers registers the built-in handlers of engine with b,
// replacing any registered before.
func RegisterHandlers(b *Batch, engine Engine) {
	handlers.Register(b, engine)
}

// LoadManifest reads a YAML batch description.
func LoadManifest(path string) (*Manifest, error) {
	return manifest.Load(path)
}

// WithLogger sets the batch logger.
func WithLogger(l zerolog.Logger) BatchOption { return batch.WithLogger(l) }

// WithValidator replaces the input file validator.
func WithValidator(v Validator) BatchOption { return batch.WithValidator(v) }

// WithStorage records job and run history in s.
func WithStorage(s Storage) BatchOption { return batch.WithStorage(s) }

// WithDefaultRetries sets the retry budget of jobs submitted without Retries.
func WithDefaultRetries(n int) BatchOption { return batch.WithDefaultRetries(n) }

// WithDefaultOutputDir sets the output directory of jobs submitted without one.
func WithDefaultOutputDir(dir string) BatchOption { return batch.WithDefaultOutputDir(dir) }

// WithID sets the batch identifier.
func WithID(id string) BatchOption { return batch.WithID(id) }

// Retries sets a job's retry budget.
func Retries(n int) JobOption { return batch.Retries(n) }

// WithSettings merges operation settings into a job.
func WithSettings(s map[string]any) JobOption { return batch.Settings(s) }

// WithSetting sets one operation setting of a job.
func WithSetting(key string, value any) JobOption { return batch.Setting(key, value) }

// WithRetryDelay waits d before a failed job is attempted again.
func WithRetryDelay(d time.Duration) WorkerOption { return worker.WithRetryDelay(d) }

// WithWorkerLogger sets the worker logger.
func WithWorkerLogger(l zerolog.Logger) WorkerOption { return worker.WithLogger(l) }

// NoRetry wraps an error so the job fails without further attempts.
func NoRetry(err error) error {
	return core.NoRetry(err)
}

// IsCancelled reports whether err is a cancellation outcome.
func IsCancelled(err error) bool {
	return core.IsCancelled(err)
}

// Checkpoint returns ErrCancelled when cancellation has been requested for
// the running job. Handlers call it between units of work.
func Checkpoint(ctx context.Context) error {
	return jobctx.Checkpoint(ctx)
}

// ReportItem reports progress within the running job.
func ReportItem(ctx context.Context, label string, percent int) {
	jobctx.ReportItem(ctx, label, percent)
}

// JobFromContext returns the running job, or nil outside a handler.
func JobFromContext(ctx context.Context) *Job {
	return jobctx.JobFromContext(ctx)
}

// JobLogger returns the logger of the running job.
func JobLogger(ctx context.Context) *zerolog.Logger {
	return jobctx.Logger(ctx)
}

// Every returns a schedule that fires every d.
func Every(d time.Duration) Schedule { return schedule.Every(d) }

// Daily returns a schedule that fires once a day at hour:minute.
func Daily(hour, minute int) Schedule { return schedule.Daily(hour, minute) }

// Weekly returns a schedule that fires once a week.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return schedule.Weekly(day, hour, minute)
}

// Cron parses a cron expression.
func Cron(expr string) (Schedule, error) { return schedule.Cron(expr) }

// RunEvery processes a fresh batch from build at every slot of s until ctx
// ends. Errors from build are logged and the next slot is awaited.
func RunEvery(ctx context.Context, s Schedule, logger zerolog.Logger, build func(context.Context) (*Batch, error), opts ...WorkerOption) error {
	return schedule.Loop(ctx, s, logger, func(ctx context.Context) error {
		b, err := build(ctx)
		if err != nil {
			return err
		}
		NewWorker(b, opts...).Run(ctx)
		return nil
	})
}

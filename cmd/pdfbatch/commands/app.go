package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/jdziat/pdfbatch/pkg/batch"
	"github.com/jdziat/pdfbatch/pkg/config"
	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/handlers"
	"github.com/jdziat/pdfbatch/pkg/observer"
	"github.com/jdziat/pdfbatch/pkg/pdf"
	"github.com/jdziat/pdfbatch/pkg/queue"
	"github.com/jdziat/pdfbatch/pkg/storage"
	"github.com/jdziat/pdfbatch/pkg/worker"
)

var (
	errJobsFailed  = errors.New("jobs failed")
	errQueueLocked = errors.New("queue is in use by another pdfbatch process")
)

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg       config.Config
	logger    zerolog.Logger
	engine    pdf.Engine
	validator batch.Validator
}

// display selects the observers attached to a run.
type display struct {
	progress bool
	events   bool
}

func bindDisplayFlags(cmd *cobra.Command, d *display) {
	cmd.Flags().BoolVar(&d.progress, "progress", false, "Show a progress bar")
	cmd.Flags().BoolVar(&d.events, "events", false, "Log every batch event")
}

// history is an open history database.
type history struct {
	db    *gorm.DB
	store *storage.GormStorage
}

func (h *history) Close() {
	if h != nil {
		_ = storage.Close(h.db)
	}
}

// openHistory connects to the configured database and migrates it. It returns
// nil when storage is disabled.
func (a *app) openHistory(ctx context.Context) (*history, error) {
	if !a.cfg.Storage.Enabled {
		return nil, nil
	}
	db, err := storage.Open(a.cfg.Storage.Driver, a.cfg.Storage.DSN, a.logger.GetLevel() <= zerolog.TraceLevel)
	if err != nil {
		return nil, err
	}
	store := storage.NewGormStorage(db)
	if err := store.Migrate(ctx); err != nil {
		_ = storage.Close(db)
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return &history{db: db, store: store}, nil
}

// lockPath names the lock file guarding the durable queue.
func (a *app) lockPath() string {
	driver := strings.ToLower(a.cfg.Storage.Driver)
	if strings.HasPrefix(driver, "p") {
		return filepath.Join(os.TempDir(), "pdfbatch-queue.lock")
	}
	dsn := strings.TrimPrefix(a.cfg.Storage.DSN, "file:")
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		dsn = dsn[:i]
	}
	return dsn + ".lock"
}

// lockQueue takes the exclusive lock on the durable queue without waiting.
func (a *app) lockQueue() (*flock.Flock, error) {
	path := a.lockPath()
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", errQueueLocked, path)
	}
	return lock, nil
}

// newBatch creates a batch with every built-in handler registered.
func (a *app) newBatch(q queue.JobQueue, h *history, opts ...batch.Option) *batch.Batch {
	base := []batch.Option{
		batch.WithLogger(a.logger),
		batch.WithValidator(a.validator),
		batch.WithDefaultRetries(a.cfg.Batch.MaxRetries),
		batch.WithDefaultOutputDir(a.cfg.Batch.OutputDir),
	}
	if h != nil {
		base = append(base, batch.WithStorage(h.store))
	}
	b := batch.New(q, append(base, opts...)...)
	handlers.Register(b, a.engine)
	return b
}

// queueFor returns the durable queue of batchID when durable is set and a
// memory queue otherwise.
func (a *app) queueFor(h *history, durable bool, batchID string) (queue.JobQueue, error) {
	if !durable {
		return queue.NewMemory(), nil
	}
	if h == nil {
		return nil, errors.New("--durable needs the history database; remove --no-storage")
	}
	return storage.NewGormQueue(h.db, batchID), nil
}

// execute runs the worker over b until the queue is empty or the run is
// cancelled, then prints the summary. The first interrupt requests
// cancellation at the next checkpoint; a second one cancels ctx.
func (a *app) execute(ctx context.Context, cmd *cobra.Command, b *batch.Batch, d display) (core.Summary, error) {
	sub := observer.Subscribe(b)
	defer sub.Close()

	var observers []observer.Observer
	if d.events {
		observers = append(observers, observer.NewLog(a.logger))
	}
	if d.progress {
		observers = append(observers, observer.NewProgressBar(cmd.ErrOrStderr()))
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		sub.Run(watchCtx, observers...)
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := onInterrupt(a.logger, b.RequestCancellation, cancel)
	defer stop()

	w := worker.NewWorker(b,
		worker.WithLogger(a.logger),
		worker.WithRetryDelay(a.cfg.Batch.RetryDelay),
	)
	summary := w.Run(runCtx)

	stopWatch()
	<-watched

	if err := observer.RenderSummary(cmd.OutOrStdout(), summary); err != nil {
		return summary, err
	}
	if summary.Failed > 0 {
		return summary, fmt.Errorf("%w: %d of %d", errJobsFailed, summary.Failed, summary.Total)
	}
	return summary, nil
}

// onInterrupt calls first on the first SIGINT or SIGTERM and second on any
// further one. The returned function stops listening.
func onInterrupt(logger zerolog.Logger, first, second func()) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		count := 0
		for {
			select {
			case <-done:
				return
			case sig := <-sigs:
				count++
				if count == 1 {
					logger.Warn().Str("signal", sig.String()).Msg("cancellation requested, finishing current step")
					first()
					continue
				}
				logger.Warn().Str("signal", sig.String()).Msg("stopping now")
				second()
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

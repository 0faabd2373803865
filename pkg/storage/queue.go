package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/queue"
)

// GormQueue is a durable queue.JobQueue. Queued jobs are rows of the jobs
// table with a non-null queue_pos, ordered ascending, scoped to one batch.
type GormQueue struct {
	db      *gorm.DB
	batchID string
}

// NewGormQueue creates a durable queue for batchID. The jobs table must
// exist; see GormStorage.Migrate.
func NewGormQueue(db *gorm.DB, batchID string) *GormQueue {
	return &GormQueue{db: db, batchID: batchID}
}

// BatchID returns the batch the queue is scoped to.
func (q *GormQueue) BatchID() string { return q.batchID }

func (q *GormQueue) queued(tx *gorm.DB) *gorm.DB {
	return tx.Model(&core.Job{}).
		Where("batch_id = ?", q.batchID).
		Where("queue_pos IS NOT NULL")
}

// Enqueue appends a job to the back.
func (q *GormQueue) Enqueue(ctx context.Context, job *core.Job) error {
	return q.place(ctx, job, "MAX(queue_pos) + 1")
}

// EnqueueAll appends jobs to the back in one transaction. If any job
// cannot be stored none of them is queued.
func (q *GormQueue) EnqueueAll(ctx context.Context, jobs []*core.Job) error {
	for _, job := range jobs {
		if err := q.claim(job); err != nil {
			return err
		}
	}
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := q.position(tx, "MAX(queue_pos) + 1")
		if err != nil {
			return err
		}
		for i, job := range jobs {
			pos := next + int64(i)
			job.QueuePos = &pos
			if err := tx.Save(job).Error; err != nil {
				return fmt.Errorf("queue job %s: %w", job.ID, err)
			}
		}
		return nil
	})
}

// RequeueFront puts a job back at the front.
func (q *GormQueue) RequeueFront(ctx context.Context, job *core.Job) error {
	return q.place(ctx, job, "MIN(queue_pos) - 1")
}

// place stores job at the position computed by expr, or 0 when the queue is empty.
func (q *GormQueue) place(ctx context.Context, job *core.Job, expr string) error {
	if err := q.claim(job); err != nil {
		return err
	}
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := q.position(tx, expr)
		if err != nil {
			return err
		}
		job.QueuePos = &next
		return tx.Save(job).Error
	})
}

// claim scopes job to the queue's batch.
func (q *GormQueue) claim(job *core.Job) error {
	if job.BatchID == "" {
		job.BatchID = q.batchID
	}
	if job.BatchID != q.batchID {
		return fmt.Errorf("job %s belongs to batch %s, not %s", job.ID, job.BatchID, q.batchID)
	}
	return nil
}

// position evaluates expr over the queued rows, or 0 when none are queued.
func (q *GormQueue) position(tx *gorm.DB, expr string) (int64, error) {
	var pos sql.NullInt64
	if err := q.queued(tx).Select(expr).Row().Scan(&pos); err != nil {
		return 0, err
	}
	if !pos.Valid {
		return 0, nil
	}
	return pos.Int64, nil
}

// DequeueFront removes and returns the front job, or nil when empty. The
// row is marked processing in the same transaction so Recover finds it if
// the process dies before the job is finished.
func (q *GormQueue) DequeueFront(ctx context.Context) (*core.Job, error) {
	var job core.Job
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("batch_id = ?", q.batchID).
			Where("queue_pos IS NOT NULL").
			Order("queue_pos ASC").
			First(&job)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return nil
			}
			return result.Error
		}
		job.QueuePos = nil
		job.Status = core.StatusProcessing
		return tx.Model(&core.Job{}).Where("id = ?", job.ID).Updates(map[string]any{
			"queue_pos": nil,
			"status":    core.StatusProcessing,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	if job.ID == "" {
		return nil, nil
	}
	return &job, nil
}

// IsEmpty reports whether the queue holds no jobs.
func (q *GormQueue) IsEmpty(ctx context.Context) (bool, error) {
	n, err := q.Len(ctx)
	return n == 0, err
}

// Len returns the number of queued jobs.
func (q *GormQueue) Len(ctx context.Context) (int, error) {
	var n int64
	err := q.queued(q.db.WithContext(ctx)).Count(&n).Error
	return int(n), err
}

// Recover puts jobs left processing by a crashed run, and jobs stopped by
// cancellation, back at the front of the queue in their original order.
// It returns the number of jobs recovered.
func (q *GormQueue) Recover(ctx context.Context) (int, error) {
	var stranded []*core.Job
	err := q.db.WithContext(ctx).
		Where("batch_id = ?", q.batchID).
		Where("queue_pos IS NULL").
		Where("status IN ?", []core.JobStatus{core.StatusProcessing, core.StatusCancelled}).
		Order("created_at DESC, id DESC").
		Find(&stranded).Error
	if err != nil {
		return 0, err
	}
	for _, job := range stranded {
		job.Status = core.StatusPending
		job.StartedAt = nil
		job.FinishedAt = nil
		if err := q.RequeueFront(ctx, job); err != nil {
			return 0, fmt.Errorf("recover job %s: %w", job.ID, err)
		}
	}
	return len(stranded), nil
}

var _ queue.JobQueue = (*GormQueue)(nil)

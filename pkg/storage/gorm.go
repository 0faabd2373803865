package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/security"
)

// lifecycleColumns are the job columns the worker changes between attempts.
var lifecycleColumns = []string{
	"status", "last_error", "retry_count", "outputs",
	"started_at", "finished_at", "updated_at",
}

// GormStorage implements core.Storage using GORM.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// DB returns the underlying connection.
func (s *GormStorage) DB() *gorm.DB { return s.db }

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&core.Job{}, &core.Run{})
}

// SaveJob inserts the job or updates its lifecycle columns. The durable
// queue position is never touched here.
func (s *GormStorage) SaveJob(ctx context.Context, job *core.Job) error {
	job.LastError = security.SanitizeErrorMessage(job.LastError)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(lifecycleColumns),
		}).
		Create(job).Error
}

// GetJob retrieves a job by ID.
func (s *GormStorage) GetJob(ctx context.Context, jobID string) (*core.Job, error) {
	var job core.Job
	err := s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJobsByBatch retrieves every job of a batch in submission order.
func (s *GormStorage) GetJobsByBatch(ctx context.Context, batchID string) ([]*core.Job, error) {
	var jobList []*core.Job
	err := s.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC, id ASC").
		Find(&jobList).Error
	return jobList, err
}

// GetJobsByStatus retrieves jobs by status, most recent first.
func (s *GormStorage) GetJobsByStatus(ctx context.Context, status core.JobStatus, limit int) ([]*core.Job, error) {
	var jobList []*core.Job
	q := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&jobList).Error
	return jobList, err
}

// CreateRun records the start of a run.
func (s *GormStorage) CreateRun(ctx context.Context, run *core.Run) error {
	return s.db.WithContext(ctx).Create(run).Error
}

// FinishRun stores the final counters of a run.
func (s *GormStorage) FinishRun(ctx context.Context, run *core.Run) error {
	result := s.db.WithContext(ctx).
		Model(&core.Run{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"total":         run.Total,
			"completed":     run.Completed,
			"failed":        run.Failed,
			"cancelled":     run.Cancelled,
			"not_attempted": run.NotAttempted,
			"interrupted":   run.Interrupted,
			"finished_at":   run.FinishedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrRunNotFound
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *GormStorage) GetRun(ctx context.Context, runID string) (*core.Run, error) {
	var run core.Run
	err := s.db.WithContext(ctx).First(&run, "id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (s *GormStorage) ListRuns(ctx context.Context, limit int) ([]*core.Run, error) {
	var runs []*core.Run
	q := s.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&runs).Error
	return runs, err
}

var _ core.Storage = (*GormStorage)(nil)

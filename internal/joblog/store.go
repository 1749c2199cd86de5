// Package joblog implements the Job Log Store: the durable per-job
// lifecycle row described in spec §4.8 and §3 "Job Log Row".
package joblog

import (
	"context"
	"fmt"

	"mediascribe/internal/models"

	"gorm.io/gorm"
)

// Store is the durable row store indexed by job_id. Only two write
// operations exist: Insert at LOG_OPEN and Update at any subsequent stage.
// Concurrent updates to the same job_id do not occur by construction, since
// each job has a single owning Worker.
type Store struct {
	db *gorm.DB
}

// New wraps a gorm.DB connection as a Job Log Store.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Insert creates the row for a job. Called once, at LOG_OPEN.
func (s *Store) Insert(ctx context.Context, row *models.JobLogRow) error {
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("joblog: insert %s: %w", row.JobID, err)
	}
	return nil
}

// Update applies a field-wise merge onto the row for jobID. fields keys must
// match gorm column names or struct field names.
func (s *Store) Update(ctx context.Context, jobID string, fields map[string]interface{}) error {
	err := s.db.WithContext(ctx).
		Model(&models.JobLogRow{}).
		Where("job_id = ?", jobID).
		Updates(fields).Error
	if err != nil {
		return fmt.Errorf("joblog: update %s: %w", jobID, err)
	}
	return nil
}

// Get returns the row for jobID.
func (s *Store) Get(ctx context.Context, jobID string) (*models.JobLogRow, error) {
	var row models.JobLogRow
	if err := s.db.WithContext(ctx).Where("job_id = ?", jobID).First(&row).Error; err != nil {
		return nil, fmt.Errorf("joblog: get %s: %w", jobID, err)
	}
	return &row, nil
}

// ListByStatus returns all rows currently in the given status, used by the
// Job Queue's crash-recovery rescan.
func (s *Store) ListByStatus(ctx context.Context, status models.JobStatus) ([]models.JobLogRow, error) {
	var rows []models.JobLogRow
	err := s.db.WithContext(ctx).Where("status = ?", status).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("joblog: list by status %s: %w", status, err)
	}
	return rows, nil
}

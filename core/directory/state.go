package directory

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GormState implements StateService with one transaction per transition.
type GormState struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormState creates a state service over db.
func NewGormState(db *gorm.DB) *GormState {
	return &GormState{db: db, now: time.Now}
}

// MarkJobFailed sets the job to error with message and records the failure on
// the connector. Jobs that already left in_progress are left untouched and
// ErrJobNotInProgress is returned.
func (s *GormState) MarkJobFailed(ctx context.Context, connector *Connector, job *SyncJob, message string) error {
	now := s.now().UTC()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&SyncJob{}).
			Where("id = ? AND status = ?", job.ID, JobStatusInProgress).
			Updates(map[string]any{
				"status":       JobStatusError,
				"error":        message,
				"completed_at": now,
				"last_seen":    now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update job %s: %w", job.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrJobNotInProgress
		}

		err := tx.Model(&Connector{}).
			Where("id = ?", connector.ID).
			Updates(map[string]any{
				"last_sync_status": JobStatusError,
				"last_sync_error":  message,
				"last_synced":      now,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update connector %s: %w", connector.ID, err)
		}
		return nil
	})
}

// Migrate creates or updates the registry tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Connector{}, &SyncJob{})
}

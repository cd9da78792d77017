package directory

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"gorm.io/gorm"
)

// deleteBatchSize bounds the IN clause of bulk deletions.
const deleteBatchSize = 500

// GormJobs implements SyncJobDirectory on top of a gorm database.
type GormJobs struct {
	db       *gorm.DB
	indices  IndexDeleter
	pageSize int
	life     *lifecycle
}

// NewGormJobs creates a sync-job directory. indices may be nil when content
// indices are not managed by this deployment.
func NewGormJobs(db *gorm.DB, indices IndexDeleter, pageSize int) *GormJobs {
	return &GormJobs{db: db, indices: indices, pageSize: pageSize, life: newLifecycle()}
}

// OrphanedJobs yields jobs whose connector id is absent from connectorIDs.
// An empty id set makes every job an orphan.
func (d *GormJobs) OrphanedJobs(ctx context.Context, connectorIDs []string) iter.Seq2[*SyncJob, error] {
	return d.page(ctx, func(tx *gorm.DB) *gorm.DB {
		if len(connectorIDs) == 0 {
			return tx
		}
		return tx.Where("connector_id NOT IN ?", connectorIDs)
	})
}

// StuckJobs yields in-progress jobs of the given connectors whose last update is older than idleSince.
func (d *GormJobs) StuckJobs(ctx context.Context, connectorIDs []string, idleSince time.Time) iter.Seq2[*SyncJob, error] {
	if len(connectorIDs) == 0 {
		return func(func(*SyncJob, error) bool) {}
	}

	return d.page(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("connector_id IN ? AND status = ? AND last_seen < ?", connectorIDs, JobStatusInProgress, idleSince)
	})
}

// DeleteJobs removes the given jobs in batches. A failing batch is reported
// in Failures and the remaining batches are still attempted.
func (d *GormJobs) DeleteJobs(ctx context.Context, jobIDs []string) (DeleteResult, error) {
	result := DeleteResult{Total: len(jobIDs), Failures: []DeleteFailure{}}

	qctx, done, err := d.life.bind(ctx)
	if err != nil {
		return result, err
	}
	defer done()

	for start := 0; start < len(jobIDs); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(jobIDs))
		batch := jobIDs[start:end]

		res := d.db.WithContext(qctx).Where("id IN ?", batch).Delete(&SyncJob{})
		if res.Error != nil {
			if errors.Is(d.life.translate(res.Error), ErrStopped) {
				return result, ErrStopped
			}
			for _, id := range batch {
				result.Failures = append(result.Failures, DeleteFailure{JobID: id, Reason: res.Error.Error()})
			}
			continue
		}
		result.Deleted += int(res.RowsAffected)
	}

	return result, nil
}

// DeleteIndices forwards to the configured index store.
func (d *GormJobs) DeleteIndices(ctx context.Context, indexNames []string) error {
	if d.indices == nil || len(indexNames) == 0 {
		return nil
	}

	qctx, done, err := d.life.bind(ctx)
	if err != nil {
		return err
	}
	defer done()

	if err := d.indices.DeleteIndices(qctx, indexNames); err != nil {
		return fmt.Errorf("failed to delete indices: %w", d.life.translate(err))
	}
	return nil
}

// StopWaiting aborts every in-flight query.
func (d *GormJobs) StopWaiting() {
	d.life.stopWaiting()
}

// Close releases the directory. The shared database handle stays open.
func (d *GormJobs) Close(ctx context.Context) error {
	d.life.close()
	return nil
}

func (d *GormJobs) page(ctx context.Context, scope func(tx *gorm.DB) *gorm.DB) iter.Seq2[*SyncJob, error] {
	load := func(qctx context.Context, afterID string, limit int) ([]*SyncJob, error) {
		var rows []*SyncJob
		tx := scope(d.db.WithContext(qctx).Model(&SyncJob{}))
		if afterID != "" {
			tx = tx.Where("id > ?", afterID)
		}
		if err := tx.Order("id").Limit(limit).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list sync jobs: %w", err)
		}
		return rows, nil
	}
	return paginate(ctx, d.life, d.pageSize, load, func(j *SyncJob) string { return j.ID })
}

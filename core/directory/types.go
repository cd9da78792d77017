package directory

import (
	"errors"
	"slices"
	"time"

	"connector-service/core/utils"
)

var (
	// ErrConnectorNotFound is returned by FetchByID for unknown ids.
	ErrConnectorNotFound = errors.New("connector not found")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("directory closed")
	// ErrStopped is returned once StopWaiting has aborted the directory.
	ErrStopped = errors.New("directory stopped waiting")
	// ErrJobNotInProgress is returned by MarkJobFailed when the job already left in_progress.
	ErrJobNotInProgress = errors.New("job is no longer in progress")
)

// JobStatus is the lifecycle state of a sync job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusSuspended  JobStatus = "suspended"
	JobStatusCanceled   JobStatus = "canceled"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusError      JobStatus = "error"
)

// Connector is a configured connector as stored in the registry.
type Connector struct {
	ID          string `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	ServiceType string `gorm:"column:service_type;type:varchar(64);index" json:"service_type"`
	IsNative    bool   `gorm:"column:is_native" json:"is_native"`
	IndexName   string `gorm:"column:index_name;type:varchar(255)" json:"index_name"`
	// Configuration values are either raw or field objects carrying a "value" key.
	Configuration  map[string]any `gorm:"column:configuration;type:text;serializer:json" json:"configuration"`
	LastSyncStatus JobStatus      `gorm:"column:last_sync_status;type:varchar(32)" json:"last_sync_status,omitempty"`
	LastSyncError  string         `gorm:"column:last_sync_error;type:text" json:"last_sync_error,omitempty"`
	LastSynced     *time.Time     `gorm:"column:last_synced" json:"last_synced,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name used by Connector.
func (Connector) TableName() string {
	return "connectors"
}

// Value returns the configured value for key, unwrapping field objects.
func (c *Connector) Value(key string) any {
	raw, ok := c.Configuration[key]
	if !ok {
		return nil
	}
	if field, ok := raw.(map[string]any); ok {
		return field["value"]
	}
	return raw
}

// DocumentLevelSecurity reports whether the connector asks for access-control decoration.
func (c *Connector) DocumentLevelSecurity() bool {
	v := c.Value("use_document_level_security")
	if v == nil {
		return false
	}
	return utils.ToBool(v)
}

// Supported reports whether the sweep is responsible for this connector:
// a native connector of an allowed type, or an explicitly listed id.
func (c *Connector) Supported(nativeServiceTypes, connectorIDs []string) bool {
	if c.IsNative && slices.Contains(nativeServiceTypes, c.ServiceType) {
		return true
	}
	return slices.Contains(connectorIDs, c.ID)
}

// SyncJob is one synchronisation run of a connector.
type SyncJob struct {
	ID          string    `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	ConnectorID string    `gorm:"column:connector_id;type:varchar(64);index" json:"connector_id"`
	IndexName   string    `gorm:"column:index_name;type:varchar(255)" json:"index_name"`
	Status      JobStatus `gorm:"column:status;type:varchar(32);index" json:"status"`
	Error       string    `gorm:"column:error;type:text" json:"error,omitempty"`
	// LastSeen is the time of the last status update.
	LastSeen    time.Time  `gorm:"column:last_seen;index" json:"last_seen"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

// TableName overrides the table name used by SyncJob.
func (SyncJob) TableName() string {
	return "sync_jobs"
}

// DeleteFailure describes a job that could not be deleted.
type DeleteFailure struct {
	JobID  string `json:"job_id"`
	Reason string `json:"reason"`
}

// DeleteResult summarises a bulk deletion.
type DeleteResult struct {
	Deleted  int             `json:"deleted"`
	Total    int             `json:"total"`
	Failures []DeleteFailure `json:"failures"`
}

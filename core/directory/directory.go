package directory

import (
	"context"
	"iter"
	"time"
)

// ConnectorDirectory gives paginated, lazy access to the connector registry.
type ConnectorDirectory interface {
	// AllConnectors yields every registered connector.
	AllConnectors(ctx context.Context) iter.Seq2[*Connector, error]
	// SupportedConnectors yields native connectors of the given types and the listed ids.
	SupportedConnectors(ctx context.Context, nativeServiceTypes, connectorIDs []string) iter.Seq2[*Connector, error]
	// FetchByID returns ErrConnectorNotFound when the id is unknown.
	FetchByID(ctx context.Context, id string) (*Connector, error)
	// StopWaiting aborts in-flight and future waits on the registry.
	StopWaiting()
	Close(ctx context.Context) error
}

// SyncJobDirectory gives paginated, lazy access to the sync-job registry.
type SyncJobDirectory interface {
	// OrphanedJobs yields jobs whose connector id is not in connectorIDs.
	OrphanedJobs(ctx context.Context, connectorIDs []string) iter.Seq2[*SyncJob, error]
	// StuckJobs yields in-progress jobs of the given connectors not updated since idleSince.
	StuckJobs(ctx context.Context, connectorIDs []string, idleSince time.Time) iter.Seq2[*SyncJob, error]
	DeleteJobs(ctx context.Context, jobIDs []string) (DeleteResult, error)
	// DeleteIndices removes the content indices written by deleted jobs.
	DeleteIndices(ctx context.Context, indexNames []string) error
	StopWaiting()
	Close(ctx context.Context) error
}

// StateService applies connector and job state transitions on behalf of other components.
type StateService interface {
	// MarkJobFailed moves an in-progress job to the error state and records it on the connector.
	// It returns ErrJobNotInProgress when the job changed state in the meantime.
	MarkJobFailed(ctx context.Context, connector *Connector, job *SyncJob, message string) error
}

// IndexDeleter removes content indices.
type IndexDeleter interface {
	DeleteIndices(ctx context.Context, names []string) error
}

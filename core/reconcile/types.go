package reconcile

import (
	"time"

	"connector-service/core/directory"
)

// StuckJobError is the message recorded on jobs the stuck sweep fails.
const StuckJobError = "job not updated for some time"

const (
	SweepOrphans = "orphans"
	SweepStuck   = "stuck"
)

// Config defines which connectors the engine looks after and how.
type Config struct {
	// Interval is the pause between two sweeps of the loop.
	Interval time.Duration
	// StuckThreshold is how long an in-progress job may go without an update.
	StuckThreshold time.Duration
	// NativeServiceTypes and ConnectorIDs select the connectors of the stuck sweep.
	NativeServiceTypes []string
	ConnectorIDs       []string
}

// Options tunes a single sweep.
type Options struct {
	// DryRun plans both sweeps without deleting or marking anything.
	DryRun      bool
	SkipOrphans bool
	SkipStuck   bool
}

// OrphanPlan lists what the orphan sweep is about to delete.
type OrphanPlan struct {
	JobIDs     []string `json:"job_ids"`
	IndexNames []string `json:"index_names"`
}

// OrphanReport is the outcome of the orphan sweep.
type OrphanReport struct {
	Deleted  int                       `json:"deleted"`
	Total    int                       `json:"total"`
	Indices  int                       `json:"indices"`
	Failures []directory.DeleteFailure `json:"failures"`
	DryRun   bool                      `json:"dry_run"`
}

// StuckReport is the outcome of the stuck sweep.
type StuckReport struct {
	Marked  int  `json:"marked"`
	Total   int  `json:"total"`
	Skipped int  `json:"skipped"`
	DryRun  bool `json:"dry_run"`
}

// Report groups the outcome of one reconciliation cycle.
type Report struct {
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Orphans    *OrphanReport     `json:"orphans,omitempty"`
	Stuck      *StuckReport      `json:"stuck,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

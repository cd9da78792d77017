package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connector-service/core/directory"
	"connector-service/core/metrics"

	"go.uber.org/zap"
)

// Engine runs the orphan and stuck sweeps against the registries.
type Engine struct {
	connectors directory.ConnectorDirectory
	jobs       directory.SyncJobDirectory
	state      directory.StateService
	cfg        Config
	logger     *zap.Logger
	now        func() time.Time
}

// NewEngine creates a sweep engine.
func NewEngine(connectors directory.ConnectorDirectory, jobs directory.SyncJobDirectory, state directory.StateService, cfg Config, logger *zap.Logger) *Engine {
	return &Engine{
		connectors: connectors,
		jobs:       jobs,
		state:      state,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// SweepStuck fails every in-progress job of a supported connector that has
// not been updated within the stuck threshold. Per-job failures are logged
// and skipped; only listing failures abort the sweep.
func (e *Engine) SweepStuck(ctx context.Context, opts Options) (*StuckReport, error) {
	var connectorIDs []string
	for c, err := range e.connectors.SupportedConnectors(ctx, e.cfg.NativeServiceTypes, e.cfg.ConnectorIDs) {
		if err != nil {
			return nil, fmt.Errorf("failed to list supported connectors: %w", err)
		}
		connectorIDs = append(connectorIDs, c.ID)
	}

	report := &StuckReport{DryRun: opts.DryRun}
	idleSince := e.now().Add(-e.cfg.StuckThreshold).UTC()

	for job, err := range e.jobs.StuckJobs(ctx, connectorIDs, idleSince) {
		if err != nil {
			return nil, fmt.Errorf("failed to list stuck jobs: %w", err)
		}
		report.Total++

		l := e.logger.With(zap.String("job_id", job.ID), zap.String("connector_id", job.ConnectorID))

		connector, err := e.connectors.FetchByID(ctx, job.ConnectorID)
		if err != nil {
			report.Skipped++
			if errors.Is(err, directory.ErrConnectorNotFound) {
				l.Warn("Could not find connector of stuck job")
			} else {
				l.Error("Failed to load connector of stuck job", zap.Error(err))
			}
			continue
		}

		if opts.DryRun {
			continue
		}

		if err := e.state.MarkJobFailed(ctx, connector, job, StuckJobError); err != nil {
			report.Skipped++
			if errors.Is(err, directory.ErrJobNotInProgress) {
				l.Info("Stuck job changed state before it could be marked")
			} else {
				l.Error("Failed to mark stuck job as failed", zap.Error(err))
			}
			continue
		}
		report.Marked++
		l.Info("Marked stuck job as failed")
	}

	if report.Total == 0 {
		e.logger.Debug("No stuck jobs found, skipping cleanup")
		return report, nil
	}

	metrics.StuckJobsMarked.Add(float64(report.Marked))
	e.logger.Info("Marked stuck jobs as failed",
		zap.Int("marked", report.Marked),
		zap.Int("total", report.Total),
		zap.Bool("dry_run", opts.DryRun),
	)
	return report, nil
}

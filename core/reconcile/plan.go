package reconcile

import (
	"context"
	"fmt"
	"slices"

	"connector-service/core/metrics"

	"go.uber.org/zap"
)

// PlanOrphans lists the jobs whose connector no longer exists and the
// distinct content indices they wrote to.
func (e *Engine) PlanOrphans(ctx context.Context) (*OrphanPlan, error) {
	var connectorIDs []string
	for c, err := range e.connectors.AllConnectors(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to list connectors: %w", err)
		}
		connectorIDs = append(connectorIDs, c.ID)
	}

	plan := &OrphanPlan{JobIDs: []string{}, IndexNames: []string{}}
	seen := make(map[string]struct{})
	for job, err := range e.jobs.OrphanedJobs(ctx, connectorIDs) {
		if err != nil {
			return nil, fmt.Errorf("failed to list orphaned jobs: %w", err)
		}
		plan.JobIDs = append(plan.JobIDs, job.ID)
		if job.IndexName == "" {
			continue
		}
		if _, dup := seen[job.IndexName]; !dup {
			seen[job.IndexName] = struct{}{}
			plan.IndexNames = append(plan.IndexNames, job.IndexName)
		}
	}
	slices.Sort(plan.IndexNames)

	return plan, nil
}

// ApplyOrphans deletes the planned indices and jobs. Index deletion is best
// effort: its failure is logged and the jobs are still deleted.
func (e *Engine) ApplyOrphans(ctx context.Context, plan *OrphanPlan) (*OrphanReport, error) {
	report := &OrphanReport{Total: len(plan.JobIDs), Indices: len(plan.IndexNames)}
	if len(plan.JobIDs) == 0 {
		return report, nil
	}

	if err := e.jobs.DeleteIndices(ctx, plan.IndexNames); err != nil {
		e.logger.Warn("Failed to delete content indices of orphaned jobs",
			zap.Strings("indices", plan.IndexNames),
			zap.Error(err),
		)
	}

	result, err := e.jobs.DeleteJobs(ctx, plan.JobIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to delete orphaned jobs: %w", err)
	}
	report.Deleted = result.Deleted
	report.Total = result.Total
	report.Failures = result.Failures

	metrics.OrphanJobsDeleted.Add(float64(result.Deleted))
	return report, nil
}

// SweepOrphans plans and, unless opts.DryRun, applies the orphan cleanup.
func (e *Engine) SweepOrphans(ctx context.Context, opts Options) (*OrphanReport, error) {
	plan, err := e.PlanOrphans(ctx)
	if err != nil {
		return nil, err
	}

	if len(plan.JobIDs) == 0 {
		e.logger.Debug("No orphaned jobs found, skipping cleanup")
		return &OrphanReport{DryRun: opts.DryRun}, nil
	}

	if opts.DryRun {
		e.logger.Info("Dry-run: orphaned jobs would be deleted",
			zap.Int("jobs", len(plan.JobIDs)),
			zap.Int("indices", len(plan.IndexNames)),
		)
		return &OrphanReport{Total: len(plan.JobIDs), Indices: len(plan.IndexNames), DryRun: true}, nil
	}

	report, err := e.ApplyOrphans(ctx, plan)
	if err != nil {
		return nil, err
	}

	if len(report.Failures) > 0 {
		e.logger.Error("Failed to delete some orphaned jobs",
			zap.Int("failures", len(report.Failures)),
			zap.Any("details", report.Failures),
		)
	}
	e.logger.Info("Deleted orphaned jobs",
		zap.Int("deleted", report.Deleted),
		zap.Int("total", report.Total),
	)
	return report, nil
}

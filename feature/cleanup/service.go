package cleanup

import (
	"context"
	"errors"

	"connector-service/core/reconcile"

	"go.uber.org/zap"
)

// ErrConflictingScope is returned when both sweeps are excluded.
var ErrConflictingScope = errors.New("orphans_only and stuck_only are mutually exclusive")

// Sweeper runs reconciliation cycles. *reconcile.Loop implements it.
type Sweeper interface {
	Sweep(ctx context.Context, opts reconcile.Options) (*reconcile.Report, error)
	LastReport() (*reconcile.Report, bool)
}

// Service triggers sweeps on demand.
type Service struct {
	sweeper Sweeper
	logger  *zap.Logger
}

// NewService creates a new cleanup service.
func NewService(sweeper Sweeper, logger *zap.Logger) *Service {
	return &Service{sweeper: sweeper, logger: logger}
}

// Run executes one sweep restricted to the requested scope.
func (s *Service) Run(ctx context.Context, dryRun, orphansOnly, stuckOnly bool) (*reconcile.Report, error) {
	if orphansOnly && stuckOnly {
		return nil, ErrConflictingScope
	}
	return s.sweeper.Sweep(ctx, reconcile.Options{
		DryRun:      dryRun,
		SkipOrphans: stuckOnly,
		SkipStuck:   orphansOnly,
	})
}

// Last returns the report of the most recent sweep.
func (s *Service) Last() (*reconcile.Report, bool) {
	return s.sweeper.LastReport()
}

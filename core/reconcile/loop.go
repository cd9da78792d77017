package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"connector-service/core/directory"
	"connector-service/core/logger"
	"connector-service/core/metrics"

	"go.uber.org/zap"
)

// IsFatalFunc decides whether a sweep failure must stop the loop.
type IsFatalFunc func(error) bool

// DefaultIsFatal treats cancellation and unusable registries as fatal and
// every other failure as spurious.
func DefaultIsFatal(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, directory.ErrClosed) ||
		errors.Is(err, directory.ErrStopped)
}

// Loop runs the sweeps periodically until stopped.
type Loop struct {
	engine   *Engine
	interval time.Duration
	isFatal  IsFatalFunc
	logger   *zap.Logger

	running atomic.Bool
	wake    chan struct{}

	// sweepMu serialises periodic and on-demand sweeps.
	sweepMu sync.Mutex
	mu      sync.RWMutex
	last    *Report
}

// NewLoop creates a loop. A nil isFatal uses DefaultIsFatal.
func NewLoop(engine *Engine, isFatal IsFatalFunc, logger *zap.Logger) *Loop {
	if isFatal == nil {
		isFatal = DefaultIsFatal
	}
	interval := engine.cfg.Interval
	if interval <= 0 {
		interval = 300 * time.Second
	}
	return &Loop{
		engine:   engine,
		interval: interval,
		isFatal:  isFatal,
		logger:   logger,
		wake:     make(chan struct{}, 1),
	}
}

// Run sweeps every interval until Stop is called, ctx ends or a sweep fails
// fatally. Both registries are always told to stop waiting and closed on exit.
func (l *Loop) Run(ctx context.Context) error {
	l.running.Store(true)
	defer l.shutdown(ctx)

	l.logger.Info("Reconciliation loop started", zap.Duration("interval", l.interval))
	for l.running.Load() {
		if _, err := l.Sweep(ctx, Options{}); err != nil {
			return err
		}
		if !l.sleep(ctx) {
			break
		}
	}
	l.logger.Info("Reconciliation loop stopped")
	return nil
}

// Stop asks the loop to exit at its next check and cuts the current sleep short.
func (l *Loop) Stop() {
	l.running.Store(false)
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Running reports whether Run is active.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Sweep runs one reconciliation cycle: the orphan sweep, then the stuck sweep,
// each within its own error boundary. A failing sweep is logged as critical
// and only returned when classified fatal.
func (l *Loop) Sweep(ctx context.Context, opts Options) (*Report, error) {
	l.sweepMu.Lock()
	defer l.sweepMu.Unlock()

	report := &Report{StartedAt: time.Now().UTC()}
	defer func() {
		report.FinishedAt = time.Now().UTC()
		l.mu.Lock()
		l.last = report
		l.mu.Unlock()
	}()

	if !opts.SkipOrphans {
		started := time.Now()
		orphans, err := l.engine.SweepOrphans(ctx, opts)
		metrics.ObserveSweep(SweepOrphans, started)
		if err != nil {
			if fatal := l.fail(report, SweepOrphans, err); fatal {
				return report, err
			}
		}
		report.Orphans = orphans
	}

	if !opts.SkipStuck {
		started := time.Now()
		stuck, err := l.engine.SweepStuck(ctx, opts)
		metrics.ObserveSweep(SweepStuck, started)
		if err != nil {
			if fatal := l.fail(report, SweepStuck, err); fatal {
				return report, err
			}
		}
		report.Stuck = stuck
	}

	return report, nil
}

// LastReport returns the report of the most recent sweep, if any.
func (l *Loop) LastReport() (*Report, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last, l.last != nil
}

func (l *Loop) fail(report *Report, sweep string, err error) bool {
	metrics.SweepFailures.WithLabelValues(sweep).Inc()
	logger.Critical(l.logger, "Reconciliation sweep failed", zap.String("sweep", sweep), zap.Error(err))

	if report.Errors == nil {
		report.Errors = make(map[string]string)
	}
	report.Errors[sweep] = err.Error()
	return l.isFatal(err)
}

func (l *Loop) sleep(ctx context.Context) bool {
	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-l.wake:
		return l.running.Load()
	case <-timer.C:
		return l.running.Load()
	}
}

func (l *Loop) shutdown(ctx context.Context) {
	l.running.Store(false)

	// The caller's context may already be cancelled at this point
	closeCtx := context.WithoutCancel(ctx)

	l.engine.connectors.StopWaiting()
	l.engine.jobs.StopWaiting()
	if err := l.engine.connectors.Close(closeCtx); err != nil {
		l.logger.Warn("Failed to close connector directory", zap.Error(err))
	}
	if err := l.engine.jobs.Close(closeCtx); err != nil {
		l.logger.Warn("Failed to close sync job directory", zap.Error(err))
	}
}
